package ledgers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gaslane/go-gaslane/common/types"
	"github.com/gaslane/go-gaslane/sql"
)

const schema = `
CREATE TABLE ledgers
(
	address BLOB PRIMARY KEY,
	data    BLOB NOT NULL
);`

func TestLedgers(t *testing.T) {
	db := sql.InMemory(sql.WithSchema(schema))
	defer db.Close()

	address := types.GenerateAddress([]byte("ledger"))

	exists, err := Has(db, address)
	require.NoError(t, err)
	require.False(t, exists)

	_, err = Get(db, address)
	require.ErrorIs(t, err, sql.ErrNotFound)

	data := []byte{1, 2, 3, 4}
	require.NoError(t, Add(db, address, data))

	exists, err = Has(db, address)
	require.NoError(t, err)
	require.True(t, exists)

	stored, err := Get(db, address)
	require.NoError(t, err)
	require.Equal(t, data, stored)

	err = Add(db, address, data)
	require.ErrorIs(t, err, sql.ErrObjectExists)

	updated := []byte{9, 8, 7}
	require.NoError(t, Update(db, address, updated))
	stored, err = Get(db, address)
	require.NoError(t, err)
	require.Equal(t, updated, stored)
}
