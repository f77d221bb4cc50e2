package balances

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gaslane/go-gaslane/common/types"
	"github.com/gaslane/go-gaslane/sql"
)

const schema = `
CREATE TABLE balances
(
	address BLOB PRIMARY KEY,
	balance INTEGER NOT NULL DEFAULT 0
);`

func TestBalances(t *testing.T) {
	db := sql.InMemory(sql.WithSchema(schema))
	defer db.Close()

	address := types.GenerateAddress([]byte("account"))

	balance, err := Get(db, address)
	require.NoError(t, err)
	require.EqualValues(t, 0, balance, "unknown addresses hold 0")

	require.NoError(t, Set(db, address, 500))
	balance, err = Get(db, address)
	require.NoError(t, err)
	require.EqualValues(t, 500, balance)

	// Set overwrites, it does not accumulate
	require.NoError(t, Set(db, address, 100))
	balance, err = Get(db, address)
	require.NoError(t, err)
	require.EqualValues(t, 100, balance)
}

func TestBalanceAboveMaxInt64(t *testing.T) {
	db := sql.InMemory(sql.WithSchema(schema))
	defer db.Close()

	address := types.GenerateAddress([]byte("whale"))
	require.NoError(t, Set(db, address, math.MaxUint64))
	balance, err := Get(db, address)
	require.NoError(t, err)
	require.EqualValues(t, uint64(math.MaxUint64), balance)
}
