// Package ledgers stores the serialized ledger record per ledger account.
package ledgers

import (
	"fmt"

	"github.com/gaslane/go-gaslane/common/types"
	"github.com/gaslane/go-gaslane/sql"
)

// Has reports whether a ledger row exists for the address.
func Has(db sql.Executor, address types.Address) (bool, error) {
	rows, err := db.Exec("select 1 from ledgers where address = ?1;",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, address.Bytes())
		}, nil,
	)
	if err != nil {
		return false, fmt.Errorf("has ledger %v: %w", address, err)
	}
	return rows > 0, nil
}

// Get returns the stored record buffer for the address.
func Get(db sql.Executor, address types.Address) ([]byte, error) {
	var data []byte
	rows, err := db.Exec("select data from ledgers where address = ?1;",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, address.Bytes())
		},
		func(stmt *sql.Statement) bool {
			data = make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, data)
			return true
		},
	)
	if err != nil {
		return nil, fmt.Errorf("get ledger %v: %w", address, err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("%w: ledger %v", sql.ErrNotFound, address)
	}
	return data, nil
}

// Add inserts a fresh ledger row. Fails with sql.ErrObjectExists when the
// address already holds a ledger.
func Add(db sql.Executor, address types.Address, data []byte) error {
	_, err := db.Exec("insert into ledgers (address, data) values (?1, ?2);",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, address.Bytes())
			stmt.BindBytes(2, data)
		}, nil,
	)
	if err != nil {
		return fmt.Errorf("insert ledger %v: %w", address, err)
	}
	return nil
}

// Update overwrites the record buffer of an existing ledger row.
func Update(db sql.Executor, address types.Address, data []byte) error {
	_, err := db.Exec("update ledgers set data = ?2 where address = ?1;",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, address.Bytes())
			stmt.BindBytes(2, data)
		}, nil,
	)
	if err != nil {
		return fmt.Errorf("update ledger %v: %w", address, err)
	}
	return nil
}
