// Package balances stores spendable native balances used by the host
// transfer service.
package balances

import (
	"fmt"

	"github.com/gaslane/go-gaslane/common/types"
	"github.com/gaslane/go-gaslane/sql"
)

// Get returns the native balance of an address. Unknown addresses hold 0.
func Get(db sql.Executor, address types.Address) (uint64, error) {
	var balance uint64
	_, err := db.Exec("select balance from balances where address = ?1;",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, address.Bytes())
		},
		func(stmt *sql.Statement) bool {
			balance = uint64(stmt.ColumnInt64(0))
			return false
		},
	)
	if err != nil {
		return 0, fmt.Errorf("get balance %v: %w", address, err)
	}
	return balance, nil
}

// Set upserts the native balance of an address. Balances above
// math.MaxInt64 wrap negative through sqlite's int64 column; the conversion
// back in Get is lossless.
func Set(db sql.Executor, address types.Address, balance uint64) error {
	_, err := db.Exec(`insert into balances (address, balance) values (?1, ?2)
		on conflict(address) do update set balance = ?2;`,
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, address.Bytes())
			stmt.BindInt64(2, int64(balance))
		}, nil,
	)
	if err != nil {
		return fmt.Errorf("set balance %v: %w", address, err)
	}
	return nil
}
