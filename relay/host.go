package relay

import "github.com/gaslane/go-gaslane/common/types"

// Address is an alias to types.Address.
type Address = types.Address

// Account is the host-supplied view of one account referenced by an
// instruction. The host guarantees exclusive access to the backing Data
// buffer for the duration of one instruction.
type Account struct {
	Address Address
	// Signer reports whether the key holder signed the enclosing
	// transaction. Signature verification is the host's job.
	Signer bool
	// Data is the fixed-size backing buffer of the ledger record account.
	// Nil for accounts that only appear as transfer endpoints.
	Data []byte
}

//go:generate mockgen -typed -package=mocks -destination=./mocks/mocks.go -source=./host.go

// Transferer moves native funds between accounts. It is a single synchronous
// fallible call: either the transfer completed or it failed with no partial
// effects observable by the ledger.
type Transferer interface {
	Transfer(from, to Address, amount uint64) error
}

type accountIter struct {
	accounts []*Account
	index    int
}

func (it *accountIter) next() (*Account, error) {
	if it.index >= len(it.accounts) {
		return nil, ErrMissingAccount
	}
	account := it.accounts[it.index]
	it.index++
	return account, nil
}

// optional returns the next account or nil when the list is exhausted.
func (it *accountIter) optional() *Account {
	account, err := it.next()
	if err != nil {
		return nil
	}
	return account
}
