// Package host provides the runtime wiring around the relay state machine:
// it loads the ledger account buffer from sqlite, assembles the positional
// account list, executes one instruction at a time and persists the result.
// It also implements the native transfer service on top of a balances table,
// with debit and credit applied in the same transaction as the instruction
// so no partial transfer is ever observable.
package host

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/gaslane/go-gaslane/common/types"
	"github.com/gaslane/go-gaslane/ledger"
	"github.com/gaslane/go-gaslane/relay"
	"github.com/gaslane/go-gaslane/sql"
	"github.com/gaslane/go-gaslane/sql/balances"
	"github.com/gaslane/go-gaslane/sql/ledgers"
)

// DefaultRecordSize is the allocation of the ledger account buffer. The
// record must fit into it or instructions fail with ErrStorageTooSmall.
const DefaultRecordSize = 1 << 16

const cacheSize = 16

// ErrInsufficientNative is returned by the transfer service when the source
// account cannot cover the transferred amount.
var ErrInsufficientNative = errors.New("host: insufficient native balance")

// Schema returns the sqlite schema used by the host stores. The script is
// idempotent.
func Schema() string {
	return `
	CREATE TABLE IF NOT EXISTS ledgers
	(
		address BLOB PRIMARY KEY,
		data    BLOB NOT NULL
	);
	CREATE TABLE IF NOT EXISTS balances
	(
		address BLOB PRIMARY KEY,
		balance INTEGER NOT NULL DEFAULT 0
	);
	`
}

// AccountRef names one account in the positional account list of an
// instruction. The ledger account itself is added by the host.
type AccountRef struct {
	Address types.Address
	Signer  bool
}

// Opt is for changing Host during initialization.
type Opt func(*Host)

// WithLogger sets logger for Host.
func WithLogger(logger *zap.Logger) Opt {
	return func(h *Host) {
		h.logger = logger
	}
}

// WithRecordSize overrides the ledger account buffer allocation.
func WithRecordSize(size int) Opt {
	return func(h *Host) {
		h.recordSize = size
	}
}

// Host executes instructions against a single ledger account.
type Host struct {
	logger     *zap.Logger
	db         *sql.Database
	ledger     types.Address
	recordSize int
	cache      *lru.Cache[types.Address, *ledger.Record]
}

// New returns a Host bound to the given ledger account address.
func New(db *sql.Database, ledgerAddress types.Address, opts ...Opt) (*Host, error) {
	h := &Host{
		logger:     zap.NewNop(),
		db:         db,
		ledger:     ledgerAddress,
		recordSize: DefaultRecordSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	cache, err := lru.New[types.Address, *ledger.Record](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create record cache: %w", err)
	}
	h.cache = cache
	return h, nil
}

// Apply executes one raw instruction. The sqlite transaction gives the
// instruction exclusive access to the ledger row, matching the account
// locking a chain runtime would provide.
func (h *Host) Apply(ctx context.Context, refs []AccountRef, raw []byte) error {
	instr, err := relay.DecodeInstruction(raw)
	if err != nil {
		return err
	}
	tx, err := h.db.TxImmediate(ctx)
	if err != nil {
		return err
	}
	defer tx.Release()

	var data []byte
	if instr.Op == relay.OpInitialize {
		exists, err := ledgers.Has(tx, h.ledger)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s", relay.ErrAlreadyInUse, h.ledger)
		}
		data = make([]byte, h.recordSize)
	} else {
		data, err = ledgers.Get(tx, h.ledger)
		if err != nil {
			return err
		}
	}

	accounts := make([]*relay.Account, 0, len(refs)+1)
	accounts = append(accounts, &relay.Account{Address: h.ledger, Data: data})
	for _, ref := range refs {
		accounts = append(accounts, &relay.Account{Address: ref.Address, Signer: ref.Signer})
	}

	proc := relay.New(&txTransferer{tx: tx}, relay.WithLogger(h.logger))
	if err := proc.ProcessInstruction(accounts, instr); err != nil {
		return err
	}

	if instr.Op == relay.OpInitialize {
		if err := ledgers.Add(tx, h.ledger, data); err != nil {
			if errors.Is(err, sql.ErrObjectExists) {
				return fmt.Errorf("%w: %s", relay.ErrAlreadyInUse, h.ledger)
			}
			return err
		}
	} else if err := ledgers.Update(tx, h.ledger, data); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	h.cache.Remove(h.ledger)
	return nil
}

// Record returns the current ledger record.
func (h *Host) Record() (*ledger.Record, error) {
	if rec, exist := h.cache.Get(h.ledger); exist {
		return rec, nil
	}
	data, err := ledgers.Get(h.db, h.ledger)
	if err != nil {
		return nil, err
	}
	rec, err := ledger.Load(data)
	if err != nil {
		return nil, err
	}
	h.cache.Add(h.ledger, rec)
	return rec, nil
}

// Deposit credits native funds to an address. Used to seed consumers,
// executors and the ledger account itself.
func (h *Host) Deposit(ctx context.Context, address types.Address, amount uint64) error {
	return h.db.WithTxImmediate(ctx, func(tx *sql.Tx) error {
		balance, err := balances.Get(tx, address)
		if err != nil {
			return err
		}
		return balances.Set(tx, address, balance+amount)
	})
}

// NativeBalance returns the spendable native balance of an address.
func (h *Host) NativeBalance(address types.Address) (uint64, error) {
	return balances.Get(h.db, address)
}

// txTransferer moves native funds inside the instruction's transaction.
type txTransferer struct {
	tx *sql.Tx
}

func (t *txTransferer) Transfer(from, to types.Address, amount uint64) error {
	source, err := balances.Get(t.tx, from)
	if err != nil {
		return err
	}
	if source < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientNative, from, source, amount)
	}
	destination, err := balances.Get(t.tx, to)
	if err != nil {
		return err
	}
	if err := balances.Set(t.tx, from, source-amount); err != nil {
		return err
	}
	return balances.Set(t.tx, to, destination+amount)
}
