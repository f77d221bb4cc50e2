// Package ledger implements the persisted relay-fee ledger record.
//
// A single Record tracks pre-funded consumer balances, accumulated executor
// earnings, per-consumer nonces and the optional governance configuration.
// The record is the only durable state of the relay: it is decoded at
// instruction entry, mutated in memory and encoded back on every success
// path.
package ledger

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/gaslane/go-gaslane/codec"
	"github.com/gaslane/go-gaslane/common/types"
)

var (
	// ErrInvalidRecord is returned when a record cannot be decoded from its
	// persisted form.
	ErrInvalidRecord = errors.New("ledger: invalid record")
	// ErrStorageTooSmall is returned when the encoded record does not fit
	// into the target buffer.
	ErrStorageTooSmall = errors.New("ledger: storage too small")
)

const (
	// FeeModeFixed charges a constant amount per relayed transfer.
	FeeModeFixed uint8 = iota
	// FeeModePercent charges a fraction of the transferred amount,
	// expressed in basis points.
	FeeModePercent
)

const (
	// DefaultFee is the fixed fee configured when governance is first
	// initialized, and the fallback fee charged when no governance is
	// configured at all.
	DefaultFee = 50_000
	// MaxBasisPoints bounds the percent fee mode. 10000 basis points is 100%.
	MaxBasisPoints = 10_000
)

// FeeMode selects how the relay fee is computed.
type FeeMode struct {
	Kind uint8
	// Amount is the fee in the smallest fee-bearing unit. Used by FeeModeFixed.
	Amount uint64
	// BasisPoints is the fee fraction. Used by FeeModePercent.
	BasisPoints uint16
}

// FixedFee returns a FeeMode charging a constant amount.
func FixedFee(amount uint64) FeeMode {
	return FeeMode{Kind: FeeModeFixed, Amount: amount}
}

// PercentFee returns a FeeMode charging bp basis points of the transfer amount.
func PercentFee(bp uint16) FeeMode {
	return FeeMode{Kind: FeeModePercent, BasisPoints: bp}
}

// GovernanceConfig gates privileged operations behind a single authority.
type GovernanceConfig struct {
	// Authority is the only key allowed to mutate fee policy and the token
	// allow-list.
	Authority types.Address
	FeeMode   FeeMode
	// AllowedTokens is an explicit allow-list. An empty list means all
	// tokens are allowed.
	AllowedTokens map[types.TokenID]bool
}

// TxKey identifies one relayed transfer in the audit map.
type TxKey struct {
	Consumer types.Address
	Nonce    uint64
}

// Record is the ledger aggregate. A zero Record is valid and decodes from an
// all-zero buffer, which is what a freshly allocated ledger account holds.
type Record struct {
	Initialized bool
	// Consumers holds the remaining pre-funded balance per consumer.
	Consumers map[types.Address]uint64
	// Executors holds accumulated unclaimed fee earnings per executor.
	Executors  map[types.Address]uint64
	Governance *GovernanceConfig
	// Nonces holds the next expected nonce per consumer.
	Nonces map[types.Address]uint64
	// Executions records which executor serviced a given (consumer, nonce)
	// pair. Write-once per key.
	Executions map[TxKey]types.Address
}

// New returns an initialized empty record.
func New() *Record {
	return &Record{
		Initialized: true,
		Consumers:   map[types.Address]uint64{},
		Executors:   map[types.Address]uint64{},
		Nonces:      map[types.Address]uint64{},
		Executions:  map[TxKey]types.Address{},
	}
}

// Load decodes a record from its persisted form. Trailing bytes are ignored
// since ledger accounts hold fixed-size zero-padded buffers.
func Load(data []byte) (*Record, error) {
	rec := &Record{}
	if err := codec.Decode(data, rec); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRecord, err)
	}
	return rec, nil
}

// MarshalTo encodes the record into buf and zeroes the remainder.
func (r *Record) MarshalTo(buf []byte) (int, error) {
	encoded, err := codec.Encode(r)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidRecord, err)
	}
	if len(encoded) > len(buf) {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrStorageTooSmall, len(encoded), len(buf))
	}
	n := copy(buf, encoded)
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
	return n, nil
}

// InitGovernance configures governance with the given authority, the default
// fixed fee and an open allow-list.
func (r *Record) InitGovernance(authority types.Address) {
	r.Governance = &GovernanceConfig{
		Authority:     authority,
		FeeMode:       FixedFee(DefaultFee),
		AllowedTokens: map[types.TokenID]bool{},
	}
}

// IsAuthority reports whether address is the configured governance authority.
func (r *Record) IsAuthority(address types.Address) bool {
	return r.Governance != nil && r.Governance.Authority == address
}

// SetFeeMode writes the fee mode into governance. No-op when governance is
// not configured.
func (r *Record) SetFeeMode(mode FeeMode) {
	if r.Governance != nil {
		r.Governance.FeeMode = mode
	}
}

// CalculateFee computes the relay fee for a transfer of the given amount.
func (r *Record) CalculateFee(amount uint64) uint64 {
	if r.Governance == nil {
		return DefaultFee
	}
	switch mode := r.Governance.FeeMode; mode.Kind {
	case FeeModePercent:
		// amount * bp does not fit into 64 bits for the full input range.
		hi, lo := bits.Mul64(amount, uint64(mode.BasisPoints))
		fee, _ := bits.Div64(hi, lo, MaxBasisPoints)
		return fee
	default:
		return mode.Amount
	}
}

// IsTokenAllowed reports whether a token is acceptable for fee payment.
// Without governance, or with an empty allow-list, every token is allowed.
func (r *Record) IsTokenAllowed(token types.TokenID) bool {
	if r.Governance == nil {
		return true
	}
	if len(r.Governance.AllowedTokens) == 0 {
		return true
	}
	return r.Governance.AllowedTokens[token]
}

// AllowToken adds a token to the allow-list. No-op when governance is not
// configured.
func (r *Record) AllowToken(token types.TokenID) {
	if r.Governance != nil {
		r.Governance.AllowedTokens[token] = true
	}
}

// DisallowToken removes a token from the allow-list. No-op when governance
// is not configured.
func (r *Record) DisallowToken(token types.TokenID) {
	if r.Governance != nil {
		delete(r.Governance.AllowedTokens, token)
	}
}

// HasConsumer reports whether the consumer ever topped up.
func (r *Record) HasConsumer(consumer types.Address) bool {
	_, exist := r.Consumers[consumer]
	return exist
}

// ConsumerBalance returns the remaining pre-funded balance of a consumer.
func (r *Record) ConsumerBalance(consumer types.Address) uint64 {
	return r.Consumers[consumer]
}

// CreditConsumer adds amount to the consumer balance, creating the entry if
// it doesn't exist yet.
func (r *Record) CreditConsumer(consumer types.Address, amount uint64) {
	if r.Consumers == nil {
		r.Consumers = map[types.Address]uint64{}
	}
	r.Consumers[consumer] += amount
}

// DebitConsumer subtracts amount from the consumer balance. The caller must
// have verified that the balance covers the amount.
func (r *Record) DebitConsumer(consumer types.Address, amount uint64) {
	r.Consumers[consumer] -= amount
}

// ExecutorEarned returns accumulated unclaimed fees of an executor.
func (r *Record) ExecutorEarned(executor types.Address) uint64 {
	return r.Executors[executor]
}

// CreditExecutor adds fee earnings to an executor.
func (r *Record) CreditExecutor(executor types.Address, fee uint64) {
	if r.Executors == nil {
		r.Executors = map[types.Address]uint64{}
	}
	r.Executors[executor] += fee
}

// ResetExecutor zeroes the unclaimed earnings of an executor after a claim.
func (r *Record) ResetExecutor(executor types.Address) {
	if r.Executors == nil {
		r.Executors = map[types.Address]uint64{}
	}
	r.Executors[executor] = 0
}

// NextNonce returns the next expected nonce for a consumer. Unseen consumers
// start at 0.
func (r *Record) NextNonce(consumer types.Address) uint64 {
	return r.Nonces[consumer]
}

// NonceUsed reports whether the nonce is below the next expected one.
func (r *Record) NonceUsed(consumer types.Address, nonce uint64) bool {
	return nonce < r.NextNonce(consumer)
}

// IncrementNonce advances the next expected nonce for a consumer and
// returns the new value.
func (r *Record) IncrementNonce(consumer types.Address) uint64 {
	if r.Nonces == nil {
		r.Nonces = map[types.Address]uint64{}
	}
	next := r.Nonces[consumer] + 1
	r.Nonces[consumer] = next
	return next
}

// RecordExecution stores the executor of record for a (consumer, nonce) pair.
func (r *Record) RecordExecution(consumer types.Address, nonce uint64, executor types.Address) {
	if r.Executions == nil {
		r.Executions = map[TxKey]types.Address{}
	}
	r.Executions[TxKey{Consumer: consumer, Nonce: nonce}] = executor
}

// ExecutorOf returns the executor that serviced a given (consumer, nonce)
// pair, if any.
func (r *Record) ExecutorOf(consumer types.Address, nonce uint64) (types.Address, bool) {
	executor, exist := r.Executions[TxKey{Consumer: consumer, Nonce: nonce}]
	return executor, exist
}
