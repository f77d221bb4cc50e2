package ledger

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/spacemeshos/go-scale"

	"github.com/gaslane/go-gaslane/common/types"
)

// Hand-maintained scale codec. Map fields are encoded as entry slices in
// ascending key order so that encoding is a deterministic function of the
// record contents.

type balanceEntry struct {
	Address types.Address
	Amount  uint64
}

func (t *balanceEntry) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := t.Address.EncodeScale(enc)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeCompact64(enc, t.Amount)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (t *balanceEntry) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		n, err := t.Address.DecodeScale(dec)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		field, n, err := scale.DecodeCompact64(dec)
		if err != nil {
			return total, err
		}
		total += n
		t.Amount = field
	}
	return total, nil
}

type executionEntry struct {
	Consumer types.Address
	Nonce    uint64
	Executor types.Address
}

func (t *executionEntry) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := t.Consumer.EncodeScale(enc)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeCompact64(enc, t.Nonce)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := t.Executor.EncodeScale(enc)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (t *executionEntry) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		n, err := t.Consumer.DecodeScale(dec)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		field, n, err := scale.DecodeCompact64(dec)
		if err != nil {
			return total, err
		}
		total += n
		t.Nonce = field
	}
	{
		n, err := t.Executor.DecodeScale(dec)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

type tokenEntry struct {
	Token   types.TokenID
	Allowed bool
}

func (t *tokenEntry) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := t.Token.EncodeScale(enc)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeBool(enc, t.Allowed)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (t *tokenEntry) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		n, err := t.Token.DecodeScale(dec)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		field, n, err := scale.DecodeBool(dec)
		if err != nil {
			return total, err
		}
		total += n
		t.Allowed = field
	}
	return total, nil
}

// EncodeScale implements scale codec interface.
func (t *FeeMode) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeCompact8(enc, t.Kind)
		if err != nil {
			return total, err
		}
		total += n
	}
	switch t.Kind {
	case FeeModeFixed:
		n, err := scale.EncodeCompact64(enc, t.Amount)
		if err != nil {
			return total, err
		}
		total += n
	case FeeModePercent:
		n, err := scale.EncodeCompact16(enc, t.BasisPoints)
		if err != nil {
			return total, err
		}
		total += n
	default:
		return total, fmt.Errorf("unknown fee mode %d", t.Kind)
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (t *FeeMode) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		field, n, err := scale.DecodeCompact8(dec)
		if err != nil {
			return total, err
		}
		total += n
		t.Kind = field
	}
	switch t.Kind {
	case FeeModeFixed:
		field, n, err := scale.DecodeCompact64(dec)
		if err != nil {
			return total, err
		}
		total += n
		t.Amount = field
	case FeeModePercent:
		field, n, err := scale.DecodeCompact16(dec)
		if err != nil {
			return total, err
		}
		total += n
		if field > MaxBasisPoints {
			return total, fmt.Errorf("basis points %d above maximum %d", field, MaxBasisPoints)
		}
		t.BasisPoints = field
	default:
		return total, fmt.Errorf("unknown fee mode %d", t.Kind)
	}
	return total, nil
}

// EncodeScale implements scale codec interface.
func (t *GovernanceConfig) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := t.Authority.EncodeScale(enc)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := t.FeeMode.EncodeScale(enc)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		entries := make([]tokenEntry, 0, len(t.AllowedTokens))
		for token, allowed := range t.AllowedTokens {
			entries = append(entries, tokenEntry{Token: token, Allowed: allowed})
		}
		sort.Slice(entries, func(i, j int) bool {
			return bytes.Compare(entries[i].Token[:], entries[j].Token[:]) < 0
		})
		n, err := scale.EncodeStructSlice(enc, entries)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (t *GovernanceConfig) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		n, err := t.Authority.DecodeScale(dec)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := t.FeeMode.DecodeScale(dec)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		entries, n, err := scale.DecodeStructSlice[tokenEntry](dec)
		if err != nil {
			return total, err
		}
		total += n
		t.AllowedTokens = make(map[types.TokenID]bool, len(entries))
		for _, entry := range entries {
			t.AllowedTokens[entry.Token] = entry.Allowed
		}
	}
	return total, nil
}

// EncodeScale implements scale codec interface.
func (t *Record) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeBool(enc, t.Initialized)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeStructSlice(enc, sortedBalances(t.Consumers))
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeStructSlice(enc, sortedBalances(t.Executors))
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeOption(enc, t.Governance)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeStructSlice(enc, sortedBalances(t.Nonces))
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		entries := make([]executionEntry, 0, len(t.Executions))
		for key, executor := range t.Executions {
			entries = append(entries, executionEntry{Consumer: key.Consumer, Nonce: key.Nonce, Executor: executor})
		}
		sort.Slice(entries, func(i, j int) bool {
			if cmp := bytes.Compare(entries[i].Consumer[:], entries[j].Consumer[:]); cmp != 0 {
				return cmp < 0
			}
			return entries[i].Nonce < entries[j].Nonce
		})
		n, err := scale.EncodeStructSlice(enc, entries)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (t *Record) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		field, n, err := scale.DecodeBool(dec)
		if err != nil {
			return total, err
		}
		total += n
		t.Initialized = field
	}
	{
		entries, n, err := scale.DecodeStructSlice[balanceEntry](dec)
		if err != nil {
			return total, err
		}
		total += n
		t.Consumers = balanceMap(entries)
	}
	{
		entries, n, err := scale.DecodeStructSlice[balanceEntry](dec)
		if err != nil {
			return total, err
		}
		total += n
		t.Executors = balanceMap(entries)
	}
	{
		field, n, err := scale.DecodeOption[GovernanceConfig](dec)
		if err != nil {
			return total, err
		}
		total += n
		t.Governance = field
	}
	{
		entries, n, err := scale.DecodeStructSlice[balanceEntry](dec)
		if err != nil {
			return total, err
		}
		total += n
		t.Nonces = balanceMap(entries)
	}
	{
		entries, n, err := scale.DecodeStructSlice[executionEntry](dec)
		if err != nil {
			return total, err
		}
		total += n
		t.Executions = make(map[TxKey]types.Address, len(entries))
		for _, entry := range entries {
			t.Executions[TxKey{Consumer: entry.Consumer, Nonce: entry.Nonce}] = entry.Executor
		}
	}
	return total, nil
}

func sortedBalances(m map[types.Address]uint64) []balanceEntry {
	entries := make([]balanceEntry, 0, len(m))
	for address, amount := range m {
		entries = append(entries, balanceEntry{Address: address, Amount: amount})
	}
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].Address[:], entries[j].Address[:]) < 0
	})
	return entries
}

func balanceMap(entries []balanceEntry) map[types.Address]uint64 {
	m := make(map[types.Address]uint64, len(entries))
	for _, entry := range entries {
		m[entry.Address] = entry.Amount
	}
	return m
}
