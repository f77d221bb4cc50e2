package relay

import (
	"github.com/spacemeshos/go-scale"

	"github.com/gaslane/go-gaslane/common/types"
)

// TopUpArgs is the payload of OpTopUp.
type TopUpArgs struct {
	Amount uint64
}

// EncodeScale implements scale codec interface.
func (t *TopUpArgs) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeCompact64(enc, t.Amount)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (t *TopUpArgs) DecodeScale(dec *scale.Decoder) (total int, err error) {
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

// SubmitArgs is the payload of OpSubmitTransaction.
type SubmitArgs struct {
	Amount uint64
	// Nonce must match the consumer's next expected nonce.
	Nonce uint64
}

// EncodeScale implements scale codec interface.
func (t *SubmitArgs) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeCompact64(enc, t.Amount)
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
	return total, nil
}

// DecodeScale implements scale codec interface.
func (t *SubmitArgs) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		field, n, err := scale.DecodeCompact64(dec)
		if err != nil {
			return total, err
		}
		total += n
		t.Amount = field
	}
	{
		field, n, err := scale.DecodeCompact64(dec)
		if err != nil {
			return total, err
		}
		total += n
		t.Nonce = field
	}
	return total, nil
}

// UpdateFeeParamsArgs is the payload of OpUpdateFeeParams.
type UpdateFeeParamsArgs struct {
	// FeeModeType is 0 for fixed, 1 for percent.
	FeeModeType uint8
	// FeeValue is an amount for fixed mode, basis points for percent mode.
	FeeValue uint64
}

// EncodeScale implements scale codec interface.
func (t *UpdateFeeParamsArgs) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeCompact8(enc, t.FeeModeType)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeCompact64(enc, t.FeeValue)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (t *UpdateFeeParamsArgs) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		field, n, err := scale.DecodeCompact8(dec)
		if err != nil {
			return total, err
		}
		total += n
		t.FeeModeType = field
	}
	{
		field, n, err := scale.DecodeCompact64(dec)
		if err != nil {
			return total, err
		}
		total += n
		t.FeeValue = field
	}
	return total, nil
}

// TokenArgs is the payload of OpAddAllowedToken and OpRemoveAllowedToken.
type TokenArgs struct {
	Token types.TokenID
}

// EncodeScale implements scale codec interface.
func (t *TokenArgs) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := t.Token.EncodeScale(enc)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (t *TokenArgs) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		n, err := t.Token.DecodeScale(dec)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
