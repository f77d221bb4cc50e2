package types

import (
	"encoding/hex"

	"github.com/spacemeshos/go-scale"
)

// TokenIDLength is the length of a token identifier in bytes.
const TokenIDLength = 32

// TokenID identifies a token accepted for fee payment. It is an opaque
// 32-byte value assigned by whoever mints the token.
type TokenID [TokenIDLength]byte

// TokenIDFromBytes copies b into a TokenID. Input shorter than
// TokenIDLength is left padded with zeroes, longer input is truncated.
func TokenIDFromBytes(b []byte) TokenID {
	var id TokenID
	if len(b) > TokenIDLength {
		b = b[len(b)-TokenIDLength:]
	}
	copy(id[TokenIDLength-len(b):], b)
	return id
}

// Bytes returns the byte representation of the token id.
func (t TokenID) Bytes() []byte { return t[:] }

// Hex converts a token id to a hex string.
func (t TokenID) Hex() string { return "0x" + hex.EncodeToString(t[:]) }

// String implements fmt.Stringer.
func (t TokenID) String() string { return t.Hex() }

// EncodeScale implements scale codec interface.
func (t *TokenID) EncodeScale(e *scale.Encoder) (int, error) {
	return scale.EncodeByteArray(e, t[:])
}

// DecodeScale implements scale codec interface.
func (t *TokenID) DecodeScale(d *scale.Decoder) (int, error) {
	return scale.DecodeByteArray(d, t[:])
}
