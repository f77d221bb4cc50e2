package relay

import (
	"bytes"
	"fmt"

	"github.com/spacemeshos/go-scale"

	"github.com/gaslane/go-gaslane/codec"
)

// Instruction opcodes. The opcode is the first byte of the raw instruction
// buffer, followed by the method-specific payload.
const (
	OpInitialize uint8 = iota
	OpTopUp
	OpSubmitTransaction
	OpUpdateFeeParams
	OpAddAllowedToken
	OpRemoveAllowedToken
	OpClaimFees

	opLast
)

// Instruction is a decoded instruction. Args is nil for Initialize and
// ClaimFees and holds one of the *Args types otherwise.
type Instruction struct {
	Op   uint8
	Args codec.Decodable
}

// DecodeInstruction parses a raw instruction buffer into a typed
// instruction. Fails with ErrMalformed on anything it cannot decode.
func DecodeInstruction(raw []byte) (*Instruction, error) {
	dec := scale.NewDecoder(bytes.NewReader(raw))
	op, _, err := scale.DecodeCompact8(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode opcode: %s", ErrMalformed, err)
	}
	instr := &Instruction{Op: op}
	switch op {
	case OpInitialize, OpClaimFees:
	case OpTopUp:
		instr.Args = &TopUpArgs{}
	case OpSubmitTransaction:
		instr.Args = &SubmitArgs{}
	case OpUpdateFeeParams:
		instr.Args = &UpdateFeeParamsArgs{}
	case OpAddAllowedToken, OpRemoveAllowedToken:
		instr.Args = &TokenArgs{}
	default:
		return nil, fmt.Errorf("%w: unknown opcode %d", ErrMalformed, op)
	}
	if instr.Args != nil {
		if _, err := instr.Args.DecodeScale(dec); err != nil {
			return nil, fmt.Errorf("%w: failed to decode payload for opcode %d: %s", ErrMalformed, op, err)
		}
	}
	return instr, nil
}

// EncodeInstruction encodes an opcode with its payload into a raw
// instruction buffer. Used by callers submitting instructions to a host.
func EncodeInstruction(op uint8, args codec.Encodable) ([]byte, error) {
	var b bytes.Buffer
	enc := scale.NewEncoder(&b)
	if _, err := scale.EncodeCompact8(enc, op); err != nil {
		return nil, fmt.Errorf("encode opcode: %w", err)
	}
	if args != nil {
		if _, err := args.EncodeScale(enc); err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
	}
	return b.Bytes(), nil
}

func opName(op uint8) string {
	switch op {
	case OpInitialize:
		return "initialize"
	case OpTopUp:
		return "topup"
	case OpSubmitTransaction:
		return "submit"
	case OpUpdateFeeParams:
		return "update_fee_params"
	case OpAddAllowedToken:
		return "add_allowed_token"
	case OpRemoveAllowedToken:
		return "remove_allowed_token"
	case OpClaimFees:
		return "claim_fees"
	default:
		return "unknown"
	}
}
