package relay

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gaslane/go-gaslane/common/types"
)

func TestDecodeInstruction(t *testing.T) {
	t.Run("initialize has no payload", func(t *testing.T) {
		raw, err := EncodeInstruction(OpInitialize, nil)
		require.NoError(t, err)
		instr, err := DecodeInstruction(raw)
		require.NoError(t, err)
		require.Equal(t, OpInitialize, instr.Op)
		require.Nil(t, instr.Args)
	})
	t.Run("topup", func(t *testing.T) {
		raw, err := EncodeInstruction(OpTopUp, &TopUpArgs{Amount: 1_000_000})
		require.NoError(t, err)
		instr, err := DecodeInstruction(raw)
		require.NoError(t, err)
		require.Equal(t, OpTopUp, instr.Op)
		require.Equal(t, &TopUpArgs{Amount: 1_000_000}, instr.Args)
	})
	t.Run("submit", func(t *testing.T) {
		raw, err := EncodeInstruction(OpSubmitTransaction, &SubmitArgs{Amount: 500_000, Nonce: 7})
		require.NoError(t, err)
		instr, err := DecodeInstruction(raw)
		require.NoError(t, err)
		require.Equal(t, OpSubmitTransaction, instr.Op)
		require.Equal(t, &SubmitArgs{Amount: 500_000, Nonce: 7}, instr.Args)
	})
	t.Run("update fee params", func(t *testing.T) {
		raw, err := EncodeInstruction(OpUpdateFeeParams, &UpdateFeeParamsArgs{FeeModeType: 1, FeeValue: 100})
		require.NoError(t, err)
		instr, err := DecodeInstruction(raw)
		require.NoError(t, err)
		require.Equal(t, &UpdateFeeParamsArgs{FeeModeType: 1, FeeValue: 100}, instr.Args)
	})
	t.Run("token ops", func(t *testing.T) {
		tokenID := types.TokenIDFromBytes([]byte("usdc"))
		for _, op := range []uint8{OpAddAllowedToken, OpRemoveAllowedToken} {
			raw, err := EncodeInstruction(op, &TokenArgs{Token: tokenID})
			require.NoError(t, err)
			instr, err := DecodeInstruction(raw)
			require.NoError(t, err)
			require.Equal(t, op, instr.Op)
			require.Equal(t, &TokenArgs{Token: tokenID}, instr.Args)
		}
	})
	t.Run("claim has no payload", func(t *testing.T) {
		raw, err := EncodeInstruction(OpClaimFees, nil)
		require.NoError(t, err)
		instr, err := DecodeInstruction(raw)
		require.NoError(t, err)
		require.Equal(t, OpClaimFees, instr.Op)
		require.Nil(t, instr.Args)
	})
}

func TestDecodeInstructionMalformed(t *testing.T) {
	t.Run("empty buffer", func(t *testing.T) {
		_, err := DecodeInstruction(nil)
		require.ErrorIs(t, err, ErrMalformed)
	})
	t.Run("unknown opcode", func(t *testing.T) {
		raw, err := EncodeInstruction(opLast, nil)
		require.NoError(t, err)
		_, err = DecodeInstruction(raw)
		require.ErrorIs(t, err, ErrMalformed)
	})
	t.Run("truncated payload", func(t *testing.T) {
		raw, err := EncodeInstruction(OpSubmitTransaction, &SubmitArgs{Amount: 500_000, Nonce: 7})
		require.NoError(t, err)
		_, err = DecodeInstruction(raw[:1])
		require.ErrorIs(t, err, ErrMalformed)
	})
}
