package host

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gaslane/go-gaslane/codec"
	"github.com/gaslane/go-gaslane/common/types"
	"github.com/gaslane/go-gaslane/ledger"
	"github.com/gaslane/go-gaslane/relay"
	"github.com/gaslane/go-gaslane/sql"
)

func newHost(tb testing.TB) *Host {
	db := sql.InMemory(sql.WithSchema(Schema()))
	tb.Cleanup(func() { db.Close() })
	h, err := New(db, types.GenerateAddress([]byte("test-ledger")),
		WithLogger(zaptest.NewLogger(tb)),
	)
	require.NoError(tb, err)
	return h
}

func encode(tb testing.TB, op uint8, args codec.Encodable) []byte {
	tb.Helper()
	raw, err := relay.EncodeInstruction(op, args)
	require.NoError(tb, err)
	return raw
}

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	h := newHost(t)

	alice := types.GenerateAddress([]byte("alice"))
	bob := types.GenerateAddress([]byte("bob"))
	relayer := types.GenerateAddress([]byte("relayer"))
	authority := types.GenerateAddress([]byte("authority"))

	// seed native funds
	require.NoError(t, h.Deposit(ctx, alice, 1_000_000))
	require.NoError(t, h.Deposit(ctx, h.ledger, 1_000_000))
	balance, err := h.NativeBalance(alice)
	require.NoError(t, err)
	require.EqualValues(t, 1_000_000, balance)

	// topup before initialization has nowhere to land
	err = h.Apply(ctx, []AccountRef{{Address: alice}},
		encode(t, relay.OpTopUp, &relay.TopUpArgs{Amount: 1}))
	require.ErrorIs(t, err, sql.ErrNotFound)

	require.NoError(t, h.Apply(ctx,
		[]AccountRef{{Address: authority, Signer: true}},
		encode(t, relay.OpInitialize, nil)))

	err = h.Apply(ctx,
		[]AccountRef{{Address: authority, Signer: true}},
		encode(t, relay.OpInitialize, nil))
	require.ErrorIs(t, err, relay.ErrAlreadyInUse)

	require.NoError(t, h.Apply(ctx, []AccountRef{{Address: alice}},
		encode(t, relay.OpTopUp, &relay.TopUpArgs{Amount: 200_000})))
	rec, err := h.Record()
	require.NoError(t, err)
	require.EqualValues(t, 200_000, rec.ConsumerBalance(alice))

	// relay a transfer of 600_000 native from alice to bob
	refs := []AccountRef{
		{Address: alice, Signer: true},
		{Address: bob},
		{Address: relayer, Signer: true},
	}
	require.NoError(t, h.Apply(ctx, refs,
		encode(t, relay.OpSubmitTransaction, &relay.SubmitArgs{Amount: 600_000, Nonce: 0})))

	balance, err = h.NativeBalance(alice)
	require.NoError(t, err)
	require.EqualValues(t, 400_000, balance)
	balance, err = h.NativeBalance(bob)
	require.NoError(t, err)
	require.EqualValues(t, 600_000, balance)

	rec, err = h.Record()
	require.NoError(t, err)
	require.EqualValues(t, 200_000-ledger.DefaultFee, rec.ConsumerBalance(alice))
	require.EqualValues(t, ledger.DefaultFee, rec.ExecutorEarned(relayer))
	require.EqualValues(t, 1, rec.NextNonce(alice))

	// replay is rejected and nothing moves
	err = h.Apply(ctx, refs,
		encode(t, relay.OpSubmitTransaction, &relay.SubmitArgs{Amount: 600_000, Nonce: 0}))
	require.ErrorIs(t, err, relay.ErrReplayAttack)
	balance, err = h.NativeBalance(bob)
	require.NoError(t, err)
	require.EqualValues(t, 600_000, balance)

	// pay out the relayer from the ledger account
	require.NoError(t, h.Apply(ctx,
		[]AccountRef{{Address: relayer, Signer: true}, {Address: relayer}},
		encode(t, relay.OpClaimFees, nil)))
	balance, err = h.NativeBalance(relayer)
	require.NoError(t, err)
	require.EqualValues(t, ledger.DefaultFee, balance)
	rec, err = h.Record()
	require.NoError(t, err)
	require.EqualValues(t, 0, rec.ExecutorEarned(relayer))
}

func TestFailedTransferRollsBack(t *testing.T) {
	ctx := context.Background()
	h := newHost(t)

	alice := types.GenerateAddress([]byte("alice"))
	bob := types.GenerateAddress([]byte("bob"))
	relayer := types.GenerateAddress([]byte("relayer"))

	require.NoError(t, h.Apply(ctx, nil, encode(t, relay.OpInitialize, nil)))
	require.NoError(t, h.Apply(ctx, []AccountRef{{Address: alice}},
		encode(t, relay.OpTopUp, &relay.TopUpArgs{Amount: 200_000})))

	// alice has no native funds, the relayed transfer itself must fail
	refs := []AccountRef{
		{Address: alice, Signer: true},
		{Address: bob},
		{Address: relayer, Signer: true},
	}
	err := h.Apply(ctx, refs,
		encode(t, relay.OpSubmitTransaction, &relay.SubmitArgs{Amount: 100, Nonce: 0}))
	require.ErrorIs(t, err, ErrInsufficientNative)

	rec, err := h.Record()
	require.NoError(t, err)
	require.EqualValues(t, 200_000, rec.ConsumerBalance(alice), "fee must not be charged")
	require.EqualValues(t, 0, rec.NextNonce(alice), "nonce must not advance")
	require.EqualValues(t, 0, rec.ExecutorEarned(relayer))
}

func TestGovernanceFlow(t *testing.T) {
	ctx := context.Background()
	h := newHost(t)

	authority := types.GenerateAddress([]byte("authority"))
	usdc := types.TokenIDFromBytes([]byte("usdc"))

	require.NoError(t, h.Apply(ctx,
		[]AccountRef{{Address: authority, Signer: true}},
		encode(t, relay.OpInitialize, nil)))

	require.NoError(t, h.Apply(ctx,
		[]AccountRef{{Address: authority, Signer: true}},
		encode(t, relay.OpUpdateFeeParams,
			&relay.UpdateFeeParamsArgs{FeeModeType: ledger.FeeModePercent, FeeValue: 250})))
	require.NoError(t, h.Apply(ctx,
		[]AccountRef{{Address: authority, Signer: true}},
		encode(t, relay.OpAddAllowedToken, &relay.TokenArgs{Token: usdc})))

	rec, err := h.Record()
	require.NoError(t, err)
	require.Equal(t, ledger.PercentFee(250), rec.Governance.FeeMode)
	require.True(t, rec.IsTokenAllowed(usdc))

	mallory := types.GenerateAddress([]byte("mallory"))
	err = h.Apply(ctx,
		[]AccountRef{{Address: mallory, Signer: true}},
		encode(t, relay.OpUpdateFeeParams,
			&relay.UpdateFeeParamsArgs{FeeModeType: ledger.FeeModeFixed, FeeValue: 1}))
	require.ErrorIs(t, err, relay.ErrUnauthorized)
}
