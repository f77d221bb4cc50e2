package relay

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"

	"github.com/gaslane/go-gaslane/codec"
	"github.com/gaslane/go-gaslane/common/types"
	"github.com/gaslane/go-gaslane/ledger"
	"github.com/gaslane/go-gaslane/relay/mocks"
)

const testRecordSize = 4096

func addr(seed string) types.Address {
	return types.GenerateAddress([]byte(seed))
}

type tester struct {
	testing.TB
	proc     *Processor
	transfer *mocks.MockTransferer
	ledger   *Account
}

func newTester(tb testing.TB) *tester {
	ctrl := gomock.NewController(tb)
	transfer := mocks.NewMockTransferer(ctrl)
	return &tester{
		TB:       tb,
		proc:     New(transfer, WithLogger(zaptest.NewLogger(tb))),
		transfer: transfer,
		ledger: &Account{
			Address: addr("ledger"),
			Data:    make([]byte, testRecordSize),
		},
	}
}

func (t *tester) apply(raw []byte, extra ...*Account) error {
	accounts := append([]*Account{t.ledger}, extra...)
	return t.proc.Process(accounts, raw)
}

func (t *tester) record() *ledger.Record {
	rec, err := ledger.Load(t.ledger.Data)
	require.NoError(t, err)
	return rec
}

func (t *tester) snapshot() []byte {
	snap := make([]byte, len(t.ledger.Data))
	copy(snap, t.ledger.Data)
	return snap
}

func mustEncode(tb testing.TB, op uint8, args codec.Encodable) []byte {
	tb.Helper()
	raw, err := EncodeInstruction(op, args)
	require.NoError(tb, err)
	return raw
}

func (t *tester) initialize(authority *Account) error {
	if authority == nil {
		return t.apply(mustEncode(t, OpInitialize, nil))
	}
	return t.apply(mustEncode(t, OpInitialize, nil), authority)
}

func (t *tester) topUp(consumer types.Address, amount uint64) error {
	return t.apply(mustEncode(t, OpTopUp, &TopUpArgs{Amount: amount}), &Account{Address: consumer})
}

func (t *tester) submit(sender, receiver, executor types.Address, amount, nonce uint64) error {
	return t.apply(
		mustEncode(t, OpSubmitTransaction, &SubmitArgs{Amount: amount, Nonce: nonce}),
		&Account{Address: sender, Signer: true},
		&Account{Address: receiver},
		&Account{Address: executor, Signer: true},
	)
}

func (t *tester) claim(executor, destination types.Address, signer bool) error {
	return t.apply(
		mustEncode(t, OpClaimFees, nil),
		&Account{Address: executor, Signer: signer},
		&Account{Address: destination},
	)
}

func TestInitialize(t *testing.T) {
	t.Run("without authority", func(t *testing.T) {
		tester := newTester(t)
		require.NoError(t, tester.initialize(nil))
		rec := tester.record()
		require.True(t, rec.Initialized)
		require.Nil(t, rec.Governance)
	})
	t.Run("with signing authority", func(t *testing.T) {
		tester := newTester(t)
		require.NoError(t, tester.initialize(&Account{Address: addr("gov"), Signer: true}))
		rec := tester.record()
		require.True(t, rec.Initialized)
		require.NotNil(t, rec.Governance)
		require.Equal(t, addr("gov"), rec.Governance.Authority)
		require.Equal(t, ledger.FixedFee(ledger.DefaultFee), rec.Governance.FeeMode)
		require.Empty(t, rec.Governance.AllowedTokens)
	})
	t.Run("authority must sign", func(t *testing.T) {
		tester := newTester(t)
		before := tester.snapshot()
		err := tester.initialize(&Account{Address: addr("gov"), Signer: false})
		require.ErrorIs(t, err, ErrUnauthorized)
		require.Equal(t, before, tester.ledger.Data, "failed initialize must not persist")
	})
	t.Run("missing ledger account", func(t *testing.T) {
		tester := newTester(t)
		err := tester.proc.Process(nil, mustEncode(t, OpInitialize, nil))
		require.ErrorIs(t, err, ErrMissingAccount)
	})
}

func TestTopUp(t *testing.T) {
	tester := newTester(t)
	require.NoError(t, tester.initialize(nil))

	require.NoError(t, tester.topUp(addr("alice"), 300))
	require.EqualValues(t, 300, tester.record().ConsumerBalance(addr("alice")))

	// accumulates rather than overwrites
	require.NoError(t, tester.topUp(addr("alice"), 200))
	require.EqualValues(t, 500, tester.record().ConsumerBalance(addr("alice")))
}

func TestSubmit(t *testing.T) {
	alice, bob, relayer := addr("alice"), addr("bob"), addr("relayer")

	t.Run("success", func(t *testing.T) {
		tester := newTester(t)
		require.NoError(t, tester.initialize(&Account{Address: addr("gov"), Signer: true}))
		require.NoError(t, tester.topUp(alice, 1_000_000))
		require.NoError(t, tester.apply(mustEncode(t, OpUpdateFeeParams,
			&UpdateFeeParamsArgs{FeeModeType: ledger.FeeModeFixed, FeeValue: 100_000}),
			&Account{Address: addr("gov"), Signer: true}))

		tester.transfer.EXPECT().Transfer(alice, bob, uint64(500_000)).Return(nil)
		require.NoError(t, tester.submit(alice, bob, relayer, 500_000, 0))

		rec := tester.record()
		require.EqualValues(t, 900_000, rec.ConsumerBalance(alice))
		require.EqualValues(t, 100_000, rec.ExecutorEarned(relayer))
		require.EqualValues(t, 1, rec.NextNonce(alice))
		executor, exist := rec.ExecutorOf(alice, 0)
		require.True(t, exist)
		require.Equal(t, relayer, executor)
	})

	t.Run("replayed nonce", func(t *testing.T) {
		tester := newTester(t)
		require.NoError(t, tester.initialize(nil))
		require.NoError(t, tester.topUp(alice, 1_000_000))
		tester.transfer.EXPECT().Transfer(alice, bob, uint64(100)).Return(nil)
		require.NoError(t, tester.submit(alice, bob, relayer, 100, 0))

		before := tester.snapshot()
		err := tester.submit(alice, bob, relayer, 100, 0)
		require.ErrorIs(t, err, ErrReplayAttack)
		require.Equal(t, before, tester.ledger.Data, "replay must not mutate state")
	})

	t.Run("skipped nonce", func(t *testing.T) {
		tester := newTester(t)
		require.NoError(t, tester.initialize(nil))
		require.NoError(t, tester.topUp(alice, 1_000_000))

		before := tester.snapshot()
		err := tester.submit(alice, bob, relayer, 100, 5)
		require.ErrorIs(t, err, ErrInvalidNonce)
		require.Equal(t, before, tester.ledger.Data)
	})

	t.Run("never topped up", func(t *testing.T) {
		tester := newTester(t)
		require.NoError(t, tester.initialize(nil))
		err := tester.submit(alice, bob, relayer, 100, 0)
		require.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("insufficient balance skips the transfer", func(t *testing.T) {
		tester := newTester(t)
		require.NoError(t, tester.initialize(nil))
		// default fallback fee is 50_000, balance below that
		require.NoError(t, tester.topUp(alice, 49_999))

		before := tester.snapshot()
		// no EXPECT on the mock: any Transfer call fails the test
		err := tester.submit(alice, bob, relayer, 100, 0)
		require.ErrorIs(t, err, ErrInsufficientBalance)
		require.Equal(t, before, tester.ledger.Data)
	})

	t.Run("transfer failure leaves no trace", func(t *testing.T) {
		tester := newTester(t)
		require.NoError(t, tester.initialize(nil))
		require.NoError(t, tester.topUp(alice, 1_000_000))

		transferErr := errors.New("downstream rejected transfer")
		tester.transfer.EXPECT().Transfer(alice, bob, uint64(100)).Return(transferErr)

		before := tester.snapshot()
		err := tester.submit(alice, bob, relayer, 100, 0)
		require.ErrorIs(t, err, transferErr, "transfer error is propagated verbatim")
		require.Equal(t, before, tester.ledger.Data)

		// nonce was not burned, the same relay can be resubmitted
		tester.transfer.EXPECT().Transfer(alice, bob, uint64(100)).Return(nil)
		require.NoError(t, tester.submit(alice, bob, relayer, 100, 0))
		require.EqualValues(t, 1, tester.record().NextNonce(alice))
	})

	t.Run("percent fee", func(t *testing.T) {
		tester := newTester(t)
		require.NoError(t, tester.initialize(&Account{Address: addr("gov"), Signer: true}))
		require.NoError(t, tester.apply(mustEncode(t, OpUpdateFeeParams,
			&UpdateFeeParamsArgs{FeeModeType: ledger.FeeModePercent, FeeValue: 100}),
			&Account{Address: addr("gov"), Signer: true}))
		require.NoError(t, tester.topUp(alice, 1_000_000))

		tester.transfer.EXPECT().Transfer(alice, bob, uint64(500_000)).Return(nil)
		require.NoError(t, tester.submit(alice, bob, relayer, 500_000, 0))
		// 1% of 500_000
		require.EqualValues(t, 5_000, tester.record().ExecutorEarned(relayer))
		require.EqualValues(t, 995_000, tester.record().ConsumerBalance(alice))
	})
}

func TestUpdateFeeParams(t *testing.T) {
	gov := &Account{Address: addr("gov"), Signer: true}

	t.Run("authority updates the mode", func(t *testing.T) {
		tester := newTester(t)
		require.NoError(t, tester.initialize(gov))
		require.NoError(t, tester.apply(mustEncode(t, OpUpdateFeeParams,
			&UpdateFeeParamsArgs{FeeModeType: ledger.FeeModePercent, FeeValue: 100}), gov))
		require.Equal(t, ledger.PercentFee(100), tester.record().Governance.FeeMode)
	})
	t.Run("non-authority signer is rejected", func(t *testing.T) {
		tester := newTester(t)
		require.NoError(t, tester.initialize(gov))
		err := tester.apply(mustEncode(t, OpUpdateFeeParams,
			&UpdateFeeParamsArgs{FeeModeType: ledger.FeeModeFixed, FeeValue: 1}),
			&Account{Address: addr("mallory"), Signer: true})
		require.ErrorIs(t, err, ErrUnauthorized)
	})
	t.Run("authority must sign", func(t *testing.T) {
		tester := newTester(t)
		require.NoError(t, tester.initialize(gov))
		err := tester.apply(mustEncode(t, OpUpdateFeeParams,
			&UpdateFeeParamsArgs{FeeModeType: ledger.FeeModeFixed, FeeValue: 1}),
			&Account{Address: addr("gov"), Signer: false})
		require.ErrorIs(t, err, ErrUnauthorized)
	})
	t.Run("no governance configured", func(t *testing.T) {
		tester := newTester(t)
		require.NoError(t, tester.initialize(nil))
		err := tester.apply(mustEncode(t, OpUpdateFeeParams,
			&UpdateFeeParamsArgs{FeeModeType: ledger.FeeModeFixed, FeeValue: 1}), gov)
		require.ErrorIs(t, err, ErrUnauthorized)
	})
	t.Run("percent above limit", func(t *testing.T) {
		tester := newTester(t)
		require.NoError(t, tester.initialize(gov))
		err := tester.apply(mustEncode(t, OpUpdateFeeParams,
			&UpdateFeeParamsArgs{FeeModeType: ledger.FeeModePercent, FeeValue: 10_001}), gov)
		require.ErrorIs(t, err, ErrInvalidFeeMode)
	})
	t.Run("unknown mode tag", func(t *testing.T) {
		tester := newTester(t)
		require.NoError(t, tester.initialize(gov))
		err := tester.apply(mustEncode(t, OpUpdateFeeParams,
			&UpdateFeeParamsArgs{FeeModeType: 9, FeeValue: 1}), gov)
		require.ErrorIs(t, err, ErrInvalidFeeMode)
	})
}

func TestAllowedTokens(t *testing.T) {
	gov := &Account{Address: addr("gov"), Signer: true}
	usdc := types.TokenIDFromBytes([]byte("usdc"))

	tester := newTester(t)
	require.NoError(t, tester.initialize(gov))
	require.True(t, tester.record().IsTokenAllowed(usdc))

	require.NoError(t, tester.apply(mustEncode(t, OpAddAllowedToken, &TokenArgs{Token: usdc}), gov))
	rec := tester.record()
	require.True(t, rec.IsTokenAllowed(usdc))
	require.False(t, rec.IsTokenAllowed(types.TokenIDFromBytes([]byte("other"))))

	err := tester.apply(mustEncode(t, OpRemoveAllowedToken, &TokenArgs{Token: usdc}),
		&Account{Address: addr("mallory"), Signer: true})
	require.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, tester.apply(mustEncode(t, OpRemoveAllowedToken, &TokenArgs{Token: usdc}), gov))
	require.True(t, tester.record().IsTokenAllowed(types.TokenIDFromBytes([]byte("other"))))
}

func TestClaimFees(t *testing.T) {
	alice, bob, relayer := addr("alice"), addr("bob"), addr("relayer")

	earn := func(tester *tester) {
		require.NoError(t, tester.initialize(nil))
		require.NoError(t, tester.topUp(alice, 1_000_000))
		tester.transfer.EXPECT().Transfer(alice, bob, uint64(100)).Return(nil)
		require.NoError(t, tester.submit(alice, bob, relayer, 100, 0))
		require.EqualValues(t, ledger.DefaultFee, tester.record().ExecutorEarned(relayer))
	}

	t.Run("success resets earnings", func(t *testing.T) {
		tester := newTester(t)
		earn(tester)
		tester.transfer.EXPECT().Transfer(tester.ledger.Address, relayer, uint64(ledger.DefaultFee)).Return(nil)
		require.NoError(t, tester.claim(relayer, relayer, true))
		require.EqualValues(t, 0, tester.record().ExecutorEarned(relayer))
	})
	t.Run("destination mismatch", func(t *testing.T) {
		tester := newTester(t)
		earn(tester)
		err := tester.claim(relayer, bob, true)
		require.ErrorIs(t, err, ErrUnauthorizedFeeClaim)
		require.EqualValues(t, ledger.DefaultFee, tester.record().ExecutorEarned(relayer))
	})
	t.Run("claimant must sign", func(t *testing.T) {
		tester := newTester(t)
		earn(tester)
		err := tester.claim(relayer, relayer, false)
		require.ErrorIs(t, err, ErrUnauthorizedFeeClaim)
	})
	t.Run("nothing earned", func(t *testing.T) {
		tester := newTester(t)
		require.NoError(t, tester.initialize(nil))
		err := tester.claim(relayer, relayer, true)
		require.ErrorIs(t, err, ErrInsufficientFunds)
	})
	t.Run("transfer failure keeps earnings", func(t *testing.T) {
		tester := newTester(t)
		earn(tester)
		transferErr := errors.New("ledger account underfunded")
		tester.transfer.EXPECT().Transfer(tester.ledger.Address, relayer, uint64(ledger.DefaultFee)).Return(transferErr)

		before := tester.snapshot()
		err := tester.claim(relayer, relayer, true)
		require.ErrorIs(t, err, transferErr)
		require.Equal(t, before, tester.ledger.Data)
		require.EqualValues(t, ledger.DefaultFee, tester.record().ExecutorEarned(relayer))
	})
}

func TestNonceMonotonicity(t *testing.T) {
	alice, bob, relayer := addr("alice"), addr("bob"), addr("relayer")
	tester := newTester(t)
	require.NoError(t, tester.initialize(nil))
	require.NoError(t, tester.topUp(alice, 10_000_000))

	for nonce := uint64(0); nonce < 5; nonce++ {
		tester.transfer.EXPECT().Transfer(alice, bob, uint64(100)).Return(nil)
		require.NoError(t, tester.submit(alice, bob, relayer, 100, nonce))
		require.EqualValues(t, nonce+1, tester.record().NextNonce(alice),
			"nonce advances by exactly one per success")
	}
}

func TestStorageTooSmall(t *testing.T) {
	tester := newTester(t)
	tester.ledger.Data = make([]byte, 8)
	err := tester.initialize(&Account{Address: addr("gov"), Signer: true})
	require.ErrorIs(t, err, ledger.ErrStorageTooSmall)
}
