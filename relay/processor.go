// Package relay implements the relay-fee state machine.
//
// Instructions arrive as raw byte buffers together with a positional account
// list, the ledger account first. Every handler follows the same shape: load
// the ledger record, validate, optionally invoke the external transfer
// service, mutate the record and persist it back. A failure at any point
// aborts the instruction with the record untouched on disk.
package relay

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/gaslane/go-gaslane/ledger"
)

// Opt is for changing Processor during initialization.
type Opt func(*Processor)

// WithLogger sets logger for Processor.
func WithLogger(logger *zap.Logger) Opt {
	return func(p *Processor) {
		p.logger = logger
	}
}

// New returns a Processor that pays out relayed transfers through the given
// transfer service.
func New(transfer Transferer, opts ...Opt) *Processor {
	p := &Processor{
		logger:   zap.NewNop(),
		transfer: transfer,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Processor dispatches decoded instructions to their handlers. It owns no
// state of its own: all state lives in the ledger record held by the first
// account of every instruction.
type Processor struct {
	logger   *zap.Logger
	transfer Transferer
}

// Process decodes raw and executes it against the supplied account list.
// The host must guarantee that no two instructions referencing the same
// ledger account run concurrently.
func (p *Processor) Process(accounts []*Account, raw []byte) error {
	instr, err := DecodeInstruction(raw)
	if err != nil {
		instructionsProcessed.WithLabelValues("unknown", failure).Inc()
		return err
	}
	return p.ProcessInstruction(accounts, instr)
}

// ProcessInstruction executes an already decoded instruction. Hosts that
// inspect the opcode before execution use this to avoid decoding twice.
func (p *Processor) ProcessInstruction(accounts []*Account, instr *Instruction) error {
	var err error
	it := &accountIter{accounts: accounts}
	switch instr.Op {
	case OpInitialize:
		err = p.initialize(it)
	case OpTopUp:
		err = p.topUp(it, instr.Args.(*TopUpArgs))
	case OpSubmitTransaction:
		err = p.submit(it, instr.Args.(*SubmitArgs))
	case OpUpdateFeeParams:
		err = p.updateFeeParams(it, instr.Args.(*UpdateFeeParamsArgs))
	case OpAddAllowedToken:
		err = p.addAllowedToken(it, instr.Args.(*TokenArgs))
	case OpRemoveAllowedToken:
		err = p.removeAllowedToken(it, instr.Args.(*TokenArgs))
	case OpClaimFees:
		err = p.claimFees(it)
	}
	outcome := success
	if err != nil {
		outcome = failure
	}
	instructionsProcessed.WithLabelValues(opName(instr.Op), outcome).Inc()
	return err
}

// initialize creates an empty record in the ledger account. When an
// authority account is supplied and signs, governance is configured with the
// default fixed fee and an open allow-list.
func (p *Processor) initialize(it *accountIter) error {
	ledgerAccount, err := it.next()
	if err != nil {
		return err
	}
	rec := ledger.New()
	if authority := it.optional(); authority != nil {
		if !authority.Signer {
			return fmt.Errorf("%w: authority did not sign initialization", ErrUnauthorized)
		}
		rec.InitGovernance(authority.Address)
		p.logger.Info("initialized governance",
			zap.Stringer("authority", authority.Address),
		)
	}
	return persist(rec, ledgerAccount)
}

// topUp credits the consumer's pre-funded balance. No authorization is
// required: anyone may top up any consumer.
func (p *Processor) topUp(it *accountIter, args *TopUpArgs) error {
	ledgerAccount, err := it.next()
	if err != nil {
		return err
	}
	consumer, err := it.next()
	if err != nil {
		return err
	}
	rec, err := ledger.Load(ledgerAccount.Data)
	if err != nil {
		return err
	}
	previous := rec.ConsumerBalance(consumer.Address)
	rec.CreditConsumer(consumer.Address, args.Amount)
	p.logger.Info("topup",
		zap.Stringer("consumer", consumer.Address),
		zap.Uint64("amount", args.Amount),
		zap.Uint64("previous_balance", previous),
		zap.Uint64("new_balance", rec.ConsumerBalance(consumer.Address)),
	)
	return persist(rec, ledgerAccount)
}

// submit relays one transfer on behalf of a consumer. The ordering below is
// load-bearing: the fee must be proven affordable before the external
// transfer is attempted, and the nonce advances only after the transfer
// succeeded, so a failed relay never burns the consumer's nonce.
func (p *Processor) submit(it *accountIter, args *SubmitArgs) error {
	ledgerAccount, err := it.next()
	if err != nil {
		return err
	}
	sender, err := it.next()
	if err != nil {
		return err
	}
	receiver, err := it.next()
	if err != nil {
		return err
	}
	executor, err := it.next()
	if err != nil {
		return err
	}
	rec, err := ledger.Load(ledgerAccount.Data)
	if err != nil {
		return err
	}

	if !rec.HasConsumer(sender.Address) {
		return fmt.Errorf("%w: consumer %s never topped up", ErrMalformed, sender.Address)
	}
	expected := rec.NextNonce(sender.Address)
	if rec.NonceUsed(sender.Address, args.Nonce) {
		return fmt.Errorf("%w: nonce %d, expected %d", ErrReplayAttack, args.Nonce, expected)
	}
	if args.Nonce != expected {
		return fmt.Errorf("%w: got %d, expected %d", ErrInvalidNonce, args.Nonce, expected)
	}

	fee := rec.CalculateFee(args.Amount)
	balance := rec.ConsumerBalance(sender.Address)
	if balance < fee {
		p.logger.Warn("execution failed: insufficient balance",
			zap.Stringer("consumer", sender.Address),
			zap.Uint64("required_fee", fee),
			zap.Uint64("available_balance", balance),
		)
		return fmt.Errorf("%w: fee %d, balance %d", ErrInsufficientBalance, fee, balance)
	}

	p.logger.Info("execution start",
		zap.Stringer("consumer", sender.Address),
		zap.Stringer("executor", executor.Address),
		zap.Uint64("amount", args.Amount),
		zap.Uint64("fee", fee),
		zap.Uint64("nonce", args.Nonce),
	)
	if err := p.transfer.Transfer(sender.Address, receiver.Address, args.Amount); err != nil {
		p.logger.Warn("execution failed",
			zap.Stringer("consumer", sender.Address),
			zap.Stringer("executor", executor.Address),
			zap.Error(err),
		)
		return err
	}

	rec.RecordExecution(sender.Address, args.Nonce, executor.Address)
	rec.IncrementNonce(sender.Address)
	rec.CreditExecutor(executor.Address, fee)
	rec.DebitConsumer(sender.Address, fee)
	p.logger.Info("execution success",
		zap.Stringer("consumer", sender.Address),
		zap.Stringer("executor", executor.Address),
		zap.Uint64("amount", args.Amount),
		zap.Uint64("fee", fee),
		zap.Uint64("consumer_balance", rec.ConsumerBalance(sender.Address)),
		zap.Uint64("executor_earned", rec.ExecutorEarned(executor.Address)),
	)
	return persist(rec, ledgerAccount)
}

// updateFeeParams applies a new fee mode after the authority gate.
func (p *Processor) updateFeeParams(it *accountIter, args *UpdateFeeParamsArgs) error {
	ledgerAccount, rec, err := p.governed(it)
	if err != nil {
		return err
	}
	mode, err := feeMode(args)
	if err != nil {
		return err
	}
	rec.SetFeeMode(mode)
	p.logger.Info("fee params updated",
		zap.Uint8("mode", mode.Kind),
		zap.Uint64("amount", mode.Amount),
		zap.Uint16("basis_points", mode.BasisPoints),
	)
	return persist(rec, ledgerAccount)
}

func (p *Processor) addAllowedToken(it *accountIter, args *TokenArgs) error {
	ledgerAccount, rec, err := p.governed(it)
	if err != nil {
		return err
	}
	rec.AllowToken(args.Token)
	p.logger.Info("token allowed", zap.Stringer("token", args.Token))
	return persist(rec, ledgerAccount)
}

func (p *Processor) removeAllowedToken(it *accountIter, args *TokenArgs) error {
	ledgerAccount, rec, err := p.governed(it)
	if err != nil {
		return err
	}
	rec.DisallowToken(args.Token)
	p.logger.Info("token disallowed", zap.Stringer("token", args.Token))
	return persist(rec, ledgerAccount)
}

// claimFees pays out accumulated earnings to the executor itself. The ledger
// account is the source of the payout, so it must hold enough native funds
// to cover cumulative claims.
func (p *Processor) claimFees(it *accountIter) error {
	ledgerAccount, err := it.next()
	if err != nil {
		return err
	}
	executor, err := it.next()
	if err != nil {
		return err
	}
	destination, err := it.next()
	if err != nil {
		return err
	}
	if !executor.Signer {
		return fmt.Errorf("%w: claimant did not sign", ErrUnauthorizedFeeClaim)
	}
	if executor.Address != destination.Address {
		return fmt.Errorf("%w: destination %s differs from claimant %s",
			ErrUnauthorizedFeeClaim, destination.Address, executor.Address)
	}
	rec, err := ledger.Load(ledgerAccount.Data)
	if err != nil {
		return err
	}
	earned := rec.ExecutorEarned(executor.Address)
	if earned == 0 {
		return fmt.Errorf("%w: executor %s", ErrInsufficientFunds, executor.Address)
	}
	p.logger.Info("claim start",
		zap.Stringer("executor", executor.Address),
		zap.Uint64("amount", earned),
	)
	if err := p.transfer.Transfer(ledgerAccount.Address, destination.Address, earned); err != nil {
		p.logger.Warn("claim failed",
			zap.Stringer("executor", executor.Address),
			zap.Uint64("amount", earned),
			zap.Error(err),
		)
		return err
	}
	rec.ResetExecutor(executor.Address)
	p.logger.Info("claim complete",
		zap.Stringer("executor", executor.Address),
		zap.Uint64("claimed", earned),
	)
	return persist(rec, ledgerAccount)
}

// governed loads the record behind the [ledger, authority] account pair and
// enforces the authority gate shared by all governance mutations.
func (p *Processor) governed(it *accountIter) (*Account, *ledger.Record, error) {
	ledgerAccount, err := it.next()
	if err != nil {
		return nil, nil, err
	}
	authority, err := it.next()
	if err != nil {
		return nil, nil, err
	}
	if !authority.Signer {
		return nil, nil, fmt.Errorf("%w: candidate did not sign", ErrUnauthorized)
	}
	rec, err := ledger.Load(ledgerAccount.Data)
	if err != nil {
		return nil, nil, err
	}
	if !rec.IsAuthority(authority.Address) {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnauthorized, authority.Address)
	}
	return ledgerAccount, rec, nil
}

func feeMode(args *UpdateFeeParamsArgs) (ledger.FeeMode, error) {
	switch args.FeeModeType {
	case ledger.FeeModeFixed:
		return ledger.FixedFee(args.FeeValue), nil
	case ledger.FeeModePercent:
		if args.FeeValue > ledger.MaxBasisPoints {
			return ledger.FeeMode{}, fmt.Errorf("%w: %d basis points", ErrInvalidFeeMode, args.FeeValue)
		}
		return ledger.PercentFee(uint16(args.FeeValue)), nil
	default:
		return ledger.FeeMode{}, fmt.Errorf("%w: unknown tag %d", ErrInvalidFeeMode, args.FeeModeType)
	}
}

func persist(rec *ledger.Record, account *Account) error {
	_, err := rec.MarshalTo(account.Data)
	return err
}
