package relay

import "errors"

var (
	// ErrAlreadyInUse is returned when a ledger account is reused for
	// initialization. The host account store enforces this.
	ErrAlreadyInUse = errors.New("ledger account already in use")
	// ErrMalformed is returned on instruction buffers that cannot be decoded
	// and on submissions from consumers that never topped up.
	ErrMalformed = errors.New("malformed instruction")
	// ErrMissingAccount is returned when the positional account list is
	// shorter than the handler requires.
	ErrMissingAccount = errors.New("missing account")
	// ErrUnauthorized is returned when a governance-gated operation is
	// attempted by a non-authority or a non-signer.
	ErrUnauthorized = errors.New("unauthorized: not the governance authority")
	// ErrGovernanceNotInitialized is returned when a governance mutation is
	// requested with no governance configured.
	ErrGovernanceNotInitialized = errors.New("governance not initialized")
	// ErrInvalidFeeMode is returned on an unrecognized fee mode tag or a
	// percent fee above 10000 basis points.
	ErrInvalidFeeMode = errors.New("invalid fee mode")
	// ErrInsufficientBalance is returned when the consumer top-up balance
	// does not cover the expected fee.
	ErrInsufficientBalance = errors.New("insufficient balance: top-up balance does not cover expected fee")
	// ErrReplayAttack is returned when a nonce below the expected value is
	// submitted.
	ErrReplayAttack = errors.New("replay attack detected: nonce already used")
	// ErrInvalidNonce is returned when the submitted nonce is not exactly
	// the expected next value.
	ErrInvalidNonce = errors.New("invalid nonce: expected next nonce")
	// ErrUnauthorizedFeeClaim is returned when the claimant is not a signer
	// or claims to a destination other than itself.
	ErrUnauthorizedFeeClaim = errors.New("unauthorized fee claim: only the executor can claim own fees")
	// ErrInsufficientFunds is returned when an executor claims with zero
	// earned fees.
	ErrInsufficientFunds = errors.New("insufficient funds: no fees earned")
)
