package domain

import "errors"

// Failure taxonomy. Every caller-visible failure is one of these sentinels,
// possibly wrapped with context; integrators branch with errors.Is.
var (
	// ErrInvalidAmount covers zero, negative, below-granule, and
	// out-of-range amounts.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientLiquidity means a redeem payout exceeds the vault's
	// currency balance.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")

	// ErrInsufficientBalance is the ledger-level failure: a burn or
	// transfer exceeds the holder's balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInsufficientFee means the caller underpaid a mint cost or a
	// transport fee quote.
	ErrInsufficientFee = errors.New("insufficient fee")

	ErrOnlyMinter          = errors.New("only minter allowed")
	ErrOnlyOwner           = errors.New("only owner allowed")
	ErrOnlyGovernanceChain = errors.New("only governance chain allowed")

	ErrPeerAlreadySet   = errors.New("peer already set")
	ErrPeerNotSet       = errors.New("peer not set")
	ErrFunctionDisabled = errors.New("function disabled")

	ErrFeeTooLarge          = errors.New("fee exceeds maximum bps")
	ErrAmountExceedsAccrued = errors.New("amount exceeds accrued fees")

	ErrCannotRecoverCurrency = errors.New("cannot recover accepted currency")

	// ErrTransferFailed wraps a rejected external currency call.
	ErrTransferFailed = errors.New("currency transfer failed")

	// ErrUnknownMessageType is raised for an unrecognized wire
	// discriminant instead of silently dropping the message.
	ErrUnknownMessageType = errors.New("unknown message type")

	// ErrDecimalsTooSmall rejects binding a currency whose native
	// precision is below the shared precision at construction time.
	ErrDecimalsTooSmall = errors.New("currency decimals below shared precision")
)
