// Package currency abstracts the local settlement asset on a chain. Mint
// payments come in through it and redemption payouts go out through it.
// Amounts are raw units of the currency's own decimals, so they are big.Int:
// an 18-decimal payout does not fit in int64.
package currency

import (
	"context"
	"math/big"

	"github.com/Grailmarket/gusd/internal/domain"
)

// Currency is the settlement asset the controller pulls mint payments from
// and pays redemptions into.
type Currency interface {
	// ID identifies the currency for logging and recovery checks.
	ID() string

	// Decimals is the currency's own decimal precision.
	Decimals() uint8

	// Native reports whether this is the chain's native asset. Native
	// payments arrive attached to the call instead of being pulled.
	Native() bool

	// BalanceOf returns the raw-unit balance held by account.
	BalanceOf(ctx context.Context, account domain.Address) (*big.Int, error)

	// Transfer moves amount raw units from one account to another. It
	// returns domain.ErrTransferFailed wrapped with the cause when the
	// move cannot be completed.
	Transfer(ctx context.Context, from, to domain.Address, amount *big.Int) error
}
