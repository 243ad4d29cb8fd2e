package domain

import (
	"fmt"
	"math/big"
)

// MaxFeeBps bounds the protocol fee at 10%.
const MaxFeeBps = 1000

// FeeAccount tracks the mutable fee rate and the accrued protocol fee
// balance in local-currency units. It is pure accounting; custody of the
// underlying currency lives elsewhere.
type FeeAccount struct {
	bps     int64
	accrued *big.Int
}

// NewFeeAccount creates a fee account with the given initial rate.
func NewFeeAccount(bps int64) (*FeeAccount, error) {
	f := &FeeAccount{accrued: new(big.Int)}
	if err := f.SetBps(bps); err != nil {
		return nil, err
	}
	return f, nil
}

// Bps returns the current fee rate in basis points.
func (f *FeeAccount) Bps() int64 { return f.bps }

// Accrued returns a copy of the accrued fee balance.
func (f *FeeAccount) Accrued() *big.Int { return new(big.Int).Set(f.accrued) }

// SetBps updates the fee rate, bounded to [0, MaxFeeBps].
func (f *FeeAccount) SetBps(bps int64) error {
	if bps < 0 || bps > MaxFeeBps {
		return fmt.Errorf("%w: %d bps > %d", ErrFeeTooLarge, bps, MaxFeeBps)
	}
	f.bps = bps
	return nil
}

// Accrue adds a collected mint fee to the accrued balance. big.Int makes
// the balance unbounded, so no overflow saturation is needed.
func (f *FeeAccount) Accrue(fee *big.Int) {
	if fee == nil || fee.Sign() <= 0 {
		return
	}
	f.accrued.Add(f.accrued, fee)
}

// Collect removes amount from the accrued balance and returns the amount
// actually collected. A zero (or nil) amount collects the entire balance.
// Collecting more than accrued fails without mutating state.
func (f *FeeAccount) Collect(amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() == 0 {
		collected := new(big.Int).Set(f.accrued)
		f.accrued.SetInt64(0)
		return collected, nil
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative collect", ErrInvalidAmount)
	}
	if amount.Cmp(f.accrued) > 0 {
		return nil, fmt.Errorf("%w: %s > %s", ErrAmountExceedsAccrued, amount, f.accrued)
	}
	f.accrued.Sub(f.accrued, amount)
	return new(big.Int).Set(amount), nil
}

// Restore replaces the fee state. Used only by state recovery.
func (f *FeeAccount) Restore(bps int64, accrued *big.Int) {
	f.bps = bps
	f.accrued = new(big.Int).Set(accrued)
}
