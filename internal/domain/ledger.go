package domain

import (
	"fmt"

	"github.com/Grailmarket/gusd/pkg/safe"
)

// Ledger is the fungible token balance book. All amounts are int64 in
// shared-decimal units. Mint and burn are the only transitions that change
// total supply; transfer conserves it.
type Ledger struct {
	balances    map[Address]int64
	totalSupply int64
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{balances: make(map[Address]int64)}
}

// BalanceOf returns the balance of an account. Unknown accounts are zero.
func (l *Ledger) BalanceOf(a Address) int64 {
	return l.balances[a]
}

// TotalSupply returns the sum of all balances.
func (l *Ledger) TotalSupply() int64 {
	return l.totalSupply
}

// Mint credits amount to an account and grows total supply.
func (l *Ledger) Mint(to Address, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: mint %d", ErrInvalidAmount, amount)
	}
	newSupply, ok := safe.TryAdd(l.totalSupply, amount)
	if !ok {
		return fmt.Errorf("%w: mint %d overflows supply", ErrInvalidAmount, amount)
	}
	// Balance overflow is implied impossible once supply fits.
	l.balances[to] += amount
	l.totalSupply = newSupply
	return nil
}

// Burn debits amount from an account and shrinks total supply.
func (l *Ledger) Burn(from Address, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: burn %d", ErrInvalidAmount, amount)
	}
	bal := l.balances[from]
	if bal < amount {
		return fmt.Errorf("%w: burn %d > balance %d", ErrInsufficientBalance, amount, bal)
	}
	l.balances[from] = bal - amount
	l.totalSupply -= amount
	return nil
}

// Transfer moves amount between accounts without changing total supply.
func (l *Ledger) Transfer(from, to Address, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: transfer %d", ErrInvalidAmount, amount)
	}
	bal := l.balances[from]
	if bal < amount {
		return fmt.Errorf("%w: transfer %d > balance %d", ErrInsufficientBalance, amount, bal)
	}
	l.balances[from] = bal - amount
	l.balances[to] += amount
	return nil
}

// Balances returns a copy of the balance map for snapshotting.
func (l *Ledger) Balances() map[Address]int64 {
	out := make(map[Address]int64, len(l.balances))
	for k, v := range l.balances {
		out[k] = v
	}
	return out
}

// Restore replaces the ledger contents. Used only by state recovery.
func (l *Ledger) Restore(balances map[Address]int64, totalSupply int64) {
	l.balances = make(map[Address]int64, len(balances))
	for k, v := range balances {
		l.balances[k] = v
	}
	l.totalSupply = totalSupply
}

// VerifyInvariant panics if the sum of balances diverges from total supply
// or any balance is negative. Corruption here is unrecoverable.
func (l *Ledger) VerifyInvariant() {
	sum := int64(0)
	for a, v := range l.balances {
		if v < 0 {
			panic(fmt.Sprintf("LEDGER_NEGATIVE_BALANCE: %s=%d", a, v))
		}
		sum = safe.SafeAdd(sum, v)
	}
	if sum != l.totalSupply {
		panic(fmt.Sprintf("LEDGER_SUPPLY_MISMATCH: sum=%d supply=%d", sum, l.totalSupply))
	}
}
