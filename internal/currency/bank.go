package currency

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/Grailmarket/gusd/internal/domain"
)

// Bank is an in-memory Currency used by the simulator and tests. It keeps
// raw-unit balances under a mutex so concurrent controller calls stay safe.
type Bank struct {
	mu       sync.Mutex
	id       string
	decimals uint8
	native   bool
	balances map[domain.Address]*big.Int
}

// NewBank creates an empty in-memory currency.
func NewBank(id string, decimals uint8, native bool) *Bank {
	return &Bank{
		id:       id,
		decimals: decimals,
		native:   native,
		balances: make(map[domain.Address]*big.Int),
	}
}

func (b *Bank) ID() string      { return b.id }
func (b *Bank) Decimals() uint8 { return b.decimals }
func (b *Bank) Native() bool    { return b.native }

// Deposit credits an account directly. Test and simulator setup only.
func (b *Bank) Deposit(account domain.Address, amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.credit(account, amount)
}

func (b *Bank) BalanceOf(ctx context.Context, account domain.Address) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bal, ok := b.balances[account]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(bal), nil
}

func (b *Bank) Transfer(ctx context.Context, from, to domain.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: invalid amount", domain.ErrTransferFailed)
	}
	if amount.Sign() == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	bal, ok := b.balances[from]
	if !ok || bal.Cmp(amount) < 0 {
		slog.Warn("Currency transfer rejected",
			slog.String("currency", b.id),
			slog.String("from", from.String()),
			slog.String("amount", amount.String()))
		return fmt.Errorf("%w: insufficient %s balance", domain.ErrTransferFailed, b.id)
	}

	bal.Sub(bal, amount)
	if bal.Sign() == 0 {
		delete(b.balances, from)
	}
	b.credit(to, amount)
	return nil
}

// credit assumes the lock is held.
func (b *Bank) credit(account domain.Address, amount *big.Int) {
	bal, ok := b.balances[account]
	if !ok {
		b.balances[account] = new(big.Int).Set(amount)
		return
	}
	bal.Add(bal, amount)
}
