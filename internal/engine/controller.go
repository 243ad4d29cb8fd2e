// Package engine holds the CrossChainController: the single place where
// ledger, fee, and peer state mutate. Every public operation is one atomic,
// serialized state transition; either all of its effects commit or none do.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/Grailmarket/gusd/internal/currency"
	"github.com/Grailmarket/gusd/internal/domain"
	"github.com/Grailmarket/gusd/internal/event"
	"github.com/Grailmarket/gusd/internal/storage"
	"github.com/Grailmarket/gusd/internal/transport"
	"github.com/Grailmarket/gusd/internal/wire"
	"github.com/Grailmarket/gusd/pkg/safe"
)

// Config fixes the controller's identity and authorization surface at
// construction.
type Config struct {
	ChainID         domain.ChainID
	GovernanceChain domain.ChainID
	Owner           domain.Address
	Minter          domain.Address
	// Vault is the currency account holding mint payments and redemption
	// liquidity.
	Vault      domain.Address
	PeerPolicy domain.PeerPolicy
	FeeBps     int64
}

// Controller orchestrates mint/redeem arithmetic, the token ledger, the
// peer table, and cross-chain message dispatch for one deployment.
type Controller struct {
	mu sync.Mutex

	cfg    Config
	params *domain.ConversionParams
	ledger *domain.Ledger
	fees   *domain.FeeAccount
	peers  *domain.PeerTable

	cur currency.Currency
	tp  transport.Transport

	// Journal and snapshots are optional; a nil journal runs in-memory
	// only (tests, quoting tools).
	journal *storage.Journal
	snaps   *storage.SnapshotManager

	// lastSeq is the sequence number of the last applied journal record.
	lastSeq uint64
}

// NewController wires a controller for one chain deployment. The currency's
// decimal count fixes the conversion arithmetic; native currencies map to 18
// decimals.
func NewController(cfg Config, cur currency.Currency, tp transport.Transport, journal *storage.Journal, snaps *storage.SnapshotManager) (*Controller, error) {
	decimals := cur.Decimals()
	if cur.Native() {
		decimals = domain.NativeDecimals
	}
	params, err := domain.NewConversionParams(decimals)
	if err != nil {
		return nil, err
	}
	fees, err := domain.NewFeeAccount(cfg.FeeBps)
	if err != nil {
		return nil, err
	}

	return &Controller{
		cfg:     cfg,
		params:  params,
		ledger:  domain.NewLedger(),
		fees:    fees,
		peers:   domain.NewPeerTable(cfg.PeerPolicy),
		cur:     cur,
		tp:      tp,
		journal: journal,
		snaps:   snaps,
	}, nil
}

// ChainID returns the local chain identity.
func (c *Controller) ChainID() domain.ChainID { return c.cfg.ChainID }

// Params exposes the immutable conversion constants for quoting tools.
func (c *Controller) Params() *domain.ConversionParams { return c.params }

// ---------------------------------------------------------------------------
// Mint / redeem

// Mint charges the caller base+fee in local currency and credits lots worth
// of tokens. The payment is pulled before the ledger mutates; a ledger
// failure after the pull refunds the payment.
func (c *Controller) Mint(ctx context.Context, caller domain.Address, lots int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	base, fee, err := c.params.MintCost(lots, c.fees.Bps())
	if err != nil {
		return err
	}
	minted := c.params.MintedAmount(lots)
	if _, ok := safe.TryAdd(c.ledger.TotalSupply(), minted); !ok {
		return fmt.Errorf("%w: mint %d overflows supply", domain.ErrInvalidAmount, minted)
	}

	total := new(big.Int).Add(base, fee)
	if err := c.cur.Transfer(ctx, caller, c.cfg.Vault, total); err != nil {
		return err
	}

	if err := c.ledger.Mint(caller, minted); err != nil {
		// Refund the pulled payment; supply overflow was pre-checked so
		// this path means a logic bug upstream.
		if rerr := c.cur.Transfer(ctx, c.cfg.Vault, caller, total); rerr != nil {
			panic(fmt.Sprintf("MINT_REFUND_FAILURE: %v after %v", rerr, err))
		}
		return err
	}
	c.fees.Accrue(fee)

	c.append(&event.MintEvent{
		Account:  caller,
		Lots:     lots,
		Minted:   minted,
		BaseCost: base.String(),
		Fee:      fee.String(),
	})
	slog.Info("Mint applied",
		slog.String("account", caller.String()),
		slog.Int64("lots", lots),
		slog.Int64("minted", minted))
	return nil
}

// MintNative is the payable variant for native-currency deployments. The
// attached value must cover base+fee; only the exact cost is pulled, so any
// excess never leaves the caller.
func (c *Controller) MintNative(ctx context.Context, caller domain.Address, lots int64, value *big.Int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.cur.Native() {
		return fmt.Errorf("%w: deployment accepts %s, not native value", domain.ErrInvalidAmount, c.cur.ID())
	}
	base, fee, err := c.params.MintCost(lots, c.fees.Bps())
	if err != nil {
		return err
	}
	total := new(big.Int).Add(base, fee)
	if value == nil || value.Cmp(total) < 0 {
		return fmt.Errorf("%w: need %s, got %v", domain.ErrInsufficientFee, total, value)
	}
	minted := c.params.MintedAmount(lots)
	if _, ok := safe.TryAdd(c.ledger.TotalSupply(), minted); !ok {
		return fmt.Errorf("%w: mint %d overflows supply", domain.ErrInvalidAmount, minted)
	}

	if err := c.cur.Transfer(ctx, caller, c.cfg.Vault, total); err != nil {
		return err
	}
	if err := c.ledger.Mint(caller, minted); err != nil {
		if rerr := c.cur.Transfer(ctx, c.cfg.Vault, caller, total); rerr != nil {
			panic(fmt.Sprintf("MINT_REFUND_FAILURE: %v after %v", rerr, err))
		}
		return err
	}
	c.fees.Accrue(fee)

	c.append(&event.MintEvent{
		Account:  caller,
		Lots:     lots,
		Minted:   minted,
		BaseCost: base.String(),
		Fee:      fee.String(),
	})
	return nil
}

// Redeem burns amount from the caller and pays out the converted local
// amount from the vault. Burn happens before the external transfer; a
// failed payout re-mints so no partial state is observed.
func (c *Controller) Redeem(ctx context.Context, caller domain.Address, amount int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	payout, err := c.params.RedeemPayout(amount)
	if err != nil {
		return err
	}

	vaultBal, err := c.cur.BalanceOf(ctx, c.cfg.Vault)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
	}
	if vaultBal.Cmp(payout) < 0 {
		return fmt.Errorf("%w: payout %s > vault %s", domain.ErrInsufficientLiquidity, payout, vaultBal)
	}

	if err := c.ledger.Burn(caller, amount); err != nil {
		return err
	}
	if err := c.cur.Transfer(ctx, c.cfg.Vault, caller, payout); err != nil {
		// Compensate: the burn must not stick without the payout.
		if rerr := c.ledger.Mint(caller, amount); rerr != nil {
			panic(fmt.Sprintf("REDEEM_COMPENSATION_FAILURE: %v after %v", rerr, err))
		}
		return err
	}

	c.append(&event.RedeemEvent{
		Account: caller,
		Amount:  amount,
		Payout:  payout.String(),
	})
	slog.Info("Redeem applied",
		slog.String("account", caller.String()),
		slog.Int64("amount", amount),
		slog.String("payout", payout.String()))
	return nil
}

// ---------------------------------------------------------------------------
// Minter surface

// Credit mints amount to an account. Minter-only.
func (c *Controller) Credit(ctx context.Context, caller, account domain.Address, amount int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.cfg.Minter {
		return domain.ErrOnlyMinter
	}
	if err := c.ledger.Mint(account, amount); err != nil {
		return err
	}
	c.append(&event.CreditEvent{Account: account, Amount: amount})
	return nil
}

// Debit burns amount from an account. Minter-only.
func (c *Controller) Debit(ctx context.Context, caller, account domain.Address, amount int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.cfg.Minter {
		return domain.ErrOnlyMinter
	}
	if err := c.ledger.Burn(account, amount); err != nil {
		return err
	}
	c.append(&event.DebitEvent{Account: account, Amount: amount})
	return nil
}

// ---------------------------------------------------------------------------
// Cross-chain sends

// Send burns amount from the caller and dispatches a value transfer to the
// destination chain. The burn is first; a transport failure re-mints.
func (c *Controller) Send(ctx context.Context, caller domain.Address, dstChain domain.ChainID, to domain.Address, amount int64, fee int64) (*transport.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.peers.Get(dstChain); !ok {
		return nil, fmt.Errorf("%w: chain %d", domain.ErrPeerNotSet, dstChain)
	}
	payload, err := wire.Encode(wire.ValueTransfer{To: to, Amount: amount})
	if err != nil {
		return nil, err
	}
	quoted, err := c.tp.Quote(dstChain, len(payload))
	if err != nil {
		return nil, err
	}
	if fee < quoted {
		return nil, fmt.Errorf("%w: need %d, got %d", domain.ErrInsufficientFee, quoted, fee)
	}

	if err := c.ledger.Burn(caller, amount); err != nil {
		return nil, err
	}
	receipt, err := c.tp.Send(ctx, dstChain, payload, fee)
	if err != nil {
		if rerr := c.ledger.Mint(caller, amount); rerr != nil {
			panic(fmt.Sprintf("SEND_COMPENSATION_FAILURE: %v after %v", rerr, err))
		}
		return nil, err
	}

	c.append(&event.SentEvent{
		From:      caller,
		DstChain:  dstChain,
		To:        to,
		Amount:    amount,
		MessageID: receipt.MessageID.String(),
		Nonce:     receipt.Nonce,
		Fee:       receipt.Fee,
	})
	slog.Info("Transfer sent",
		slog.String("from", caller.String()),
		slog.Uint64("dst", uint64(dstChain)),
		slog.Int64("amount", amount),
		slog.String("message_id", receipt.MessageID.String()))
	return receipt, nil
}

// DeliverMessage consumes one inbound cross-chain payload. It dispatches on
// the wire discriminant; an unknown discriminant is an explicit error with
// no state touched.
func (c *Controller) DeliverMessage(ctx context.Context, origin transport.Origin, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg, err := wire.Decode(payload)
	if err != nil {
		return err
	}

	switch m := msg.(type) {
	case wire.ValueTransfer:
		// The transport vouches for frame authenticity; the peer table
		// check pins the source address to the registered deployment.
		if !c.peers.IsPeer(origin.SrcChain, origin.SrcAddr) {
			return fmt.Errorf("%w: chain %d addr %s", domain.ErrPeerNotSet, origin.SrcChain, origin.SrcAddr)
		}
		if err := c.ledger.Mint(m.To, m.Amount); err != nil {
			return err
		}
		c.append(&event.ReceivedEvent{
			SrcChain: origin.SrcChain,
			To:       m.To,
			Amount:   m.Amount,
		})
		slog.Info("Transfer received",
			slog.Uint64("src", uint64(origin.SrcChain)),
			slog.String("to", m.To.String()),
			slog.Int64("amount", m.Amount))
		return nil

	case wire.PeerUpdate:
		if origin.SrcChain != c.cfg.GovernanceChain {
			return fmt.Errorf("%w: peer update from chain %d", domain.ErrOnlyGovernanceChain, origin.SrcChain)
		}
		for _, p := range m.Peers {
			c.peers.Refresh(p.Chain, p.Addr)
			c.append(&event.PeerSetEvent{Chain: p.Chain, Addr: p.Addr})
		}
		slog.Info("Peer table refreshed by governance",
			slog.Int("entries", len(m.Peers)))
		return nil

	default:
		return fmt.Errorf("%w: %T", domain.ErrUnknownMessageType, msg)
	}
}

// AddPeers sets every entry locally and broadcasts the full list to each
// listed chain. Owner-only; under the governed policy it is additionally
// restricted to the governance chain. The supplied fee must cover the sum
// of per-chain quotes. A failed broadcast rolls the local writes back.
func (c *Controller) AddPeers(ctx context.Context, caller domain.Address, entries []wire.PeerEntry, fee int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.cfg.Owner {
		return domain.ErrOnlyOwner
	}
	if c.cfg.PeerPolicy == domain.PolicyGoverned && c.cfg.ChainID != c.cfg.GovernanceChain {
		return fmt.Errorf("%w: add peers from chain %d", domain.ErrOnlyGovernanceChain, c.cfg.ChainID)
	}
	if len(entries) == 0 {
		return fmt.Errorf("%w: empty peer list", domain.ErrInvalidAmount)
	}

	payload, err := wire.Encode(wire.PeerUpdate{Peers: entries})
	if err != nil {
		return err
	}
	required, err := c.quoteAddPeersLocked(entries, payload)
	if err != nil {
		return err
	}
	if fee < required {
		return fmt.Errorf("%w: need %d, got %d", domain.ErrInsufficientFee, required, fee)
	}

	// Snapshot the table so a failed broadcast leaves it as it was.
	before := c.peers.All()
	for _, e := range entries {
		c.peers.Refresh(e.Chain, e.Addr)
	}
	rollback := func() { c.peers.Restore(before) }

	for _, e := range entries {
		if e.Chain == c.cfg.ChainID {
			continue // local entry needs no broadcast
		}
		perChain, qerr := c.tp.Quote(e.Chain, len(payload))
		if qerr != nil {
			rollback()
			return qerr
		}
		if _, serr := c.tp.Send(ctx, e.Chain, payload, perChain); serr != nil {
			rollback()
			return serr
		}
	}

	for _, e := range entries {
		c.append(&event.PeerSetEvent{Chain: e.Chain, Addr: e.Addr})
	}
	slog.Info("Peers added",
		slog.Int("entries", len(entries)),
		slog.Int64("fee", required))
	return nil
}

// ---------------------------------------------------------------------------
// Owner surface

// SetPeer is the direct peer setter. Owner-only; the table's policy decides
// whether the write is allowed at all.
func (c *Controller) SetPeer(ctx context.Context, caller domain.Address, chain domain.ChainID, addr domain.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.cfg.Owner {
		return domain.ErrOnlyOwner
	}
	if err := c.peers.Set(chain, addr); err != nil {
		return err
	}
	c.append(&event.PeerSetEvent{Chain: chain, Addr: addr})
	return nil
}

// SetFeeBps updates the mint fee rate. Owner-only, bounded by MaxFeeBps.
func (c *Controller) SetFeeBps(ctx context.Context, caller domain.Address, bps int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.cfg.Owner {
		return domain.ErrOnlyOwner
	}
	if err := c.fees.SetBps(bps); err != nil {
		return err
	}
	c.append(&event.FeeRateSetEvent{Bps: bps})
	return nil
}

// CollectFee pays accrued protocol fees out of the vault. Amount nil or
// zero collects everything. Owner-only.
func (c *Controller) CollectFee(ctx context.Context, caller, recipient domain.Address, amount *big.Int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.cfg.Owner {
		return domain.ErrOnlyOwner
	}
	collected, err := c.fees.Collect(amount)
	if err != nil {
		return err
	}
	if collected.Sign() == 0 {
		return nil
	}
	if err := c.cur.Transfer(ctx, c.cfg.Vault, recipient, collected); err != nil {
		// Put the accrued balance back; the books must match custody.
		c.fees.Accrue(collected)
		return err
	}

	c.append(&event.FeeCollectedEvent{Recipient: recipient, Amount: collected.String()})
	return nil
}

// RecoverToken sweeps a stray currency out of the vault. The accepted
// settlement currency cannot be recovered this way. Amount nil or zero
// sweeps the full balance. Owner-only.
func (c *Controller) RecoverToken(ctx context.Context, caller domain.Address, stray currency.Currency, recipient domain.Address, amount *big.Int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.cfg.Owner {
		return domain.ErrOnlyOwner
	}
	if stray.ID() == c.cur.ID() {
		return fmt.Errorf("%w: %s", domain.ErrCannotRecoverCurrency, stray.ID())
	}
	if amount == nil || amount.Sign() == 0 {
		bal, err := stray.BalanceOf(ctx, c.cfg.Vault)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
		}
		amount = bal
	}
	if amount.Sign() == 0 {
		return nil
	}
	return stray.Transfer(ctx, c.cfg.Vault, recipient, amount)
}

// ---------------------------------------------------------------------------
// Views

// GetBalances returns the caller's local-currency and token balances in one
// call.
func (c *Controller) GetBalances(ctx context.Context, account domain.Address) (*big.Int, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	local, err := c.cur.BalanceOf(ctx, account)
	if err != nil {
		return nil, 0, err
	}
	return local, c.ledger.BalanceOf(account), nil
}

// TotalSupply returns the token supply on this chain.
func (c *Controller) TotalSupply() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.TotalSupply()
}

// AccruedFees returns the uncollected protocol fee balance.
func (c *Controller) AccruedFees() *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fees.Accrued()
}

// IsPeer reports whether addr is the registered deployment for chain.
func (c *Controller) IsPeer(chain domain.ChainID, addr domain.Address) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peers.IsPeer(chain, addr)
}

// QuoteMint mirrors Mint's cost formula exactly: (baseCost, fee, total).
func (c *Controller) QuoteMint(lots int64) (*big.Int, *big.Int, *big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	base, fee, err := c.params.MintCost(lots, c.fees.Bps())
	if err != nil {
		return nil, nil, nil, err
	}
	return base, fee, new(big.Int).Add(base, fee), nil
}

// QuoteSend returns the transport fee Send would charge for this transfer.
func (c *Controller) QuoteSend(dstChain domain.ChainID, to domain.Address, amount int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	payload, err := wire.Encode(wire.ValueTransfer{To: to, Amount: amount})
	if err != nil {
		return 0, err
	}
	return c.tp.Quote(dstChain, len(payload))
}

// QuoteAddPeers returns the aggregate fee AddPeers would require.
func (c *Controller) QuoteAddPeers(entries []wire.PeerEntry) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(entries) == 0 {
		return 0, fmt.Errorf("%w: empty peer list", domain.ErrInvalidAmount)
	}
	payload, err := wire.Encode(wire.PeerUpdate{Peers: entries})
	if err != nil {
		return 0, err
	}
	return c.quoteAddPeersLocked(entries, payload)
}

func (c *Controller) quoteAddPeersLocked(entries []wire.PeerEntry, payload []byte) (int64, error) {
	total := int64(0)
	for _, e := range entries {
		if e.Chain == c.cfg.ChainID {
			continue
		}
		q, err := c.tp.Quote(e.Chain, len(payload))
		if err != nil {
			return 0, err
		}
		total = safe.SafeAdd(total, q)
	}
	return total, nil
}

// ---------------------------------------------------------------------------
// Journal / recovery

// append journals a record inside the critical section. Persistence failure
// halts the process; a controller that cannot journal must not keep
// mutating.
func (c *Controller) append(ev event.Event) {
	c.lastSeq++
	c.stamp(ev, c.lastSeq)

	if c.journal == nil {
		return
	}
	if err := c.journal.Append(context.Background(), ev); err != nil {
		panic(fmt.Sprintf("PERSISTENCE_FAILURE: %v", err))
	}
}

func (c *Controller) stamp(ev event.Event, seq uint64) {
	base := event.BaseEvent{Seq: seq, Ts: time.Now().UnixMicro()}
	switch e := ev.(type) {
	case *event.MintEvent:
		e.BaseEvent = base
	case *event.RedeemEvent:
		e.BaseEvent = base
	case *event.CreditEvent:
		e.BaseEvent = base
	case *event.DebitEvent:
		e.BaseEvent = base
	case *event.SentEvent:
		e.BaseEvent = base
	case *event.ReceivedEvent:
		e.BaseEvent = base
	case *event.PeerSetEvent:
		e.BaseEvent = base
	case *event.FeeRateSetEvent:
		e.BaseEvent = base
	case *event.FeeCollectedEvent:
		e.BaseEvent = base
	default:
		panic(fmt.Sprintf("UNSTAMPABLE_EVENT: %T", ev))
	}
}

// ReplayEvent applies one journal record without journaling and without
// external side effects. Recovery rebuilds state through the same
// transitions the live path used.
func (c *Controller) ReplayEvent(ev event.Event) {
	if ev.GetSeq() != c.lastSeq+1 {
		panic(fmt.Sprintf("REPLAY_GAP_DETECTED: expected %d, got %d", c.lastSeq+1, ev.GetSeq()))
	}

	switch e := ev.(type) {
	case *event.MintEvent:
		c.mustApply(c.ledger.Mint(e.Account, e.Minted), ev)
		c.fees.Accrue(mustBig(e.Fee))
	case *event.RedeemEvent:
		c.mustApply(c.ledger.Burn(e.Account, e.Amount), ev)
	case *event.CreditEvent:
		c.mustApply(c.ledger.Mint(e.Account, e.Amount), ev)
	case *event.DebitEvent:
		c.mustApply(c.ledger.Burn(e.Account, e.Amount), ev)
	case *event.SentEvent:
		c.mustApply(c.ledger.Burn(e.From, e.Amount), ev)
	case *event.ReceivedEvent:
		c.mustApply(c.ledger.Mint(e.To, e.Amount), ev)
	case *event.PeerSetEvent:
		c.peers.Refresh(e.Chain, e.Addr)
	case *event.FeeRateSetEvent:
		c.mustApply(c.fees.SetBps(e.Bps), ev)
	case *event.FeeCollectedEvent:
		_, err := c.fees.Collect(mustBig(e.Amount))
		c.mustApply(err, ev)
	default:
		panic(fmt.Sprintf("UNKNOWN_REPLAY_EVENT: %T", ev))
	}

	c.lastSeq = ev.GetSeq()
}

func (c *Controller) mustApply(err error, ev event.Event) {
	if err != nil {
		panic(fmt.Sprintf("REPLAY_APPLY_FAILURE: seq %d: %v", ev.GetSeq(), err))
	}
}

func mustBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic(fmt.Sprintf("CORRUPT_JOURNAL_AMOUNT: %q", s))
	}
	return v
}

// RecoverFromJournal rebuilds state from the latest snapshot plus journal
// replay. Fresh deployments (no snapshot, empty journal) start clean.
func (c *Controller) RecoverFromJournal(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snaps != nil {
		snap, err := c.snaps.LoadLatest()
		if err != nil {
			return err
		}
		if snap != nil {
			c.ledger.Restore(snap.Balances, snap.TotalSupply)
			c.fees.Restore(snap.FeeBps, mustBig(snap.FeeAccrued))
			c.peers.Restore(snap.Peers)
			c.lastSeq = snap.Seq
		}
	}

	if c.journal == nil {
		return nil
	}
	events, err := c.journal.Load(ctx, c.lastSeq+1)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		slog.Info("Journal replay skipped, nothing past snapshot",
			slog.Uint64("seq", c.lastSeq))
		return nil
	}

	slog.Info("Replaying journal records", slog.Int("count", len(events)))
	for _, ev := range events {
		c.ReplayEvent(ev)
	}
	c.ledger.VerifyInvariant()
	slog.Info("State recovered", slog.Uint64("last_seq", c.lastSeq))
	return nil
}

// SaveSnapshot captures the current state and prunes old snapshots.
func (c *Controller) SaveSnapshot(keep int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snaps == nil {
		return errors.New("no snapshot manager configured")
	}
	c.ledger.VerifyInvariant()

	snap := &storage.Snapshot{
		Seq:         c.lastSeq,
		TsUnix:      time.Now().Unix(),
		Balances:    c.ledger.Balances(),
		TotalSupply: c.ledger.TotalSupply(),
		FeeBps:      c.fees.Bps(),
		FeeAccrued:  c.fees.Accrued().String(),
		Peers:       c.peers.All(),
	}
	if err := c.snaps.Save(snap); err != nil {
		return err
	}
	if keep > 0 {
		return c.snaps.Cleanup(keep)
	}
	return nil
}
