// Package app wires one node process: config, logging, storage, transport,
// and the controller, in startup order.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/Grailmarket/gusd/internal/currency"
	"github.com/Grailmarket/gusd/internal/domain"
	"github.com/Grailmarket/gusd/internal/engine"
	"github.com/Grailmarket/gusd/internal/infra"
	"github.com/Grailmarket/gusd/internal/storage"
	"github.com/Grailmarket/gusd/internal/transport"
)

// Bootstrap orchestrates the node startup sequence.
type Bootstrap struct {
	Config     *infra.Config
	Journal    *storage.Journal
	Snapshots  *storage.SnapshotManager
	Bank       *currency.Bank
	Endpoint   *transport.RelayEndpoint
	Controller *engine.Controller

	unlock func()
}

// NewBootstrap creates a new Bootstrap instance.
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization and recovers state.
func (b *Bootstrap) Initialize(ctx context.Context) error {
	cfg, err := infra.LoadConfig(infra.ResolveConfigPath())
	if err != nil {
		return err
	}
	b.Config = cfg

	slog.SetDefault(infra.NewLogger(cfg))
	slog.Info("Bootstrapping node",
		slog.Uint64("chain", uint64(cfg.Chain.ID)),
		slog.String("currency", cfg.Currency.ID))

	// Data isolation: one directory per chain deployment.
	workDir := infra.GetWorkspaceDir()
	dataDir := filepath.Join(workDir, "data", fmt.Sprintf("chain_%d", cfg.Chain.ID))
	if err := infra.EnsureDir(dataDir); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	// One process per journal; a second node on the same data corrupts
	// the WAL.
	unlock, err := infra.CreateLockFile(dataDir)
	if err != nil {
		return err
	}
	b.unlock = unlock

	journal, err := storage.NewJournal(filepath.Join(dataDir, "journal.db"))
	if err != nil {
		return err
	}
	b.Journal = journal
	b.Snapshots = storage.NewSnapshotManager(filepath.Join(dataDir, "snapshots"))
	slog.Info("Journal initialized (WAL-mode)", slog.String("dir", dataDir))

	b.Bank = currency.NewBank(cfg.Currency.ID, cfg.Currency.Decimals, cfg.Currency.Native)

	if cfg.Transport.RelayURL == "" {
		return fmt.Errorf("a relay URL is required to run a node (set transport.relay_url or GUSD_RELAY_URL)")
	}
	policy, err := cfg.PeerPolicy()
	if err != nil {
		return err
	}

	b.Endpoint = transport.NewRelayEndpoint(
		cfg.Transport.RelayURL,
		domain.ChainID(cfg.Chain.ID),
		cfg.VaultAddress(),
		transport.NewSigner(cfg.Transport.Secret),
		transport.FeeSchedule{Base: cfg.Transport.BaseFee, PerByte: cfg.Transport.PerByteFee},
	)

	ctl, err := engine.NewController(engine.Config{
		ChainID:         domain.ChainID(cfg.Chain.ID),
		GovernanceChain: domain.ChainID(cfg.Chain.GovernanceID),
		Owner:           cfg.OwnerAddress(),
		Minter:          cfg.MinterAddress(),
		Vault:           cfg.VaultAddress(),
		PeerPolicy:      policy,
		FeeBps:          cfg.Fees.MintBps,
	}, b.Bank, b.Endpoint, journal, b.Snapshots)
	if err != nil {
		return err
	}
	b.Controller = ctl
	b.Endpoint.SetHandler(ctl)

	if err := ctl.RecoverFromJournal(ctx); err != nil {
		return fmt.Errorf("recovery failed: %w", err)
	}

	b.applyConfiguredPeers(ctx)

	b.Endpoint.Start(ctx)
	slog.Info("Node initialized",
		slog.Int64("supply", ctl.TotalSupply()),
		slog.String("relay", cfg.Transport.RelayURL))
	return nil
}

// applyConfiguredPeers wires statically configured peers that recovery did
// not already restore. Under the governed policy static peers are ignored;
// the table belongs to governance.
func (b *Bootstrap) applyConfiguredPeers(ctx context.Context) {
	for _, p := range b.Config.Peers {
		addr, err := domain.ParseAddress(p.Addr)
		if err != nil {
			slog.Warn("Skipping bad peer address", slog.Uint64("chain", uint64(p.Chain)))
			continue
		}
		chain := domain.ChainID(p.Chain)
		if b.Controller.IsPeer(chain, addr) {
			continue
		}
		if err := b.Controller.SetPeer(ctx, b.Config.OwnerAddress(), chain, addr); err != nil {
			slog.Warn("Could not apply configured peer",
				slog.Uint64("chain", uint64(p.Chain)),
				slog.String("err", err.Error()))
		}
	}
}

// Shutdown releases resources in reverse startup order.
func (b *Bootstrap) Shutdown() {
	if b.Endpoint != nil {
		b.Endpoint.Stop()
	}
	if b.Controller != nil {
		if err := b.Controller.SaveSnapshot(b.Config.Storage.SnapshotKeep); err != nil {
			slog.Warn("Final snapshot failed", slog.String("err", err.Error()))
		}
	}
	if b.Journal != nil {
		b.Journal.Close()
	}
	if b.unlock != nil {
		b.unlock()
	}
}
