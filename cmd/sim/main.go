// Command sim runs two deployments on an in-process bus and walks through
// the full cross-chain lifecycle: mint, send, governance peer push, redeem.
package main

import (
	"context"
	"log/slog"
	"math/big"
	"os"

	"github.com/Grailmarket/gusd/internal/currency"
	"github.com/Grailmarket/gusd/internal/domain"
	"github.com/Grailmarket/gusd/internal/engine"
	"github.com/Grailmarket/gusd/internal/transport"
	"github.com/Grailmarket/gusd/internal/wire"
	"github.com/Grailmarket/gusd/pkg/fixed"
)

const (
	chainEth domain.ChainID = 30101 // governance chain, USDC 6 decimals
	chainBsc domain.ChainID = 30102 // USDT 18 decimals
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	slog.Info("Starting two-chain simulation...")

	ctx := context.Background()

	owner := mustAddr("0xa0")
	minter := mustAddr("0xa1")
	vault := mustAddr("0xee")
	alice := mustAddr("0x01")
	bob := mustAddr("0x02")

	endpointEth := mustAddr("0xe1")
	endpointBsc := mustAddr("0xe2")

	bus := transport.NewBus(transport.FeeSchedule{Base: 100, PerByte: 1})

	usdc := currency.NewBank("USDC", 6, false)
	epEth := bus.Endpoint(chainEth, endpointEth)
	ctlEth, err := engine.NewController(engine.Config{
		ChainID:         chainEth,
		GovernanceChain: chainEth,
		Owner:           owner,
		Minter:          minter,
		Vault:           vault,
		PeerPolicy:      domain.PolicyOwnerSet,
		FeeBps:          300,
	}, usdc, epEth, nil, nil)
	must(err, "build governance controller")
	epEth.SetHandler(ctlEth)

	usdt := currency.NewBank("USDT", 18, false)
	epBsc := bus.Endpoint(chainBsc, endpointBsc)
	ctlBsc, err := engine.NewController(engine.Config{
		ChainID:         chainBsc,
		GovernanceChain: chainEth,
		Owner:           owner,
		Minter:          minter,
		Vault:           vault,
		PeerPolicy:      domain.PolicyGoverned,
		FeeBps:          300,
	}, usdt, epBsc, nil, nil)
	must(err, "build governed controller")
	epBsc.SetHandler(ctlBsc)

	// STEP 1: wire the governance chain's view, then push the full table
	// to the governed chain.
	slog.Info("STEP 1: Peer wiring")
	must(ctlEth.SetPeer(ctx, owner, chainBsc, endpointBsc), "set peer")

	entries := []wire.PeerEntry{
		{Chain: chainEth, Addr: endpointEth},
		{Chain: chainBsc, Addr: endpointBsc},
	}
	fee, err := ctlEth.QuoteAddPeers(entries)
	must(err, "quote add peers")
	must(ctlEth.AddPeers(ctx, owner, entries, fee), "add peers")
	slog.Info("Governed chain received peer table",
		slog.Bool("knows_eth", ctlBsc.IsPeer(chainEth, endpointEth)))

	// STEP 2: mint 2 lots of GUSD on the governance chain.
	slog.Info("STEP 2: Mint on governance chain")
	usdc.Deposit(alice, big.NewInt(20_600_000)) // 20.60 USDC covers 2 lots + 3% fee
	must(ctlEth.Mint(ctx, alice, 2), "mint")
	_, tokens, _ := ctlEth.GetBalances(ctx, alice)
	slog.Info("Minted", slog.String("alice", fixed.FormatShared(tokens)))

	// STEP 3: send half a lot across.
	slog.Info("STEP 3: Cross-chain send")
	sendFee, err := ctlEth.QuoteSend(chainBsc, bob, 500_000_000)
	must(err, "quote send")
	receipt, err := ctlEth.Send(ctx, alice, chainBsc, bob, 500_000_000, sendFee)
	must(err, "send")
	slog.Info("Delivered",
		slog.String("message_id", receipt.MessageID.String()),
		slog.Uint64("nonce", receipt.Nonce))

	_, bobTokens, _ := ctlBsc.GetBalances(ctx, bob)
	slog.Info("Balance on destination", slog.String("bob", fixed.FormatShared(bobTokens)))

	// STEP 4: redeem on the 18-decimal chain. The vault needs liquidity
	// first; in production that is the deployment's own mint proceeds.
	slog.Info("STEP 4: Redeem on 18-decimal chain")
	liquidity, _ := new(big.Int).SetString("10000000000000000000", 10) // 10 USDT raw
	usdt.Deposit(vault, liquidity)
	must(ctlBsc.Redeem(ctx, bob, 500_000_000), "redeem")
	bobLocal, bobLeft, _ := ctlBsc.GetBalances(ctx, bob)
	slog.Info("Redeemed",
		slog.String("payout_usdt", fixed.FormatUnits(bobLocal, 18)),
		slog.String("remaining", fixed.FormatShared(bobLeft)))

	// STEP 5: collect accrued mint fees on the governance chain.
	slog.Info("STEP 5: Collect fees")
	must(ctlEth.CollectFee(ctx, owner, owner, nil), "collect")
	ownerLocal, _, _ := ctlEth.GetBalances(ctx, owner)
	slog.Info("Fees collected", slog.String("owner_usdc_raw", ownerLocal.String()))

	slog.Info("Simulation complete",
		slog.Int64("eth_supply", ctlEth.TotalSupply()),
		slog.Int64("bsc_supply", ctlBsc.TotalSupply()))
}

func mustAddr(s string) domain.Address {
	a, err := domain.ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func must(err error, step string) {
	if err != nil {
		slog.Error("Simulation step failed", slog.String("step", step), slog.Any("error", err))
		os.Exit(1)
	}
}
