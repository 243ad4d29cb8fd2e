// Command quote prints mint cost and redeem payout tables for a deployment
// without touching any state. Core arithmetic stays integer; decimals are
// used only to render human-readable amounts.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/Grailmarket/gusd/internal/domain"
	"github.com/Grailmarket/gusd/pkg/fixed"
)

func main() {
	decimals := flag.Uint("decimals", 6, "local currency decimals")
	feeBps := flag.Int64("fee-bps", 300, "mint fee in basis points")
	lots := flag.Int64("lots", 1, "lots to quote for minting")
	redeem := flag.Int64("redeem", 0, "shared-decimal amount to quote for redemption")
	flag.Parse()

	params, err := domain.NewConversionParams(uint8(*decimals))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid deployment: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== GUSD Quote ===")
	fmt.Printf("local decimals: %d, conversion rate: %s, fee: %d bps\n",
		*decimals, params.Rate(), *feeBps)
	fmt.Println()

	if *lots > 0 {
		base, fee, err := params.MintCost(*lots, *feeBps)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mint quote failed: %v\n", err)
			os.Exit(1)
		}
		total := decimal.NewFromBigInt(base, 0).Add(decimal.NewFromBigInt(fee, 0))
		minted := params.MintedAmount(*lots)

		fmt.Printf("mint %d lot(s):\n", *lots)
		fmt.Printf("  base cost: %s (%s units)\n", base, display(decimal.NewFromBigInt(base, 0), int32(*decimals)))
		fmt.Printf("  fee:       %s (%s units)\n", fee, display(decimal.NewFromBigInt(fee, 0), int32(*decimals)))
		fmt.Printf("  total:     %s (%s units)\n", total, display(total, int32(*decimals)))
		fmt.Printf("  minted:    %d shared units (%s GUSD)\n", minted, fixed.FormatShared(minted))
		fmt.Println()
	}

	if *redeem > 0 {
		payout, err := params.RedeemPayout(*redeem)
		if err != nil {
			fmt.Fprintf(os.Stderr, "redeem quote failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("redeem %d shared units (%s GUSD):\n", *redeem, fixed.FormatShared(*redeem))
		fmt.Printf("  payout: %s (%s units)\n", payout, display(decimal.NewFromBigInt(payout, 0), int32(*decimals)))
	}
}

// display shifts a raw-unit amount into whole currency units for printing.
func display(raw decimal.Decimal, decimals int32) string {
	return raw.Shift(-decimals).String()
}
