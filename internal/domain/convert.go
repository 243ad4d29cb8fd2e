package domain

import (
	"fmt"
	"math/big"

	"github.com/Grailmarket/gusd/pkg/fixed"
	"github.com/Grailmarket/gusd/pkg/safe"
)

const (
	// LotConversionRate: 1 lot = 1000 token units = 100 redeem granules.
	LotConversionRate = 100

	// RedeemGranule is the smallest redeemable amount in shared-decimal
	// units. Redemption precision is capped to whole multiples of it.
	RedeemGranule = 100

	// LotSharedUnits is one lot in shared-decimal units
	// (1000 tokens at 6 decimals).
	LotSharedUnits = 1000 * fixed.SharedScale

	// NativeDecimals is the precision assumed for a chain's native
	// currency.
	NativeDecimals = 18

	// MintPriceUnits is the local-currency price of one lot, in whole
	// currency units before decimal scaling.
	MintPriceUnits = 10

	feeDenominator = 10_000
)

// ConversionParams holds the immutable per-deployment arithmetic constants
// derived from the accepted currency's precision. Local-currency amounts use
// big.Int because 18-decimal currencies exceed int64.
type ConversionParams struct {
	localDecimals uint8
	rate          *big.Int // 10^(localDecimals - SharedDecimals)
	mintPrice     *big.Int // MintPriceUnits * 10^localDecimals
}

// NewConversionParams validates the currency precision and fixes the
// conversion rate and mint price. A currency with fewer native decimals than
// the shared precision would underflow the rate exponent and is rejected
// here rather than producing a corrupt deployment.
func NewConversionParams(localDecimals uint8) (*ConversionParams, error) {
	if localDecimals < fixed.SharedDecimals {
		return nil, fmt.Errorf("%w: %d < %d", ErrDecimalsTooSmall, localDecimals, fixed.SharedDecimals)
	}
	return &ConversionParams{
		localDecimals: localDecimals,
		rate:          fixed.Pow10(int(localDecimals) - fixed.SharedDecimals),
		mintPrice:     new(big.Int).Mul(big.NewInt(MintPriceUnits), fixed.Pow10(int(localDecimals))),
	}, nil
}

// LocalDecimals returns the bound currency's native precision.
func (c *ConversionParams) LocalDecimals() uint8 { return c.localDecimals }

// Rate returns a copy of the decimal conversion rate.
func (c *ConversionParams) Rate() *big.Int { return new(big.Int).Set(c.rate) }

// MintPrice returns a copy of the per-lot local-currency price.
func (c *ConversionParams) MintPrice() *big.Int { return new(big.Int).Set(c.mintPrice) }

// MintCost computes the fee-inclusive cost of minting lotCount lots.
// baseCost = mintPrice * lotCount; fee = baseCost * feeBps / 10000 with
// truncating division, so a small enough base yields fee 0. That is
// accepted, not an error.
func (c *ConversionParams) MintCost(lotCount int64, feeBps int64) (baseCost, fee *big.Int, err error) {
	if lotCount <= 0 {
		return nil, nil, fmt.Errorf("%w: lot count %d", ErrInvalidAmount, lotCount)
	}
	// The minted shared-decimal amount must stay within the int64 ledger.
	if _, ok := safe.TryMul(lotCount, LotSharedUnits); !ok {
		return nil, nil, fmt.Errorf("%w: lot count %d overflows ledger", ErrInvalidAmount, lotCount)
	}
	baseCost = new(big.Int).Mul(c.mintPrice, big.NewInt(lotCount))
	fee = big.NewInt(0)
	if feeBps > 0 {
		fee.Mul(baseCost, big.NewInt(feeBps))
		fee.Quo(fee, big.NewInt(feeDenominator))
	}
	return baseCost, fee, nil
}

// MintedAmount returns the shared-decimal amount minted for lotCount lots.
// Callers must have validated lotCount via MintCost first.
func (c *ConversionParams) MintedAmount(lotCount int64) int64 {
	return safe.SafeMul(lotCount, LotSharedUnits)
}

// RedeemPayout converts a shared-decimal amount into a local-currency
// payout. The truncating division by the granule happens BEFORE the rate
// multiplication; this order caps redemption precision to whole granules
// and must not be reordered.
func (c *ConversionParams) RedeemPayout(sharedAmount int64) (*big.Int, error) {
	if sharedAmount < RedeemGranule {
		return nil, fmt.Errorf("%w: %d below redeem granule %d", ErrInvalidAmount, sharedAmount, RedeemGranule)
	}
	granules := sharedAmount / RedeemGranule
	return new(big.Int).Mul(big.NewInt(granules), c.rate), nil
}
