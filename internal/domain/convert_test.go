package domain

import (
	"errors"
	"math"
	"math/big"
	"testing"
)

func TestNewConversionParams_RejectsSmallDecimals(t *testing.T) {
	for _, dec := range []uint8{0, 2, 5} {
		if _, err := NewConversionParams(dec); !errors.Is(err, ErrDecimalsTooSmall) {
			t.Errorf("decimals=%d: expected ErrDecimalsTooSmall, got %v", dec, err)
		}
	}
	if _, err := NewConversionParams(6); err != nil {
		t.Errorf("decimals=6 should be valid: %v", err)
	}
}

func TestMintCost_USDC6Decimals(t *testing.T) {
	// USDC with 6 decimals, feeBps=300, lotSize=1:
	// base = 10_000_000, fee = 300_000, total charged = 10_300_000.
	conv, err := NewConversionParams(6)
	if err != nil {
		t.Fatalf("params: %v", err)
	}

	base, fee, err := conv.MintCost(1, 300)
	if err != nil {
		t.Fatalf("MintCost: %v", err)
	}
	if base.Int64() != 10_000_000 {
		t.Errorf("base = %s, want 10000000", base)
	}
	if fee.Int64() != 300_000 {
		t.Errorf("fee = %s, want 300000", fee)
	}
	if got := conv.MintedAmount(1); got != 1_000_000_000 {
		t.Errorf("minted lot = %d, want 1000000000", got)
	}
}

func TestMintCost_ZeroFee(t *testing.T) {
	conv, _ := NewConversionParams(6)
	_, fee, err := conv.MintCost(5, 0)
	if err != nil {
		t.Fatalf("MintCost: %v", err)
	}
	if fee.Sign() != 0 {
		t.Errorf("fee = %s, want 0", fee)
	}
}

func TestMintCost_FeeTruncates(t *testing.T) {
	conv, _ := NewConversionParams(6)
	// base = 10_000_000 * 3, fee at 1 bps = 3000 exactly; at feeBps=1 with
	// lots=1, fee = 10_000_000/10_000 = 1000. Check truncation with 18
	// decimals too.
	_, fee, err := conv.MintCost(1, 1)
	if err != nil {
		t.Fatalf("MintCost: %v", err)
	}
	if fee.Int64() != 1000 {
		t.Errorf("fee = %s, want 1000", fee)
	}
}

func TestMintCost_InvalidLots(t *testing.T) {
	conv, _ := NewConversionParams(6)
	for _, lots := range []int64{0, -1, math.MaxInt64} {
		if _, _, err := conv.MintCost(lots, 0); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("lots=%d: expected ErrInvalidAmount, got %v", lots, err)
		}
	}
}

func TestMintCost_LinearInLots(t *testing.T) {
	conv, _ := NewConversionParams(6)
	base1, fee1, _ := conv.MintCost(1, 300)
	base7, fee7, _ := conv.MintCost(7, 300)
	if new(big.Int).Mul(base1, big.NewInt(7)).Cmp(base7) != 0 {
		t.Errorf("base not linear: 7*%s != %s", base1, base7)
	}
	if new(big.Int).Mul(fee1, big.NewInt(7)).Cmp(fee7) != 0 {
		t.Errorf("fee not linear: 7*%s != %s", fee1, fee7)
	}
}

func TestRedeemPayout_USDT18Decimals(t *testing.T) {
	// USDT with 18 decimals: rate = 10^12.
	// redeem(25_000_000_000) -> (25_000_000_000/100) * 10^12
	// = 250 USDT in 18-decimal units.
	conv, err := NewConversionParams(18)
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	want, _ := new(big.Int).SetString("250000000000000000000", 10)

	got, err := conv.RedeemPayout(25_000_000_000)
	if err != nil {
		t.Fatalf("RedeemPayout: %v", err)
	}
	if got.Cmp(want) != 0 {
		t.Errorf("payout = %s, want %s", got, want)
	}
}

func TestRedeemPayout_DivisionBeforeRate(t *testing.T) {
	// 150 shared units redeem as a single granule: the truncating
	// division happens before the rate multiplication.
	conv, _ := NewConversionParams(18)
	got, err := conv.RedeemPayout(150)
	if err != nil {
		t.Fatalf("RedeemPayout: %v", err)
	}
	if got.Cmp(fixedPow10(12)) != 0 {
		t.Errorf("payout = %s, want 10^12", got)
	}
}

func TestRedeemPayout_BelowGranule(t *testing.T) {
	conv, _ := NewConversionParams(6)
	for _, amt := range []int64{0, 10, 99, -5} {
		if _, err := conv.RedeemPayout(amt); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("amount=%d: expected ErrInvalidAmount, got %v", amt, err)
		}
	}
}

func TestRedeemPayout_RoundTripsMintPrice(t *testing.T) {
	// Redeeming a whole lot pays out exactly the base mint price.
	for _, dec := range []uint8{6, 8, 18} {
		conv, _ := NewConversionParams(dec)
		payout, err := conv.RedeemPayout(LotSharedUnits)
		if err != nil {
			t.Fatalf("decimals=%d: %v", dec, err)
		}
		if payout.Cmp(conv.MintPrice()) != 0 {
			t.Errorf("decimals=%d: lot payout %s != mint price %s", dec, payout, conv.MintPrice())
		}
	}
}

func fixedPow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
