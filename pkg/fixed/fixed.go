package fixed

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/Grailmarket/gusd/pkg/safe"
)

// SharedDecimals is the token's fixed display precision. Every ledger
// balance is an int64 scaled by 10^SharedDecimals.
const SharedDecimals = 6

// SharedScale is 10^SharedDecimals.
const SharedScale = 1_000_000

// FormatShared renders a shared-decimal amount as a plain decimal string.
// E.g., 10_300_000 -> "10.300000".
func FormatShared(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%06d", sign, v/SharedScale, v%SharedScale)
}

// ParseShared parses a decimal string into a shared-decimal int64.
// Excess fractional digits are truncated (floor), matching the ledger's
// truncating arithmetic. Rule #1: No Float.
func ParseShared(s string) (int64, error) {
	return parseFixedPoint(s, SharedDecimals)
}

// Pow10 returns 10^n as a big.Int. Local-currency amounts can exceed int64
// (18-decimal currencies), so conversion rates and payouts use big.Int.
func Pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// FormatUnits renders a big.Int amount of a currency with the given native
// decimal count. E.g., 250*10^18 with decimals=18 -> "250.000000000000000000".
func FormatUnits(v *big.Int, decimals uint8) string {
	if v == nil {
		return "0"
	}
	sign := ""
	abs := new(big.Int).Abs(v)
	if v.Sign() < 0 {
		sign = "-"
	}
	scale := Pow10(int(decimals))
	whole, frac := new(big.Int).QuoRem(abs, scale, new(big.Int))
	if decimals == 0 {
		return sign + whole.String()
	}
	fracStr := frac.String()
	if len(fracStr) < int(decimals) {
		fracStr = strings.Repeat("0", int(decimals)-len(fracStr)) + fracStr
	}
	return sign + whole.String() + "." + fracStr
}

// parseFixedPoint parses a numeric string into an int64 with the given
// precision. E.g., parseFixedPoint("1.23", 6) -> 1,230,000.
func parseFixedPoint(s string, precision int) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	intStr := s
	fracStr := ""
	if dot := strings.IndexByte(s, '.'); dot != -1 {
		intStr = s[:dot]
		fracStr = s[dot+1:]
		if strings.IndexByte(fracStr, '.') != -1 {
			return 0, fmt.Errorf("invalid decimal format: multiple dots")
		}
	}

	neg := strings.HasPrefix(intStr, "-")
	if neg {
		intStr = intStr[1:]
	}

	intPart := int64(0)
	if intStr != "" {
		v, err := strconv.ParseInt(intStr, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid integer part: %w", err)
		}
		intPart = v
	}
	intPart, ok := safe.TryMul(intPart, pow10Int(precision))
	if !ok {
		return 0, fmt.Errorf("amount out of range: %s", s)
	}

	// Truncate extra precision (floor)
	if len(fracStr) > precision {
		fracStr = fracStr[:precision]
	}
	fracPart := int64(0)
	if fracStr != "" {
		v, err := strconv.ParseInt(fracStr, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid fraction part: %w", err)
		}
		fracPart = v
	}
	fracPart, ok = safe.TryMul(fracPart, pow10Int(precision-len(fracStr)))
	if !ok {
		return 0, fmt.Errorf("amount out of range: %s", s)
	}

	if neg {
		return safeSigned(-intPart, -fracPart, s)
	}
	return safeSigned(intPart, fracPart, s)
}

func safeSigned(intPart, fracPart int64, src string) (int64, error) {
	v, ok := safe.TryAdd(intPart, fracPart)
	if !ok {
		return 0, fmt.Errorf("amount out of range: %s", src)
	}
	return v, nil
}

func pow10Int(n int) int64 {
	v := int64(1)
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}
