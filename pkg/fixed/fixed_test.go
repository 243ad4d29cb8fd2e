package fixed

import (
	"math/big"
	"testing"
)

func TestFormatShared(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0.000000"},
		{1, "0.000001"},
		{10_300_000, "10.300000"},
		{1_000_000_000, "1000.000000"},
		{-2_500_000, "-2.500000"},
	}
	for _, tt := range tests {
		if got := FormatShared(tt.in); got != tt.want {
			t.Errorf("FormatShared(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseShared(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"1", 1_000_000},
		{"10.3", 10_300_000},
		{"1000.000000", 1_000_000_000},
		{"-2.5", -2_500_000},
		{"0.0000019", 1}, // extra precision truncated
		{".5", 500_000},
	}
	for _, tt := range tests {
		got, err := ParseShared(tt.in)
		if err != nil {
			t.Fatalf("ParseShared(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseShared(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseShared_Invalid(t *testing.T) {
	for _, in := range []string{"", "1.2.3", "abc", "1.2x"} {
		if _, err := ParseShared(in); err == nil {
			t.Errorf("ParseShared(%q): expected error", in)
		}
	}
}

func TestFormatUnits(t *testing.T) {
	v, _ := new(big.Int).SetString("250000000000000000000", 10)
	if got := FormatUnits(v, 18); got != "250.000000000000000000" {
		t.Errorf("FormatUnits 18dp = %q", got)
	}
	if got := FormatUnits(big.NewInt(10_300_000), 6); got != "10.300000" {
		t.Errorf("FormatUnits 6dp = %q", got)
	}
	if got := FormatUnits(big.NewInt(7), 0); got != "7" {
		t.Errorf("FormatUnits 0dp = %q", got)
	}
}

func TestPow10(t *testing.T) {
	if Pow10(0).Cmp(big.NewInt(1)) != 0 {
		t.Error("Pow10(0) != 1")
	}
	if Pow10(12).Cmp(big.NewInt(1_000_000_000_000)) != 0 {
		t.Error("Pow10(12) != 10^12")
	}
}
