package domain

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ChainID identifies a chain deployment in the cross-chain mesh.
type ChainID uint32

// Address is a 32-byte principal identifier, wide enough to carry any
// chain-native address left-padded with zeros.
type Address [32]byte

// ZeroAddress is the all-zero address. Never a valid principal.
var ZeroAddress Address

// ParseAddress decodes a hex string (with or without 0x prefix) into an
// Address. Shorter inputs are left-padded with zeros.
func ParseAddress(s string) (Address, error) {
	var a Address
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if s == "" {
		return a, fmt.Errorf("empty address")
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if len(b) > len(a) {
		return a, fmt.Errorf("address too long: %d bytes", len(b))
	}
	copy(a[len(a)-len(b):], b)
	return a, nil
}

// AddressFromBytes copies b into an Address. b must be exactly 32 bytes.
func AddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != len(a) {
		return a, fmt.Errorf("address must be %d bytes, got %d", len(a), len(b))
	}
	copy(a[:], b)
	return a, nil
}

// IsZero reports whether the address is all zeros.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// MarshalText lets Address serve as a JSON object key and string field
// (snapshots, journal records).
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses the hex form produced by MarshalText.
func (a *Address) UnmarshalText(b []byte) error {
	parsed, err := ParseAddress(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
