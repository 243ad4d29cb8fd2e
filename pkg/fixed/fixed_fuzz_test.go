package fixed

import (
	"testing"
)

// FuzzParseShared ensures the parser never panics and round-trips cleanly
// for values it accepts.
func FuzzParseShared(f *testing.F) {
	f.Add("0")
	f.Add("10.3")
	f.Add("-2.5")
	f.Add("1.2.3")
	f.Add(".000001")
	f.Add("9223372036854775807")

	f.Fuzz(func(t *testing.T, s string) {
		v, err := ParseShared(s)
		if err != nil {
			return
		}
		// Formatting an accepted value and re-parsing must be stable.
		back, err := ParseShared(FormatShared(v))
		if err != nil {
			t.Fatalf("re-parse of %q failed: %v", FormatShared(v), err)
		}
		if back != v {
			t.Fatalf("round-trip mismatch: %d != %d", back, v)
		}
	})
}
