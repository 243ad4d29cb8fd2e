package wire

import (
	"bytes"
	"testing"
)

// FuzzDecode ensures the decoder never panics and that anything it accepts
// re-encodes to the identical payload.
func FuzzDecode(f *testing.F) {
	vt, _ := Encode(ValueTransfer{To: testAddr(7), Amount: 1_000_000_000})
	pu, _ := Encode(PeerUpdate{Peers: []PeerEntry{{Chain: 30101, Addr: testAddr(0xAA)}}})
	f.Add(vt)
	f.Add(pu)
	f.Add([]byte{0xFF})
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, payload []byte) {
		msg, err := Decode(payload)
		if err != nil {
			return
		}
		back, err := Encode(msg)
		if err != nil {
			t.Fatalf("re-encode of accepted message failed: %v", err)
		}
		if !bytes.Equal(back, payload) {
			t.Fatalf("re-encode mismatch: %x != %x", back, payload)
		}
	})
}
