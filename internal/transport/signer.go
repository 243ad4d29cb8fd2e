package transport

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Signer authenticates relay frames with HMAC-SHA256. The secret is held as
// []byte so it can be wiped from memory on shutdown.
type Signer struct {
	secret []byte
}

// NewSigner creates a signer from a shared relay secret.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Wipe clears the secret from memory.
func (s *Signer) Wipe() {
	if s == nil {
		return
	}
	for i := range s.secret {
		s.secret[i] = 0
	}
}

// Sign computes the base64 HMAC-SHA256 tag over the canonical frame string.
func (s *Signer) Sign(canonical string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(canonical))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify checks a frame signature in constant time.
func (s *Signer) Verify(canonical, signature string) error {
	want := s.Sign(canonical)
	if !hmac.Equal([]byte(want), []byte(signature)) {
		return fmt.Errorf("frame signature mismatch")
	}
	return nil
}
