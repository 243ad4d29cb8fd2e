package transport

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/Grailmarket/gusd/internal/domain"
)

// Frame is the JSON envelope exchanged with the relay. The signature covers
// every field except itself, so a relay cannot alter routing or payload.
type Frame struct {
	SrcChain  domain.ChainID `json:"src_chain"`
	SrcAddr   domain.Address `json:"src_addr"`
	DstChain  domain.ChainID `json:"dst_chain"`
	Nonce     uint64         `json:"nonce"`
	TsMicros  int64          `json:"ts"`
	Payload   string         `json:"payload"` // base64
	Signature string         `json:"sig"`
}

// canonical builds the string the signature covers. Field order is fixed.
func (f *Frame) canonical() string {
	return fmt.Sprintf("%d|%s|%d|%d|%d|%s",
		f.SrcChain, f.SrcAddr.String(), f.DstChain, f.Nonce, f.TsMicros, f.Payload)
}

// SealFrame encodes payload into a signed frame ready for the wire.
func SealFrame(s *Signer, src domain.ChainID, srcAddr domain.Address, dst domain.ChainID, nonce uint64, ts int64, payload []byte) ([]byte, error) {
	f := &Frame{
		SrcChain: src,
		SrcAddr:  srcAddr,
		DstChain: dst,
		Nonce:    nonce,
		TsMicros: ts,
		Payload:  base64.StdEncoding.EncodeToString(payload),
	}
	f.Signature = s.Sign(f.canonical())

	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal frame: %w", err)
	}
	return data, nil
}

// OpenFrame parses and verifies a received frame, returning its origin and
// decoded payload.
func OpenFrame(s *Signer, data []byte) (*Frame, []byte, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal frame: %w", err)
	}
	if err := s.Verify(f.canonical(), f.Signature); err != nil {
		return nil, nil, err
	}
	payload, err := base64.StdEncoding.DecodeString(f.Payload)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode frame payload: %w", err)
	}
	return &f, payload, nil
}
