// Package wire implements the cross-chain message codec. The wire format is
// byte-exact across every deployment: a 1-byte discriminant followed by a
// type-specific payload, all integers big-endian.
package wire

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Grailmarket/gusd/internal/domain"
)

// Message discriminants.
const (
	MsgValueTransfer byte = 0x01
	MsgPeerUpdate    byte = 0x02
)

const (
	addrLen   = 32
	amountLen = 8

	// valueTransferLen = discriminant + recipient + amount.
	valueTransferLen = 1 + addrLen + amountLen

	// peerRecordLen = chainID(4) + address(32).
	peerRecordLen = 4 + addrLen
)

// Message is the decoded form of a cross-chain payload.
type Message interface {
	isMessage()
}

// ValueTransfer credits a shared-decimal amount to a recipient on the
// destination chain.
type ValueTransfer struct {
	To     domain.Address
	Amount int64
}

func (ValueTransfer) isMessage() {}

// PeerEntry is one (chain, trusted address) pair.
type PeerEntry struct {
	Chain domain.ChainID
	Addr  domain.Address
}

// PeerUpdate replaces the trusted peer entries for the listed chains.
// Only honored when it originates from the governance chain.
type PeerUpdate struct {
	Peers []PeerEntry
}

func (PeerUpdate) isMessage() {}

// Encode serializes a message into its wire payload.
//
// ValueTransfer: 0x01 || to(32) || amount(8, big-endian unsigned).
// The amount field is a 64-bit unsigned narrow; non-positive amounts are
// rejected at encode time rather than silently truncated.
//
// PeerUpdate: 0x02 followed by repeated 36-byte records
// chainID(4, big-endian) || addr(32).
func Encode(msg Message) ([]byte, error) {
	switch m := msg.(type) {
	case ValueTransfer:
		if m.Amount <= 0 {
			return nil, fmt.Errorf("%w: encode transfer amount %d", domain.ErrInvalidAmount, m.Amount)
		}
		buf := make([]byte, valueTransferLen)
		buf[0] = MsgValueTransfer
		copy(buf[1:1+addrLen], m.To[:])
		binary.BigEndian.PutUint64(buf[1+addrLen:], uint64(m.Amount))
		return buf, nil

	case PeerUpdate:
		if len(m.Peers) == 0 {
			return nil, fmt.Errorf("%w: empty peer update", domain.ErrInvalidAmount)
		}
		buf := make([]byte, 1+len(m.Peers)*peerRecordLen)
		buf[0] = MsgPeerUpdate
		off := 1
		for _, p := range m.Peers {
			binary.BigEndian.PutUint32(buf[off:], uint32(p.Chain))
			copy(buf[off+4:], p.Addr[:])
			off += peerRecordLen
		}
		return buf, nil

	default:
		return nil, fmt.Errorf("%w: %T", domain.ErrUnknownMessageType, msg)
	}
}

// Decode parses a wire payload, dispatching on the discriminant byte. An
// unrecognized discriminant is an explicit error, never a silent drop.
func Decode(payload []byte) (Message, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty payload", domain.ErrUnknownMessageType)
	}

	switch payload[0] {
	case MsgValueTransfer:
		if len(payload) != valueTransferLen {
			return nil, fmt.Errorf("value transfer payload must be %d bytes, got %d", valueTransferLen, len(payload))
		}
		var to domain.Address
		copy(to[:], payload[1:1+addrLen])
		raw := binary.BigEndian.Uint64(payload[1+addrLen:])
		if raw == 0 || raw > math.MaxInt64 {
			return nil, fmt.Errorf("%w: decoded transfer amount %d", domain.ErrInvalidAmount, raw)
		}
		return ValueTransfer{To: to, Amount: int64(raw)}, nil

	case MsgPeerUpdate:
		body := payload[1:]
		if len(body) == 0 || len(body)%peerRecordLen != 0 {
			return nil, fmt.Errorf("peer update payload must be a multiple of %d bytes, got %d", peerRecordLen, len(body))
		}
		peers := make([]PeerEntry, 0, len(body)/peerRecordLen)
		for off := 0; off < len(body); off += peerRecordLen {
			var a domain.Address
			copy(a[:], body[off+4:off+peerRecordLen])
			peers = append(peers, PeerEntry{
				Chain: domain.ChainID(binary.BigEndian.Uint32(body[off:])),
				Addr:  a,
			})
		}
		return PeerUpdate{Peers: peers}, nil

	default:
		return nil, fmt.Errorf("%w: discriminant 0x%02x", domain.ErrUnknownMessageType, payload[0])
	}
}
