// Package event defines the journal records emitted for every applied state
// transition. Replaying the journal through the same apply path rebuilds the
// controller state exactly.
package event

import (
	"encoding/json"
	"fmt"

	"github.com/Grailmarket/gusd/internal/domain"
)

// Type tags a journal record.
type Type uint16

const (
	EvMint Type = iota + 1
	EvRedeem
	EvCredit
	EvDebit
	EvSent
	EvReceived
	EvPeerSet
	EvFeeRateSet
	EvFeeCollected
)

// Event is the interface for all journal records.
type Event interface {
	GetSeq() uint64
	GetTs() int64
	GetType() Type
}

// BaseEvent carries the fields common to all records. Ts is Unix
// microseconds.
type BaseEvent struct {
	Seq uint64 `json:"seq"`
	Ts  int64  `json:"ts"`
}

func (e BaseEvent) GetSeq() uint64 { return e.Seq }
func (e BaseEvent) GetTs() int64   { return e.Ts }

// MintEvent records a fee-adjusted mint. Local-currency amounts are decimal
// strings because 18-decimal currencies exceed int64.
type MintEvent struct {
	BaseEvent
	Account  domain.Address `json:"account"`
	Lots     int64          `json:"lots"`
	Minted   int64          `json:"minted"`
	BaseCost string         `json:"base_cost"`
	Fee      string         `json:"fee"`
}

func (MintEvent) GetType() Type { return EvMint }

// RedeemEvent records a burn paid out in local currency.
type RedeemEvent struct {
	BaseEvent
	Account domain.Address `json:"account"`
	Amount  int64          `json:"amount"`
	Payout  string         `json:"payout"`
}

func (RedeemEvent) GetType() Type { return EvRedeem }

// CreditEvent records a minter-initiated balance credit.
type CreditEvent struct {
	BaseEvent
	Account domain.Address `json:"account"`
	Amount  int64          `json:"amount"`
}

func (CreditEvent) GetType() Type { return EvCredit }

// DebitEvent records a minter-initiated balance debit.
type DebitEvent struct {
	BaseEvent
	Account domain.Address `json:"account"`
	Amount  int64          `json:"amount"`
}

func (DebitEvent) GetType() Type { return EvDebit }

// SentEvent records an outbound cross-chain value transfer (burn side).
type SentEvent struct {
	BaseEvent
	From      domain.Address `json:"from"`
	DstChain  domain.ChainID `json:"dst_chain"`
	To        domain.Address `json:"to"`
	Amount    int64          `json:"amount"`
	MessageID string         `json:"message_id"`
	Nonce     uint64         `json:"nonce"`
	Fee       int64          `json:"fee"`
}

func (SentEvent) GetType() Type { return EvSent }

// ReceivedEvent records an inbound value transfer (mint side).
type ReceivedEvent struct {
	BaseEvent
	SrcChain domain.ChainID `json:"src_chain"`
	To       domain.Address `json:"to"`
	Amount   int64          `json:"amount"`
}

func (ReceivedEvent) GetType() Type { return EvReceived }

// PeerSetEvent records one peer-table write, whether from the direct
// setter, a local AddPeers call, or an inbound governance update.
type PeerSetEvent struct {
	BaseEvent
	Chain domain.ChainID `json:"chain"`
	Addr  domain.Address `json:"addr"`
}

func (PeerSetEvent) GetType() Type { return EvPeerSet }

// FeeRateSetEvent records an owner fee-rate change.
type FeeRateSetEvent struct {
	BaseEvent
	Bps int64 `json:"bps"`
}

func (FeeRateSetEvent) GetType() Type { return EvFeeRateSet }

// FeeCollectedEvent records an owner fee collection.
type FeeCollectedEvent struct {
	BaseEvent
	Recipient domain.Address `json:"recipient"`
	Amount    string         `json:"amount"`
}

func (FeeCollectedEvent) GetType() Type { return EvFeeCollected }

// Unmarshal decodes a journal payload into its concrete record type.
func Unmarshal(typ Type, payload []byte) (Event, error) {
	var ev Event
	switch typ {
	case EvMint:
		ev = &MintEvent{}
	case EvRedeem:
		ev = &RedeemEvent{}
	case EvCredit:
		ev = &CreditEvent{}
	case EvDebit:
		ev = &DebitEvent{}
	case EvSent:
		ev = &SentEvent{}
	case EvReceived:
		ev = &ReceivedEvent{}
	case EvPeerSet:
		ev = &PeerSetEvent{}
	case EvFeeRateSet:
		ev = &FeeRateSetEvent{}
	case EvFeeCollected:
		ev = &FeeCollectedEvent{}
	default:
		return nil, fmt.Errorf("unknown journal record type %d", typ)
	}
	if err := json.Unmarshal(payload, ev); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record type %d: %w", typ, err)
	}
	return ev, nil
}
