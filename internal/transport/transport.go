// Package transport carries encoded messages between chain endpoints. The
// controller only sees the Transport and Handler interfaces; the loopback bus
// backs the simulator and tests, the websocket endpoint backs a live relay.
package transport

import (
	"context"

	"github.com/google/uuid"

	"github.com/Grailmarket/gusd/internal/domain"
)

// Origin identifies where an inbound message came from. Receive handlers use
// it for peer and governance checks.
type Origin struct {
	SrcChain domain.ChainID
	SrcAddr  domain.Address
}

// Receipt is returned for every accepted outbound message.
type Receipt struct {
	MessageID uuid.UUID
	Nonce     uint64
	Fee       int64
}

// Handler consumes inbound messages on a chain endpoint.
type Handler interface {
	DeliverMessage(ctx context.Context, origin Origin, payload []byte) error
}

// Transport sends encoded messages to remote chains.
type Transport interface {
	// Quote returns the delivery fee for a payload of the given size.
	Quote(dstChain domain.ChainID, payloadLen int) (int64, error)

	// Send delivers payload to dstChain. The fee passed must cover the
	// quoted amount or Send fails with domain.ErrInsufficientFee.
	Send(ctx context.Context, dstChain domain.ChainID, payload []byte, fee int64) (*Receipt, error)
}

// FeeSchedule prices message delivery as a base charge plus a per-byte rate.
type FeeSchedule struct {
	Base    int64
	PerByte int64
}

// Quote computes the fee for a payload of n bytes.
func (f FeeSchedule) Quote(n int) int64 {
	return f.Base + f.PerByte*int64(n)
}
