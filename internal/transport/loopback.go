package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/Grailmarket/gusd/internal/domain"
)

// Bus is an in-process transport connecting multiple chain endpoints.
// Delivery is synchronous: Send returns after the destination handler has
// run, so the simulator and tests see deterministic ordering.
type Bus struct {
	mu        sync.Mutex
	fees      FeeSchedule
	endpoints map[domain.ChainID]*LoopbackEndpoint
}

// NewBus creates an empty bus with the given fee schedule.
func NewBus(fees FeeSchedule) *Bus {
	return &Bus{
		fees:      fees,
		endpoints: make(map[domain.ChainID]*LoopbackEndpoint),
	}
}

// Endpoint registers a chain on the bus and returns its Transport. The
// local address is stamped on outbound messages as the origin.
func (b *Bus) Endpoint(chain domain.ChainID, localAddr domain.Address) *LoopbackEndpoint {
	b.mu.Lock()
	defer b.mu.Unlock()

	ep := &LoopbackEndpoint{
		bus:       b,
		chain:     chain,
		localAddr: localAddr,
	}
	b.endpoints[chain] = ep
	return ep
}

// LoopbackEndpoint is one chain's view of the bus.
type LoopbackEndpoint struct {
	bus       *Bus
	chain     domain.ChainID
	localAddr domain.Address

	mu      sync.Mutex
	handler Handler
	nonce   uint64
}

// SetHandler registers the inbound message consumer.
func (ep *LoopbackEndpoint) SetHandler(h Handler) {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	ep.handler = h
}

func (ep *LoopbackEndpoint) Quote(dstChain domain.ChainID, payloadLen int) (int64, error) {
	if dstChain == ep.chain {
		return 0, fmt.Errorf("cannot quote delivery to the local chain %d", dstChain)
	}
	return ep.bus.fees.Quote(payloadLen), nil
}

func (ep *LoopbackEndpoint) Send(ctx context.Context, dstChain domain.ChainID, payload []byte, fee int64) (*Receipt, error) {
	quoted, err := ep.Quote(dstChain, len(payload))
	if err != nil {
		return nil, err
	}
	if fee < quoted {
		return nil, fmt.Errorf("%w: need %d, got %d", domain.ErrInsufficientFee, quoted, fee)
	}

	ep.bus.mu.Lock()
	dst, ok := ep.bus.endpoints[dstChain]
	ep.bus.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: no endpoint for chain %d", domain.ErrTransferFailed, dstChain)
	}

	dst.mu.Lock()
	handler := dst.handler
	dst.mu.Unlock()
	if handler == nil {
		return nil, fmt.Errorf("%w: chain %d has no handler", domain.ErrTransferFailed, dstChain)
	}

	ep.mu.Lock()
	ep.nonce++
	nonce := ep.nonce
	ep.mu.Unlock()

	origin := Origin{SrcChain: ep.chain, SrcAddr: ep.localAddr}
	if err := handler.DeliverMessage(ctx, origin, payload); err != nil {
		slog.Warn("Loopback delivery rejected",
			slog.Uint64("src", uint64(ep.chain)),
			slog.Uint64("dst", uint64(dstChain)),
			slog.String("err", err.Error()))
		return nil, fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
	}

	return &Receipt{MessageID: uuid.New(), Nonce: nonce, Fee: quoted}, nil
}
