package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Grailmarket/gusd/internal/domain"
	"github.com/Grailmarket/gusd/internal/infra"
)

// helloRequest registers the endpoint's chain with the relay on connect.
type helloRequest struct {
	Op    string `json:"op"`
	Chain uint32 `json:"chain"`
	Addr  string `json:"addr"`
}

// RelayEndpoint is a Transport backed by a websocket relay. It manages the
// connection lifecycle itself: reconnect with exponential backoff, read
// timeouts, and serialized writes. Outbound sends are guarded by a circuit
// breaker and a token-bucket rate limiter.
type RelayEndpoint struct {
	url       string
	chain     domain.ChainID
	localAddr domain.Address
	signer    *Signer
	fees      FeeSchedule

	mu      sync.RWMutex
	conn    *websocket.Conn
	writeMu sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	handlerMu sync.Mutex
	handler   Handler
	nonce     uint64

	breaker *infra.CircuitBreaker
	limiter *infra.RateLimiter

	ReadTimeout  time.Duration
	PingInterval time.Duration
}

// NewRelayEndpoint creates a relay-backed transport for one chain.
func NewRelayEndpoint(url string, chain domain.ChainID, localAddr domain.Address, signer *Signer, fees FeeSchedule) *RelayEndpoint {
	name := fmt.Sprintf("relay-%d", chain)
	return &RelayEndpoint{
		url:          url,
		chain:        chain,
		localAddr:    localAddr,
		signer:       signer,
		fees:         fees,
		breaker:      infra.NewCircuitBreaker(infra.DefaultCircuitBreakerConfig(name)),
		limiter:      infra.GetRelaySendLimiter(),
		ReadTimeout:  60 * time.Second,
		PingInterval: 30 * time.Second,
	}
}

// SetHandler registers the inbound message consumer.
func (ep *RelayEndpoint) SetHandler(h Handler) {
	ep.handlerMu.Lock()
	defer ep.handlerMu.Unlock()
	ep.handler = h
}

// Start initiates the connection loop.
func (ep *RelayEndpoint) Start(ctx context.Context) {
	ctx, ep.cancel = context.WithCancel(ctx)
	ep.wg.Add(1)
	go ep.runLoop(ctx)
}

// Stop terminates the endpoint and wipes the signer secret.
func (ep *RelayEndpoint) Stop() {
	if ep.cancel != nil {
		ep.cancel()
	}
	ep.close()
	ep.wg.Wait()
	ep.signer.Wipe()
}

func (ep *RelayEndpoint) Quote(dstChain domain.ChainID, payloadLen int) (int64, error) {
	if dstChain == ep.chain {
		return 0, fmt.Errorf("cannot quote delivery to the local chain %d", dstChain)
	}
	return ep.fees.Quote(payloadLen), nil
}

func (ep *RelayEndpoint) Send(ctx context.Context, dstChain domain.ChainID, payload []byte, fee int64) (*Receipt, error) {
	quoted, err := ep.Quote(dstChain, len(payload))
	if err != nil {
		return nil, err
	}
	if fee < quoted {
		return nil, fmt.Errorf("%w: need %d, got %d", domain.ErrInsufficientFee, quoted, fee)
	}

	if !ep.breaker.Allow() {
		return nil, fmt.Errorf("%w: relay circuit open", domain.ErrTransferFailed)
	}
	ep.limiter.Wait()

	ep.handlerMu.Lock()
	ep.nonce++
	nonce := ep.nonce
	ep.handlerMu.Unlock()

	frame, err := SealFrame(ep.signer, ep.chain, ep.localAddr, dstChain, nonce, time.Now().UnixMicro(), payload)
	if err != nil {
		return nil, err
	}

	if err := ep.write(websocket.TextMessage, frame); err != nil {
		ep.breaker.RecordFailure()
		return nil, fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
	}
	ep.breaker.RecordSuccess()

	return &Receipt{MessageID: uuid.New(), Nonce: nonce, Fee: quoted}, nil
}

func (ep *RelayEndpoint) runLoop(ctx context.Context) {
	defer ep.wg.Done()
	retry := 0

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := ep.connect(ctx); err != nil {
			slog.Warn("Relay connection failed",
				slog.Uint64("chain", uint64(ep.chain)),
				slog.String("err", err.Error()),
				slog.Int("retry", retry))
			delay := infra.CalculateBackoff(retry)
			retry++

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		}

		retry = 0 // Reset on successful connect
		ep.process(ctx)
	}
}

func (ep *RelayEndpoint) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, ep.url, http.Header{})
	if err != nil {
		return err
	}

	ep.mu.Lock()
	ep.conn = conn
	ep.mu.Unlock()

	hello := helloRequest{Op: "hello", Chain: uint32(ep.chain), Addr: ep.localAddr.String()}
	data, err := json.Marshal(hello)
	if err != nil {
		ep.close()
		return err
	}
	if err := ep.write(websocket.TextMessage, data); err != nil {
		ep.close()
		return fmt.Errorf("hello failed: %w", err)
	}

	if ep.PingInterval > 0 {
		go ep.pingLoop(ctx)
	}

	slog.Info("Relay connected",
		slog.Uint64("chain", uint64(ep.chain)),
		slog.String("url", ep.url))
	return nil
}

func (ep *RelayEndpoint) process(ctx context.Context) {
	for {
		ep.mu.RLock()
		c := ep.conn
		ep.mu.RUnlock()
		if c == nil {
			return
		}

		c.SetReadDeadline(time.Now().Add(ep.ReadTimeout))
		_, msg, err := c.ReadMessage()
		if err != nil {
			slog.Warn("Relay read error",
				slog.Uint64("chain", uint64(ep.chain)),
				slog.String("err", err.Error()))
			ep.close()
			return
		}

		ep.onFrame(ctx, msg)
	}
}

func (ep *RelayEndpoint) onFrame(ctx context.Context, msg []byte) {
	frame, payload, err := OpenFrame(ep.signer, msg)
	if err != nil {
		slog.Warn("Relay frame rejected",
			slog.Uint64("chain", uint64(ep.chain)),
			slog.String("err", err.Error()))
		return
	}
	if frame.DstChain != ep.chain {
		slog.Warn("Relay frame misrouted",
			slog.Uint64("chain", uint64(ep.chain)),
			slog.Uint64("dst", uint64(frame.DstChain)))
		return
	}

	ep.handlerMu.Lock()
	handler := ep.handler
	ep.handlerMu.Unlock()
	if handler == nil {
		return
	}

	origin := Origin{SrcChain: frame.SrcChain, SrcAddr: frame.SrcAddr}
	if err := handler.DeliverMessage(ctx, origin, payload); err != nil {
		slog.Warn("Inbound message rejected",
			slog.Uint64("src", uint64(frame.SrcChain)),
			slog.String("err", err.Error()))
	}
}

func (ep *RelayEndpoint) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(ep.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ep.mu.RLock()
			c := ep.conn
			ep.mu.RUnlock()
			if c == nil {
				return
			}
			if err := ep.write(websocket.PingMessage, nil); err != nil {
				slog.Warn("Relay ping error",
					slog.Uint64("chain", uint64(ep.chain)),
					slog.String("err", err.Error()))
				ep.close()
				return
			}
		}
	}
}

func (ep *RelayEndpoint) write(msgType int, data []byte) error {
	ep.writeMu.Lock()
	defer ep.writeMu.Unlock()

	ep.mu.RLock()
	c := ep.conn
	ep.mu.RUnlock()

	if c == nil {
		return fmt.Errorf("relay not connected")
	}
	return c.WriteMessage(msgType, data)
}

func (ep *RelayEndpoint) close() {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	if ep.conn != nil {
		ep.conn.Close()
		ep.conn = nil
	}
}
