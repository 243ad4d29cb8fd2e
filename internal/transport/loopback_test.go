package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/Grailmarket/gusd/internal/domain"
)

func addr(b byte) domain.Address {
	var a domain.Address
	a[31] = b
	return a
}

type captureHandler struct {
	origins  []Origin
	payloads [][]byte
	fail     error
}

func (h *captureHandler) DeliverMessage(ctx context.Context, origin Origin, payload []byte) error {
	if h.fail != nil {
		return h.fail
	}
	h.origins = append(h.origins, origin)
	h.payloads = append(h.payloads, payload)
	return nil
}

func TestBus_SendDelivers(t *testing.T) {
	bus := NewBus(FeeSchedule{Base: 100, PerByte: 1})
	epA := bus.Endpoint(1, addr(0xA))
	epB := bus.Endpoint(2, addr(0xB))

	h := &captureHandler{}
	epB.SetHandler(h)

	payload := []byte{0x01, 0x02, 0x03}
	receipt, err := epA.Send(context.Background(), 2, payload, 103)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if receipt.Fee != 103 {
		t.Errorf("receipt fee = %d, want 103", receipt.Fee)
	}
	if receipt.Nonce != 1 {
		t.Errorf("first nonce = %d, want 1", receipt.Nonce)
	}

	if len(h.payloads) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(h.payloads))
	}
	if h.origins[0].SrcChain != 1 || h.origins[0].SrcAddr != addr(0xA) {
		t.Errorf("origin mismatch: %+v", h.origins[0])
	}
}

func TestBus_QuoteScalesWithPayload(t *testing.T) {
	bus := NewBus(FeeSchedule{Base: 100, PerByte: 2})
	ep := bus.Endpoint(1, addr(0xA))

	fee, err := ep.Quote(2, 41)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if fee != 100+2*41 {
		t.Errorf("fee = %d, want %d", fee, 100+2*41)
	}

	if _, err := ep.Quote(1, 41); err == nil {
		t.Error("quoting the local chain should fail")
	}
}

func TestBus_SendUnderpaid(t *testing.T) {
	bus := NewBus(FeeSchedule{Base: 100, PerByte: 1})
	epA := bus.Endpoint(1, addr(0xA))
	bus.Endpoint(2, addr(0xB)).SetHandler(&captureHandler{})

	_, err := epA.Send(context.Background(), 2, []byte{0x01}, 100)
	if !errors.Is(err, domain.ErrInsufficientFee) {
		t.Errorf("expected ErrInsufficientFee, got %v", err)
	}
}

func TestBus_SendUnknownChain(t *testing.T) {
	bus := NewBus(FeeSchedule{})
	epA := bus.Endpoint(1, addr(0xA))

	_, err := epA.Send(context.Background(), 99, []byte{0x01}, 1000)
	if !errors.Is(err, domain.ErrTransferFailed) {
		t.Errorf("expected ErrTransferFailed, got %v", err)
	}
}

func TestBus_HandlerErrorPropagates(t *testing.T) {
	bus := NewBus(FeeSchedule{})
	epA := bus.Endpoint(1, addr(0xA))
	epB := bus.Endpoint(2, addr(0xB))
	epB.SetHandler(&captureHandler{fail: errors.New("rejected")})

	_, err := epA.Send(context.Background(), 2, []byte{0x01}, 1000)
	if !errors.Is(err, domain.ErrTransferFailed) {
		t.Errorf("expected ErrTransferFailed wrapping handler error, got %v", err)
	}
}

func TestBus_NonceMonotonic(t *testing.T) {
	bus := NewBus(FeeSchedule{})
	epA := bus.Endpoint(1, addr(0xA))
	bus.Endpoint(2, addr(0xB)).SetHandler(&captureHandler{})

	for want := uint64(1); want <= 3; want++ {
		r, err := epA.Send(context.Background(), 2, []byte{0x01}, 1000)
		if err != nil {
			t.Fatalf("send: %v", err)
		}
		if r.Nonce != want {
			t.Errorf("nonce = %d, want %d", r.Nonce, want)
		}
	}
}
