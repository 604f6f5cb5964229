package payments

import (
	"context"
	"errors"
	"testing"
)

type fakeProvider struct {
	lastOp  string
	session CheckoutSession
	event   PaymentEvent
	err     error
}

func (f *fakeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (CheckoutSession, error) {
	f.lastOp = "create"
	return f.session, f.err
}

func (f *fakeProvider) VerifyAndParseEvent(ctx context.Context, payload []byte, signature string) (PaymentEvent, error) {
	f.lastOp = "verify"
	return f.event, f.err
}

func TestManagerCreateCheckoutSessionUsesPreferredProvider(t *testing.T) {
	ctx := context.Background()
	stripe := &fakeProvider{session: CheckoutSession{ID: "cs_stripe"}}
	omise := &fakeProvider{session: CheckoutSession{ID: "cs_omise"}}

	mgr, err := NewManager(map[string]Provider{
		"stripe": stripe,
		"omise":  omise,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	session, err := mgr.CreateCheckoutSession(ctx, "omise", CheckoutSessionRequest{Currency: "thb"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if session.Provider != "omise" {
		t.Fatalf("expected provider 'omise', got %q", session.Provider)
	}
	if omise.lastOp != "create" {
		t.Fatalf("expected omise provider to handle call")
	}
	if stripe.lastOp != "" {
		t.Fatalf("expected stripe provider to remain unused")
	}
}

func TestManagerFallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	stripe := &fakeProvider{event: PaymentEvent{Type: EventPaymentSucceeded, SessionRef: "cs_1"}}

	mgr, err := NewManager(map[string]Provider{"stripe": stripe})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	event, err := mgr.VerifyAndParseEvent(ctx, "", []byte("{}"), "t=1,v1=abc")
	if err != nil {
		t.Fatalf("verify event: %v", err)
	}
	if stripe.lastOp != "verify" {
		t.Fatalf("expected verify to invoke default provider")
	}
	if event.SessionRef != "cs_1" {
		t.Fatalf("unexpected session ref: %q", event.SessionRef)
	}
}

func TestManagerUnsupportedProvider(t *testing.T) {
	ctx := context.Background()
	mgr, err := NewManager(map[string]Provider{"stripe": &fakeProvider{}, "omise": &fakeProvider{}}, WithDefaultProvider(""))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	_, err = mgr.CreateCheckoutSession(ctx, "unknown", CheckoutSessionRequest{Currency: "thb"})
	if !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}
}

func TestNewManagerValidatesProviders(t *testing.T) {
	if _, err := NewManager(map[string]Provider{"bad": nil}); err == nil {
		t.Fatalf("expected error for nil provider")
	}
	if _, err := NewManager(nil); err == nil {
		t.Fatalf("expected error when providers empty")
	}
}
