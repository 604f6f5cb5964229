package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// EventType enumerates the normalised webhook outcomes shared across providers.
type EventType string

const (
	// EventPaymentSucceeded indicates the checkout session completed and the payment was captured.
	EventPaymentSucceeded EventType = "payment_succeeded"
	// EventPaymentExpired indicates the checkout session expired without payment.
	EventPaymentExpired EventType = "payment_expired"
	// EventUnhandled indicates a verified event of a type this service does not act on.
	EventUnhandled EventType = "unhandled"
)

var (
	// ErrUnsupportedProvider is returned when the manager cannot locate a provider.
	ErrUnsupportedProvider = errors.New("payments: unsupported provider")
	// ErrRejectedEvent indicates a webhook payload whose signature could not be verified.
	ErrRejectedEvent = errors.New("payments: rejected event")
	// ErrUnavailable indicates the PSP could not be reached or returned a server-side failure.
	ErrUnavailable = errors.New("payments: provider unavailable")
)

// CheckoutLineItem describes a single line item to include in a checkout session.
// Amount is in the currency's minor unit.
type CheckoutLineItem struct {
	Name        string
	Description string
	Quantity    int64
	Amount      int64
	Currency    string
}

// CheckoutSessionRequest captures the payload required to create a checkout session.
type CheckoutSessionRequest struct {
	OrderID    string
	Currency   string
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
	Items      []CheckoutLineItem
}

// CheckoutSession represents the PSP session returned to the client.
type CheckoutSession struct {
	ID          string
	Provider    string
	RedirectURL string
	ExpiresAt   time.Time
}

// PaymentEvent is a verified, normalised webhook notification.
type PaymentEvent struct {
	Type       EventType
	SessionRef string
	EventID    string
	RawType    string
}

// Provider defines the contract for PSP adapters to implement.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (CheckoutSession, error)
	VerifyAndParseEvent(ctx context.Context, payload []byte, signature string) (PaymentEvent, error)
}

// Manager coordinates provider selection and exposes the aggregated interface.
type Manager struct {
	providers       map[string]Provider
	defaultProvider string
}

// ManagerOption configures optional behaviour when building a Manager.
type ManagerOption func(*Manager)

// WithDefaultProvider overrides the default provider used when no preference is given.
func WithDefaultProvider(provider string) ManagerOption {
	return func(m *Manager) {
		m.defaultProvider = provider
	}
}

// NewManager constructs a Manager over the supplied providers.
func NewManager(providers map[string]Provider, opts ...ManagerOption) (*Manager, error) {
	if len(providers) == 0 {
		return nil, errors.New("payments: at least one provider is required")
	}
	copyMap := make(map[string]Provider, len(providers))
	for k, v := range providers {
		key := strings.TrimSpace(strings.ToLower(k))
		if key == "" || v == nil {
			return nil, fmt.Errorf("payments: invalid provider registration for key %q", k)
		}
		copyMap[key] = v
	}
	m := &Manager{
		providers: copyMap,
	}
	if _, ok := copyMap["stripe"]; ok {
		m.defaultProvider = "stripe"
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Manager) resolveProvider(preferred string) (string, Provider, error) {
	if m == nil {
		return "", nil, errors.New("payments: manager is nil")
	}
	if len(m.providers) == 0 {
		return "", nil, errors.New("payments: no providers registered")
	}
	if provider := strings.TrimSpace(strings.ToLower(preferred)); provider != "" {
		if p, ok := m.providers[provider]; ok {
			return provider, p, nil
		}
		return "", nil, ErrUnsupportedProvider
	}
	if def := strings.TrimSpace(strings.ToLower(m.defaultProvider)); def != "" {
		if p, ok := m.providers[def]; ok {
			return def, p, nil
		}
	}
	if len(m.providers) == 1 {
		for key, p := range m.providers {
			return key, p, nil
		}
	}
	return "", nil, ErrUnsupportedProvider
}

// CreateCheckoutSession delegates to the resolved provider.
func (m *Manager) CreateCheckoutSession(ctx context.Context, preferred string, req CheckoutSessionRequest) (CheckoutSession, error) {
	key, provider, err := m.resolveProvider(preferred)
	if err != nil {
		return CheckoutSession{}, err
	}
	session, err := provider.CreateCheckoutSession(ctx, req)
	if err != nil {
		return CheckoutSession{}, err
	}
	session.Provider = key
	return session, nil
}

// VerifyAndParseEvent delegates to the resolved provider.
func (m *Manager) VerifyAndParseEvent(ctx context.Context, preferred string, payload []byte, signature string) (PaymentEvent, error) {
	_, provider, err := m.resolveProvider(preferred)
	if err != nil {
		return PaymentEvent{}, err
	}
	return provider.VerifyAndParseEvent(ctx, payload, signature)
}
