package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cameron-natural/api/internal/payments"
	"github.com/cameron-natural/api/internal/platform/httpx"
	"github.com/cameron-natural/api/internal/services"
)

const maxWebhookBodySize = 1 << 20

// paymentEventVerifier verifies a raw webhook payload and normalises it.
// Satisfied by the PSP adapters in the payments package.
type paymentEventVerifier interface {
	VerifyAndParseEvent(ctx context.Context, payload []byte, signature string) (payments.PaymentEvent, error)
}

// WebhookHandlers receives PSP notifications and reconciles them into orders.
type WebhookHandlers struct {
	verifier paymentEventVerifier
	orders   services.OrderService
	logger   func(ctx context.Context, event string, fields map[string]any)
}

// NewWebhookHandlers constructs a new WebhookHandlers instance.
func NewWebhookHandlers(verifier paymentEventVerifier, orders services.OrderService, logger func(ctx context.Context, event string, fields map[string]any)) *WebhookHandlers {
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &WebhookHandlers{
		verifier: verifier,
		orders:   orders,
		logger:   logger,
	}
}

// Routes registers the /webhooks endpoints.
func (h *WebhookHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/stripe", h.stripeWebhook)
}

// stripeWebhook verifies the signed payload before anything is parsed.
// Handled and unhandled event types both acknowledge with 200 so the PSP
// stops redelivering; only untrusted payloads are refused.
func (h *WebhookHandlers) stripeWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.verifier == nil || h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("webhook_unavailable", "webhook processing unavailable", http.StatusServiceUnavailable))
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodySize+1))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "failed to read request body", http.StatusBadRequest))
		return
	}
	if len(payload) > maxWebhookBodySize {
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		return
	}

	signature := r.Header.Get("Stripe-Signature")

	event, err := h.verifier.VerifyAndParseEvent(ctx, payload, signature)
	if err != nil {
		if errors.Is(err, payments.ErrRejectedEvent) {
			h.logger(ctx, "webhook.stripe.rejected", map[string]any{"reason": err.Error()})
			httpx.WriteError(ctx, w, httpx.NewError("untrusted_event", "webhook signature verification failed", http.StatusBadRequest))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("webhook_error", "failed to process webhook", http.StatusInternalServerError))
		return
	}

	if event.Type == payments.EventUnhandled {
		h.logger(ctx, "webhook.stripe.unhandled", map[string]any{"eventType": event.RawType, "eventId": event.EventID})
		writeJSONResponse(w, http.StatusOK, map[string]any{"received": true})
		return
	}

	_, applied, err := h.orders.ReconcilePaymentEvent(ctx, services.ReconcilePaymentCommand{
		SessionRef: event.SessionRef,
		Succeeded:  event.Type == payments.EventPaymentSucceeded,
		EventID:    event.EventID,
	})
	if err != nil {
		// A session ref with no matching order is acknowledged: the PSP will
		// not produce a different outcome on redelivery.
		if errors.Is(err, services.ErrOrderNotFound) {
			h.logger(ctx, "webhook.stripe.order_missing", map[string]any{"sessionRef": event.SessionRef, "eventId": event.EventID})
			writeJSONResponse(w, http.StatusOK, map[string]any{"received": true})
			return
		}
		if errors.Is(err, services.ErrOrderUnavailable) {
			httpx.WriteError(ctx, w, httpx.NewError("order_store_unavailable", "order store temporarily unavailable", http.StatusServiceUnavailable))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("webhook_error", "failed to reconcile payment event", http.StatusInternalServerError))
		return
	}

	h.logger(ctx, "webhook.stripe.processed", map[string]any{
		"eventType":  event.RawType,
		"eventId":    event.EventID,
		"sessionRef": event.SessionRef,
		"applied":    applied,
	})
	writeJSONResponse(w, http.StatusOK, map[string]any{"received": true})
}
