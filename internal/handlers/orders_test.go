package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/cameron-natural/api/internal/domain"
	"github.com/cameron-natural/api/internal/platform/auth"
	"github.com/cameron-natural/api/internal/services"
)

type stubCheckoutService struct {
	placeFn  func(context.Context, services.PlaceOrderCommand) (services.PlaceOrderResult, error)
	walkInFn func(context.Context, services.PlaceWalkInOrderCommand) (services.Order, error)
}

func (s *stubCheckoutService) PlaceOrder(ctx context.Context, cmd services.PlaceOrderCommand) (services.PlaceOrderResult, error) {
	if s.placeFn != nil {
		return s.placeFn(ctx, cmd)
	}
	return services.PlaceOrderResult{}, errors.New("not implemented")
}

func (s *stubCheckoutService) PlaceWalkInOrder(ctx context.Context, cmd services.PlaceWalkInOrderCommand) (services.Order, error) {
	if s.walkInFn != nil {
		return s.walkInFn(ctx, cmd)
	}
	return services.Order{}, errors.New("not implemented")
}

var _ services.CheckoutService = (*stubCheckoutService)(nil)

type stubOrderService struct {
	getFn        func(context.Context, string) (services.Order, error)
	listFn       func(context.Context, services.OrderFilter) ([]services.Order, error)
	transitionFn func(context.Context, services.OrderStatusTransitionCommand) (services.Order, error)
	reconcileFn  func(context.Context, services.ReconcilePaymentCommand) (services.Order, bool, error)
}

func (s *stubOrderService) Create(context.Context, services.CreateOrderCommand) (services.Order, error) {
	return services.Order{}, errors.New("not implemented")
}

func (s *stubOrderService) CreateWalkIn(context.Context, services.CreateWalkInOrderCommand) (services.Order, error) {
	return services.Order{}, errors.New("not implemented")
}

func (s *stubOrderService) AttachPaymentSession(context.Context, string, string) (services.Order, error) {
	return services.Order{}, errors.New("not implemented")
}

func (s *stubOrderService) ReconcilePaymentEvent(ctx context.Context, cmd services.ReconcilePaymentCommand) (services.Order, bool, error) {
	if s.reconcileFn != nil {
		return s.reconcileFn(ctx, cmd)
	}
	return services.Order{}, false, errors.New("not implemented")
}

func (s *stubOrderService) TransitionStatus(ctx context.Context, cmd services.OrderStatusTransitionCommand) (services.Order, error) {
	if s.transitionFn != nil {
		return s.transitionFn(ctx, cmd)
	}
	return services.Order{}, errors.New("not implemented")
}

func (s *stubOrderService) List(ctx context.Context, filter services.OrderFilter) ([]services.Order, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return nil, errors.New("not implemented")
}

func (s *stubOrderService) Get(ctx context.Context, orderID string) (services.Order, error) {
	if s.getFn != nil {
		return s.getFn(ctx, orderID)
	}
	return services.Order{}, errors.New("not implemented")
}

var _ services.OrderService = (*stubOrderService)(nil)

func sampleOrder() services.Order {
	created := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	return services.Order{
		ID: "ord_1",
		Items: []domain.OrderLine{
			{
				MenuItemID: "item_thai_tea",
				Name:       domain.BilingualName{TH: "ชาไทย", EN: "Thai Tea"},
				Temp:       domain.TempIced,
				Addons: []domain.Addon{
					{ID: "addon_pearls", Name: domain.BilingualName{TH: "ไข่มุก", EN: "Pearls"}, Price: 10},
				},
				Quantity:   2,
				UnitPrice:  60,
				TotalPrice: 120,
			},
		},
		Subtotal:      120,
		Total:         120,
		PaymentMethod: domain.PaymentMethodCard,
		PaymentStatus: domain.PaymentStatusPending,
		OrderStatus:   domain.OrderStatusPending,
		CustomerName:  "Nok",
		CustomerPhone: "0812345678",
		CreatedAt:     created,
		UpdatedAt:     created,
	}
}

func newOrderTestRouter(checkout services.CheckoutService, orders services.OrderService) chi.Router {
	router := chi.NewRouter()
	NewOrderHandlers(checkout, orders).Routes(router)
	return router
}

func TestPlaceOrderReturnsCheckoutURL(t *testing.T) {
	var captured services.PlaceOrderCommand
	checkout := &stubCheckoutService{
		placeFn: func(_ context.Context, cmd services.PlaceOrderCommand) (services.PlaceOrderResult, error) {
			captured = cmd
			return services.PlaceOrderResult{
				Order:       sampleOrder(),
				CheckoutURL: "https://checkout.stripe.com/pay/cs_1",
			}, nil
		},
	}

	router := newOrderTestRouter(checkout, &stubOrderService{})

	payload := `{
		"items": [{"menuItemId": "item_thai_tea", "temp": "iced", "addons": ["addon_pearls"], "quantity": 2}],
		"customerName": "Nok",
		"customerPhone": "0812345678",
		"paymentMethod": "card"
	}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var body struct {
		Order struct {
			ID    string `json:"id"`
			Items []struct {
				MenuItemID string `json:"menuItemId"`
				NameEN     string `json:"name_en"`
				TotalPrice int64  `json:"totalPrice"`
			} `json:"items"`
			CreatedAt string `json:"createdAt"`
		} `json:"order"`
		CheckoutURL string `json:"checkoutUrl"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Order.ID != "ord_1" {
		t.Fatalf("expected order ord_1, got %s", body.Order.ID)
	}
	if body.CheckoutURL != "https://checkout.stripe.com/pay/cs_1" {
		t.Fatalf("unexpected checkout url %s", body.CheckoutURL)
	}
	if len(body.Order.Items) != 1 || body.Order.Items[0].NameEN != "Thai Tea" {
		t.Fatalf("unexpected items: %+v", body.Order.Items)
	}
	if body.Order.CreatedAt != "2025-03-01T09:30:00Z" {
		t.Fatalf("expected RFC3339 createdAt, got %s", body.Order.CreatedAt)
	}

	if captured.PaymentMethod != domain.PaymentMethodCard {
		t.Fatalf("expected card payment method, got %s", captured.PaymentMethod)
	}
	if len(captured.Lines) != 1 || captured.Lines[0].Quantity != 2 {
		t.Fatalf("unexpected captured lines: %+v", captured.Lines)
	}
	if captured.Lines[0].Temp != domain.TempIced {
		t.Fatalf("expected iced temp, got %s", captured.Lines[0].Temp)
	}
}

func TestPlaceOrderAttachesSignedInIdentity(t *testing.T) {
	var captured services.PlaceOrderCommand
	checkout := &stubCheckoutService{
		placeFn: func(_ context.Context, cmd services.PlaceOrderCommand) (services.PlaceOrderResult, error) {
			captured = cmd
			return services.PlaceOrderResult{Order: sampleOrder()}, nil
		},
	}

	router := newOrderTestRouter(checkout, &stubOrderService{})

	payload := `{"items": [{"menuItemId": "item_thai_tea", "temp": "iced", "quantity": 1}], "customerName": "Nok", "customerPhone": "0812345678", "paymentMethod": "cash"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
	identity := &auth.Identity{UID: "uid_1", Email: "nok@example.com", Roles: []string{auth.RoleUser}}
	req = req.WithContext(auth.WithIdentity(req.Context(), identity))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}
	if captured.Customer.UserID != "uid_1" || captured.Customer.UserEmail != "nok@example.com" {
		t.Fatalf("expected identity on customer details, got %+v", captured.Customer)
	}
}

func TestPlaceOrderRejectsUnknownPaymentMethod(t *testing.T) {
	router := newOrderTestRouter(&stubCheckoutService{}, &stubOrderService{})

	payload := `{"items": [{"menuItemId": "item_thai_tea", "quantity": 1}], "paymentMethod": "promptpay"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body["error"] != "invalid_request" {
		t.Fatalf("expected invalid_request, got %v", body["error"])
	}
}

func TestPlaceOrderRejectsEmptyBody(t *testing.T) {
	router := newOrderTestRouter(&stubCheckoutService{}, &stubOrderService{})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("   "))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestPlaceOrderPaymentGatewayFailure(t *testing.T) {
	checkout := &stubCheckoutService{
		placeFn: func(context.Context, services.PlaceOrderCommand) (services.PlaceOrderResult, error) {
			return services.PlaceOrderResult{}, services.ErrCheckoutPaymentFailed
		},
	}

	router := newOrderTestRouter(checkout, &stubOrderService{})

	payload := `{"items": [{"menuItemId": "item_thai_tea", "temp": "iced", "quantity": 1}], "paymentMethod": "card"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", rr.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body["error"] != "payment_gateway_error" {
		t.Fatalf("expected payment_gateway_error, got %v", body["error"])
	}
}

func TestPlaceOrderUnknownMenuItem(t *testing.T) {
	checkout := &stubCheckoutService{
		placeFn: func(context.Context, services.PlaceOrderCommand) (services.PlaceOrderResult, error) {
			return services.PlaceOrderResult{}, services.ErrCatalogNotFound
		},
	}

	router := newOrderTestRouter(checkout, &stubOrderService{})

	payload := `{"items": [{"menuItemId": "item_gone", "temp": "iced", "quantity": 1}], "paymentMethod": "cash"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestGetOrderByID(t *testing.T) {
	orders := &stubOrderService{
		getFn: func(_ context.Context, orderID string) (services.Order, error) {
			if orderID != "ord_1" {
				return services.Order{}, services.ErrOrderNotFound
			}
			return sampleOrder(), nil
		},
	}

	router := newOrderTestRouter(&stubCheckoutService{}, orders)

	req := httptest.NewRequest(http.MethodGet, "/ord_1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var body struct {
		Order struct {
			ID            string `json:"id"`
			OrderStatus   string `json:"orderStatus"`
			PaymentStatus string `json:"paymentStatus"`
		} `json:"order"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Order.ID != "ord_1" || body.Order.OrderStatus != "pending" {
		t.Fatalf("unexpected order payload: %+v", body.Order)
	}
}

func TestGetOrderNotFound(t *testing.T) {
	orders := &stubOrderService{
		getFn: func(context.Context, string) (services.Order, error) {
			return services.Order{}, services.ErrOrderNotFound
		},
	}

	router := newOrderTestRouter(&stubCheckoutService{}, orders)

	req := httptest.NewRequest(http.MethodGet, "/ord_missing", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body["error"] != "order_not_found" {
		t.Fatalf("expected order_not_found, got %v", body["error"])
	}
}

func TestGetOrderStoreUnavailable(t *testing.T) {
	orders := &stubOrderService{
		getFn: func(context.Context, string) (services.Order, error) {
			return services.Order{}, fmt.Errorf("%w: deadline exceeded", services.ErrOrderUnavailable)
		},
	}

	router := newOrderTestRouter(&stubCheckoutService{}, orders)

	req := httptest.NewRequest(http.MethodGet, "/ord_1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body["error"] != "order_store_unavailable" {
		t.Fatalf("expected order_store_unavailable, got %v", body["error"])
	}
}
