package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/cameron-natural/api/internal/domain"
	"github.com/cameron-natural/api/internal/platform/auth"
	"github.com/cameron-natural/api/internal/platform/httpx"
	"github.com/cameron-natural/api/internal/services"
)

const (
	defaultAdminOrderLimit = 50
	maxAdminOrderLimit     = 200
	orderDateLayout        = "2006-01-02"
)

// AdminOrderHandlers exposes the back-office order workflow.
type AdminOrderHandlers struct {
	orders   services.OrderService
	checkout services.CheckoutService
}

// NewAdminOrderHandlers constructs a new AdminOrderHandlers instance.
func NewAdminOrderHandlers(orders services.OrderService, checkout services.CheckoutService) *AdminOrderHandlers {
	return &AdminOrderHandlers{
		orders:   orders,
		checkout: checkout,
	}
}

// Routes registers the /admin/orders endpoints.
func (h *AdminOrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/orders", h.listOrders)
	r.Post("/orders/walkin", h.createWalkIn)
	r.Patch("/orders/{orderID}", h.transitionOrder)
}

func (h *AdminOrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	query := r.URL.Query()
	filter := services.OrderFilter{Limit: defaultAdminOrderLimit}

	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		if !domain.ValidOrderStatus(raw) {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "status must be a valid order status", http.StatusBadRequest))
			return
		}
		filter.Status = domain.OrderStatus(raw)
	}

	if raw := strings.TrimSpace(query.Get("date")); raw != "" {
		day, err := time.Parse(orderDateLayout, raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "date must be formatted YYYY-MM-DD", http.StatusBadRequest))
			return
		}
		filter.Date = &day
	}

	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "limit must be an integer", http.StatusBadRequest))
			return
		}
		switch {
		case limit <= 0:
			filter.Limit = defaultAdminOrderLimit
		case limit > maxAdminOrderLimit:
			filter.Limit = maxAdminOrderLimit
		default:
			filter.Limit = limit
		}
	}

	orders, err := h.orders.List(ctx, filter)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	items := make([]orderPayload, 0, len(orders))
	for _, order := range orders {
		items = append(items, buildOrderResponse(order))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"orders": items})
}

type walkInOrderRequest struct {
	Items         []orderLineRequest `json:"items"`
	CustomerName  string             `json:"customerName"`
	CustomerPhone string             `json:"customerPhone"`
	CustomerNote  string             `json:"customerNote"`
	UserID        string             `json:"userId"`
	UserEmail     string             `json:"userEmail"`
	UserPhone     string             `json:"userPhone"`
}

func (h *AdminOrderHandlers) createWalkIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxOrderBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req walkInOrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
		return
	}

	cmd := services.PlaceWalkInOrderCommand{
		Lines: make([]services.OrderLineInput, 0, len(req.Items)),
		Customer: services.CustomerDetails{
			Name:      strings.TrimSpace(req.CustomerName),
			Phone:     strings.TrimSpace(req.CustomerPhone),
			Note:      strings.TrimSpace(req.CustomerNote),
			UserID:    strings.TrimSpace(req.UserID),
			UserEmail: strings.TrimSpace(req.UserEmail),
			UserPhone: strings.TrimSpace(req.UserPhone),
		},
	}
	if identity, ok := auth.IdentityFromContext(ctx); ok && identity != nil {
		cmd.ActorID = strings.TrimSpace(identity.UID)
	}

	for _, line := range req.Items {
		cmd.Lines = append(cmd.Lines, services.OrderLineInput{
			MenuItemID: strings.TrimSpace(line.MenuItemID),
			Temp:       domain.TempVariant(strings.TrimSpace(line.Temp)),
			Size:       domain.DrinkSize(strings.TrimSpace(line.Size)),
			AddonIDs:   line.Addons,
			Quantity:   line.Quantity,
			Notes:      strings.TrimSpace(line.Notes),
		})
	}

	order, err := h.checkout.PlaceWalkInOrder(ctx, cmd)
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, orderResponse{Order: buildOrderResponse(order)})
}

func (h *AdminOrderHandlers) transitionOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	body, err := readLimitedBody(r, maxOrderBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req struct {
		OrderStatus   *string `json:"orderStatus"`
		PaymentStatus *string `json:"paymentStatus"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
		return
	}
	if req.OrderStatus == nil && req.PaymentStatus == nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "orderStatus or paymentStatus is required", http.StatusBadRequest))
		return
	}

	cmd := services.OrderStatusTransitionCommand{OrderID: orderID}
	if identity, ok := auth.IdentityFromContext(ctx); ok && identity != nil {
		cmd.ActorID = strings.TrimSpace(identity.UID)
	}

	if req.OrderStatus != nil {
		raw := strings.TrimSpace(*req.OrderStatus)
		if !domain.ValidOrderStatus(raw) {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "orderStatus must be a valid order status", http.StatusBadRequest))
			return
		}
		status := domain.OrderStatus(raw)
		cmd.OrderStatus = &status
	}
	if req.PaymentStatus != nil {
		raw := strings.TrimSpace(*req.PaymentStatus)
		if !domain.ValidPaymentStatus(raw) {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "paymentStatus must be a valid payment status", http.StatusBadRequest))
			return
		}
		status := domain.PaymentStatus(raw)
		cmd.PaymentStatus = &status
	}

	order, err := h.orders.TransitionStatus(ctx, cmd)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderResponse(order)})
}
