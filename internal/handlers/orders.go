package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/cameron-natural/api/internal/domain"
	"github.com/cameron-natural/api/internal/platform/auth"
	"github.com/cameron-natural/api/internal/platform/httpx"
	"github.com/cameron-natural/api/internal/services"
)

const maxOrderBodySize = 64 * 1024

// OrderHandlers exposes the public ordering endpoints.
type OrderHandlers struct {
	checkout services.CheckoutService
	orders   services.OrderService
}

// NewOrderHandlers constructs a new OrderHandlers instance.
func NewOrderHandlers(checkout services.CheckoutService, orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{
		checkout: checkout,
		orders:   orders,
	}
}

// Routes registers the /orders endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.placeOrder)
	r.Get("/{orderID}", h.getOrder)
}

type orderLineRequest struct {
	MenuItemID string   `json:"menuItemId"`
	Temp       string   `json:"temp"`
	Size       string   `json:"size"`
	Addons     []string `json:"addons"`
	Quantity   int      `json:"quantity"`
	Notes      string   `json:"notes"`
}

type placeOrderRequest struct {
	Items         []orderLineRequest `json:"items"`
	CustomerName  string             `json:"customerName"`
	CustomerPhone string             `json:"customerPhone"`
	CustomerNote  string             `json:"customerNote"`
	PaymentMethod string             `json:"paymentMethod"`
}

type placeOrderResponse struct {
	Order       orderPayload `json:"order"`
	CheckoutURL string       `json:"checkoutUrl,omitempty"`
}

func (h *OrderHandlers) placeOrder(w http.ResponseWriter, r *http.Request) {
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

	var req placeOrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
		return
	}

	if !domain.ValidPaymentMethod(req.PaymentMethod) {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "paymentMethod must be cash or card", http.StatusBadRequest))
		return
	}

	cmd := services.PlaceOrderCommand{
		Lines: make([]services.OrderLineInput, 0, len(req.Items)),
		Customer: services.CustomerDetails{
			Name:  strings.TrimSpace(req.CustomerName),
			Phone: strings.TrimSpace(req.CustomerPhone),
			Note:  strings.TrimSpace(req.CustomerNote),
		},
		PaymentMethod: domain.PaymentMethod(strings.TrimSpace(req.PaymentMethod)),
	}

	// Orders placed while signed in carry the account identity so the admin
	// customer view can group them.
	if identity, ok := auth.IdentityFromContext(ctx); ok && identity != nil {
		cmd.Customer.UserID = strings.TrimSpace(identity.UID)
		cmd.Customer.UserEmail = strings.TrimSpace(identity.Email)
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

	result, err := h.checkout.PlaceOrder(ctx, cmd)
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, placeOrderResponse{
		Order:       buildOrderResponse(result.Order),
		CheckoutURL: result.CheckoutURL,
	})
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
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

	order, err := h.orders.Get(ctx, orderID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderResponse(order)})
}

type orderResponse struct {
	Order orderPayload `json:"order"`
}

type orderPayload struct {
	ID              string             `json:"id"`
	Items           []orderItemPayload `json:"items"`
	Subtotal        int64              `json:"subtotal"`
	Total           int64              `json:"total"`
	PaymentMethod   string             `json:"paymentMethod"`
	PaymentStatus   string             `json:"paymentStatus"`
	OrderStatus     string             `json:"orderStatus"`
	CustomerName    string             `json:"customerName"`
	CustomerPhone   string             `json:"customerPhone"`
	CustomerNote    string             `json:"customerNote,omitempty"`
	UserID          string             `json:"userId,omitempty"`
	UserEmail       string             `json:"userEmail,omitempty"`
	UserPhone       string             `json:"userPhone,omitempty"`
	StripeSessionID string             `json:"stripeSessionId,omitempty"`
	CreatedAt       string             `json:"createdAt"`
	UpdatedAt       string             `json:"updatedAt"`
}

type orderItemPayload struct {
	MenuItemID string              `json:"menuItemId"`
	NameTH     string              `json:"name_th"`
	NameEN     string              `json:"name_en"`
	Temp       string              `json:"temp,omitempty"`
	Size       string              `json:"size,omitempty"`
	Addons     []orderAddonPayload `json:"addons,omitempty"`
	Quantity   int                 `json:"quantity"`
	UnitPrice  int64               `json:"unitPrice"`
	TotalPrice int64               `json:"totalPrice"`
	Notes      string              `json:"notes,omitempty"`
}

type orderAddonPayload struct {
	ID     string `json:"id"`
	NameTH string `json:"name_th"`
	NameEN string `json:"name_en"`
	Price  int64  `json:"price"`
}

func buildOrderResponse(order services.Order) orderPayload {
	payload := orderPayload{
		ID:              order.ID,
		Items:           make([]orderItemPayload, 0, len(order.Items)),
		Subtotal:        order.Subtotal,
		Total:           order.Total,
		PaymentMethod:   string(order.PaymentMethod),
		PaymentStatus:   string(order.PaymentStatus),
		OrderStatus:     string(order.OrderStatus),
		CustomerName:    order.CustomerName,
		CustomerPhone:   order.CustomerPhone,
		CustomerNote:    order.CustomerNote,
		UserID:          order.UserID,
		UserEmail:       order.UserEmail,
		UserPhone:       order.UserPhone,
		StripeSessionID: order.StripeSessionID,
		CreatedAt:       formatTime(order.CreatedAt),
		UpdatedAt:       formatTime(order.UpdatedAt),
	}

	for _, line := range order.Items {
		item := orderItemPayload{
			MenuItemID: line.MenuItemID,
			NameTH:     line.Name.TH,
			NameEN:     line.Name.EN,
			Temp:       string(line.Temp),
			Size:       string(line.Size),
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			TotalPrice: line.TotalPrice,
			Notes:      line.Notes,
		}
		for _, addon := range line.Addons {
			item.Addons = append(item.Addons, orderAddonPayload{
				ID:     addon.ID,
				NameTH: addon.Name.TH,
				NameEN: addon.Name.EN,
				Price:  addon.Price,
			})
		}
		payload.Items = append(payload.Items, item)
	}

	return payload
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
	case errors.Is(err, errEmptyBody):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is required", http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	}
}

func writeCheckoutError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCheckoutInvalidInput),
		errors.Is(err, services.ErrOrderInvalidInput),
		errors.Is(err, services.ErrPricingInvalidSelection),
		errors.Is(err, services.ErrPricingInvalidQuantity),
		errors.Is(err, services.ErrCatalogNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutPaymentFailed):
		httpx.WriteError(ctx, w, httpx.NewError("payment_gateway_error", "failed to open a payment session", http.StatusBadGateway))
	case errors.Is(err, services.ErrOrderUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("order_store_unavailable", "order store temporarily unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("order_error", "failed to place order", http.StatusInternalServerError))
	}
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderIllegalTransition):
		httpx.WriteError(ctx, w, httpx.NewError("illegal_transition", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrOrderConflict):
		httpx.WriteError(ctx, w, httpx.NewError("order_conflict", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrOrderUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("order_store_unavailable", "order store temporarily unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("order_error", "failed to process order request", http.StatusInternalServerError))
	}
}
