package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cameron-natural/api/internal/platform/httpx"
	"github.com/cameron-natural/api/internal/services"
)

// AdminCustomerHandlers serves the derived customer view for the back office.
type AdminCustomerHandlers struct {
	customers services.CustomerService
}

// NewAdminCustomerHandlers constructs a new AdminCustomerHandlers instance.
func NewAdminCustomerHandlers(customers services.CustomerService) *AdminCustomerHandlers {
	return &AdminCustomerHandlers{customers: customers}
}

// Routes registers the /admin/customers endpoints.
func (h *AdminCustomerHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/customers", h.listCustomers)
}

func (h *AdminCustomerHandlers) listCustomers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.customers == nil {
		httpx.WriteError(ctx, w, httpx.NewError("customer_service_unavailable", "customer service unavailable", http.StatusServiceUnavailable))
		return
	}

	customers, err := h.customers.ListCustomers(ctx)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("customer_error", "failed to load customers", http.StatusInternalServerError))
		return
	}

	payload := make([]customerPayload, 0, len(customers))
	for _, customer := range customers {
		entry := customerPayload{
			Key:         customer.Key,
			Name:        customer.Name,
			Phone:       customer.Phone,
			Email:       customer.Email,
			UserID:      customer.UserID,
			OrderCount:  customer.OrderCount,
			TotalSpent:  customer.TotalSpent,
			LastOrderAt: formatTime(customer.LastOrderAt),
			Orders:      make([]orderPayload, 0, len(customer.Orders)),
		}
		for _, order := range customer.Orders {
			entry.Orders = append(entry.Orders, buildOrderResponse(order))
		}
		payload = append(payload, entry)
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"customers": payload})
}

type customerPayload struct {
	Key         string         `json:"key"`
	Name        string         `json:"name"`
	Phone       string         `json:"phone,omitempty"`
	Email       string         `json:"email,omitempty"`
	UserID      string         `json:"userId,omitempty"`
	OrderCount  int            `json:"orderCount"`
	TotalSpent  int64          `json:"totalSpent"`
	LastOrderAt string         `json:"lastOrderAt"`
	Orders      []orderPayload `json:"orders"`
}
