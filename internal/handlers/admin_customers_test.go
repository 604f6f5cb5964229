package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/cameron-natural/api/internal/domain"
	"github.com/cameron-natural/api/internal/services"
)

type stubCustomerService struct {
	customers []domain.CustomerSummary
	err       error
}

func (s *stubCustomerService) ListCustomers(context.Context) ([]domain.CustomerSummary, error) {
	return s.customers, s.err
}

var _ services.CustomerService = (*stubCustomerService)(nil)

func newAdminCustomerTestRouter(customers services.CustomerService) chi.Router {
	router := chi.NewRouter()
	NewAdminCustomerHandlers(customers).Routes(router)
	return router
}

func TestAdminListCustomers(t *testing.T) {
	lastOrder := time.Date(2025, 3, 2, 14, 0, 0, 0, time.UTC)
	customers := &stubCustomerService{
		customers: []domain.CustomerSummary{
			{
				Key:         "uid_1",
				Name:        "Nok",
				Phone:       "0812345678",
				Email:       "nok@example.com",
				UserID:      "uid_1",
				OrderCount:  2,
				TotalSpent:  240,
				LastOrderAt: lastOrder,
				Orders:      []domain.Order{sampleOrder()},
			},
			{
				Key:        "phone:0899999999",
				Name:       "Mai",
				Phone:      "0899999999",
				OrderCount: 1,
				TotalSpent: 55,
			},
		},
	}

	router := newAdminCustomerTestRouter(customers)

	req := adminRequest(http.MethodGet, "/customers", "")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var body struct {
		Customers []struct {
			Key         string `json:"key"`
			Name        string `json:"name"`
			UserID      string `json:"userId"`
			OrderCount  int    `json:"orderCount"`
			TotalSpent  int64  `json:"totalSpent"`
			LastOrderAt string `json:"lastOrderAt"`
			Orders      []struct {
				ID string `json:"id"`
			} `json:"orders"`
		} `json:"customers"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	if len(body.Customers) != 2 {
		t.Fatalf("expected 2 customers, got %d", len(body.Customers))
	}
	first := body.Customers[0]
	if first.Key != "uid_1" || first.UserID != "uid_1" || first.OrderCount != 2 || first.TotalSpent != 240 {
		t.Fatalf("unexpected first customer: %+v", first)
	}
	if first.LastOrderAt != "2025-03-02T14:00:00Z" {
		t.Fatalf("expected RFC3339 lastOrderAt, got %s", first.LastOrderAt)
	}
	if len(first.Orders) != 1 || first.Orders[0].ID != "ord_1" {
		t.Fatalf("expected embedded order history, got %+v", first.Orders)
	}
	if body.Customers[1].Key != "phone:0899999999" {
		t.Fatalf("unexpected second customer: %+v", body.Customers[1])
	}
}

func TestAdminListCustomersEmpty(t *testing.T) {
	router := newAdminCustomerTestRouter(&stubCustomerService{})

	req := adminRequest(http.MethodGet, "/customers", "")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var body struct {
		Customers []json.RawMessage `json:"customers"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Customers == nil || len(body.Customers) != 0 {
		t.Fatalf("expected empty array, got %s", rr.Body.String())
	}
}

func TestAdminListCustomersStoreFailure(t *testing.T) {
	router := newAdminCustomerTestRouter(&stubCustomerService{err: errors.New("firestore unavailable")})

	req := adminRequest(http.MethodGet, "/customers", "")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
}
