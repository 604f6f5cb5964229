package services

import (
	"context"
	"testing"
	"time"
)

func TestListCustomersGroupsByUserThenPhone(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2025, 3, d, 12, 0, 0, 0, time.UTC)
	}
	orders := []Order{
		{ID: "ord_1", UserID: "uid_1", UserEmail: "a@example.com", CustomerName: "A", CustomerPhone: "0811111111", Total: 100, CreatedAt: day(1)},
		{ID: "ord_2", UserID: "uid_1", CustomerName: "A", Total: 50, CreatedAt: day(3)},
		{ID: "ord_3", CustomerName: "Guest", CustomerPhone: "0822222222", Total: 70, CreatedAt: day(2)},
		{ID: "ord_4", CustomerName: "Guest", CustomerPhone: "0822222222", Total: 30, CreatedAt: day(4)},
		{ID: "ord_5", CustomerName: "Walk-in", Total: 45, CreatedAt: day(5)},
	}

	svc, err := NewCustomerService(CustomerServiceDeps{Orders: &stubOrderService{
		listFn: func(context.Context, OrderFilter) ([]Order, error) { return orders, nil },
	}})
	if err != nil {
		t.Fatalf("new customer service: %v", err)
	}

	customers, err := svc.ListCustomers(context.Background())
	if err != nil {
		t.Fatalf("list customers: %v", err)
	}
	if len(customers) != 3 {
		t.Fatalf("expected 3 customers, got %d", len(customers))
	}

	byKey := make(map[string]CustomerSummary, len(customers))
	for _, customer := range customers {
		byKey[customer.Key] = customer
	}

	account, ok := byKey["uid_1"]
	if !ok {
		t.Fatalf("expected account-keyed customer")
	}
	if account.OrderCount != 2 || account.TotalSpent != 150 {
		t.Fatalf("unexpected account aggregation %+v", account)
	}
	if !account.LastOrderAt.Equal(day(3)) {
		t.Fatalf("expected last order on day 3, got %v", account.LastOrderAt)
	}
	if account.Email != "a@example.com" {
		t.Fatalf("expected email carried over, got %q", account.Email)
	}

	guest, ok := byKey["phone:0822222222"]
	if !ok {
		t.Fatalf("expected phone-keyed customer")
	}
	if guest.OrderCount != 2 || guest.TotalSpent != 100 {
		t.Fatalf("unexpected guest aggregation %+v", guest)
	}

	walkIn, ok := byKey["ord_5"]
	if !ok {
		t.Fatalf("expected singleton customer keyed by order id")
	}
	if walkIn.OrderCount != 1 || walkIn.TotalSpent != 45 {
		t.Fatalf("unexpected walk-in aggregation %+v", walkIn)
	}

	// Newest activity first.
	if customers[0].Key != "ord_5" {
		t.Fatalf("expected most recent customer first, got %q", customers[0].Key)
	}
}

func TestListCustomersEmpty(t *testing.T) {
	svc, err := NewCustomerService(CustomerServiceDeps{Orders: &stubOrderService{
		listFn: func(context.Context, OrderFilter) ([]Order, error) { return nil, nil },
	}})
	if err != nil {
		t.Fatalf("new customer service: %v", err)
	}

	customers, err := svc.ListCustomers(context.Background())
	if err != nil {
		t.Fatalf("list customers: %v", err)
	}
	if len(customers) != 0 {
		t.Fatalf("expected no customers, got %d", len(customers))
	}
}
