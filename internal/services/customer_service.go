package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	domain "github.com/cameron-natural/api/internal/domain"
)

// CustomerServiceDeps bundles collaborators required to construct the customer service.
type CustomerServiceDeps struct {
	Orders OrderService
}

type customerService struct {
	orders OrderService
}

var _ CustomerService = (*customerService)(nil)

// NewCustomerService wires dependencies into a concrete CustomerService implementation.
func NewCustomerService(deps CustomerServiceDeps) (CustomerService, error) {
	if deps.Orders == nil {
		return nil, errors.New("customer service: order service is required")
	}
	return &customerService{orders: deps.Orders}, nil
}

// ListCustomers folds the order history into per-customer summaries at read
// time. Orders belonging to an account group by user ID; guest orders group by
// phone number; orders with neither stand alone. Nothing is persisted, so the
// view can never drift from the stored orders.
func (s *customerService) ListCustomers(ctx context.Context) ([]CustomerSummary, error) {
	orders, err := s.orders.List(ctx, OrderFilter{})
	if err != nil {
		return nil, err
	}

	grouped := make(map[string]*CustomerSummary)
	for _, order := range orders {
		key := customerKey(order)
		summary, ok := grouped[key]
		if !ok {
			summary = &CustomerSummary{Key: key}
			grouped[key] = summary
		}

		summary.OrderCount++
		summary.TotalSpent += order.Total
		if order.CreatedAt.After(summary.LastOrderAt) {
			summary.LastOrderAt = order.CreatedAt
		}
		if summary.Name == "" {
			summary.Name = order.CustomerName
		}
		if summary.Phone == "" {
			summary.Phone = firstNonEmpty(order.CustomerPhone, order.UserPhone)
		}
		if summary.Email == "" {
			summary.Email = order.UserEmail
		}
		if summary.UserID == "" {
			summary.UserID = order.UserID
		}
		summary.Orders = append(summary.Orders, order)
	}

	customers := make([]CustomerSummary, 0, len(grouped))
	for _, summary := range grouped {
		customers = append(customers, *summary)
	}
	sort.Slice(customers, func(i, j int) bool {
		return customers[i].LastOrderAt.After(customers[j].LastOrderAt)
	})
	return customers, nil
}

func customerKey(order domain.Order) string {
	if userID := strings.TrimSpace(order.UserID); userID != "" {
		return userID
	}
	if phone := strings.TrimSpace(order.CustomerPhone); phone != "" {
		return "phone:" + phone
	}
	return order.ID
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
