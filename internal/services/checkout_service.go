package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/cameron-natural/api/internal/domain"
	"github.com/cameron-natural/api/internal/payments"
)

var (
	// ErrCheckoutInvalidInput indicates the caller supplied invalid input parameters.
	ErrCheckoutInvalidInput = errors.New("checkout: invalid input")
	// ErrCheckoutUnavailable indicates checkout dependencies are currently unavailable.
	ErrCheckoutUnavailable = errors.New("checkout: unavailable")
	// ErrCheckoutPaymentFailed indicates the PSP session could not be created.
	ErrCheckoutPaymentFailed = errors.New("checkout: payment failed")
)

// checkoutSessionManager abstracts payments.Manager for easier testing.
type checkoutSessionManager interface {
	CreateCheckoutSession(ctx context.Context, preferred string, req payments.CheckoutSessionRequest) (payments.CheckoutSession, error)
}

// CheckoutServiceDeps wires the dependencies required by the checkout service.
type CheckoutServiceDeps struct {
	Catalog    CatalogService
	Pricing    PricingEngine
	Orders     OrderService
	Payments   checkoutSessionManager
	SuccessURL string
	CancelURL  string
	Currency   string
	Logger     func(ctx context.Context, event string, fields map[string]any)
}

type checkoutService struct {
	catalog    CatalogService
	pricing    PricingEngine
	orders     OrderService
	payments   checkoutSessionManager
	successURL string
	cancelURL  string
	currency   string
	logger     func(ctx context.Context, event string, fields map[string]any)
}

var _ CheckoutService = (*checkoutService)(nil)

// NewCheckoutService constructs a CheckoutService validating required dependencies.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Catalog == nil {
		return nil, errors.New("checkout service: catalog service is required")
	}
	if deps.Pricing == nil {
		return nil, errors.New("checkout service: pricing engine is required")
	}
	if deps.Orders == nil {
		return nil, errors.New("checkout service: order service is required")
	}
	if deps.Payments == nil {
		return nil, errors.New("checkout service: payment manager is required")
	}
	if strings.TrimSpace(deps.SuccessURL) == "" || strings.TrimSpace(deps.CancelURL) == "" {
		return nil, errors.New("checkout service: success and cancel urls are required")
	}

	currency := strings.ToLower(strings.TrimSpace(deps.Currency))
	if currency == "" {
		currency = "thb"
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &checkoutService{
		catalog:    deps.Catalog,
		pricing:    deps.Pricing,
		orders:     deps.Orders,
		payments:   deps.Payments,
		successURL: strings.TrimSpace(deps.SuccessURL),
		cancelURL:  strings.TrimSpace(deps.CancelURL),
		currency:   currency,
		logger:     logger,
	}, nil
}

// PlaceOrder prices the requested selections, records the order, and for card
// payments opens a hosted checkout session. Session creation happens after the
// order write on purpose: a failed gateway call leaves a pending order with no
// session reference, and retrying the session later converges through the
// idempotent attach.
func (s *checkoutService) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (PlaceOrderResult, error) {
	if len(cmd.Lines) == 0 {
		return PlaceOrderResult{}, fmt.Errorf("%w: at least one item is required", ErrCheckoutInvalidInput)
	}

	lines, err := s.priceLines(ctx, cmd.Lines)
	if err != nil {
		return PlaceOrderResult{}, err
	}

	order, err := s.orders.Create(ctx, CreateOrderCommand{
		Lines:         lines,
		Customer:      cmd.Customer,
		PaymentMethod: cmd.PaymentMethod,
	})
	if err != nil {
		return PlaceOrderResult{}, err
	}

	result := PlaceOrderResult{Order: order}
	if cmd.PaymentMethod != domain.PaymentMethodCard {
		return result, nil
	}

	session, err := s.payments.CreateCheckoutSession(ctx, "", payments.CheckoutSessionRequest{
		OrderID:    order.ID,
		Currency:   s.currency,
		SuccessURL: s.successURL,
		CancelURL:  s.cancelURL,
		Items:      buildCheckoutLineItems(order.Items, s.currency),
	})
	if err != nil {
		s.logger(ctx, "checkout.session.create.failed", map[string]any{
			"orderId": order.ID,
			"error":   err.Error(),
		})
		return PlaceOrderResult{}, fmt.Errorf("%w: %v", ErrCheckoutPaymentFailed, err)
	}

	order, err = s.orders.AttachPaymentSession(ctx, order.ID, session.ID)
	if err != nil {
		return PlaceOrderResult{}, err
	}

	result.Order = order
	result.CheckoutURL = session.RedirectURL
	return result, nil
}

// PlaceWalkInOrder prices the selections and records an in-person sale. No
// payment session is involved: walk-ins settle in cash before the record is
// written.
func (s *checkoutService) PlaceWalkInOrder(ctx context.Context, cmd PlaceWalkInOrderCommand) (Order, error) {
	if len(cmd.Lines) == 0 {
		return Order{}, fmt.Errorf("%w: at least one item is required", ErrCheckoutInvalidInput)
	}

	lines, err := s.priceLines(ctx, cmd.Lines)
	if err != nil {
		return Order{}, err
	}

	return s.orders.CreateWalkIn(ctx, CreateWalkInOrderCommand{
		Lines:    lines,
		Customer: cmd.Customer,
		ActorID:  cmd.ActorID,
	})
}

func (s *checkoutService) priceLines(ctx context.Context, inputs []OrderLineInput) ([]OrderLine, error) {
	lines := make([]OrderLine, 0, len(inputs))
	for i, input := range inputs {
		itemID := strings.TrimSpace(input.MenuItemID)
		if itemID == "" {
			return nil, fmt.Errorf("%w: line %d is missing a menu item", ErrCheckoutInvalidInput, i)
		}

		item, err := s.catalog.GetMenuItem(ctx, itemID)
		if err != nil {
			return nil, err
		}
		addons, err := s.catalog.ResolveAddons(ctx, input.AddonIDs)
		if err != nil {
			return nil, err
		}

		pricing, err := s.pricing.PriceLine(item, input.Temp, addons, input.Quantity)
		if err != nil {
			return nil, err
		}

		lines = append(lines, OrderLine{
			MenuItemID: item.ID,
			Name:       item.Name,
			Temp:       input.Temp,
			Size:       input.Size,
			Addons:     addons,
			Quantity:   pricing.Quantity,
			UnitPrice:  pricing.UnitPrice,
			TotalPrice: pricing.TotalPrice,
			Notes:      strings.TrimSpace(input.Notes),
		})
	}
	return lines, nil
}

// buildCheckoutLineItems converts whole-baht order lines into PSP line items
// in satang minor units, with toppings carried in the description.
func buildCheckoutLineItems(lines []OrderLine, currency string) []payments.CheckoutLineItem {
	items := make([]payments.CheckoutLineItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, payments.CheckoutLineItem{
			Name:        line.Name.Display(),
			Description: describeAddons(line.Addons),
			Quantity:    int64(line.Quantity),
			Amount:      line.UnitPrice * 100,
			Currency:    currency,
		})
	}
	return items
}

func describeAddons(addons []domain.Addon) string {
	if len(addons) == 0 {
		return ""
	}
	names := make([]string, 0, len(addons))
	for _, addon := range addons {
		names = append(names, addon.Name.Display())
	}
	return "Toppings: " + strings.Join(names, ", ")
}
