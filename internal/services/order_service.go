package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/cameron-natural/api/internal/domain"
	"github.com/cameron-natural/api/internal/repositories"
)

const (
	orderEventCreated       = "order.created"
	orderEventStatusChanged = "order.status.changed"
	orderEventPaymentMoved  = "order.payment.changed"

	orderIDPrefix = "ord_"
)

var (
	// ErrOrderInvalidInput signals the caller provided invalid data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderIllegalTransition indicates a status change the workflow forbids.
	ErrOrderIllegalTransition = errors.New("order: illegal transition")
	// ErrOrderConflict indicates optimistic concurrency conflicts or duplicates.
	ErrOrderConflict = errors.New("order: conflict")
	// ErrOrderUnavailable indicates the order store could not be reached.
	ErrOrderUnavailable = errors.New("order: storage unavailable")
)

// OrderEventPublisher publishes order domain events for downstream consumers.
// Publishing is best effort: failures are logged and never affect order state.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

// OrderEvent captures metadata for emitted order domain events.
type OrderEvent struct {
	Type            string
	OrderID         string
	PreviousStatus  string
	CurrentStatus   string
	PaymentStatus   string
	ActorID         string
	OccurredAt      time.Time
	Total           int64
	CustomerName    string
	PaymentMethod   string
}

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders      repositories.OrderRepository
	UnitOfWork  repositories.UnitOfWork
	Clock       func() time.Time
	IDGenerator func() string
	Events      OrderEventPublisher
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders     repositories.OrderRepository
	unitOfWork repositories.UnitOfWork
	clock      func() time.Time
	newID      func() string
	events     OrderEventPublisher
	logger     func(context.Context, string, map[string]any)
}

var _ OrderService = (*orderService)(nil)

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}

	unit := deps.UnitOfWork
	if unit == nil {
		unit = noopUnitOfWork{}
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		orders:     deps.Orders,
		unitOfWork: unit,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		events: deps.Events,
		logger: logger,
	}, nil
}

// Create records a customer order in the pending/pending state.
func (s *orderService) Create(ctx context.Context, cmd CreateOrderCommand) (Order, error) {
	if err := validateOrderLines(cmd.Lines); err != nil {
		return Order{}, err
	}
	name := strings.TrimSpace(cmd.Customer.Name)
	if name == "" {
		return Order{}, fmt.Errorf("%w: customer name is required", ErrOrderInvalidInput)
	}
	phone := strings.TrimSpace(cmd.Customer.Phone)
	if phone == "" {
		return Order{}, fmt.Errorf("%w: customer phone is required", ErrOrderInvalidInput)
	}
	if !domain.ValidPaymentMethod(string(cmd.PaymentMethod)) {
		return Order{}, fmt.Errorf("%w: unknown payment method %q", ErrOrderInvalidInput, cmd.PaymentMethod)
	}

	now := s.now()
	order := buildOrder(s.nextOrderID(), cmd.Lines, cmd.Customer, now)
	order.PaymentMethod = cmd.PaymentMethod
	order.PaymentStatus = domain.PaymentStatusPending
	order.OrderStatus = domain.OrderStatusPending

	if order.Total <= 0 {
		return Order{}, fmt.Errorf("%w: order total must be positive", ErrOrderInvalidInput)
	}

	err := s.runInTx(ctx, func(txCtx context.Context) error {
		if err := s.orders.Insert(txCtx, order); err != nil {
			return s.mapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.publishEvent(ctx, OrderEvent{
		Type:          orderEventCreated,
		OrderID:       order.ID,
		CurrentStatus: string(order.OrderStatus),
		PaymentStatus: string(order.PaymentStatus),
		PaymentMethod: string(order.PaymentMethod),
		Total:         order.Total,
		CustomerName:  order.CustomerName,
		OccurredAt:    now,
	})

	return order, nil
}

// CreateWalkIn records an in-person sale: forced cash, already paid, already
// handed over. Phone is optional for walk-ins.
func (s *orderService) CreateWalkIn(ctx context.Context, cmd CreateWalkInOrderCommand) (Order, error) {
	if err := validateOrderLines(cmd.Lines); err != nil {
		return Order{}, err
	}
	name := strings.TrimSpace(cmd.Customer.Name)
	if name == "" {
		return Order{}, fmt.Errorf("%w: customer name is required", ErrOrderInvalidInput)
	}

	now := s.now()
	order := buildOrder(s.nextOrderID(), cmd.Lines, cmd.Customer, now)
	order.PaymentMethod = domain.PaymentMethodCash
	order.PaymentStatus = domain.PaymentStatusPaid
	order.OrderStatus = domain.OrderStatusCompleted

	if order.Total <= 0 {
		return Order{}, fmt.Errorf("%w: order total must be positive", ErrOrderInvalidInput)
	}

	err := s.runInTx(ctx, func(txCtx context.Context) error {
		if err := s.orders.Insert(txCtx, order); err != nil {
			return s.mapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.publishEvent(ctx, OrderEvent{
		Type:          orderEventCreated,
		OrderID:       order.ID,
		CurrentStatus: string(order.OrderStatus),
		PaymentStatus: string(order.PaymentStatus),
		PaymentMethod: string(order.PaymentMethod),
		Total:         order.Total,
		CustomerName:  order.CustomerName,
		ActorID:       strings.TrimSpace(cmd.ActorID),
		OccurredAt:    now,
	})

	return order, nil
}

// AttachPaymentSession stores the checkout session reference on a pending
// order. Re-attaching the same reference is a no-op, so a retried session
// creation converges instead of failing.
func (s *orderService) AttachPaymentSession(ctx context.Context, orderID string, sessionRef string) (Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	sessionRef = strings.TrimSpace(sessionRef)
	if sessionRef == "" {
		return Order{}, fmt.Errorf("%w: session ref is required", ErrOrderInvalidInput)
	}

	var order Order
	err := s.runInTx(ctx, func(txCtx context.Context) error {
		loaded, err := s.orders.FindByID(txCtx, orderID)
		if err != nil {
			return s.mapRepositoryError(err)
		}

		if loaded.StripeSessionID == sessionRef {
			order = loaded
			return nil
		}
		if loaded.OrderStatus != domain.OrderStatusPending {
			return fmt.Errorf("%w: cannot attach session to %s order", ErrOrderIllegalTransition, loaded.OrderStatus)
		}
		if loaded.StripeSessionID != "" {
			return fmt.Errorf("%w: order already holds session %s", ErrOrderIllegalTransition, loaded.StripeSessionID)
		}

		loaded.StripeSessionID = sessionRef
		loaded.UpdatedAt = s.now()
		if err := s.orders.Update(txCtx, loaded); err != nil {
			return s.mapRepositoryError(err)
		}
		order = loaded
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return order, nil
}

// ReconcilePaymentEvent applies a verified payment notification. Only orders
// still pending on both axes move; anything else is an accepted no-op, which
// makes redelivered events converge to the same state. The pending check and
// the write share one transaction, so a staff transition that commits first
// is observed rather than overwritten.
func (s *orderService) ReconcilePaymentEvent(ctx context.Context, cmd ReconcilePaymentCommand) (Order, bool, error) {
	sessionRef := strings.TrimSpace(cmd.SessionRef)
	if sessionRef == "" {
		return Order{}, false, fmt.Errorf("%w: session ref is required", ErrOrderInvalidInput)
	}

	var (
		order      Order
		prevStatus domain.OrderStatus
		applied    bool
	)
	err := s.runInTx(ctx, func(txCtx context.Context) error {
		applied = false
		loaded, err := s.orders.FindBySessionRef(txCtx, sessionRef)
		if err != nil {
			return s.mapRepositoryError(err)
		}
		order = loaded

		if loaded.PaymentStatus != domain.PaymentStatusPending || loaded.OrderStatus != domain.OrderStatusPending {
			return nil
		}

		prevStatus = loaded.OrderStatus
		if cmd.Succeeded {
			loaded.PaymentStatus = domain.PaymentStatusPaid
			loaded.OrderStatus = domain.OrderStatusConfirmed
		} else {
			loaded.PaymentStatus = domain.PaymentStatusFailed
			loaded.OrderStatus = domain.OrderStatusCancelled
		}
		loaded.UpdatedAt = s.now()

		if err := s.orders.Update(txCtx, loaded); err != nil {
			return s.mapRepositoryError(err)
		}
		order = loaded
		applied = true
		return nil
	})
	if err != nil {
		return Order{}, false, err
	}
	if !applied {
		return order, false, nil
	}

	s.publishEvent(ctx, OrderEvent{
		Type:           orderEventPaymentMoved,
		OrderID:        order.ID,
		PreviousStatus: string(prevStatus),
		CurrentStatus:  string(order.OrderStatus),
		PaymentStatus:  string(order.PaymentStatus),
		OccurredAt:     order.UpdatedAt,
	})

	return order, true, nil
}

// TransitionStatus applies the admin workflow. Staff may move a non-terminal
// order to any status except back to pending; skipping intermediate states is
// allowed so the counter can mark a drink completed in one tap. Payment moves
// only from pending to paid or failed.
func (s *orderService) TransitionStatus(ctx context.Context, cmd OrderStatusTransitionCommand) (Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	if cmd.OrderStatus == nil && cmd.PaymentStatus == nil {
		return Order{}, fmt.Errorf("%w: no status change requested", ErrOrderInvalidInput)
	}

	if cmd.OrderStatus != nil && !domain.ValidOrderStatus(string(*cmd.OrderStatus)) {
		return Order{}, fmt.Errorf("%w: unknown order status %q", ErrOrderInvalidInput, *cmd.OrderStatus)
	}
	if cmd.PaymentStatus != nil && !domain.ValidPaymentStatus(string(*cmd.PaymentStatus)) {
		return Order{}, fmt.Errorf("%w: unknown payment status %q", ErrOrderInvalidInput, *cmd.PaymentStatus)
	}

	var (
		order       Order
		prevStatus  domain.OrderStatus
		prevPayment domain.PaymentStatus
	)
	err := s.runInTx(ctx, func(txCtx context.Context) error {
		loaded, err := s.orders.FindByID(txCtx, orderID)
		if err != nil {
			return s.mapRepositoryError(err)
		}

		prevStatus = loaded.OrderStatus
		prevPayment = loaded.PaymentStatus

		if cmd.OrderStatus != nil {
			target := *cmd.OrderStatus
			if loaded.OrderStatus.IsTerminal() {
				return fmt.Errorf("%w: order is already %s", ErrOrderIllegalTransition, loaded.OrderStatus)
			}
			if target == domain.OrderStatusPending {
				return fmt.Errorf("%w: cannot move an order back to pending", ErrOrderIllegalTransition)
			}
			if target == loaded.OrderStatus {
				return fmt.Errorf("%w: order is already %s", ErrOrderIllegalTransition, target)
			}
			loaded.OrderStatus = target
		}

		if cmd.PaymentStatus != nil {
			target := *cmd.PaymentStatus
			if loaded.PaymentStatus != domain.PaymentStatusPending || target == domain.PaymentStatusPending {
				return fmt.Errorf("%w: payment status %s cannot move to %s", ErrOrderIllegalTransition, prevPayment, target)
			}
			loaded.PaymentStatus = target
		}

		loaded.UpdatedAt = s.now()
		if err := s.orders.Update(txCtx, loaded); err != nil {
			return s.mapRepositoryError(err)
		}
		order = loaded
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.publishEvent(ctx, OrderEvent{
		Type:           orderEventStatusChanged,
		OrderID:        order.ID,
		PreviousStatus: string(prevStatus),
		CurrentStatus:  string(order.OrderStatus),
		PaymentStatus:  string(order.PaymentStatus),
		ActorID:        strings.TrimSpace(cmd.ActorID),
		OccurredAt:     order.UpdatedAt,
	})

	return order, nil
}

// List returns orders newest-first for the admin console.
func (s *orderService) List(ctx context.Context, filter OrderFilter) ([]Order, error) {
	if status := strings.TrimSpace(string(filter.Status)); status != "" && !domain.ValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: unknown order status %q", ErrOrderInvalidInput, status)
	}
	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return orders, nil
}

// Get loads a single order.
func (s *orderService) Get(ctx context.Context, orderID string) (Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	return order, nil
}

func (s *orderService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrOrderConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrOrderUnavailable, err)
		}
	}

	return err
}

func (s *orderService) runInTx(ctx context.Context, fn func(context.Context) error) error {
	if s.unitOfWork == nil {
		return fn(ctx)
	}
	return s.unitOfWork.RunInTx(ctx, fn)
}

func (s *orderService) now() time.Time {
	return s.clock()
}

func (s *orderService) nextOrderID() string {
	return orderIDPrefix + s.newID()
}

func (s *orderService) publishEvent(ctx context.Context, event OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "order.event.publish.failed", map[string]any{
			"type":   event.Type,
			"order":  event.OrderID,
			"error":  err.Error(),
			"status": event.CurrentStatus,
		})
	}
}

func buildOrder(id string, lines []OrderLine, customer CustomerDetails, now time.Time) Order {
	items := make([]domain.OrderLine, len(lines))
	copy(items, lines)

	var subtotal int64
	for _, line := range items {
		subtotal += line.TotalPrice
	}

	return Order{
		ID:            id,
		Items:         items,
		Subtotal:      subtotal,
		Total:         subtotal,
		CustomerName:  strings.TrimSpace(customer.Name),
		CustomerPhone: strings.TrimSpace(customer.Phone),
		CustomerNote:  strings.TrimSpace(customer.Note),
		UserID:        strings.TrimSpace(customer.UserID),
		UserEmail:     strings.TrimSpace(customer.UserEmail),
		UserPhone:     strings.TrimSpace(customer.UserPhone),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func validateOrderLines(lines []OrderLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: order must contain at least one item", ErrOrderInvalidInput)
	}
	for i, line := range lines {
		if strings.TrimSpace(line.MenuItemID) == "" {
			return fmt.Errorf("%w: line %d is missing a menu item", ErrOrderInvalidInput, i)
		}
		if line.Quantity < 1 {
			return fmt.Errorf("%w: line %d quantity must be at least 1", ErrOrderInvalidInput, i)
		}
		if line.TotalPrice != line.UnitPrice*int64(line.Quantity) {
			return fmt.Errorf("%w: line %d total does not match unit price", ErrOrderInvalidInput, i)
		}
	}
	return nil
}

type noopUnitOfWork struct{}

func (noopUnitOfWork) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}
