package services

import (
	"context"
	"time"

	domain "github.com/cameron-natural/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Category           = domain.Category
	MenuItem           = domain.MenuItem
	Addon              = domain.Addon
	Order              = domain.Order
	OrderLine          = domain.OrderLine
	OrderFilter        = domain.OrderFilter
	CustomerDetails    = domain.CustomerDetails
	CustomerSummary    = domain.CustomerSummary
	SystemHealthReport = domain.SystemHealthReport
)

// PricingEngine computes order line and order totals from frozen menu data.
// Implementations are pure: no clock, no storage, no network.
type PricingEngine interface {
	PriceLine(item MenuItem, variant domain.TempVariant, addons []Addon, quantity int) (domain.LinePricing, error)
	PriceOrder(lines []domain.LinePricing) domain.OrderPricing
}

// CatalogService exposes the menu read model and the admin availability toggles.
type CatalogService interface {
	GetMenu(ctx context.Context) (Menu, error)
	GetMenuItem(ctx context.Context, itemID string) (MenuItem, error)
	ResolveAddons(ctx context.Context, addonIDs []string) ([]Addon, error)
	SetMenuItemAvailability(ctx context.Context, cmd SetAvailabilityCommand) (MenuItem, error)
	SetAddonAvailability(ctx context.Context, cmd SetAvailabilityCommand) (Addon, error)
}

// OrderService owns the order lifecycle: creation, payment reconciliation,
// and the admin status workflow.
type OrderService interface {
	Create(ctx context.Context, cmd CreateOrderCommand) (Order, error)
	CreateWalkIn(ctx context.Context, cmd CreateWalkInOrderCommand) (Order, error)
	AttachPaymentSession(ctx context.Context, orderID string, sessionRef string) (Order, error)
	ReconcilePaymentEvent(ctx context.Context, cmd ReconcilePaymentCommand) (Order, bool, error)
	TransitionStatus(ctx context.Context, cmd OrderStatusTransitionCommand) (Order, error)
	List(ctx context.Context, filter OrderFilter) ([]Order, error)
	Get(ctx context.Context, orderID string) (Order, error)
}

// CheckoutService coordinates pricing, order creation and PSP session creation.
type CheckoutService interface {
	PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (PlaceOrderResult, error)
	PlaceWalkInOrder(ctx context.Context, cmd PlaceWalkInOrderCommand) (Order, error)
}

// CustomerService derives the admin customer view from order history.
type CustomerService interface {
	ListCustomers(ctx context.Context) ([]CustomerSummary, error)
}

// UserService manages auth-provider accounts for the admin console.
type UserService interface {
	SearchUser(ctx context.Context, cmd UserSearchCommand) (UserAccount, error)
	CreateUser(ctx context.Context, cmd UserCreateCommand) (UserAccount, bool, error)
}

// SystemService backs the health and readiness probes.
type SystemService interface {
	HealthReport(ctx context.Context) (SystemHealthReport, error)
}

// Command and DTO definitions ------------------------------------------------

// Menu is the public read model: every category, item and addon with
// availability flags included.
type Menu struct {
	Categories []Category
	Items      []MenuItem
	Addons     []Addon
}

// SetAvailabilityCommand toggles availability on a menu item or addon.
type SetAvailabilityCommand struct {
	ID        string
	Available bool
	ActorID   string
}

// OrderLineInput is one requested selection before pricing.
type OrderLineInput struct {
	MenuItemID string
	Temp       domain.TempVariant
	Size       domain.DrinkSize
	AddonIDs   []string
	Quantity   int
	Notes      string
}

// CreateOrderCommand creates a customer order in the pending state.
type CreateOrderCommand struct {
	Lines         []OrderLine
	Customer      CustomerDetails
	PaymentMethod domain.PaymentMethod
}

// CreateWalkInOrderCommand records an in-person sale that is already paid and
// handed over. Phone is optional for walk-ins.
type CreateWalkInOrderCommand struct {
	Lines    []OrderLine
	Customer CustomerDetails
	ActorID  string
}

// ReconcilePaymentCommand applies a verified payment notification to the order
// holding the session reference.
type ReconcilePaymentCommand struct {
	SessionRef string
	Succeeded  bool
	EventID    string
}

// OrderStatusTransitionCommand moves an order through the admin workflow.
// Nil fields are left untouched.
type OrderStatusTransitionCommand struct {
	OrderID       string
	OrderStatus   *domain.OrderStatus
	PaymentStatus *domain.PaymentStatus
	ActorID       string
}

// PlaceOrderCommand is the public checkout request: raw line selections plus
// customer contact details.
type PlaceOrderCommand struct {
	Lines         []OrderLineInput
	Customer      CustomerDetails
	PaymentMethod domain.PaymentMethod
}

// PlaceOrderResult returns the created order and, for card payments, the
// hosted checkout redirect.
type PlaceOrderResult struct {
	Order       Order
	CheckoutURL string
}

// PlaceWalkInOrderCommand is the admin walk-in request: raw selections priced
// the same way as customer orders, settled in cash at the counter.
type PlaceWalkInOrderCommand struct {
	Lines    []OrderLineInput
	Customer CustomerDetails
	ActorID  string
}

// UserSearchCommand looks up an auth account by email or phone.
type UserSearchCommand struct {
	Email string
	Phone string
}

// UserCreateCommand creates (or updates, when the email already exists) an
// auth account from the admin console.
type UserCreateCommand struct {
	Email       string
	Phone       string
	DisplayName string
	Password    string
}

// UserAccount is the normalised auth-provider account record.
type UserAccount struct {
	UID         string
	Email       string
	Phone       string
	DisplayName string
	Disabled    bool
	CreatedAt   time.Time
}
