package domain

import (
	"strings"
	"time"
)

// TempVariant enumerates the temperature preparations a drink can be ordered in.
type TempVariant string

const (
	// TempHot is served hot.
	TempHot TempVariant = "hot"
	// TempIced is served over ice.
	TempIced TempVariant = "iced"
	// TempFrappe is blended with ice.
	TempFrappe TempVariant = "frappe"
)

// ValidTempVariant reports whether the value names a known temperature variant.
func ValidTempVariant(value string) bool {
	switch TempVariant(strings.TrimSpace(value)) {
	case TempHot, TempIced, TempFrappe:
		return true
	}
	return false
}

// DrinkSize enumerates the cup sizes offered by the shop.
type DrinkSize string

const (
	SizeSmall   DrinkSize = "S"
	SizeMedium  DrinkSize = "M"
	SizeBucket  DrinkSize = "bucket"
	SizeGiraffe DrinkSize = "giraffe"
)

// PaymentMethod identifies how the customer settles an order.
type PaymentMethod string

const (
	// PaymentMethodCash is settled in person at pickup.
	PaymentMethodCash PaymentMethod = "cash"
	// PaymentMethodCard is settled through a hosted checkout session.
	PaymentMethodCard PaymentMethod = "card"
)

// ValidPaymentMethod reports whether the value names a known payment method.
func ValidPaymentMethod(value string) bool {
	switch PaymentMethod(strings.TrimSpace(value)) {
	case PaymentMethodCash, PaymentMethodCard:
		return true
	}
	return false
}

// PaymentStatus tracks settlement independently of the kitchen workflow.
type PaymentStatus string

const (
	// PaymentStatusPending indicates settlement has not happened yet.
	PaymentStatusPending PaymentStatus = "pending"
	// PaymentStatusPaid indicates the order was paid in full.
	PaymentStatusPaid PaymentStatus = "paid"
	// PaymentStatusFailed indicates the checkout session expired or was rejected.
	PaymentStatusFailed PaymentStatus = "failed"
)

// ValidPaymentStatus reports whether the value names a known payment status.
func ValidPaymentStatus(value string) bool {
	switch PaymentStatus(strings.TrimSpace(value)) {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed:
		return true
	}
	return false
}

// OrderStatus models the kitchen-facing order lifecycle.
type OrderStatus string

const (
	// OrderStatusPending indicates the order was placed and awaits confirmation.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusConfirmed indicates payment cleared or staff accepted the order.
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusPreparing indicates the drinks are being made.
	OrderStatusPreparing OrderStatus = "preparing"
	// OrderStatusReady indicates the order is waiting for pickup.
	OrderStatusReady OrderStatus = "ready"
	// OrderStatusCompleted indicates the order was handed over.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusCancelled indicates the order was abandoned or rejected.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsTerminal reports whether no further order status transition is permitted.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// ValidOrderStatus reports whether the value names a known lifecycle state.
func ValidOrderStatus(value string) bool {
	switch OrderStatus(strings.TrimSpace(value)) {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusReady, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// BilingualName carries the Thai and English labels shown on the menu.
type BilingualName struct {
	TH string
	EN string
}

// Display renders the label the way receipts and payment line items show it.
func (n BilingualName) Display() string {
	en := strings.TrimSpace(n.EN)
	th := strings.TrimSpace(n.TH)
	switch {
	case en != "" && th != "":
		return en + " (" + th + ")"
	case en != "":
		return en
	default:
		return th
	}
}

// Category groups menu items and declares which temperature columns are priced.
type Category struct {
	ID           string
	Name         BilingualName
	Order        int
	PriceColumns []TempVariant
	Icon         string
}

// MenuItem is a sellable drink. Either Prices carries one entry per priced
// temperature column, or SinglePrice is set for items sold at a flat price
// regardless of temperature; the two are never mixed.
type MenuItem struct {
	ID          string
	CategoryID  string
	Name        BilingualName
	Description BilingualName
	Prices      map[TempVariant]int64
	SinglePrice *int64
	Available   bool
	Order       int
	Image       string
	Popular     bool
}

// HasFlatPrice reports whether the item is priced independently of temperature.
func (m MenuItem) HasFlatPrice() bool {
	return m.SinglePrice != nil
}

// Addon is a topping. Order lines copy addons by value so later price edits
// never reach past orders.
type Addon struct {
	ID        string
	Name      BilingualName
	Price     int64
	Available bool
}

// OrderLine is one priced, quantified selection of a menu item. UnitPrice is
// frozen when the line is built; TotalPrice is always UnitPrice * Quantity.
type OrderLine struct {
	MenuItemID string
	Name       BilingualName
	Temp       TempVariant
	Size       DrinkSize
	Addons     []Addon
	Quantity   int
	UnitPrice  int64
	TotalPrice int64
	Notes      string
}

// CustomerDetails identifies who placed an order. UserID, UserEmail and
// UserPhone are populated only when the order is linked to an auth account.
type CustomerDetails struct {
	Name      string
	Phone     string
	Note      string
	UserID    string
	UserEmail string
	UserPhone string
}

// Order is the persisted order record. Orders are append-only: created once
// and then mutated only through lifecycle transitions.
type Order struct {
	ID              string
	Items           []OrderLine
	Subtotal        int64
	Total           int64
	PaymentMethod   PaymentMethod
	PaymentStatus   PaymentStatus
	OrderStatus     OrderStatus
	CustomerName    string
	CustomerPhone   string
	CustomerNote    string
	UserID          string
	UserEmail       string
	UserPhone       string
	StripeSessionID string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderFilter narrows admin order listings. Zero values mean "no filter".
type OrderFilter struct {
	Status OrderStatus
	Date   *time.Time
	Limit  int
}

// CustomerSummary is the read-time aggregation of orders belonging to one
// customer. It is never persisted; it is recomputed from the order history on
// every read so it cannot drift from stored orders.
type CustomerSummary struct {
	Key         string
	Name        string
	Phone       string
	Email       string
	UserID      string
	OrderCount  int
	TotalSpent  int64
	LastOrderAt time.Time
	Orders      []Order
}

// Health status values reported by the readiness endpoint.
const (
	// HealthStatusOK indicates all dependencies are healthy.
	HealthStatusOK = "ok"
	// HealthStatusDegraded indicates at least one dependency is degraded but service remains running.
	HealthStatusDegraded = "degraded"
	// HealthStatusError indicates the service or a critical dependency is unavailable.
	HealthStatusError = "error"
)

// SystemHealthCheck describes the outcome of an individual dependency probe.
type SystemHealthCheck struct {
	Status    string
	Detail    string
	Error     string
	Latency   time.Duration
	CheckedAt time.Time
}

// SystemHealthReport aggregates dependency status for health endpoints.
type SystemHealthReport struct {
	Status      string
	Checks      map[string]SystemHealthCheck
	GeneratedAt time.Time
}
