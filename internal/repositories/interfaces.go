package repositories

import (
	"context"

	domain "github.com/cameron-natural/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Orders() OrderRepository
	Catalog() CatalogRepository
	Health() HealthRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderRepository persists order documents and provides the queries the admin
// console and payment reconciliation rely on. Orders are append-only: there is
// no delete operation.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	Update(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	FindBySessionRef(ctx context.Context, sessionRef string) (domain.Order, error)
	List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
}

// CatalogRepository bundles menu category, item and addon storage.
type CatalogRepository interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListMenuItems(ctx context.Context) ([]domain.MenuItem, error)
	ListAddons(ctx context.Context) ([]domain.Addon, error)
	GetMenuItem(ctx context.Context, itemID string) (domain.MenuItem, error)
	GetAddons(ctx context.Context, addonIDs []string) ([]domain.Addon, error)
	SetMenuItemAvailability(ctx context.Context, itemID string, available bool) (domain.MenuItem, error)
	SetAddonAvailability(ctx context.Context, addonID string, available bool) (domain.Addon, error)
}

// HealthRepository exposes status of downstream dependencies for health checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}
