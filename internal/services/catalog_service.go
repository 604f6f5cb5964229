package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cameron-natural/api/internal/repositories"
)

var (
	// ErrCatalogInvalidInput signals bad menu lookup or toggle parameters.
	ErrCatalogInvalidInput = errors.New("catalog: invalid input")
	// ErrCatalogNotFound indicates the requested menu item or addon does not exist.
	ErrCatalogNotFound = errors.New("catalog: not found")
)

// CatalogServiceDeps bundles collaborators required to construct the catalog service.
type CatalogServiceDeps struct {
	Catalog repositories.CatalogRepository
	Logger  func(ctx context.Context, event string, fields map[string]any)
}

type catalogService struct {
	catalog repositories.CatalogRepository
	logger  func(context.Context, string, map[string]any)
}

var _ CatalogService = (*catalogService)(nil)

// NewCatalogService wires dependencies into a concrete CatalogService implementation.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Catalog == nil {
		return nil, errors.New("catalog service: catalog repository is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &catalogService{
		catalog: deps.Catalog,
		logger:  logger,
	}, nil
}

// GetMenu loads the full menu read model. Unavailable items and addons stay in
// the payload with their flags so clients can grey them out.
func (s *catalogService) GetMenu(ctx context.Context) (Menu, error) {
	categories, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return Menu{}, s.mapRepositoryError(err)
	}
	items, err := s.catalog.ListMenuItems(ctx)
	if err != nil {
		return Menu{}, s.mapRepositoryError(err)
	}
	addons, err := s.catalog.ListAddons(ctx)
	if err != nil {
		return Menu{}, s.mapRepositoryError(err)
	}
	return Menu{
		Categories: categories,
		Items:      items,
		Addons:     addons,
	}, nil
}

// GetMenuItem loads a single menu item.
func (s *catalogService) GetMenuItem(ctx context.Context, itemID string) (MenuItem, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return MenuItem{}, fmt.Errorf("%w: menu item id is required", ErrCatalogInvalidInput)
	}
	item, err := s.catalog.GetMenuItem(ctx, itemID)
	if err != nil {
		return MenuItem{}, s.mapRepositoryError(err)
	}
	return item, nil
}

// ResolveAddons loads the addons for the given IDs, preserving input order.
func (s *catalogService) ResolveAddons(ctx context.Context, addonIDs []string) ([]Addon, error) {
	if len(addonIDs) == 0 {
		return nil, nil
	}
	for _, id := range addonIDs {
		if strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("%w: addon id is required", ErrCatalogInvalidInput)
		}
	}
	addons, err := s.catalog.GetAddons(ctx, addonIDs)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return addons, nil
}

// SetMenuItemAvailability toggles whether an item can be ordered.
func (s *catalogService) SetMenuItemAvailability(ctx context.Context, cmd SetAvailabilityCommand) (MenuItem, error) {
	itemID := strings.TrimSpace(cmd.ID)
	if itemID == "" {
		return MenuItem{}, fmt.Errorf("%w: menu item id is required", ErrCatalogInvalidInput)
	}
	item, err := s.catalog.SetMenuItemAvailability(ctx, itemID, cmd.Available)
	if err != nil {
		return MenuItem{}, s.mapRepositoryError(err)
	}
	s.logger(ctx, "catalog.item.availability.changed", map[string]any{
		"itemId":    item.ID,
		"available": item.Available,
		"actorId":   strings.TrimSpace(cmd.ActorID),
	})
	return item, nil
}

// SetAddonAvailability toggles whether an addon can be ordered.
func (s *catalogService) SetAddonAvailability(ctx context.Context, cmd SetAvailabilityCommand) (Addon, error) {
	addonID := strings.TrimSpace(cmd.ID)
	if addonID == "" {
		return Addon{}, fmt.Errorf("%w: addon id is required", ErrCatalogInvalidInput)
	}
	addon, err := s.catalog.SetAddonAvailability(ctx, addonID, cmd.Available)
	if err != nil {
		return Addon{}, s.mapRepositoryError(err)
	}
	s.logger(ctx, "catalog.addon.availability.changed", map[string]any{
		"addonId":   addon.ID,
		"available": addon.Available,
		"actorId":   strings.TrimSpace(cmd.ActorID),
	})
	return addon, nil
}

func (s *catalogService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrCatalogNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("catalog: repository unavailable: %w", err)
		}
	}

	return err
}
