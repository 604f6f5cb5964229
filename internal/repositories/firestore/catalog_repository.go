package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"

	domain "github.com/cameron-natural/api/internal/domain"
	pfirestore "github.com/cameron-natural/api/internal/platform/firestore"
	"github.com/cameron-natural/api/internal/repositories"
)

const (
	categoryCollection = "categories"
	menuItemCollection = "menuItems"
	addonCollection    = "addons"
)

// CatalogRepository reads the menu catalog (categories, items, addons) from
// Firestore and supports the admin availability toggles.
type CatalogRepository struct {
	categories *pfirestore.BaseRepository[categoryDocument]
	menuItems  *pfirestore.BaseRepository[menuItemDocument]
	addons     *pfirestore.BaseRepository[addonDocument]
	provider   *pfirestore.Provider
}

// NewCatalogRepository constructs a Firestore-backed catalog repository.
func NewCatalogRepository(provider *pfirestore.Provider) (*CatalogRepository, error) {
	if provider == nil {
		return nil, errors.New("catalog repository requires firestore provider")
	}
	return &CatalogRepository{
		categories: pfirestore.NewBaseRepository[categoryDocument](provider, categoryCollection, nil, nil),
		menuItems:  pfirestore.NewBaseRepository[menuItemDocument](provider, menuItemCollection, nil, nil),
		addons:     pfirestore.NewBaseRepository[addonDocument](provider, addonCollection, nil, nil),
		provider:   provider,
	}, nil
}

// ListCategories returns all categories in menu order.
func (r *CatalogRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	if r == nil || r.categories == nil {
		return nil, errors.New("catalog repository not initialised")
	}

	docs, err := r.categories.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.OrderBy("order", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	categories := make([]domain.Category, 0, len(docs))
	for _, doc := range docs {
		categories = append(categories, decodeCategory(doc.ID, doc.Data))
	}
	return categories, nil
}

// ListMenuItems returns all menu items in menu order, including unavailable ones.
func (r *CatalogRepository) ListMenuItems(ctx context.Context) ([]domain.MenuItem, error) {
	if r == nil || r.menuItems == nil {
		return nil, errors.New("catalog repository not initialised")
	}

	docs, err := r.menuItems.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.OrderBy("order", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	items := make([]domain.MenuItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, decodeMenuItem(doc.ID, doc.Data))
	}
	return items, nil
}

// ListAddons returns all addons, including unavailable ones.
func (r *CatalogRepository) ListAddons(ctx context.Context) ([]domain.Addon, error) {
	if r == nil || r.addons == nil {
		return nil, errors.New("catalog repository not initialised")
	}

	docs, err := r.addons.Query(ctx, nil)
	if err != nil {
		return nil, err
	}

	addons := make([]domain.Addon, 0, len(docs))
	for _, doc := range docs {
		addons = append(addons, decodeAddon(doc.ID, doc.Data))
	}
	return addons, nil
}

// GetMenuItem loads a single menu item by ID.
func (r *CatalogRepository) GetMenuItem(ctx context.Context, itemID string) (domain.MenuItem, error) {
	if r == nil || r.menuItems == nil {
		return domain.MenuItem{}, errors.New("catalog repository not initialised")
	}
	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.MenuItem{}, errors.New("catalog repository: menu item id is required")
	}

	doc, err := r.menuItems.Get(ctx, id)
	if err != nil {
		return domain.MenuItem{}, err
	}
	return decodeMenuItem(doc.ID, doc.Data), nil
}

// GetAddons loads the addons for the given IDs, preserving input order.
// Unknown IDs surface as a not-found error from the underlying fetch.
func (r *CatalogRepository) GetAddons(ctx context.Context, addonIDs []string) ([]domain.Addon, error) {
	if r == nil || r.addons == nil {
		return nil, errors.New("catalog repository not initialised")
	}

	addons := make([]domain.Addon, 0, len(addonIDs))
	for _, addonID := range addonIDs {
		id := strings.TrimSpace(addonID)
		if id == "" {
			return nil, errors.New("catalog repository: addon id is required")
		}
		doc, err := r.addons.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		addons = append(addons, decodeAddon(doc.ID, doc.Data))
	}
	return addons, nil
}

// SetMenuItemAvailability flips the availability flag on a menu item.
func (r *CatalogRepository) SetMenuItemAvailability(ctx context.Context, itemID string, available bool) (domain.MenuItem, error) {
	if r == nil || r.menuItems == nil {
		return domain.MenuItem{}, errors.New("catalog repository not initialised")
	}
	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.MenuItem{}, errors.New("catalog repository: menu item id is required")
	}

	_, err := r.menuItems.Update(ctx, id, []firestore.Update{
		{Path: "available", Value: available},
	}, firestore.Exists)
	if err != nil {
		return domain.MenuItem{}, err
	}
	return r.GetMenuItem(ctx, id)
}

// SetAddonAvailability flips the availability flag on an addon.
func (r *CatalogRepository) SetAddonAvailability(ctx context.Context, addonID string, available bool) (domain.Addon, error) {
	if r == nil || r.addons == nil {
		return domain.Addon{}, errors.New("catalog repository not initialised")
	}
	id := strings.TrimSpace(addonID)
	if id == "" {
		return domain.Addon{}, errors.New("catalog repository: addon id is required")
	}

	_, err := r.addons.Update(ctx, id, []firestore.Update{
		{Path: "available", Value: available},
	}, firestore.Exists)
	if err != nil {
		return domain.Addon{}, err
	}

	doc, err := r.addons.Get(ctx, id)
	if err != nil {
		return domain.Addon{}, err
	}
	return decodeAddon(doc.ID, doc.Data), nil
}

func decodeCategory(id string, doc categoryDocument) domain.Category {
	columns := make([]domain.TempVariant, 0, len(doc.PriceColumns))
	for _, column := range doc.PriceColumns {
		columns = append(columns, domain.TempVariant(column))
	}
	return domain.Category{
		ID:           id,
		Name:         domain.BilingualName{TH: doc.NameTH, EN: doc.NameEN},
		Order:        doc.Order,
		PriceColumns: columns,
		Icon:         doc.Icon,
	}
}

func decodeMenuItem(id string, doc menuItemDocument) domain.MenuItem {
	var prices map[domain.TempVariant]int64
	if len(doc.Prices) > 0 {
		prices = make(map[domain.TempVariant]int64, len(doc.Prices))
		for variant, price := range doc.Prices {
			prices[domain.TempVariant(variant)] = price
		}
	}
	return domain.MenuItem{
		ID:          id,
		CategoryID:  doc.CategoryID,
		Name:        domain.BilingualName{TH: doc.NameTH, EN: doc.NameEN},
		Description: domain.BilingualName{TH: doc.DescriptionTH, EN: doc.DescriptionEN},
		Prices:      prices,
		SinglePrice: doc.SinglePrice,
		Available:   doc.Available,
		Order:       doc.Order,
		Image:       doc.Image,
		Popular:     doc.Popular,
	}
}

func decodeAddon(id string, doc addonDocument) domain.Addon {
	return domain.Addon{
		ID:        id,
		Name:      domain.BilingualName{TH: doc.NameTH, EN: doc.NameEN},
		Price:     doc.Price,
		Available: doc.Available,
	}
}

type categoryDocument struct {
	NameTH       string   `firestore:"name_th"`
	NameEN       string   `firestore:"name_en"`
	Order        int      `firestore:"order"`
	PriceColumns []string `firestore:"priceColumns,omitempty"`
	Icon         string   `firestore:"icon,omitempty"`
}

type menuItemDocument struct {
	CategoryID    string           `firestore:"categoryId"`
	NameTH        string           `firestore:"name_th"`
	NameEN        string           `firestore:"name_en"`
	DescriptionTH string           `firestore:"description_th,omitempty"`
	DescriptionEN string           `firestore:"description_en,omitempty"`
	Prices        map[string]int64 `firestore:"prices,omitempty"`
	SinglePrice   *int64           `firestore:"singlePrice,omitempty"`
	Available     bool             `firestore:"available"`
	Order         int              `firestore:"order"`
	Image         string           `firestore:"image,omitempty"`
	Popular       bool             `firestore:"popular,omitempty"`
}

type addonDocument struct {
	NameTH    string `firestore:"name_th"`
	NameEN    string `firestore:"name_en"`
	Price     int64  `firestore:"price"`
	Available bool   `firestore:"available"`
}

var _ repositories.CatalogRepository = (*CatalogRepository)(nil)
