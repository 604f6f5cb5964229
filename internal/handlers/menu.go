package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "github.com/cameron-natural/api/internal/domain"
	"github.com/cameron-natural/api/internal/platform/httpx"
	"github.com/cameron-natural/api/internal/services"
)

// MenuHandlers exposes the public menu read model.
type MenuHandlers struct {
	catalog services.CatalogService
}

// NewMenuHandlers constructs a new MenuHandlers instance.
func NewMenuHandlers(catalog services.CatalogService) *MenuHandlers {
	return &MenuHandlers{catalog: catalog}
}

// Routes registers the /public endpoints.
func (h *MenuHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/menu", h.getMenu)
}

func (h *MenuHandlers) getMenu(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	menu, err := h.catalog.GetMenu(ctx)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildMenuPayload(menu))
}

type menuResponse struct {
	Categories []categoryPayload `json:"categories"`
	Items      []menuItemPayload `json:"menuItems"`
	Addons     []addonPayload    `json:"addons"`
}

type categoryPayload struct {
	ID           string   `json:"id"`
	NameTH       string   `json:"name_th"`
	NameEN       string   `json:"name_en"`
	Order        int      `json:"order"`
	PriceColumns []string `json:"priceColumns,omitempty"`
	Icon         string   `json:"icon,omitempty"`
}

type menuItemPayload struct {
	ID            string           `json:"id"`
	CategoryID    string           `json:"categoryId"`
	NameTH        string           `json:"name_th"`
	NameEN        string           `json:"name_en"`
	DescriptionTH string           `json:"description_th,omitempty"`
	DescriptionEN string           `json:"description_en,omitempty"`
	Prices        map[string]int64 `json:"prices,omitempty"`
	SinglePrice   *int64           `json:"singlePrice,omitempty"`
	Available     bool             `json:"available"`
	Order         int              `json:"order"`
	Image         string           `json:"image,omitempty"`
	Popular       bool             `json:"popular,omitempty"`
}

type addonPayload struct {
	ID        string `json:"id"`
	NameTH    string `json:"name_th"`
	NameEN    string `json:"name_en"`
	Price     int64  `json:"price"`
	Available bool   `json:"available"`
}

func buildMenuPayload(menu services.Menu) menuResponse {
	response := menuResponse{
		Categories: make([]categoryPayload, 0, len(menu.Categories)),
		Items:      make([]menuItemPayload, 0, len(menu.Items)),
		Addons:     make([]addonPayload, 0, len(menu.Addons)),
	}

	for _, category := range menu.Categories {
		payload := categoryPayload{
			ID:     category.ID,
			NameTH: category.Name.TH,
			NameEN: category.Name.EN,
			Order:  category.Order,
			Icon:   category.Icon,
		}
		for _, temp := range category.PriceColumns {
			payload.PriceColumns = append(payload.PriceColumns, string(temp))
		}
		response.Categories = append(response.Categories, payload)
	}

	for _, item := range menu.Items {
		response.Items = append(response.Items, buildMenuItemPayload(item))
	}

	for _, addon := range menu.Addons {
		response.Addons = append(response.Addons, buildAddonPayload(addon))
	}

	return response
}

func buildMenuItemPayload(item domain.MenuItem) menuItemPayload {
	payload := menuItemPayload{
		ID:            item.ID,
		CategoryID:    item.CategoryID,
		NameTH:        item.Name.TH,
		NameEN:        item.Name.EN,
		DescriptionTH: item.Description.TH,
		DescriptionEN: item.Description.EN,
		SinglePrice:   item.SinglePrice,
		Available:     item.Available,
		Order:         item.Order,
		Image:         item.Image,
		Popular:       item.Popular,
	}
	if len(item.Prices) > 0 {
		payload.Prices = make(map[string]int64, len(item.Prices))
		for temp, price := range item.Prices {
			payload.Prices[string(temp)] = price
		}
	}
	return payload
}

func buildAddonPayload(addon domain.Addon) addonPayload {
	return addonPayload{
		ID:        addon.ID,
		NameTH:    addon.Name.TH,
		NameEN:    addon.Name.EN,
		Price:     addon.Price,
		Available: addon.Available,
	}
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("menu_item_not_found", "menu item not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "failed to load menu", http.StatusServiceUnavailable))
	}
}
