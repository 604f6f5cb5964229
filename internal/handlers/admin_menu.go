package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cameron-natural/api/internal/platform/auth"
	"github.com/cameron-natural/api/internal/platform/httpx"
	"github.com/cameron-natural/api/internal/services"
)

const maxAvailabilityBodySize = 4 * 1024

// AdminMenuHandlers exposes the operational menu toggles. Full menu CRUD is
// managed elsewhere; the back office only flips availability.
type AdminMenuHandlers struct {
	catalog services.CatalogService
}

// NewAdminMenuHandlers constructs a new AdminMenuHandlers instance.
func NewAdminMenuHandlers(catalog services.CatalogService) *AdminMenuHandlers {
	return &AdminMenuHandlers{catalog: catalog}
}

// Routes registers the /admin/menu endpoints.
func (h *AdminMenuHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Patch("/menu/items/{itemID}", h.setItemAvailability)
	r.Patch("/menu/addons/{addonID}", h.setAddonAvailability)
}

type availabilityRequest struct {
	Available *bool `json:"available"`
}

func (h *AdminMenuHandlers) setItemAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	cmd, ok := h.parseAvailability(w, r, chi.URLParam(r, "itemID"))
	if !ok {
		return
	}

	item, err := h.catalog.SetMenuItemAvailability(ctx, cmd)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"menuItem": buildMenuItemPayload(item)})
}

func (h *AdminMenuHandlers) setAddonAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	cmd, ok := h.parseAvailability(w, r, chi.URLParam(r, "addonID"))
	if !ok {
		return
	}

	addon, err := h.catalog.SetAddonAvailability(ctx, cmd)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"addon": buildAddonPayload(addon)})
}

func (h *AdminMenuHandlers) parseAvailability(w http.ResponseWriter, r *http.Request, id string) (services.SetAvailabilityCommand, bool) {
	ctx := r.Context()

	id = strings.TrimSpace(id)
	if id == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "id is required", http.StatusBadRequest))
		return services.SetAvailabilityCommand{}, false
	}

	body, err := readLimitedBody(r, maxAvailabilityBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return services.SetAvailabilityCommand{}, false
	}

	var req availabilityRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
		return services.SetAvailabilityCommand{}, false
	}
	if req.Available == nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "available is required", http.StatusBadRequest))
		return services.SetAvailabilityCommand{}, false
	}

	cmd := services.SetAvailabilityCommand{ID: id, Available: *req.Available}
	if identity, ok := auth.IdentityFromContext(ctx); ok && identity != nil {
		cmd.ActorID = strings.TrimSpace(identity.UID)
	}
	return cmd, true
}
