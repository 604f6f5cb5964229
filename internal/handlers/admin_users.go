package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cameron-natural/api/internal/platform/httpx"
	"github.com/cameron-natural/api/internal/services"
)

const maxUserBodySize = 16 * 1024

// AdminUserHandlers manages auth-provider accounts from the back office.
type AdminUserHandlers struct {
	users services.UserService
}

// NewAdminUserHandlers constructs a new AdminUserHandlers instance.
func NewAdminUserHandlers(users services.UserService) *AdminUserHandlers {
	return &AdminUserHandlers{users: users}
}

// Routes registers the /admin/users endpoints.
func (h *AdminUserHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/users/search", h.searchUser)
	r.Post("/users", h.createUser)
}

type userSearchRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type userCreateRequest struct {
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

type userAccountPayload struct {
	UID         string `json:"uid"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Disabled    bool   `json:"disabled,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

func (h *AdminUserHandlers) searchUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.users == nil {
		httpx.WriteError(ctx, w, httpx.NewError("user_service_unavailable", "user service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxUserBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req userSearchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
		return
	}

	account, err := h.users.SearchUser(ctx, services.UserSearchCommand{
		Email: strings.TrimSpace(req.Email),
		Phone: strings.TrimSpace(req.Phone),
	})
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"user": buildUserAccountPayload(account)})
}

func (h *AdminUserHandlers) createUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.users == nil {
		httpx.WriteError(ctx, w, httpx.NewError("user_service_unavailable", "user service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxUserBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req userCreateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
		return
	}

	account, created, err := h.users.CreateUser(ctx, services.UserCreateCommand{
		Email:       strings.TrimSpace(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		DisplayName: strings.TrimSpace(req.DisplayName),
		Password:    req.Password,
	})
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSONResponse(w, status, map[string]any{
		"user":    buildUserAccountPayload(account),
		"created": created,
	})
}

func buildUserAccountPayload(account services.UserAccount) userAccountPayload {
	return userAccountPayload{
		UID:         account.UID,
		Email:       account.Email,
		Phone:       account.Phone,
		DisplayName: account.DisplayName,
		Disabled:    account.Disabled,
		CreatedAt:   formatTime(account.CreatedAt),
	}
}

func writeUserError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrUserInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrUserNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("user_not_found", "no matching account", http.StatusNotFound))
	case errors.Is(err, services.ErrUserUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("auth_provider_error", "auth provider unavailable", http.StatusBadGateway))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("user_error", "failed to process user request", http.StatusInternalServerError))
	}
}
