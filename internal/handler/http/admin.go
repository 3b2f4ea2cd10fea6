package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alpha-cen/auth-user-service/pkg/httputil"

	"github.com/alpha-cen/auth-user-service/internal/service"
)

// AdminHandler handles the admin user-management endpoints.
type AdminHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewAdminHandler creates a new admin HTTP handler.
func NewAdminHandler(users *service.UserService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{users: users, logger: logger}
}

// AdminUpdateUserRequest is the JSON request body for admin user updates.
// Absent fields are left untouched; blank strings clear optional fields.
type AdminUpdateUserRequest struct {
	Username  *string `json:"username" validate:"omitempty,min=3,max=100"`
	Email     *string `json:"email" validate:"omitempty,email"`
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,max=30"`
	Role      *string `json:"role"`
	Password  *string `json:"password" validate:"omitempty,min=8"`
}

// List handles GET /api/admin/users?search=
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.AdminList(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: users})
}

// Statistics handles GET /api/admin/users/statistics
func (h *AdminHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.users.Statistics(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stats})
}

// Get handles GET /api/admin/users/{id}
func (h *AdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	user, err := h.users.AdminGet(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}

// GetFull handles GET /api/admin/users/{id}/full
func (h *AdminHandler) GetFull(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	user, err := h.users.AdminGetWithAddresses(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}

// ListAddresses handles GET /api/admin/users/{id}/addresses
func (h *AdminHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	user, err := h.users.AdminGetWithAddresses(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user.Addresses})
}

// Update handles PUT /api/admin/users/{id}
func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req AdminUpdateUserRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := h.users.AdminUpdate(r.Context(), id, service.AdminUpdateInput{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      req.Role,
		Password:  req.Password,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}

// Delete handles DELETE /api/admin/users/{id}
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.users.AdminDelete(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
