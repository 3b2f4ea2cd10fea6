package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alpha-cen/auth-user-service/pkg/httputil"
	"github.com/alpha-cen/auth-user-service/pkg/middleware"

	"github.com/alpha-cen/auth-user-service/internal/service"
)

// AddressHandler handles the address book endpoints.
type AddressHandler struct {
	addresses *service.AddressService
	logger    *slog.Logger
}

// NewAddressHandler creates a new address HTTP handler.
func NewAddressHandler(addresses *service.AddressService, logger *slog.Logger) *AddressHandler {
	return &AddressHandler{addresses: addresses, logger: logger}
}

// CreateAddressRequest is the JSON request body for creating an address.
type CreateAddressRequest struct {
	AddressLine1 string `json:"address_line1" validate:"required,max=255"`
	AddressLine2 string `json:"address_line2" validate:"omitempty,max=255"`
	City         string `json:"city" validate:"omitempty,max=100"`
	State        string `json:"state" validate:"omitempty,max=100"`
	PostalCode   string `json:"postal_code" validate:"omitempty,max=20"`
	Country      string `json:"country" validate:"required,max=100"`
	IsDefault    bool   `json:"is_default"`
	AddressType  string `json:"address_type" validate:"omitempty,oneof=SHIPPING BILLING BOTH"`
}

// UpdateAddressRequest is the JSON request body for partial address updates.
type UpdateAddressRequest struct {
	AddressLine1 *string `json:"address_line1" validate:"omitempty,max=255"`
	AddressLine2 *string `json:"address_line2" validate:"omitempty,max=255"`
	City         *string `json:"city" validate:"omitempty,max=100"`
	State        *string `json:"state" validate:"omitempty,max=100"`
	PostalCode   *string `json:"postal_code" validate:"omitempty,max=20"`
	Country      *string `json:"country" validate:"omitempty,max=100"`
	IsDefault    *bool   `json:"is_default"`
	AddressType  *string `json:"address_type" validate:"omitempty,oneof=SHIPPING BILLING BOTH"`
}

// List handles GET /api/users/me/addresses
func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	username := middleware.UsernameFromContext(r.Context())
	addresses, err := h.addresses.List(r.Context(), username)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: addresses})
}

// Create handles POST /api/users/me/addresses
func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAddressRequest
	if !decode(w, r, &req) {
		return
	}

	username := middleware.UsernameFromContext(r.Context())
	address, err := h.addresses.Create(r.Context(), username, service.CreateAddressInput{
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		Country:      req.Country,
		IsDefault:    req.IsDefault,
		AddressType:  req.AddressType,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: address})
}

// GetDefault handles GET /api/users/me/addresses/default
func (h *AddressHandler) GetDefault(w http.ResponseWriter, r *http.Request) {
	username := middleware.UsernameFromContext(r.Context())
	address, err := h.addresses.GetDefault(r.Context(), username)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: address})
}

// Get handles GET /api/users/me/addresses/{addressID}
func (h *AddressHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "addressID"))
	if !ok {
		return
	}

	username := middleware.UsernameFromContext(r.Context())
	address, err := h.addresses.Get(r.Context(), id, username)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: address})
}

// Update handles PUT /api/users/me/addresses/{addressID}
func (h *AddressHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "addressID"))
	if !ok {
		return
	}

	var req UpdateAddressRequest
	if !decode(w, r, &req) {
		return
	}

	username := middleware.UsernameFromContext(r.Context())
	address, err := h.addresses.Update(r.Context(), id, username, service.UpdateAddressInput{
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		Country:      req.Country,
		IsDefault:    req.IsDefault,
		AddressType:  req.AddressType,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: address})
}

// Delete handles DELETE /api/users/me/addresses/{addressID}
func (h *AddressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "addressID"))
	if !ok {
		return
	}

	username := middleware.UsernameFromContext(r.Context())
	if err := h.addresses.Delete(r.Context(), id, username); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetDefault handles PATCH /api/users/me/addresses/{addressID}/default
func (h *AddressHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "addressID"))
	if !ok {
		return
	}

	username := middleware.UsernameFromContext(r.Context())
	address, err := h.addresses.SetDefault(r.Context(), id, username)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: address})
}
