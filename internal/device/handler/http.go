// Package handler exposes the device registry over HTTP: staff CRUD on
// /devices and the unauthenticated client activation endpoints.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"license-desk/backend/internal/device/domain"
	"license-desk/backend/internal/device/service"
	"license-desk/backend/internal/license"
	"license-desk/backend/internal/server/httpx"
)

// DeviceService is the slice of the device service the handler needs.
type DeviceService interface {
	Register(ctx context.Context, actor service.Actor, macAddress, hostname, duration string) (*domain.Device, error)
	List(ctx context.Context) ([]*domain.Device, error)
	Get(ctx context.Context, id string) (*domain.Device, error)
	IssueKey(ctx context.Context, actor service.Actor, id, duration string) (*domain.Device, error)
	Reset(ctx context.Context, actor service.Actor, id string) error
	Delete(ctx context.Context, actor service.Actor, id string) error
	Activate(ctx context.Context, macAddress, hostname, keyCode string) error
	CheckActivation(ctx context.Context, macAddress string) (license.Status, error)
}

// DeviceHandler serves the /devices and /client routes.
type DeviceHandler struct {
	devices DeviceService
	now     func() time.Time
}

// NewDeviceHandler returns a DeviceHandler. nowFn may be nil; it defaults to
// time.Now in UTC and exists so tests can pin status derivation.
func NewDeviceHandler(devices DeviceService, nowFn func() time.Time) *DeviceHandler {
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	return &DeviceHandler{devices: devices, now: nowFn}
}

type deviceView struct {
	ID         string  `json:"id"`
	MACAddress string  `json:"macAddress"`
	Hostname   string  `json:"hostname"`
	Status     string  `json:"status"`
	Key        string  `json:"key"`
	ExpiryDate *string `json:"expiryDate"`
	CreatedAt  string  `json:"createdAt"`
	UpdatedAt  string  `json:"updatedAt"`
}

func (h *DeviceHandler) toView(d *domain.Device) deviceView {
	v := deviceView{
		ID:         d.ID,
		MACAddress: d.MAC,
		Hostname:   d.Hostname,
		Status:     string(d.Status(h.now())),
		Key:        d.KeyCode,
		CreatedAt:  d.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  d.UpdatedAt().UTC().Format(time.RFC3339),
	}
	if d.ExpiresAt != nil {
		s := d.ExpiresAt.UTC().Format(time.RFC3339)
		v.ExpiryDate = &s
	}
	return v
}

type registerRequest struct {
	MACAddress string `json:"macAddress"`
	Hostname   string `json:"hostname"`
	Duration   string `json:"duration"`
}

// Register handles POST /devices.
func (h *DeviceHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	d, err := h.devices.Register(r.Context(), actorFrom(r.Context()), req.MACAddress, req.Hostname, req.Duration)
	if err != nil {
		status, code, msg := mapDeviceError(err)
		httpx.WriteError(w, status, code, msg)
		return
	}
	httpx.WriteSuccess(w, http.StatusCreated, h.toView(d))
}

// List handles GET /devices.
func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	devices, err := h.devices.List(r.Context())
	if err != nil {
		status, code, msg := mapDeviceError(err)
		httpx.WriteError(w, status, code, msg)
		return
	}
	views := make([]deviceView, 0, len(devices))
	for _, d := range devices {
		views = append(views, h.toView(d))
	}
	httpx.WriteSuccess(w, http.StatusOK, views)
}

// Get handles GET /devices/{id}.
func (h *DeviceHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.devices.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		status, code, msg := mapDeviceError(err)
		httpx.WriteError(w, status, code, msg)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, h.toView(d))
}

type issueRequest struct {
	Duration string `json:"duration"`
}

// Issue handles PUT /devices/{id}/key: issues a fresh key to an existing
// device, overwriting the old one.
func (h *DeviceHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	d, err := h.devices.IssueKey(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id"), req.Duration)
	if err != nil {
		status, code, msg := mapDeviceError(err)
		httpx.WriteError(w, status, code, msg)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, h.toView(d))
}

// Reset handles PUT /devices/{id}/reset.
func (h *DeviceHandler) Reset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.devices.Reset(r.Context(), actorFrom(r.Context()), id); err != nil {
		status, code, msg := mapDeviceError(err)
		httpx.WriteError(w, status, code, msg)
		return
	}
	d, err := h.devices.Get(r.Context(), id)
	if err != nil {
		status, code, msg := mapDeviceError(err)
		httpx.WriteError(w, status, code, msg)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, h.toView(d))
}

// Delete handles DELETE /devices/{id}.
func (h *DeviceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.devices.Delete(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		status, code, msg := mapDeviceError(err)
		httpx.WriteError(w, status, code, msg)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "device deleted")
}

type activateRequest struct {
	MACAddress string `json:"macAddress"`
	Hostname   string `json:"hostname"`
	Key        string `json:"key"`
}

// Activate handles POST /client/activate, called by installed clients with
// their key. No bearer token is required on this route.
func (h *DeviceHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if err := h.devices.Activate(r.Context(), req.MACAddress, req.Hostname, req.Key); err != nil {
		status, code, msg := mapDeviceError(err)
		httpx.WriteError(w, status, code, msg)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, map[string]any{"activated": true})
}

type checkRequest struct {
	MACAddress string `json:"macAddress"`
}

// Check handles POST /client/check: clients poll it to learn whether their
// license still stands.
func (h *DeviceHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	status, err := h.devices.CheckActivation(r.Context(), req.MACAddress)
	if err != nil {
		st, code, msg := mapDeviceError(err)
		httpx.WriteError(w, st, code, msg)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, map[string]any{
		"active":  status == license.StatusActive,
		"message": checkMessage(status),
		"status":  string(status),
	})
}

func checkMessage(status license.Status) string {
	switch status {
	case license.StatusActive:
		return "license is active"
	case license.StatusExpired:
		return "license has expired"
	default:
		return "device is not activated"
	}
}

func actorFrom(ctx context.Context) service.Actor {
	if ident, ok := httpx.IdentityFromContext(ctx); ok {
		return service.Actor{ID: ident.UserID, Username: ident.Username}
	}
	return service.Actor{}
}

func mapDeviceError(err error) (int, string, string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, service.ErrDeviceNotFound):
		return http.StatusNotFound, "NOT_FOUND", "device not found"
	case errors.Is(err, service.ErrDuplicateDevice):
		return http.StatusConflict, "DUPLICATE_DEVICE", "a device with this MAC address already exists"
	case errors.Is(err, service.ErrInvalidKey):
		return http.StatusUnprocessableEntity, "INVALID_KEY", "activation key is invalid or expired"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
	}
}
