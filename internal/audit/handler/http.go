// Package handler exposes the audit log over HTTP.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"license-desk/backend/internal/audit/domain"
	"license-desk/backend/internal/audit/service"
	"license-desk/backend/internal/server/httpx"
)

// AuditService is the slice of the audit service the handler needs.
type AuditService interface {
	List(ctx context.Context, limit int) ([]*domain.Entry, error)
	Record(ctx context.Context, actor service.Actor, action, deviceDetails string) (*domain.Entry, error)
}

// AuditHandler serves the /logs routes.
type AuditHandler struct {
	logs AuditService
}

func NewAuditHandler(logs AuditService) *AuditHandler {
	return &AuditHandler{logs: logs}
}

type entryView struct {
	ID            string `json:"id"`
	Action        string `json:"action"`
	UserID        string `json:"userId"`
	Username      string `json:"username"`
	DeviceDetails string `json:"deviceDetails,omitempty"`
	Timestamp     string `json:"timestamp"`
}

func toEntryView(e *domain.Entry) entryView {
	return entryView{
		ID:            e.ID,
		Action:        string(e.Action),
		UserID:        e.UserID,
		Username:      e.Username,
		DeviceDetails: e.DeviceDetails(),
		Timestamp:     e.Timestamp.UTC().Format(time.RFC3339),
	}
}

// defaultListLimit applies when GET /logs carries no limit parameter. An
// explicit limit=0 still means unlimited.
const defaultListLimit = 50

// List handles GET /logs. The optional limit query parameter caps the number
// of entries; entries come back most recent first.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httpx.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	entries, err := h.logs.List(r.Context(), limit)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}
	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, toEntryView(e))
	}
	httpx.WriteSuccess(w, http.StatusOK, views)
}

type recordRequest struct {
	Action        string `json:"action"`
	UserID        string `json:"userId"`
	DeviceDetails string `json:"deviceDetails"`
}

// Record handles POST /logs. The optional userId records the entry on behalf
// of another user; it defaults to the caller.
func (h *AuditHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	actor := service.Actor{}
	if ident, ok := httpx.IdentityFromContext(r.Context()); ok {
		actor = service.Actor{ID: ident.UserID, Username: ident.Username}
	}
	if req.UserID != "" {
		actor.ID = req.UserID
	}
	entry, err := h.logs.Record(r.Context(), actor, req.Action, req.DeviceDetails)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			httpx.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}
	httpx.WriteSuccess(w, http.StatusCreated, toEntryView(entry))
}
