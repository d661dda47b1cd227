// Package handler exposes the dashboard stats endpoint.
package handler

import (
	"context"
	"net/http"
	"time"

	"license-desk/backend/internal/dashboard/service"
	"license-desk/backend/internal/server/httpx"
)

// DashboardService computes the landing page snapshot.
type DashboardService interface {
	Snapshot(ctx context.Context) (*service.Stats, error)
}

// DashboardHandler serves GET /dashboard.
type DashboardHandler struct {
	dashboard DashboardService
}

func NewDashboardHandler(dashboard DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

type statsView struct {
	TotalDevices   int            `json:"totalDevices"`
	ActiveDevices  int            `json:"activeDevices"`
	ExpiredDevices int            `json:"expiredDevices"`
	PendingDevices int            `json:"pendingDevices"`
	TotalUsers     int            `json:"totalUsers"`
	RecentActivity []activityView `json:"recentActivity"`
}

type activityView struct {
	ID            string `json:"id"`
	Action        string `json:"action"`
	Username      string `json:"username"`
	DeviceDetails string `json:"deviceDetails,omitempty"`
	Timestamp     string `json:"timestamp"`
}

// Stats handles GET /dashboard.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.Snapshot(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}
	view := statsView{
		TotalDevices:   stats.TotalDevices,
		ActiveDevices:  stats.ActiveDevices,
		ExpiredDevices: stats.ExpiredDevices,
		PendingDevices: stats.PendingDevices,
		TotalUsers:     stats.TotalUsers,
		RecentActivity: make([]activityView, 0, len(stats.RecentActivity)),
	}
	for _, e := range stats.RecentActivity {
		view.RecentActivity = append(view.RecentActivity, activityView{
			ID:            e.ID,
			Action:        string(e.Action),
			Username:      e.Username,
			DeviceDetails: e.DeviceDetails(),
			Timestamp:     e.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	httpx.WriteSuccess(w, http.StatusOK, view)
}
