// Package server assembles the HTTP router and owns the server lifecycle.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	audithandler "license-desk/backend/internal/audit/handler"
	dashboardhandler "license-desk/backend/internal/dashboard/handler"
	devicehandler "license-desk/backend/internal/device/handler"
	identityhandler "license-desk/backend/internal/identity/handler"
	"license-desk/backend/internal/platform/rbac"
	"license-desk/backend/internal/security"
	"license-desk/backend/internal/server/httpx"
	"license-desk/backend/internal/telemetry/otel"
	userhandler "license-desk/backend/internal/user/handler"
)

// Handlers groups the feature handlers the router mounts.
type Handlers struct {
	Auth      *identityhandler.AuthHandler
	Devices   *devicehandler.DeviceHandler
	Logs      *audithandler.AuditHandler
	Users     *userhandler.UserHandler
	Dashboard *dashboardhandler.DashboardHandler
}

// NewRouter builds the full route table. Staff routes sit behind bearer
// auth; /auth/login, /healthz, and the /client endpoints do not.
func NewRouter(h Handlers, tokens *security.TokenProvider, logger *slog.Logger, serviceName string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(httpx.RequestID)
	r.Use(otel.HTTPMiddleware(serviceName))
	r.Use(httpx.Logging(logger))
	r.Use(httpx.Recover(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteMessage(w, http.StatusOK, "ok")
	})

	r.Post("/auth/login", h.Auth.Login)

	r.Route("/client", func(r chi.Router) {
		r.Post("/activate", h.Devices.Activate)
		r.Post("/check", h.Devices.Check)
	})

	r.Group(func(r chi.Router) {
		r.Use(httpx.Authenticate(tokens))

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", h.Devices.List)
			r.Post("/", h.Devices.Register)
			r.Get("/{id}", h.Devices.Get)
			r.Put("/{id}/key", h.Devices.Issue)
			r.Put("/{id}/reset", h.Devices.Reset)
			r.Delete("/{id}", h.Devices.Delete)
		})

		r.Route("/logs", func(r chi.Router) {
			r.Get("/", h.Logs.List)
			r.Post("/", h.Logs.Record)
		})

		r.Get("/dashboard", h.Dashboard.Stats)

		r.Group(func(r chi.Router) {
			r.Use(rbac.RequireAdmin)
			r.Get("/users", h.Users.List)
		})
	})

	return r
}
