// Package handler exposes the staff account listing over HTTP. The route is
// admin-only; the router wires it behind the rbac gate.
package handler

import (
	"context"
	"net/http"
	"time"

	"license-desk/backend/internal/server/httpx"
	"license-desk/backend/internal/user/domain"
)

// UserLister is the slice of the user repository the handler needs.
type UserLister interface {
	List(ctx context.Context) ([]*domain.User, error)
}

// UserHandler serves GET /users.
type UserHandler struct {
	users UserLister
}

func NewUserHandler(users UserLister) *UserHandler {
	return &UserHandler{users: users}
}

type userView struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	Role      string  `json:"role"`
	LastLogin *string `json:"lastLogin"`
	CreatedAt string  `json:"createdAt"`
}

// List handles GET /users. Password hashes never leave this layer.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		v := userView{
			ID:        u.ID,
			Username:  u.Username,
			Role:      string(u.Role),
			CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
		}
		if u.LastLoginAt != nil {
			s := u.LastLoginAt.UTC().Format(time.RFC3339)
			v.LastLogin = &s
		}
		views = append(views, v)
	}
	httpx.WriteSuccess(w, http.StatusOK, views)
}
