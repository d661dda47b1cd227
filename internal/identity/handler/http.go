// Package handler exposes staff login over HTTP.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"license-desk/backend/internal/identity/service"
	"license-desk/backend/internal/server/httpx"
	userdomain "license-desk/backend/internal/user/domain"
)

// AuthService is the slice of the auth service the handler needs.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*service.AuthResult, error)
}

// AuthHandler serves POST /auth/login.
type AuthHandler struct {
	auth AuthService
}

func NewAuthHandler(auth AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string   `json:"token"`
	ExpiresAt string   `json:"expiresAt"`
	User      userView `json:"user"`
}

type userView struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	Role      string  `json:"role"`
	LastLogin *string `json:"lastLogin"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	res, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		status, code, msg := mapAuthError(err)
		httpx.WriteError(w, status, code, msg)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, loginResponse{
		Token:     res.AccessToken,
		ExpiresAt: res.ExpiresAt.UTC().Format(time.RFC3339),
		User:      toUserView(res.User),
	})
}

func toUserView(u *userdomain.User) userView {
	v := userView{ID: u.ID, Username: u.Username, Role: string(u.Role)}
	if u.LastLoginAt != nil {
		s := u.LastLoginAt.UTC().Format(time.RFC3339)
		v.LastLogin = &s
	}
	return v
}

func mapAuthError(err error) (int, string, string) {
	if errors.Is(err, service.ErrInvalidCredentials) {
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid username or password"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
}
