package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	auditrepo "license-desk/backend/internal/audit/repository"
	"license-desk/backend/internal/db"
	"license-desk/backend/internal/identity/service"
	"license-desk/backend/internal/security"
	userdomain "license-desk/backend/internal/user/domain"
	userrepo "license-desk/backend/internal/user/repository"
)

func newLoginHandler(t *testing.T) *AuthHandler {
	t.Helper()
	users := userrepo.NewMemoryRepository()
	hash, err := security.NewHasher(4).Hash([]byte("s3cret-pass"))
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	err = users.Create(context.Background(), &userdomain.User{
		ID:           "u1",
		Username:     "alice",
		PasswordHash: hash,
		Role:         userdomain.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	tokens := security.NewTokenProvider([]byte("test-secret"), "license-desk", "license-desk-dashboard", time.Hour)
	auth := service.NewAuthService(users, auditrepo.NewMemoryRepository(), db.NewMutexTxManager(), security.NewHasher(4), tokens, nil, nil)
	return NewAuthHandler(auth)
}

func TestAuthHandler_Login(t *testing.T) {
	h := newLoginHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"alice","password":"s3cret-pass"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"token"`) || !strings.Contains(body, `"username":"alice"`) {
		t.Errorf("unexpected body: %s", body)
	}
	if !strings.Contains(body, `"role":"admin"`) {
		t.Errorf("response should carry the role: %s", body)
	}
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	h := newLoginHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"alice","password":"nope"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "INVALID_CREDENTIALS") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestAuthHandler_Login_BadBody(t *testing.T) {
	h := newLoginHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
