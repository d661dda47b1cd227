// Package rbac gates routes on the caller's role.
package rbac

import (
	"net/http"

	"license-desk/backend/internal/server/httpx"
	userdomain "license-desk/backend/internal/user/domain"
)

// RequireAdmin allows only authenticated admins through. It must run after
// the auth middleware; a request with no identity in context gets 401.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, ok := httpx.IdentityFromContext(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
			return
		}
		if ident.Role != string(userdomain.RoleAdmin) {
			httpx.WriteError(w, http.StatusForbidden, "FORBIDDEN", "administrator role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
