package middleware

import (
	"log/slog"
	"net/http"

	"github.com/campuslink/campuslink/internal/auth"
)

// RequirePermissions gates a route on the caller holding at least one
// of the given permission keys. Scoped checks belong in the service
// layer; this guard only covers globally effective permissions, which
// is what admin routes need.
func RequirePermissions(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok || user == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if !user.HasAnyPermission(permissions) {
				slog.Warn("access denied",
					"user_id", user.ID,
					"required_permissions", permissions)
				http.Error(w, "forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
