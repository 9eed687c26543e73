package middleware

import (
	"net/http"

	"worktrack/internal/auth"
	"worktrack/internal/transport/http/api"
)

// RequireUser rejects unauthenticated requests.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireManager admits managers and admins.
func RequireManager(next http.Handler) http.Handler {
	return requireRole(next, func(user auth.UserContext) bool { return user.CanManage() })
}

// RequireAdmin admits admins only.
func RequireAdmin(next http.Handler) http.Handler {
	return requireRole(next, func(user auth.UserContext) bool { return user.IsAdmin() })
}

func requireRole(next http.Handler, allowed func(auth.UserContext) bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUser(r.Context())
		if !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
			return
		}
		if !allowed(user) {
			api.Fail(w, http.StatusForbidden, "forbidden", "insufficient role", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}
