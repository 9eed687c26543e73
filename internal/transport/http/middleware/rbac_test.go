package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"worktrack/internal/auth"
)

func callGuard(t *testing.T, guard func(http.Handler) http.Handler, user *auth.UserContext) int {
	t.Helper()
	handler := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if user != nil {
		req = req.WithContext(WithUser(req.Context(), *user))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestRequireUser(t *testing.T) {
	if code := callGuard(t, RequireUser, nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user, got %d", code)
	}
	tech := auth.UserContext{UserID: 2, TechID: 2, Role: auth.RoleTechnician}
	if code := callGuard(t, RequireUser, &tech); code != http.StatusOK {
		t.Fatalf("expected 200 for technician, got %d", code)
	}
}

func TestRequireManager(t *testing.T) {
	tech := auth.UserContext{UserID: 2, Role: auth.RoleTechnician}
	if code := callGuard(t, RequireManager, &tech); code != http.StatusForbidden {
		t.Fatalf("expected 403 for technician, got %d", code)
	}
	manager := auth.UserContext{UserID: 3, Role: auth.RoleManager}
	if code := callGuard(t, RequireManager, &manager); code != http.StatusOK {
		t.Fatalf("expected 200 for manager, got %d", code)
	}
	admin := auth.UserContext{UserID: 1, Role: auth.RoleAdmin}
	if code := callGuard(t, RequireManager, &admin); code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", code)
	}
}

func TestRequireAdmin(t *testing.T) {
	manager := auth.UserContext{UserID: 3, Role: auth.RoleManager}
	if code := callGuard(t, RequireAdmin, &manager); code != http.StatusForbidden {
		t.Fatalf("expected 403 for manager, got %d", code)
	}
	admin := auth.UserContext{UserID: 1, Role: auth.RoleAdmin}
	if code := callGuard(t, RequireAdmin, &admin); code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", code)
	}
	if code := callGuard(t, RequireAdmin, nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user, got %d", code)
	}
}
