package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

func ctxWithRole(role domain.Role) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/items", nil)
	req = req.WithContext(WithClaims(req.Context(), &domain.Claims{UserID: "u1", Role: role}))
	return newCtx(req)
}

func TestRequireRole_Allows(t *testing.T) {
	c, rec := ctxWithRole(domain.RoleAdmin)

	called := false
	handler := RequireRole(domain.RoleAdmin)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRole_ForbidsViewer(t *testing.T) {
	c, _ := ctxWithRole(domain.RoleViewer)

	err := RequireRole(domain.RoleAdmin)(func(c echo.Context) error {
		t.Fatalf("next handler must not run")
		return nil
	})(c)

	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
	if he.Message != "admin access required" {
		t.Fatalf("unexpected message %v", he.Message)
	}
}

func TestRequireRole_NoClaims(t *testing.T) {
	c, _ := newCtx(httptest.NewRequest(http.MethodPost, "/items", nil))

	err := RequireRole(domain.RoleAdmin)(func(c echo.Context) error { return nil })(c)
	if code := httpStatus(t, err); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}
