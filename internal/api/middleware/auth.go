package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "token"

// Authenticator resolves a raw session token into verified claims.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Claims, error)
}

// Auth requires a valid session and stores its claims in the request context.
func Auth(authn Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := SessionToken(c.Request())
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			claims, err := authn.Authenticate(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthenticated) {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
				}
				return err
			}

			setClaims(c, claims)
			return next(c)
		}
	}
}

// OptionalAuth attaches claims when a valid session is presented and lets
// anonymous or invalid sessions through without them.
func OptionalAuth(authn Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := SessionToken(c.Request())
			if token == "" {
				return next(c)
			}

			claims, err := authn.Authenticate(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthenticated) {
					return next(c)
				}
				return err
			}

			setClaims(c, claims)
			return next(c)
		}
	}
}

// SessionToken reads the session cookie, falling back to a bearer
// Authorization header for non-browser clients.
func SessionToken(r *http.Request) string {
	if ck, err := r.Cookie(SessionCookieName); err == nil && ck.Value != "" {
		return ck.Value
	}

	parts := strings.SplitN(r.Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func setClaims(c echo.Context, claims *domain.Claims) {
	req := c.Request()
	c.SetRequest(req.WithContext(WithClaims(req.Context(), claims)))
}
