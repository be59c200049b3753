package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stockroom/inventory-api/internal/api/middleware"
	"github.com/stockroom/inventory-api/internal/core/domain"
)

// ctxClaims returns the session claims injected by the Auth middleware. A
// missing user id means the route was mounted without Auth.
func ctxClaims(c echo.Context) (*domain.Claims, error) {
	claims := middleware.ClaimsFrom(c.Request().Context())
	if claims == nil || claims.UserID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return claims, nil
}

// bindAndValidate decodes the request body into req and validates it.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.NewValidationError("invalid request body")
	}
	return c.Validate(req)
}
