package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stockroom/inventory-api/internal/api/metrics"
	"github.com/stockroom/inventory-api/internal/api/middleware"
	"github.com/stockroom/inventory-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	cookies     SessionCookies
}

func NewAuthHandler(authService ports.AuthService, cookies SessionCookies) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies}
}

// Register creates a new user account and starts a session.
//
// @Summary      Register a new user
// @Description  Requesting the admin role requires an admin session unless self-registration of admins is enabled.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.ObserveAuth("register", err)
		return err
	}

	res, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Actor:    middleware.ClaimsFrom(c.Request().Context()),
	})
	metrics.ObserveAuth("register", err)
	if err != nil {
		return err
	}

	h.cookies.Issue(c, res.Token, res.ExpiresAt)
	return c.JSON(http.StatusCreated, authResponse{
		Message: "user registered",
		User:    toUserResponse(res.User),
	})
}

// Login authenticates a user and sets the session cookie.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.ObserveAuth("login", err)
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), ports.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		ClientIP: c.RealIP(),
	})
	metrics.ObserveAuth("login", err)
	if err != nil {
		return err
	}

	h.cookies.Issue(c, res.Token, res.ExpiresAt)
	return c.JSON(http.StatusOK, authResponse{
		Message: "login successful",
		User:    toUserResponse(res.User),
	})
}

// Logout clears the session cookie and revokes the presented token.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Failure      500  {object}  errorResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	h.cookies.Clear(c)

	err := h.authService.Logout(c.Request().Context(), middleware.SessionToken(c.Request()))
	metrics.ObserveAuth("logout", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

// Me returns the identity of the current session.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  authResponse
// @Failure      401  {object}  errorResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResponse{User: userResponse{
		ID:    claims.UserID,
		Email: claims.Email,
		Role:  string(claims.Role),
	}})
}
