package ports

import (
	"context"
	"time"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

// RegisterInput carries a sign-up request. Actor is the caller's verified
// session, if any; it decides whether an admin account may be requested.
type RegisterInput struct {
	Email    string
	Password string
	Role     string
	Actor    *domain.Claims
}

// LoginInput carries a login attempt. ClientIP scopes throttling so failures
// from one client cannot lock the account out for others.
type LoginInput struct {
	Email    string
	Password string
	ClientIP string
}

// AuthResult is returned on successful registration or login.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)
	Logout(ctx context.Context, token string) error
	// Authenticate verifies a session token and returns its claims. Invalid,
	// expired and revoked tokens yield an error matching domain.ErrUnauthenticated.
	Authenticate(ctx context.Context, token string) (*domain.Claims, error)
}
