package ports

import (
	"context"
	"time"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

// PasswordHasher produces salted one-way digests.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

// TokenService issues and verifies signed session tokens.
type TokenService interface {
	// Sign embeds UserID, Email and Role from claims and returns the token
	// with its absolute expiry.
	Sign(claims domain.Claims) (string, time.Time, error)
	// Verify returns an error matching domain.ErrInvalidToken for malformed,
	// tampered or expired tokens.
	Verify(token string) (*domain.Claims, error)
}

// RevocationStore remembers token ids that were logged out before expiry.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// LoginLimiter throttles failed login attempts per key. Only failures are
// counted and a successful login clears the key.
type LoginLimiter interface {
	Blocked(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}
