package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

// DefaultTokenTTL is the lifetime of a session token.
const DefaultTokenTTL = 7 * 24 * time.Hour

// ErrMissingSigningKey is returned when the service is built without a key.
var ErrMissingSigningKey = errors.New("token signing key is not configured")

type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// TokenService signs and verifies HS256 session tokens. It holds no mutable
// state after construction and is safe for concurrent use.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService refuses an empty or whitespace-only secret. A non-positive
// ttl falls back to DefaultTokenTTL.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSigningKey
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL returns the lifetime applied to issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

func (s *TokenService) Sign(c domain.Claims) (string, time.Time, error) {
	if c.UserID == "" || !c.Role.Valid() {
		return "", time.Time{}, fmt.Errorf("sign token: incomplete claims")
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   c.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: c.Email,
		Role:  string(c.Role),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	// Registered claims carry second precision.
	return signed, claims.ExpiresAt.Time, nil
}

func (s *TokenService) Verify(token string) (*domain.Claims, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}

	role := domain.Role(claims.Role)
	if claims.Subject == "" || !role.Valid() {
		return nil, fmt.Errorf("%w: incomplete claims", domain.ErrInvalidToken)
	}

	return &domain.Claims{
		UserID:    claims.Subject,
		Email:     claims.Email,
		Role:      role,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
