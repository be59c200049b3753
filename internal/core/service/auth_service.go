package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/stockroom/inventory-api/internal/core/domain"
	"github.com/stockroom/inventory-api/internal/core/ports"
)

// timingPassword is hashed once so unknown-email logins spend the same bcrypt
// work as wrong-password logins.
const timingPassword = "inventory-login-timing-equalizer"

// AuthService implements registration, login, logout and session checks.
type AuthService struct {
	repo    ports.UserRepository
	hasher  ports.PasswordHasher
	tokens  ports.TokenService
	revoked ports.RevocationStore
	limiter ports.LoginLimiter
	log     zerolog.Logger

	allowAdminSelfRegistration bool
	dummyHash                  string
	now                        func() time.Time
}

// AuthOption customises an AuthService.
type AuthOption func(*AuthService)

// WithRevocationStore enables server-side logout.
func WithRevocationStore(store ports.RevocationStore) AuthOption {
	return func(s *AuthService) { s.revoked = store }
}

// WithLoginLimiter enables login throttling.
func WithLoginLimiter(limiter ports.LoginLimiter) AuthOption {
	return func(s *AuthService) { s.limiter = limiter }
}

// WithAdminSelfRegistration lets anonymous callers register admin accounts.
func WithAdminSelfRegistration(allow bool) AuthOption {
	return func(s *AuthService) { s.allowAdminSelfRegistration = allow }
}

func NewAuthService(
	repo ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenService,
	log zerolog.Logger,
	opts ...AuthOption,
) *AuthService {
	s := &AuthService{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if h, err := hasher.Hash(timingPassword); err == nil {
		s.dummyHash = h
	}
	return s
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.NewValidationError("email and password are required")
	}

	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}
	if role == domain.RoleAdmin && !s.allowAdminSelfRegistration && !in.Actor.IsAdmin() {
		return nil, fmt.Errorf("%w: admin role requires an admin session", domain.ErrForbidden)
	}

	_, err = s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, domain.ErrUserExists
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	user, err := s.repo.Create(ctx, &domain.User{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	ev := s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role))
	if in.Actor != nil {
		ev = ev.Str("created_by", in.Actor.UserID)
	}
	ev.Msg("user registered")

	return result, nil
}

// Login never reveals whether the email exists: unknown accounts and wrong
// passwords both yield domain.ErrInvalidCredentials after equal hashing work.
func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.NewValidationError("email and password are required")
	}

	key := throttleKey(email, in.ClientIP)
	if s.throttled(ctx, key) {
		s.log.Warn().Str("email", email).Str("client_ip", in.ClientIP).Msg("login throttled")
		return nil, domain.ErrRateLimited
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.Verify(in.Password, s.dummyHash)
			s.recordFailure(ctx, key)
			s.log.Info().Msg("login failed")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		s.recordFailure(ctx, key)
		s.log.Info().Str("user_id", user.ID).Msg("login failed")
		return nil, domain.ErrInvalidCredentials
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	s.resetFailures(ctx, key)

	s.log.Info().Str("user_id", user.ID).Msg("user logged in")
	return result, nil
}

// throttleKey scopes failure counting to one account from one client.
func throttleKey(email, clientIP string) string {
	if clientIP == "" {
		return email
	}
	return email + "|" + clientIP
}

// Limiter errors never block a login.
func (s *AuthService) throttled(ctx context.Context, key string) bool {
	if s.limiter == nil {
		return false
	}
	blocked, err := s.limiter.Blocked(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Msg("login limiter unavailable, allowing attempt")
		return false
	}
	return blocked
}

func (s *AuthService) recordFailure(ctx context.Context, key string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.RecordFailure(ctx, key); err != nil {
		s.log.Warn().Err(err).Msg("login limiter: record failure")
	}
}

func (s *AuthService) resetFailures(ctx context.Context, key string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Reset(ctx, key); err != nil {
		s.log.Warn().Err(err).Msg("login limiter: reset")
	}
}

// Logout revokes the token until its natural expiry. Tokens that no longer
// verify need no revocation, so Logout succeeds for them too.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" || s.revoked == nil {
		return nil
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil
	}
	if err := s.revoked.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.log.Info().Str("user_id", claims.UserID).Msg("session revoked")
	return nil
}

func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	if s.revoked != nil && claims.TokenID != "" {
		revoked, err := s.revoked.IsRevoked(ctx, claims.TokenID)
		if err != nil {
			return nil, fmt.Errorf("authenticate: %w", err)
		}
		if revoked {
			return nil, fmt.Errorf("%w: token revoked", domain.ErrUnauthenticated)
		}
	}
	return claims, nil
}

func (s *AuthService) issue(user *domain.User) (*ports.AuthResult, error) {
	token, expiresAt, err := s.tokens.Sign(domain.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
