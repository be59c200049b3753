package ports

import (
	"context"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

// UserRepository defines the persistence operations for user accounts.
type UserRepository interface {
	// FindByEmail returns domain.ErrUserNotFound when no account matches.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create returns domain.ErrUserExists when the email is already taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}
