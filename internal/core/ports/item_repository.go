package ports

import (
	"context"
	"time"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

// ItemFilter carries the query parameters for listing items.
type ItemFilter struct {
	// Search is matched case-insensitively as a substring of name,
	// description or category. Empty lists everything.
	Search string
}

// ItemUpdate holds the fields of a partial update; nil fields are left as is.
type ItemUpdate struct {
	Name        *string
	Description *string
	Category    *string
	Quantity    *int
	Price       *float64
}

// ItemRepository defines persistence operations for inventory items.
// Lookups by an unknown or malformed id return domain.ErrItemNotFound.
type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) (*domain.Item, error)
	FindByID(ctx context.Context, id string) (*domain.Item, error)
	// List returns matching items newest first.
	List(ctx context.Context, filter ItemFilter) ([]*domain.Item, error)
	Update(ctx context.Context, id string, update ItemUpdate, updatedAt time.Time) (*domain.Item, error)
	Delete(ctx context.Context, id string) error
}
