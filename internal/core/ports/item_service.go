package ports

import (
	"context"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

// CreateItemInput carries all data needed to create an item.
type CreateItemInput struct {
	Name        string
	Description string
	Category    string
	Quantity    int
	Price       float64
	CreatedBy   string
}

// UpdateItemInput identifies an item and the fields to change.
type UpdateItemInput struct {
	ID string
	ItemUpdate
}

// ItemService defines use-case operations for inventory items.
type ItemService interface {
	ListItems(ctx context.Context, search string) ([]*domain.Item, error)
	GetItem(ctx context.Context, id string) (*domain.Item, error)
	CreateItem(ctx context.Context, in CreateItemInput) (*domain.Item, error)
	UpdateItem(ctx context.Context, in UpdateItemInput) (*domain.Item, error)
	DeleteItem(ctx context.Context, id string) error
}
