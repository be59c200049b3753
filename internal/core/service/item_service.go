package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stockroom/inventory-api/internal/core/domain"
	"github.com/stockroom/inventory-api/internal/core/ports"
)

type ItemService struct {
	repo   ports.ItemRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewItemService(repo ports.ItemRepository, logger zerolog.Logger) *ItemService {
	return &ItemService{repo: repo, logger: logger, now: time.Now}
}

// ListItems returns items whose name, description or category contains the
// search term, newest first. No match yields an empty slice.
func (s *ItemService) ListItems(ctx context.Context, search string) ([]*domain.Item, error) {
	items, err := s.repo.List(ctx, ports.ItemFilter{Search: strings.TrimSpace(search)})
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	if items == nil {
		items = []*domain.Item{}
	}
	return items, nil
}

func (s *ItemService) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.NewValidationError("item id is required")
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

func (s *ItemService) CreateItem(ctx context.Context, in ports.CreateItemInput) (*domain.Item, error) {
	item := &domain.Item{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Category:    in.Category,
		Quantity:    in.Quantity,
		Price:       in.Price,
		CreatedBy:   in.CreatedBy,
	}
	if err := validateItem(item); err != nil {
		return nil, err
	}
	if item.CreatedBy == "" {
		return nil, fmt.Errorf("create item: %w", domain.ErrUnauthenticated)
	}

	now := s.now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	created, err := s.repo.Create(ctx, item)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create item")
		return nil, fmt.Errorf("create item: %w", err)
	}

	s.logger.Info().Str("item_id", created.ID).Str("created_by", created.CreatedBy).Msg("item created")
	return created, nil
}

// UpdateItem applies the supplied fields only.
func (s *ItemService) UpdateItem(ctx context.Context, in ports.UpdateItemInput) (*domain.Item, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, domain.NewValidationError("item id is required")
	}

	upd := in.ItemUpdate
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		upd.Name = &name
	}
	if err := validateUpdate(upd); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, in.ID, upd, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}

	s.logger.Info().Str("item_id", updated.ID).Msg("item updated")
	return updated, nil
}

func (s *ItemService) DeleteItem(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.NewValidationError("item id is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	s.logger.Info().Str("item_id", id).Msg("item deleted")
	return nil
}

func validateItem(item *domain.Item) error {
	switch {
	case item.Name == "":
		return domain.NewValidationError("name is required")
	case item.Description == "":
		return domain.NewValidationError("description is required")
	case item.Category == "":
		return domain.NewValidationError("category is required")
	case item.Quantity < 0:
		return domain.NewValidationError("quantity must be at least 0")
	case item.Price < 0:
		return domain.NewValidationError("price must be at least 0")
	}
	return nil
}

func validateUpdate(u ports.ItemUpdate) error {
	switch {
	case u.Name != nil && *u.Name == "":
		return domain.NewValidationError("name cannot be empty")
	case u.Description != nil && *u.Description == "":
		return domain.NewValidationError("description cannot be empty")
	case u.Category != nil && *u.Category == "":
		return domain.NewValidationError("category cannot be empty")
	case u.Quantity != nil && *u.Quantity < 0:
		return domain.NewValidationError("quantity must be at least 0")
	case u.Price != nil && *u.Price < 0:
		return domain.NewValidationError("price must be at least 0")
	}
	return nil
}
