package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stockroom/inventory-api/internal/core/domain"
	"github.com/stockroom/inventory-api/internal/core/ports"
)

const collectionItems = "items"

type ItemRepository struct {
	col     *mongo.Collection
	timeout time.Duration
}

func NewItemRepository(db *mongo.Database, timeout time.Duration) *ItemRepository {
	return &ItemRepository{col: db.Collection(collectionItems), timeout: opTimeout(timeout)}
}

type mongoItem struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	Category    string             `bson:"category"`
	Quantity    int                `bson:"quantity"`
	Price       float64            `bson:"price"`
	CreatedBy   primitive.ObjectID `bson:"created_by"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (m mongoItem) toDomain() *domain.Item {
	return &domain.Item{
		ID:          m.ID.Hex(),
		Name:        m.Name,
		Description: m.Description,
		Category:    m.Category,
		Quantity:    m.Quantity,
		Price:       m.Price,
		CreatedBy:   m.CreatedBy.Hex(),
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

// Create inserts a new item document.
func (r *ItemRepository) Create(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	owner, err := primitive.ObjectIDFromHex(item.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("insert item: invalid owner id %q: %w", item.CreatedBy, err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	doc := mongoItem{
		Name:        item.Name,
		Description: item.Description,
		Category:    item.Category,
		Quantity:    item.Quantity,
		Price:       item.Price,
		CreatedBy:   owner,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toDomain(), nil
}

func (r *ItemRepository) FindByID(ctx context.Context, id string) (*domain.Item, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrItemNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var m mongoItem
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrItemNotFound
		}
		return nil, fmt.Errorf("find item: %w", err)
	}
	return m.toDomain(), nil
}

// List returns items matching the filter, newest first.
func (r *ItemRepository) List(ctx context.Context, filter ports.ItemFilter) ([]*domain.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, searchFilter(filter.Search), opts)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoItem
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}

	items := make([]*domain.Item, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.toDomain())
	}
	return items, nil
}

// Update applies a partial update atomically and returns the new document.
func (r *ItemRepository) Update(ctx context.Context, id string, update ports.ItemUpdate, updatedAt time.Time) (*domain.Item, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrItemNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var m mongoItem
	err = r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, updateDocument(update, updatedAt), opts).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrItemNotFound
		}
		return nil, fmt.Errorf("update item: %w", err)
	}
	return m.toDomain(), nil
}

func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrItemNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

// EnsureIndexes creates the index backing the newest-first listing.
func (r *ItemRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_by", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
