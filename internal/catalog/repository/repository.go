package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fjod/go_cart/storefront/internal/catalog/domain"
)

var ErrProductNotFound = errors.New("product not found")

// ProductRepository defines the interface for catalog data operations
type ProductRepository interface {
	List(ctx context.Context, skip, limit int64) ([]*domain.Product, error)
	Count(ctx context.Context) (int64, error)
	Get(ctx context.Context, id primitive.ObjectID) (*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	Replace(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteAll(ctx context.Context) (int64, error)
}
