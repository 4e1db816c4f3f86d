package repository

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/storefront/internal/cart/domain"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	// ErrVersionConflict means the cart changed since it was read.
	ErrVersionConflict = errors.New("cart version conflict")
)

// CartRepository defines the interface for cart data operations
// Consumers define this interface, not the MongoDB implementation
type CartRepository interface {
	GetCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	// SaveCart writes the whole aggregate if its stored version still equals
	// cart.Version, then increments cart.Version.
	SaveCart(ctx context.Context, cart *domain.Cart) error
	// DeleteCart succeeds whether or not the cart exists.
	DeleteCart(ctx context.Context, sessionID string) error
}
