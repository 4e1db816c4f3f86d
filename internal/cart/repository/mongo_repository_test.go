package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront/internal/cart/domain"
	"github.com/fjod/go_cart/storefront/internal/testutil"
)

func setupTestDB(t *testing.T) (CartRepository, func()) {
	db, cleanup := testutil.StartMongo(t)
	return NewMongoRepository(db), cleanup
}

func item(productID, variant string, qty int) domain.LineItem {
	return domain.LineItem{ProductID: productID, Name: "Chuck 70", Variant: variant, Price: decimal.NewFromInt(85), Quantity: qty}
}

func TestGetCart_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	cart, err := repo.GetCart(context.Background(), "nonexistent")

	assert.ErrorIs(t, err, ErrCartNotFound)
	assert.Nil(t, cart)
}

func TestSaveCart_NewCart(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	cart := domain.NewCart("session123", now)
	cart.SetItem(item("p1", "Black", 3), now)
	require.NoError(t, repo.SaveCart(ctx, cart))
	assert.Equal(t, int64(1), cart.Version)

	got, err := repo.GetCart(ctx, "session123")
	require.NoError(t, err)
	assert.Equal(t, "session123", got.SessionID)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 3, got.Items[0].Quantity)
	assert.Equal(t, "255.00", got.Items[0].Total.StringFixed(2))
	assert.Equal(t, int64(1), got.Version)
}

func TestSaveCart_ExistingItem_UpdatesQuantity(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	now := time.Now().UTC()

	cart := domain.NewCart("session123", now)
	cart.SetItem(item("p1", "Black", 2), now)
	require.NoError(t, repo.SaveCart(ctx, cart))

	cart.SetItem(item("p1", "Black", 5), now)
	require.NoError(t, repo.SaveCart(ctx, cart))
	assert.Equal(t, int64(2), cart.Version)

	got, err := repo.GetCart(ctx, "session123")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 5, got.Items[0].Quantity)
}

func TestSaveCart_StaleVersionConflicts(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	now := time.Now().UTC()

	cart := domain.NewCart("session123", now)
	require.NoError(t, repo.SaveCart(ctx, cart))

	first, err := repo.GetCart(ctx, "session123")
	require.NoError(t, err)
	second, err := repo.GetCart(ctx, "session123")
	require.NoError(t, err)

	first.SetItem(item("p1", "Black", 1), now)
	require.NoError(t, repo.SaveCart(ctx, first))

	second.SetItem(item("p2", "White", 1), now)
	assert.ErrorIs(t, repo.SaveCart(ctx, second), ErrVersionConflict)
}

func TestSaveCart_ConcurrentCreateConflicts(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.SaveCart(ctx, domain.NewCart("session123", time.Now())))
	assert.ErrorIs(t, repo.SaveCart(ctx, domain.NewCart("session123", time.Now())), ErrVersionConflict)
}

func TestDeleteCart_Idempotent(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.SaveCart(ctx, domain.NewCart("session123", time.Now())))
	require.NoError(t, repo.DeleteCart(ctx, "session123"))
	require.NoError(t, repo.DeleteCart(ctx, "session123"))

	_, err := repo.GetCart(ctx, "session123")
	assert.ErrorIs(t, err, ErrCartNotFound)
}
