package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront/internal/catalog/domain"
)

type recordingCatalog struct {
	products []*domain.Product
	keep     bool
}

func (r *recordingCatalog) Replace(_ context.Context, products []*domain.Product, keep bool) (int64, error) {
	r.products = products
	r.keep = keep
	return 7, nil
}

func TestDefault(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	products, err := Default(now)
	require.NoError(t, err)
	require.Len(t, products, 4)

	assert.Equal(t, "Converse Chuck 70 Hi Black", products[0].Name)
	assert.Equal(t, "85.00", products[0].Price.StringFixed(2))
	assert.Equal(t, 50, products[0].Stock)
	assert.Equal(t, "Black/White", products[3].DefaultVariant)
	assert.True(t, products[0].CreatedAt.After(products[1].CreatedAt))
}

func TestParse_RejectsInvalidEntry(t *testing.T) {
	data := []byte(`
products:
  - name: Broken
    brand: X
    description: d
    price: "10"
    image: i
    variants: [A]
    defaultVariant: B
`)
	_, err := Parse(data, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Broken")
}

func TestParse_RejectsBadPrice(t *testing.T) {
	_, err := Parse([]byte("products:\n  - name: X\n    price: ten\n"), time.Now())
	assert.ErrorContains(t, err, "invalid price")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, defaultCatalog, 0o600))

	products, err := Load(path, time.Now())
	require.NoError(t, err)
	assert.Len(t, products, 4)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"), time.Now())
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	cat := &recordingCatalog{}
	products, err := Default(time.Now())
	require.NoError(t, err)

	require.NoError(t, Run(context.Background(), cat, products, true))
	assert.Len(t, cat.products, 4)
	assert.True(t, cat.keep)
}
