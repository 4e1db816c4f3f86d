// Package seed loads catalog products from YAML. The default catalog is
// embedded in the binary.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/fjod/go_cart/storefront/internal/catalog/domain"
	"github.com/fjod/go_cart/storefront/pkg/logger"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type file struct {
	Products []entry `yaml:"products"`
}

type entry struct {
	Name           string   `yaml:"name"`
	Brand          string   `yaml:"brand"`
	Description    string   `yaml:"description"`
	Price          string   `yaml:"price"`
	Image          string   `yaml:"image"`
	Variants       []string `yaml:"variants"`
	DefaultVariant string   `yaml:"defaultVariant"`
	Stock          *int     `yaml:"stock"`
}

// Catalog is what the seeder writes to.
type Catalog interface {
	Replace(ctx context.Context, products []*domain.Product, keep bool) (int64, error)
}

// Default parses the embedded catalog.
func Default(now time.Time) ([]*domain.Product, error) {
	return Parse(defaultCatalog, now)
}

func Load(path string, now time.Time) ([]*domain.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data, now)
}

// Parse validates every entry. Creation times are spaced a millisecond apart
// so the listing keeps file order.
func Parse(data []byte, now time.Time) ([]*domain.Product, error) {
	var doc file
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	products := make([]*domain.Product, 0, len(doc.Products))
	for i, e := range doc.Products {
		price, err := decimal.NewFromString(e.Price)
		if err != nil {
			return nil, fmt.Errorf("product %d (%s): invalid price %q", i, e.Name, e.Price)
		}
		fields := domain.ProductFields{
			Name:           &e.Name,
			Brand:          &e.Brand,
			Description:    &e.Description,
			Price:          &price,
			Image:          &e.Image,
			Variants:       e.Variants,
			DefaultVariant: &e.DefaultVariant,
			Stock:          e.Stock,
		}
		createdAt := now.Add(-time.Duration(i) * time.Millisecond)
		p, err := domain.NewProduct(fields, createdAt)
		if err != nil {
			return nil, fmt.Errorf("product %d (%s): %w", i, e.Name, err)
		}
		products = append(products, p)
	}
	return products, nil
}

// Run writes products to the catalog, replacing the current one unless keep is set.
func Run(ctx context.Context, catalog Catalog, products []*domain.Product, keep bool) error {
	log := logger.FromContext(ctx)

	removed, err := catalog.Replace(ctx, products, keep)
	if err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	if !keep {
		log.WithField("count", removed).Info("cleared existing products")
	}
	log.WithField("count", len(products)).Info("created products")
	return nil
}
