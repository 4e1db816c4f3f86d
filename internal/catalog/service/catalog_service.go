package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fjod/go_cart/storefront/internal/apperr"
	"github.com/fjod/go_cart/storefront/internal/catalog/domain"
	"github.com/fjod/go_cart/storefront/internal/catalog/repository"
	"github.com/fjod/go_cart/storefront/pkg/logger"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

type CatalogService struct {
	repo repository.ProductRepository
	now  func() time.Time
}

func NewCatalogService(repo repository.ProductRepository) *CatalogService {
	return &CatalogService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// ParsePaging turns raw query values into a page and limit. Anything missing,
// non-numeric or below 1 falls back to the default; limit is capped.
func ParsePaging(rawPage, rawLimit string) (page, limit int) {
	page = parsePositive(rawPage, DefaultPage)
	limit = parsePositive(rawLimit, DefaultLimit)
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

func parsePositive(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func (s *CatalogService) ListProducts(ctx context.Context, page, limit int) (*domain.Page, error) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("count products failed")
		return nil, apperr.Transport("count products", err)
	}

	products, err := s.repo.List(ctx, int64(page-1)*int64(limit), int64(limit))
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("list products failed")
		return nil, apperr.Transport("list products", err)
	}

	return &domain.Page{
		Products:      products,
		CurrentPage:   page,
		TotalPages:    int((total + int64(limit) - 1) / int64(limit)),
		TotalProducts: total,
	}, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.Get(ctx, oid)
	if err != nil {
		return nil, s.mapErr(ctx, "get product", id, err)
	}
	return p, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, fields domain.ProductFields) (*domain.Product, error) {
	p, err := domain.NewProduct(fields, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		logger.FromContext(ctx).WithError(err).Error("create product failed")
		return nil, apperr.Transport("create product", err)
	}
	return p, nil
}

// UpdateProduct applies the supplied fields and re-validates the merged record.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, patch domain.ProductFields) (*domain.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.Get(ctx, oid)
	if err != nil {
		return nil, s.mapErr(ctx, "get product", id, err)
	}

	p.Apply(patch)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.now()

	if err := s.repo.Replace(ctx, p); err != nil {
		return nil, s.mapErr(ctx, "update product", id, err)
	}
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, oid); err != nil {
		return s.mapErr(ctx, "delete product", id, err)
	}
	return nil
}

// PriceOf returns the current catalog price of a product.
func (s *CatalogService) PriceOf(ctx context.Context, productID string) (decimal.Decimal, error) {
	p, err := s.GetProduct(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return p.Price, nil
}

// Replace swaps the whole catalog for products, or appends them when keep is set.
// It returns how many products were removed.
func (s *CatalogService) Replace(ctx context.Context, products []*domain.Product, keep bool) (int64, error) {
	var removed int64
	if !keep {
		n, err := s.repo.DeleteAll(ctx)
		if err != nil {
			return 0, apperr.Transport("delete products", err)
		}
		removed = n
	}
	for _, p := range products {
		if err := s.repo.Create(ctx, p); err != nil {
			return removed, apperr.Transport("create product", err)
		}
	}
	return removed, nil
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperr.BadRequest("invalid product id %q", id)
	}
	return oid, nil
}

func (s *CatalogService) mapErr(ctx context.Context, op, id string, err error) error {
	if errors.Is(err, repository.ErrProductNotFound) {
		return apperr.NotFound("product %s", id)
	}
	logger.FromContext(ctx).WithError(err).WithField("product_id", id).Errorf("%s failed", op)
	return apperr.Transport(op, err)
}
