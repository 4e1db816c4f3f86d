package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/fjod/go_cart/storefront/internal/apperr"
	"github.com/fjod/go_cart/storefront/internal/cart/cache"
	"github.com/fjod/go_cart/storefront/internal/cart/domain"
	"github.com/fjod/go_cart/storefront/internal/cart/repository"
	"github.com/fjod/go_cart/storefront/internal/validation"
	"github.com/fjod/go_cart/storefront/pkg/logger"
)

const (
	maxSaveAttempts = 3
	loadTimeout     = 5 * time.Second
	fillTimeout     = 2 * time.Second
)

// ErrConcurrentUpdate is returned when the cart kept changing underneath an add.
var ErrConcurrentUpdate = errors.New("cart was modified concurrently, retry the request")

// PriceLookup supplies authoritative prices when carts are re-priced.
type PriceLookup interface {
	PriceOf(ctx context.Context, productID string) (decimal.Decimal, error)
}

type AddItemInput struct {
	ProductID string           `json:"productId" validate:"required"`
	Name      string           `json:"name"`
	Variant   string           `json:"variant" validate:"required"`
	Price     *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	Quantity  int              `json:"quantity" validate:"gte=1"`
}

type CartService struct {
	repo   repository.CartRepository
	cache  cache.CartCache
	sfg    singleflight.Group // Prevents cache stampede
	prices PriceLookup
	now    func() time.Time
}

type Option func(*CartService)

// WithRepricing takes line prices from prices instead of the caller.
func WithRepricing(prices PriceLookup) Option {
	return func(s *CartService) { s.prices = prices }
}

func WithClock(now func() time.Time) Option {
	return func(s *CartService) { s.now = now }
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, opts ...Option) *CartService {
	s := &CartService{
		repo:  repo,
		cache: cache,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetCart never fails for a missing cart; it returns an empty one instead.
func (s *CartService) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, sessionRequired()
	}
	log := logger.FromContext(ctx).WithField("session_id", sessionID)

	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(sessionID, func() (interface{}, error) {
		// Other callers share this flight, so it must not die with the first one.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		cart, err := s.cache.Get(fctx, sessionID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.WithError(err).Warn("cache get failed")
		}

		cart, errGet := s.repo.GetCart(fctx, sessionID)
		if errors.Is(errGet, repository.ErrCartNotFound) {
			return domain.NewCart(sessionID, s.now()), nil
		}
		if errGet != nil {
			log.WithError(errGet).Error("repo get cart failed")
			return nil, apperr.Transport("get cart", errGet)
		}

		go s.fillCache(log, sessionID, cart.Clone())

		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	// Callers sharing a flight must not share the aggregate.
	return v.(*domain.Cart).Clone(), nil
}

// fillCache stores c, then re-reads the stored version. Writers delete the key
// after saving, so a write that landed before the re-read is caught here and
// one that lands after it deletes the entry itself.
func (s *CartService) fillCache(log *logrus.Entry, sessionID string, c *domain.Cart) {
	ctx, cancel := context.WithTimeout(context.Background(), fillTimeout)
	defer cancel()

	if err := s.cache.Set(ctx, sessionID, c); err != nil {
		log.WithError(err).Warn("cache set failed")
		return
	}
	current, err := s.repo.GetCart(ctx, sessionID)
	if err == nil && current.Version == c.Version {
		return
	}
	if err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		log.WithError(err).Warn("cache fill recheck failed")
	}
	if errDel := s.cache.Delete(ctx, sessionID); errDel != nil {
		log.WithError(errDel).Warn("stale cache entry not removed")
	}
}

// AddItem sets the quantity of (productId, variant) in the cart, creating the
// line or the cart as needed. A concurrent write triggers a re-read and retry.
func (s *CartService) AddItem(ctx context.Context, sessionID string, in AddItemInput) (*domain.Cart, error) {
	in.ProductID = strings.TrimSpace(in.ProductID)
	in.Variant = strings.TrimSpace(in.Variant)
	in.Name = strings.TrimSpace(in.Name)

	v := apperr.NewValidationError()
	if strings.TrimSpace(sessionID) == "" {
		v.Add("sessionId", "is required")
	}
	validation.Into(v, in)
	if in.Price == nil && s.prices == nil {
		v.Add("price", "is required")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	price, err := s.priceFor(ctx, in)
	if err != nil {
		return nil, err
	}
	line := domain.LineItem{
		ProductID: in.ProductID,
		Name:      in.Name,
		Variant:   in.Variant,
		Price:     price,
		Quantity:  in.Quantity,
	}

	return s.mutate(ctx, sessionID, func(cart *domain.Cart) bool {
		cart.SetItem(line, s.now())
		return true
	})
}

// RemoveItem drops one (productId, variant) line. A missing cart or line is
// not an error.
func (s *CartService) RemoveItem(ctx context.Context, sessionID, productID, variant string) error {
	if strings.TrimSpace(sessionID) == "" {
		return sessionRequired()
	}
	_, err := s.mutate(ctx, sessionID, func(cart *domain.Cart) bool {
		return cart.RemoveItem(productID, variant, s.now())
	})
	return err
}

// mutate applies change to the stored cart and saves it under the version
// check, re-reading on conflict. change reports whether there is anything to save.
func (s *CartService) mutate(ctx context.Context, sessionID string, change func(*domain.Cart) bool) (*domain.Cart, error) {
	log := logger.FromContext(ctx).WithField("session_id", sessionID)
	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		cart, err := s.load(ctx, sessionID)
		if err != nil {
			log.WithError(err).Error("repo get cart failed")
			return nil, apperr.Transport("get cart", err)
		}

		if !change(cart) {
			return cart, nil
		}

		err = s.repo.SaveCart(ctx, cart)
		if errors.Is(err, repository.ErrVersionConflict) {
			log.WithField("attempt", attempt).Warn("cart version conflict, retrying")
			continue
		}
		if err != nil {
			log.WithError(err).Error("repo save cart failed")
			return nil, apperr.Transport("save cart", err)
		}

		s.invalidateCache(ctx, sessionID)
		return cart, nil
	}

	s.invalidateCache(ctx, sessionID)
	return nil, ErrConcurrentUpdate
}

func (s *CartService) ClearCart(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return sessionRequired()
	}
	if err := s.repo.DeleteCart(ctx, sessionID); err != nil {
		logger.FromContext(ctx).WithError(err).WithField("session_id", sessionID).Error("repo delete cart failed")
		return apperr.Transport("delete cart", err)
	}

	s.invalidateCache(ctx, sessionID)
	return nil
}

// load reads the stored cart, bypassing the cache so the version is current.
func (s *CartService) load(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, sessionID)
	if errors.Is(err, repository.ErrCartNotFound) {
		return domain.NewCart(sessionID, s.now()), nil
	}
	return cart, err
}

func (s *CartService) priceFor(ctx context.Context, in AddItemInput) (decimal.Decimal, error) {
	if s.prices == nil {
		return *in.Price, nil
	}
	price, err := s.prices.PriceOf(ctx, in.ProductID)
	if err != nil {
		return decimal.Zero, err
	}
	return price, nil
}

func (s *CartService) invalidateCache(ctx context.Context, sessionID string) {
	delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.cache.Delete(delCtx, sessionID); err != nil {
		logger.FromContext(ctx).WithError(err).WithField("session_id", sessionID).Warn("cache invalidate failed")
	}
}

func sessionRequired() error {
	v := apperr.NewValidationError()
	v.Add("sessionId", "is required")
	return v
}
