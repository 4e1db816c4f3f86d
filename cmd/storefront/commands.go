package main

import (
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/fjod/go_cart/storefront/internal/catalog/domain"
	"github.com/fjod/go_cart/storefront/internal/catalog/repository"
	"github.com/fjod/go_cart/storefront/internal/catalog/seed"
	"github.com/fjod/go_cart/storefront/internal/catalog/service"
	"github.com/fjod/go_cart/storefront/pkg/logger"
)

func migrateAction(c *cli.Context) error {
	d, err := setup(c.Context, true)
	if err != nil {
		return errors.Wrap(err, "migrate")
	}
	d.close()
	return nil
}

func seedAction(c *cli.Context) error {
	d, err := setup(c.Context, true)
	if err != nil {
		return errors.Wrap(err, "seed")
	}
	defer d.close()

	now := time.Now().UTC()
	var products []*domain.Product
	if path := c.String("file"); path != "" {
		products, err = seed.Load(path, now)
	} else {
		products, err = seed.Default(now)
	}
	if err != nil {
		return errors.Wrap(err, "seed: read catalog")
	}

	catalog := service.NewCatalogService(repository.NewMongoRepository(d.db))
	ctx := logger.WithLogger(c.Context, d.log.WithField("command", "seed"))
	return errors.Wrap(seed.Run(ctx, catalog, products, c.Bool("keep")), "seed")
}
