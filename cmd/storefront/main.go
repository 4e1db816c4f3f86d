package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/fjod/go_cart/storefront/internal/money"
)

func main() {
	money.UseJSONNumbers()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "storefront",
		Usage: "sneaker store API",
		// serve is the default when no command is given.
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API, the health server and the cart poller",
				Action: serveAction,
			},
			{
				Name:   "migrate",
				Usage:  "apply database migrations and exit",
				Action: migrateAction,
			},
			{
				Name:  "seed",
				Usage: "replace the catalog with the seed products",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "file",
						Usage: "YAML catalog to load instead of the built-in one",
					},
					&cli.BoolFlag{
						Name:  "keep",
						Usage: "add to the existing catalog instead of replacing it",
					},
				},
				Action: seedAction,
			},
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logrus.WithError(err).Fatal("storefront exited")
	}
}
