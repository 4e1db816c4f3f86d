package main

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/store"
	"github.com/fjod/go_cart/storefront/pkg/logger"
)

// deps holds the long-lived clients shared by every command.
type deps struct {
	cfg   *config.Config
	log   *logrus.Logger
	db    *mongo.Database
	redis *redis.Client
}

func setup(ctx context.Context, migrateDB bool) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	db, err := store.ConnectMongoDB(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, err
	}
	log.WithField("database", cfg.MongoDatabase).Info("connected to MongoDB")

	d := &deps{cfg: cfg, log: log, db: db}

	if migrateDB {
		if err := store.RunMigrations(db); err != nil {
			d.close()
			return nil, err
		}
		log.Info("migrations applied")
	}

	if cfg.RedisAddr != "" {
		d.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if err := d.redis.Ping(connectCtx).Err(); err != nil {
			d.close()
			return nil, errors.Wrapf(err, "redis ping %s", cfg.RedisAddr)
		}
		log.WithField("addr", cfg.RedisAddr).Info("connected to Redis")
	} else {
		log.Info("REDIS_ADDR not set, cart cache disabled and sessions kept in memory")
	}

	return d, nil
}

func (d *deps) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			d.log.WithError(err).Warn("closing Redis client")
		}
	}
	if err := d.db.Client().Disconnect(ctx); err != nil {
		d.log.WithError(err).Warn("disconnecting MongoDB")
	}
}
