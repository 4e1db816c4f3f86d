package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/fjod/go_cart/storefront/internal/cart/cache"
	"github.com/fjod/go_cart/storefront/internal/cart/poller"
	cartrepo "github.com/fjod/go_cart/storefront/internal/cart/repository"
	cartservice "github.com/fjod/go_cart/storefront/internal/cart/service"
	catalogrepo "github.com/fjod/go_cart/storefront/internal/catalog/repository"
	catalogservice "github.com/fjod/go_cart/storefront/internal/catalog/service"
	"github.com/fjod/go_cart/storefront/internal/checkout/policy"
	"github.com/fjod/go_cart/storefront/internal/checkout/publisher"
	checkoutservice "github.com/fjod/go_cart/storefront/internal/checkout/service"
	storehttp "github.com/fjod/go_cart/storefront/internal/http"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"github.com/fjod/go_cart/storefront/internal/notification"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/pkg/circuitbreaker"
)

func serveAction(c *cli.Context) error {
	d, err := setup(c.Context, true)
	if err != nil {
		return errors.Wrap(err, "serve")
	}
	defer d.close()
	cfg, log := d.cfg, d.log

	m := metrics.New()

	catalog := catalogservice.NewCatalogService(catalogrepo.NewMongoRepository(d.db))

	var (
		cartCache    cache.CartCache = cache.NopCache{}
		sessionStore session.Store   = session.NewMemoryStore()
	)
	if d.redis != nil {
		cartCache = cache.NewRedisCache(d.redis)
		sessionStore = session.NewRedisStore(d.redis)
	}

	var cartOpts []cartservice.Option
	if cfg.CartReprice {
		cartOpts = append(cartOpts, cartservice.WithRepricing(catalog))
	}
	carts := cartservice.NewCartService(cartrepo.NewMongoRepository(d.db), cartCache, cartOpts...)

	transport := notification.NewBreakerTransport(
		notification.NewSMTPTransport(notification.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			User:     cfg.Mail.User,
			Password: cfg.Mail.Password,
			Timeout:  cfg.Mail.Timeout,
		}),
		circuitbreaker.Settings{
			OnStateChange: func(name, from, to string) {
				log.WithFields(logrus.Fields{"breaker": name, "from": from, "to": to}).Warn("circuit breaker state changed")
			},
		},
	)
	mailer := notification.NewGateway(transport, cfg.Mail.From, notification.WithRecorder(m))

	payments, err := policy.FromName(cfg.PaymentPolicy)
	if err != nil {
		return err
	}
	checkoutOpts := []checkoutservice.Option{checkoutservice.WithRecorder(m)}

	var cartPoller *poller.Poller
	if cfg.EventsEnabled() {
		pub := publisher.NewKafkaPublisher(cfg.KafkaCheckoutTopic, cfg.KafkaBrokers...)
		defer func() {
			if err := pub.Close(); err != nil {
				log.WithError(err).Warn("closing Kafka writer")
			}
		}()
		checkoutOpts = append(checkoutOpts, checkoutservice.WithPublisher(pub))
		cartPoller = poller.NewPoller(carts, log.WithField("component", "cart-poller"), cfg.KafkaCheckoutTopic, cfg.KafkaBrokers...)
		defer cartPoller.Close()
	}
	checkout := checkoutservice.NewCheckoutService(payments, mailer, checkoutOpts...)

	handler := storehttp.NewRouter(storehttp.RouterConfig{
		Logger:          log,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		RequestTimeout:  cfg.RequestTimeout,
		SessionRequired: cfg.SessionRequired,
		Observer:        m,
		MetricsHandler:  m.Handler(),
	}, storehttp.Services{
		Catalog:  catalog,
		Carts:    carts,
		Mailer:   mailer,
		Checkout: checkout,
		Sessions: session.NewManager(sessionStore, cfg.SessionTTL),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, ctx := errgroup.WithContext(c.Context)

	g.Go(func() error {
		log.WithField("port", cfg.HTTPPort).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.GRPCHealthPort != "" {
		grpcServer, hs := newHealthServer()
		g.Go(func() error {
			lis, err := net.Listen("tcp", ":"+cfg.GRPCHealthPort)
			if err != nil {
				return errors.Wrap(err, "grpc health listen")
			}
			log.WithField("port", cfg.GRPCHealthPort).Info("gRPC health server listening")
			return grpcServer.Serve(lis)
		})
		g.Go(func() error {
			<-ctx.Done()
			hs.Shutdown()
			grpcServer.GracefulStop()
			return nil
		})
	}

	if cartPoller != nil {
		g.Go(func() error {
			log.WithField("topic", cfg.KafkaCheckoutTopic).Info("cart poller started")
			return cartPoller.Run(ctx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("storefront stopped")
	return nil
}

func newHealthServer() (*grpc.Server, *health.Server) {
	s := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)
	return s, hs
}
