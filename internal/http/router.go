package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	Logger          *logrus.Logger
	AllowedOrigins  []string
	RequestTimeout  time.Duration
	SessionRequired bool
	// Observer and MetricsHandler are optional.
	Observer       RequestObserver
	MetricsHandler http.Handler
}

type Services struct {
	Catalog  CatalogService
	Carts    CartService
	Mailer   Mailer
	Checkout CheckoutService
	Sessions SessionManager
}

// NewRouter wires the JSON API. The returned handler is traced with otelhttp.
func NewRouter(cfg RouterConfig, svc Services) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	if cfg.Observer != nil {
		r.Use(Metrics(cfg.Observer))
	}
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(middleware.Compress(5))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	products := NewProductHandler(svc.Catalog)
	carts := NewCartHandler(svc.Carts)
	emails := NewEmailHandler(svc.Mailer)
	checkout := NewCheckoutHandler(svc.Checkout)
	sessions := NewSessionHandler(svc.Sessions)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", products.ListProducts)
			r.Post("/", products.CreateProduct)
			r.Get("/{id}", products.GetProduct)
			r.Put("/{id}", products.UpdateProduct)
			r.Delete("/{id}", products.DeleteProduct)
		})

		r.Route("/cart/{sessionId}", func(r chi.Router) {
			if cfg.SessionRequired {
				r.Use(RequireSession(svc.Sessions))
			}
			r.Get("/", carts.GetCart)
			r.Post("/add", carts.AddItem)
			r.Delete("/clear", carts.ClearCart)
		})

		r.Post("/send-email", emails.SendEmail)
		r.Post("/checkout", checkout.Checkout)
		r.Post("/session", sessions.Issue)
	})

	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	return otelhttp.NewHandler(r, "storefront")
}
