package http

import (
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/payment"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	Catalog      catalog.Catalog
	Carts        *cart.Registry
	Orchestrator *checkout.Orchestrator
	Inbox        *checkout.Inbox
	Payments     *payment.Bridge
	Sessions     *Sessions
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer

	// ClientCallbacks exposes the browser result endpoint. Providers that report
	// through a signed webhook leave it off.
	ClientCallbacks     bool
	StripeWebhookSecret string
	RequestTimeout      time.Duration
}

func NewRouter(cfg RouterConfig) http.Handler {
	catalogHandler := NewCatalogHandler(cfg.Catalog, cfg.RequestTimeout)
	cartHandler := NewCartHandler(cfg.Carts, cfg.Catalog, cfg.RequestTimeout)
	checkoutHandler := NewCheckoutHandler(cfg.Orchestrator, cfg.Carts, cfg.Inbox, cfg.RequestTimeout)
	paymentHandler := NewPaymentHandler(cfg.Payments, cfg.Orchestrator, cfg.StripeWebhookSecret)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(MetricsMiddleware(cfg.Metrics))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(cfg.Gatherer))
	}
	if cfg.StripeWebhookSecret != "" {
		r.Post("/webhooks/stripe", paymentHandler.StripeWebhook)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", catalogHandler.List)
		r.Get("/products/trending", catalogHandler.Trending)
		r.Get("/products/{id}", catalogHandler.Get)
		r.Get("/categories", catalogHandler.Categories)

		r.Group(func(r chi.Router) {
			r.Use(cfg.Sessions.Middleware)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)
				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{product_id}/{size}", cartHandler.UpdateQuantity)
				r.Delete("/items/{product_id}/{size}", cartHandler.RemoveItem)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/", checkoutHandler.Get)
				r.Post("/", checkoutHandler.Submit)
				r.Post("/open", checkoutHandler.Open)
				r.Post("/reset", checkoutHandler.Reset)
			})

			r.Route("/payments/{reference}", func(r chi.Router) {
				if cfg.ClientCallbacks {
					r.Post("/callback", paymentHandler.Callback)
				}
				r.Post("/cancel", paymentHandler.Cancel)
			})
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
