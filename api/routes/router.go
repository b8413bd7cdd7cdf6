package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/studioveld/storefront-backend/api/controllers"
	webhookcontrollers "github.com/studioveld/storefront-backend/api/controllers/webhooks"
	"github.com/studioveld/storefront-backend/api/middleware"
	authsvc "github.com/studioveld/storefront-backend/internal/auth"
	"github.com/studioveld/storefront-backend/internal/cart"
	"github.com/studioveld/storefront-backend/internal/catalog"
	checkoutsvc "github.com/studioveld/storefront-backend/internal/checkout"
	"github.com/studioveld/storefront-backend/internal/ledger"
	stripewebhook "github.com/studioveld/storefront-backend/internal/webhooks/stripe"
	"github.com/studioveld/storefront-backend/pkg/config"
	"github.com/studioveld/storefront-backend/pkg/logger"
	"github.com/studioveld/storefront-backend/pkg/redis"
	"github.com/studioveld/storefront-backend/pkg/stripe"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	catalogService *catalog.Service,
	pricing *cart.Pricing,
	authService authsvc.Service,
	checkoutService *checkoutsvc.Service,
	stripeClient *stripe.Client,
	webhookService *stripewebhook.Service,
	ledgerService ledger.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.Site.PublicURL),
	)

	loginPolicy := middleware.LoginRateLimitPolicy(cfg.AuthRateLimit)
	registerPolicy := middleware.RegisterRateLimitPolicy(cfg.AuthRateLimit)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, redisClient, logg))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/store", func(r chi.Router) {
		r.Get("/categories", controllers.ListCategories(catalogService, logg))
		r.Get("/products", controllers.ListProducts(catalogService, logg))
		r.Get("/products/{id}", controllers.GetProduct(catalogService, logg))
		r.Post("/cart/quote", controllers.CartQuote(pricing, logg))
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).
			Post("/register", controllers.Register(authService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
			Post("/login", controllers.Login(authService, logg))
		r.Post("/approve", controllers.Approve(authService, cfg.Auth.AdminSecret, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.Auth, logg))
			r.Get("/me", controllers.Me(authService, logg))
			r.Get("/orders", controllers.MyOrders(authService, logg))
		})
	})

	r.Route("/api/stripe", func(r chi.Router) {
		r.Post("/payment-intent", controllers.CreatePaymentIntent(checkoutService, logg))
		r.Post("/checkout", controllers.CreateCheckoutSession(checkoutService, logg))
		r.Post("/webhook", webhookcontrollers.StripeWebhook(webhookService, stripeClient, logg))
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Get("/webhook-events", controllers.ListWebhookEvents(ledgerService, cfg.Auth.AdminSecret, logg))
	})

	return r
}
