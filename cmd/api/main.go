package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/studioveld/storefront-backend/api/routes"
	"github.com/studioveld/storefront-backend/internal/auth"
	"github.com/studioveld/storefront-backend/internal/cart"
	"github.com/studioveld/storefront-backend/internal/catalog"
	"github.com/studioveld/storefront-backend/internal/checkout"
	"github.com/studioveld/storefront-backend/internal/ledger"
	"github.com/studioveld/storefront-backend/internal/notifications"
	stripewebhook "github.com/studioveld/storefront-backend/internal/webhooks/stripe"
	"github.com/studioveld/storefront-backend/pkg/commerce"
	"github.com/studioveld/storefront-backend/pkg/config"
	"github.com/studioveld/storefront-backend/pkg/db"
	"github.com/studioveld/storefront-backend/pkg/logger"
	"github.com/studioveld/storefront-backend/pkg/metrics"
	"github.com/studioveld/storefront-backend/pkg/migrate"
	"github.com/studioveld/storefront-backend/pkg/redis"
	"github.com/studioveld/storefront-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	commerceClient, err := commerce.NewClient(cfg.Commerce, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create commerce client", err)
		os.Exit(1)
	}

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe client", err)
		os.Exit(1)
	}

	pricing, err := cart.NewPricing(cfg.Pricing)
	if err != nil {
		logg.Error(context.Background(), "failed to parse pricing rules", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Commerce:       commerceClient,
		RootCategoryID: cfg.Commerce.RootCategoryID,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	mailer, err := notifications.NewMailer(notifications.MailerParams{
		Config:   cfg.Sendgrid,
		AdminTo:  cfg.Sendgrid.AdminEmail,
		SiteName: cfg.Site.Name,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create mailer", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Customers: commerceClient,
		Exchanger: auth.NewJWTExchanger(cfg.Auth.JWTEndpoint, cfg.Auth.LoginTimeout),
		Notifier:  mailer,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Stripe:         checkout.NewStripeClient(stripeClient),
		Pricing:        pricing,
		PublishableKey: stripeClient.PublishableKey(),
		SiteURL:        cfg.Site.PublicURL,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledger.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	guard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Stripe.WebhookDedupeTTL, "stripe")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Orders:  commerceClient,
		Guard:   guard,
		Ledger:  ledgerService,
		Metrics: metrics.NewWebhookMetrics(prometheus.DefaultRegisterer),
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			redisClient,
			catalogService,
			pricing,
			authService,
			checkoutService,
			stripeClient,
			webhookService,
			ledgerService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
