package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/printveda/printveda-backend/api/routes"
	"github.com/printveda/printveda-backend/internal/customers"
	"github.com/printveda/printveda-backend/internal/notify"
	"github.com/printveda/printveda-backend/internal/orders"
	"github.com/printveda/printveda-backend/internal/payments"
	"github.com/printveda/printveda-backend/internal/reconcile"
	phonepewebhook "github.com/printveda/printveda-backend/internal/webhooks/phonepe"
	"github.com/printveda/printveda-backend/pkg/config"
	"github.com/printveda/printveda-backend/pkg/db"
	"github.com/printveda/printveda-backend/pkg/logger"
	"github.com/printveda/printveda-backend/pkg/mailer"
	"github.com/printveda/printveda-backend/pkg/metrics"
	"github.com/printveda/printveda-backend/pkg/migrate"
	"github.com/printveda/printveda-backend/pkg/phonepe"
	"github.com/printveda/printveda-backend/pkg/redis"
	"github.com/printveda/printveda-backend/pkg/upigateway"
)

const callbackIdempotencyTTL = 48 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	var upiProvider *payments.UPIGatewayProvider
	if cfg.UPIGateway.Key != "" {
		upiClient, err := upigateway.NewClient(cfg.UPIGateway.Key,
			upigateway.WithBaseURL(cfg.UPIGateway.BaseURL),
			upigateway.WithTimeout(cfg.UPIGateway.Timeout),
		)
		if err != nil {
			logg.Error(ctx, "failed to build upi gateway client", err)
			os.Exit(1)
		}
		upiProvider = payments.NewUPIGatewayProvider(upiClient)
	} else {
		logg.Warn(ctx, "upi gateway key not configured; upi checkout disabled")
		upiProvider = payments.NewUPIGatewayProvider(nil)
	}

	var phonepeClient *phonepe.Client
	var phonepeProvider *payments.PhonePeProvider
	if cfg.PhonePe.MerchantID != "" && cfg.PhonePe.SaltKey != "" {
		phonepeClient, err = phonepe.NewClient(cfg.PhonePe.MerchantID, cfg.PhonePe.SaltKey, cfg.PhonePe.SaltIndex,
			phonepe.WithBaseURL(cfg.PhonePe.BaseURL),
			phonepe.WithTimeout(cfg.PhonePe.Timeout),
		)
		if err != nil {
			logg.Error(ctx, "failed to build phonepe client", err)
			os.Exit(1)
		}
		phonepeProvider = payments.NewPhonePeProvider(phonepeClient, cfg.PhonePe.CallbackURL)
	} else {
		logg.Warn(ctx, "phonepe credentials not configured; phonepe checkout disabled")
		phonepeProvider = payments.NewPhonePeProvider(nil, cfg.PhonePe.CallbackURL)
	}

	providerRegistry := payments.NewRegistry(
		payments.NewCODProvider(),
		upiProvider,
		phonepeProvider,
	)

	var sender mailer.Sender
	if cfg.Sendgrid.APIKey != "" {
		mailClient, err := mailer.NewClient(cfg.Sendgrid.APIKey, cfg.Sendgrid.DefaultFrom)
		if err != nil {
			logg.Error(ctx, "failed to build mail client", err)
			os.Exit(1)
		}
		sender = mailClient
	} else {
		logg.Warn(ctx, "sendgrid not configured; confirmation emails disabled")
	}

	notifier, err := notify.NewService(sender, logg)
	if err != nil {
		logg.Error(ctx, "failed to create notify service", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	customersRepo := customers.NewRepository(dbClient.DB())

	ordersService, err := orders.NewService(ordersRepo, customersRepo, dbClient, providerRegistry, notifier, logg, paymentMetrics)
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}

	reconciler, err := reconcile.NewService(ordersRepo, providerRegistry, logg, paymentMetrics)
	if err != nil {
		logg.Error(ctx, "failed to create reconciler", err)
		os.Exit(1)
	}

	var callbackService *phonepewebhook.Service
	if phonepeClient != nil {
		guard, err := phonepewebhook.NewIdempotencyGuard(redisClient, callbackIdempotencyTTL, "phonepe-callback")
		if err != nil {
			logg.Error(ctx, "failed to create idempotency guard", err)
			os.Exit(1)
		}
		callbackService, err = phonepewebhook.NewService(phonepewebhook.ServiceParams{
			Verifier:   phonepeClient,
			Guard:      guard,
			OrdersRepo: ordersRepo,
			Reconciler: reconciler,
			Logger:     logg,
		})
		if err != nil {
			logg.Error(ctx, "failed to create callback service", err)
			os.Exit(1)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	routerParams := routes.RouterParams{
		Config:        cfg,
		Logger:        logg,
		DBPinger:      dbClient,
		RedisPinger:   redisClient,
		OrdersService: ordersService,
		Reconciler:    reconciler,
		Metrics:       registry,
	}
	if callbackService != nil {
		routerParams.PhonePeCallback = callbackService
	}

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(routerParams),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
