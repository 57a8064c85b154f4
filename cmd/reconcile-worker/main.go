package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/printveda/printveda-backend/internal/cron"
	"github.com/printveda/printveda-backend/internal/orders"
	"github.com/printveda/printveda-backend/internal/payments"
	"github.com/printveda/printveda-backend/internal/reconcile"
	"github.com/printveda/printveda-backend/pkg/config"
	"github.com/printveda/printveda-backend/pkg/db"
	"github.com/printveda/printveda-backend/pkg/logger"
	"github.com/printveda/printveda-backend/pkg/metrics"
	"github.com/printveda/printveda-backend/pkg/migrate"
	"github.com/printveda/printveda-backend/pkg/phonepe"
	"github.com/printveda/printveda-backend/pkg/redis"
	"github.com/printveda/printveda-backend/pkg/upigateway"
)

const lockKeyFormat = "pv:reconcile-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "reconcile-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "reconcile-worker"

	logg = logger.New(logger.Options{
		ServiceName: "reconcile-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
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

	var upiProvider *payments.UPIGatewayProvider
	if cfg.UPIGateway.Key != "" {
		upiClient, err := upigateway.NewClient(cfg.UPIGateway.Key,
			upigateway.WithBaseURL(cfg.UPIGateway.BaseURL),
			upigateway.WithTimeout(cfg.UPIGateway.Timeout),
		)
		if err != nil {
			logg.Error(context.Background(), "failed to build upi gateway client", err)
			os.Exit(1)
		}
		upiProvider = payments.NewUPIGatewayProvider(upiClient)
	} else {
		upiProvider = payments.NewUPIGatewayProvider(nil)
	}

	var phonepeProvider *payments.PhonePeProvider
	if cfg.PhonePe.MerchantID != "" && cfg.PhonePe.SaltKey != "" {
		phonepeClient, err := phonepe.NewClient(cfg.PhonePe.MerchantID, cfg.PhonePe.SaltKey, cfg.PhonePe.SaltIndex,
			phonepe.WithBaseURL(cfg.PhonePe.BaseURL),
			phonepe.WithTimeout(cfg.PhonePe.Timeout),
		)
		if err != nil {
			logg.Error(context.Background(), "failed to build phonepe client", err)
			os.Exit(1)
		}
		phonepeProvider = payments.NewPhonePeProvider(phonepeClient, cfg.PhonePe.CallbackURL)
	} else {
		phonepeProvider = payments.NewPhonePeProvider(nil, cfg.PhonePe.CallbackURL)
	}

	providerRegistry := payments.NewRegistry(
		payments.NewCODProvider(),
		upiProvider,
		phonepeProvider,
	)

	ordersRepo := orders.NewRepository(dbClient.DB())
	paymentMetrics := metrics.NewPaymentMetrics(prometheus.DefaultRegisterer)

	reconciler, err := reconcile.NewService(ordersRepo, providerRegistry, logg, paymentMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciler", err)
		os.Exit(1)
	}

	sweepJob, err := cron.NewPendingPaymentJob(cron.PendingPaymentJobParams{
		Logger:     logg,
		Orders:     ordersRepo,
		Reconciler: reconciler,
		PendingAge: cfg.Reconcile.PendingAge,
		BatchSize:  cfg.Reconcile.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sweep job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create worker lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(sweepJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Reconcile.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting reconcile worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "reconcile worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "reconcile worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
