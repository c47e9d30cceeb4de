package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/shoplane/storefront-backend/api/responses"
	"github.com/shoplane/storefront-backend/api/routes"
	"github.com/shoplane/storefront-backend/internal/cart"
	"github.com/shoplane/storefront-backend/internal/coupons"
	"github.com/shoplane/storefront-backend/internal/delivery"
	"github.com/shoplane/storefront-backend/internal/fulfillment"
	"github.com/shoplane/storefront-backend/internal/notifications"
	"github.com/shoplane/storefront-backend/internal/orders"
	"github.com/shoplane/storefront-backend/internal/payments"
	"github.com/shoplane/storefront-backend/pkg/clock"
	"github.com/shoplane/storefront-backend/pkg/config"
	"github.com/shoplane/storefront-backend/pkg/db"
	"github.com/shoplane/storefront-backend/pkg/env"
	"github.com/shoplane/storefront-backend/pkg/logger"
	"github.com/shoplane/storefront-backend/pkg/metrics"
	"github.com/shoplane/storefront-backend/pkg/migrate"
	"github.com/shoplane/storefront-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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
	responses.SetDebugErrors(cfg.App.DebugErrors)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckout(registry)

	notifier, err := notifications.NewDispatcher(notifications.NewRepository(dbClient.DB()), logg)
	if err != nil {
		return err
	}

	points := fulfillment.NewCachedRepository(fulfillment.NewRepository(dbClient.DB()), redisClient, cfg.Delivery.PointCacheTTL, logg)
	fulfillmentService, err := fulfillment.NewService(points)
	if err != nil {
		return err
	}
	calculator, err := delivery.NewCalculator(points, delivery.PolicyFromConfig(cfg.Delivery))
	if err != nil {
		return err
	}

	checkoutSettings, err := orders.SettingsFromConfig(cfg.Checkout)
	if err != nil {
		return err
	}
	ordersService, err := orders.NewService(orders.ServiceParams{
		Tx:        dbClient,
		Orders:    orders.NewRepository(dbClient.DB()),
		Cart:      cart.NewRepository(dbClient.DB()),
		Coupons:   coupons.NewRepository(dbClient.DB()),
		Points:    points,
		Delivery:  calculator,
		Inventory: orders.NewInventory(),
		Notifier:  notifier,
		Clock:     clock.System,
		Metrics:   checkoutMetrics,
		Logger:    logg,
		Settings:  checkoutSettings,
	})
	if err != nil {
		return err
	}

	gateways, err := payments.NewRegistryFromConfig(ctx, cfg, checkoutMetrics, logg)
	if err != nil {
		return err
	}
	paymentsRepo := payments.NewRepository(dbClient.DB())
	reconciler, err := payments.NewReconciler(payments.ReconcilerParams{
		Tx:       dbClient,
		Repo:     paymentsRepo,
		Notifier: notifier,
		Clock:    clock.System,
		Metrics:  checkoutMetrics,
		Logger:   logg,
	})
	if err != nil {
		return err
	}
	paymentsService, err := payments.NewService(payments.ServiceParams{
		Tx:         dbClient,
		Repo:       paymentsRepo,
		Registry:   gateways,
		Reconciler: reconciler,
		Webhooks:   redisClient,
		Clock:      clock.System,
		Logger:     logg,
		Settings:   payments.SettingsFromConfig(cfg),
	})
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": env.Instance(),
		"gateways": gateways.Configured(),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, registry, calculator, fulfillmentService, ordersService, paymentsService),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logg.Info(logCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
