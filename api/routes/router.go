package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shoplane/storefront-backend/api/controllers"
	deliverycontrollers "github.com/shoplane/storefront-backend/api/controllers/delivery"
	ordercontrollers "github.com/shoplane/storefront-backend/api/controllers/orders"
	paymentcontrollers "github.com/shoplane/storefront-backend/api/controllers/payments"
	webhookcontrollers "github.com/shoplane/storefront-backend/api/controllers/webhooks"
	"github.com/shoplane/storefront-backend/api/middleware"
	"github.com/shoplane/storefront-backend/internal/fulfillment"
	"github.com/shoplane/storefront-backend/internal/orders"
	"github.com/shoplane/storefront-backend/internal/payments"
	"github.com/shoplane/storefront-backend/pkg/config"
	"github.com/shoplane/storefront-backend/pkg/db"
	"github.com/shoplane/storefront-backend/pkg/enums"
	"github.com/shoplane/storefront-backend/pkg/logger"
	"github.com/shoplane/storefront-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	quoter deliverycontrollers.Quoter,
	fulfillmentService fulfillment.Service,
	ordersService orders.Service,
	paymentsService payments.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	// A nil *redis.Client must reach the middleware as a nil interface.
	var (
		redisPinger controllers.Pinger
		idemStore   redis.IdempotencyStore
		limitStore  *redis.Client
	)
	if redisClient != nil {
		redisPinger = redisClient
		idemStore = redisClient
		limitStore = redisClient
	}
	idempotent := func(ttl time.Duration) func(http.Handler) http.Handler {
		return middleware.Idempotency(idemStore, ttl, logg)
	}
	limiter := func(name string, limit int) func(http.Handler) http.Handler {
		policy := middleware.NewRateLimitPolicy(name, cfg.RateLimit.Window, limit)
		if limitStore == nil {
			return middleware.RateLimit(policy, nil, logg)
		}
		return middleware.RateLimit(policy, limitStore, logg)
	}

	var dbPinger controllers.Pinger
	if dbP != nil {
		dbPinger = dbP
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbPinger, redisPinger))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.With(limiter("quote", cfg.RateLimit.QuoteLimit)).
			Post("/delivery-fee/quote", deliverycontrollers.QuoteFee(quoter, logg))
		r.Get("/fulfillment-points/nearby", deliverycontrollers.Nearby(fulfillmentService, logg))

		r.Route("/payments", func(r chi.Router) {
			r.Get("/callback", paymentcontrollers.Callback(paymentsService, logg))
			r.Group(func(r chi.Router) {
				r.Use(limiter("webhook", cfg.RateLimit.WebhookLimit))
				r.Post("/webhook", webhookcontrollers.PaymentWebhook(paymentsService, logg))
				r.Post("/webhook/{gateway}", webhookcontrollers.PaymentWebhook(paymentsService, logg))
			})
			r.With(limiter("verify", cfg.RateLimit.VerifyLimit)).
				Post("/verify", paymentcontrollers.Verify(paymentsService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, logg))
				r.With(idempotent(middleware.IdempotencyTTLPayments)).
					Post("/initialize", paymentcontrollers.Initialize(paymentsService, logg))
				r.Get("/{orderId}/status", paymentcontrollers.Status(paymentsService, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.With(idempotent(middleware.IdempotencyTTLPayments)).
				Post("/", ordercontrollers.PlaceOrder(ordersService, logg))
			r.Get("/{orderId}", ordercontrollers.Get(ordersService, logg))
			r.With(idempotent(middleware.IdempotencyTTLPayments)).
				Post("/{orderId}/cancel", ordercontrollers.Cancel(ordersService, logg))
			r.With(middleware.RequireRole(enums.UserRoleAdmin, logg), idempotent(middleware.IdempotencyTTLStandard)).
				Post("/{orderId}/refund", ordercontrollers.Refund(ordersService, logg))
		})
	})

	return r
}
