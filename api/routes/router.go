package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/printveda/printveda-backend/api/controllers"
	paymentcontrollers "github.com/printveda/printveda-backend/api/controllers/payments"
	webhookcontrollers "github.com/printveda/printveda-backend/api/controllers/webhooks"
	"github.com/printveda/printveda-backend/api/middleware"
	"github.com/printveda/printveda-backend/internal/orders"
	"github.com/printveda/printveda-backend/internal/reconcile"
	"github.com/printveda/printveda-backend/pkg/config"
	"github.com/printveda/printveda-backend/pkg/logger"
)

// RouterParams carries everything the HTTP surface depends on.
type RouterParams struct {
	Config          *config.Config
	Logger          *logger.Logger
	DBPinger        controllers.Pinger
	RedisPinger     controllers.Pinger
	OrdersService   orders.Service
	Reconciler      reconcile.Service
	PhonePeCallback webhookcontrollers.PhonePeCallbackService
	Metrics         prometheus.Gatherer
}

func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(params.Logger),
		middleware.RequestID(params.Logger),
		middleware.Logging(params.Logger),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(params.Config))
		r.Get("/ready", controllers.HealthReady(params.Config, params.Logger, params.DBPinger, params.RedisPinger))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/payment", func(r chi.Router) {
		r.Post("/create-order", paymentcontrollers.CreateOrder(params.OrdersService, params.Logger))
		r.Post("/check-status", paymentcontrollers.CheckStatus(params.Reconciler, params.Logger))
		r.Get("/check-status", paymentcontrollers.CheckStatusQuery(params.Reconciler, params.Logger))
		r.Post("/phonepe-callback", webhookcontrollers.PhonePeCallback(params.PhonePeCallback, params.Logger))
	})

	return r
}
