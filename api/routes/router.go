package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/shipping-service/api/controllers"
	shipmentcontrollers "github.com/angelmondragon/shipping-service/api/controllers/shipments"
	"github.com/angelmondragon/shipping-service/api/middleware"
	"github.com/angelmondragon/shipping-service/internal/shipments"
	"github.com/angelmondragon/shipping-service/pkg/auth"
	"github.com/angelmondragon/shipping-service/pkg/config"
	"github.com/angelmondragon/shipping-service/pkg/logger"
)

// RouterParams carries everything the HTTP layer needs.
type RouterParams struct {
	Config    *config.Config
	Logger    *logger.Logger
	Shipments shipments.Service
	Identity  auth.IdentityProvider
	Gatherer  prometheus.Gatherer
	Readiness map[string]controllers.Pinger
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Get("/health", controllers.HealthLive(cfg))
	r.Get("/health/ready", controllers.HealthReady(cfg, logg, params.Readiness))
	if params.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(params.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/shipments", func(r chi.Router) {
		r.Use(middleware.Auth(params.Identity, logg))
		r.Post("/", shipmentcontrollers.Create(params.Shipments, logg))
		r.Get("/", shipmentcontrollers.List(params.Shipments, logg))
		r.Get("/user/{userId}", shipmentcontrollers.ListByUser(params.Shipments, logg))
		r.Get("/{id}", shipmentcontrollers.Get(params.Shipments, logg))
		r.Patch("/{id}/status", shipmentcontrollers.UpdateStatus(params.Shipments, logg))
		r.Post("/{id}/process", shipmentcontrollers.Process(params.Shipments, logg))
		r.Delete("/{id}", shipmentcontrollers.Delete(params.Shipments, logg))
	})

	return r
}
