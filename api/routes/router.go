package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gamerent/gamerent-backend/api/controllers"
	"github.com/gamerent/gamerent-backend/api/middleware"
	booking "github.com/gamerent/gamerent-backend/internal/bookings"
	item "github.com/gamerent/gamerent-backend/internal/items"
	payment "github.com/gamerent/gamerent-backend/internal/payments"
	"github.com/gamerent/gamerent-backend/pkg/config"
	"github.com/gamerent/gamerent-backend/pkg/db"
	"github.com/gamerent/gamerent-backend/pkg/logger"
	"github.com/gamerent/gamerent-backend/pkg/metrics"
	"github.com/gamerent/gamerent-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Items    item.Service
	Bookings booking.Service
	Payments payment.Service

	// Gatherer also implements prometheus.Registerer in the default wiring.
	Registry *prometheus.Registry
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	var httpStats *metrics.HTTPMetrics
	if deps.Registry != nil {
		httpStats = metrics.NewHTTPMetrics(deps.Registry)
	}

	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.CORS(),
		middleware.Logging(deps.Logger),
		middleware.Metrics(httpStats),
	)

	var redisP redis.Pinger
	var idemStore redis.IdempotencyStore
	if deps.Redis != nil {
		redisP = deps.Redis
		idemStore = deps.Redis
	}

	r.Get("/healthz", controllers.HealthLive(deps.Config))
	r.Get("/readyz", controllers.HealthReady(deps.Config, deps.Logger, deps.DB, redisP))
	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/items", controllers.ListItems(deps.Items, deps.Logger))
		r.Get("/items/{itemID}", controllers.GetItem(deps.Items, deps.Logger))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(deps.Config.JWT, deps.Logger))
			r.Use(middleware.Idempotency(idemStore, deps.Logger))

			r.Post("/items", controllers.CreateItem(deps.Items, deps.Logger))
			r.Get("/items/mine", controllers.ListOwnerItems(deps.Items, deps.Logger))
			r.Get("/items/{itemID}/bookings", controllers.ListItemBookings(deps.Bookings, deps.Logger))

			r.Post("/bookings", controllers.CreateBooking(deps.Bookings, deps.Logger))
			r.Get("/bookings", controllers.ListRenterBookings(deps.Bookings, deps.Logger))
			r.Get("/bookings/owner", controllers.ListOwnerBookings(deps.Bookings, deps.Logger))
			r.Post("/bookings/{bookingID}/decision", controllers.DecideBooking(deps.Bookings, deps.Logger))
			r.Post("/bookings/{bookingID}/checkout-session", controllers.CreateCheckoutSession(deps.Payments, deps.Logger))
			r.Post("/bookings/{bookingID}/confirm-payment", controllers.ConfirmPayment(deps.Payments, deps.Logger))
		})
	})

	return r
}
