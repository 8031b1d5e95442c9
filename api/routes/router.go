package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mercato-labs/mercato-backend/api/controllers"
	analyticscontrollers "github.com/mercato-labs/mercato-backend/api/controllers/analytics"
	cartcontrollers "github.com/mercato-labs/mercato-backend/api/controllers/cart"
	ordercontrollers "github.com/mercato-labs/mercato-backend/api/controllers/orders"
	"github.com/mercato-labs/mercato-backend/api/middleware"
	"github.com/mercato-labs/mercato-backend/internal/analytics"
	"github.com/mercato-labs/mercato-backend/internal/cart"
	"github.com/mercato-labs/mercato-backend/internal/checkout"
	"github.com/mercato-labs/mercato-backend/internal/orders"
	products "github.com/mercato-labs/mercato-backend/internal/products"
	"github.com/mercato-labs/mercato-backend/internal/vendors"
	"github.com/mercato-labs/mercato-backend/pkg/config"
	"github.com/mercato-labs/mercato-backend/pkg/enums"
	"github.com/mercato-labs/mercato-backend/pkg/logger"
	"github.com/mercato-labs/mercato-backend/pkg/redis"
)

// Services bundles everything the HTTP surface dispatches to.
type Services struct {
	Products  products.Service
	Vendors   vendors.Service
	Cart      cart.Service
	Checkout  checkout.Service
	Orders    orders.Service
	Analytics analytics.Service
}

// Infra carries the shared clients used by middleware and probes.
type Infra struct {
	DB      controllers.Pinger
	Redis   *redis.Client
	Metrics prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, infra Infra, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Recoverer(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	// A nil *redis.Client must not reach the middleware as a non-nil interface.
	var limiterStore interface {
		middleware.IdempotencyStore
		middleware.RateLimiterStore
	}
	readiness := map[string]controllers.Pinger{}
	if infra.DB != nil {
		readiness["db"] = infra.DB
	}
	if infra.Redis != nil {
		limiterStore = infra.Redis
		readiness["redis"] = infra.Redis
	}

	apiPolicy := middleware.NewRateLimitPolicy("api", cfg.RateLimit.Window, cfg.RateLimit.IPLimit, cfg.RateLimit.UserLimit)
	checkoutPolicy := middleware.NewRateLimitPolicy("checkout", cfg.RateLimit.Window, 0, cfg.RateLimit.CheckoutUserLimit)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	if infra.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(infra.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Use(middleware.RateLimit(apiPolicy, limiterStore, logg))
		r.Get("/products", controllers.PublicListProducts(svc.Products, logg))
		r.Get("/products/{productId}", controllers.PublicGetProduct(svc.Products, logg))
		r.Get("/products/{productId}/reviews", controllers.PublicListReviews(svc.Products, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RateLimit(apiPolicy, limiterStore, logg))
		r.Use(middleware.Idempotency(limiterStore, logg))

		r.Post("/products/{productId}/reviews", controllers.CreateReview(svc.Products, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(svc.Cart, logg))
			r.Delete("/", cartcontrollers.CartClear(svc.Cart, logg))
			r.Post("/items", cartcontrollers.CartAddItem(svc.Cart, logg))
			r.Put("/items/{productId}", cartcontrollers.CartSetQuantity(svc.Cart, logg))
			r.Delete("/items/{productId}", cartcontrollers.CartRemoveItem(svc.Cart, logg))
		})

		r.With(
			middleware.RequireRoles(logg, enums.RoleBuyer, enums.RoleAdmin),
			middleware.RateLimit(checkoutPolicy, limiterStore, logg),
		).Post("/checkout", controllers.Checkout(svc.Checkout, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.BuyerOrderList(svc.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.OrderDetail(svc.Orders, logg))
			r.Post("/{orderId}/cancel", ordercontrollers.BuyerCancelOrder(svc.Orders, logg))
		})

		r.Route("/vendors", func(r chi.Router) {
			r.Post("/", controllers.VendorCreate(svc.Vendors, logg))
			r.Get("/me", controllers.VendorMe(svc.Vendors, logg))
			r.Post("/me/onboarding/{step}", controllers.VendorOnboardingStep(svc.Vendors, logg))
		})

		r.Route("/vendor", func(r chi.Router) {
			r.Use(middleware.VendorContext(logg))
			r.Get("/products", controllers.VendorListProducts(svc.Products, logg))
			r.Post("/products", controllers.VendorCreateProduct(svc.Products, logg))
			r.Patch("/products/{productId}", controllers.VendorUpdateProduct(svc.Products, logg))
			r.Delete("/products/{productId}", controllers.VendorArchiveProduct(svc.Products, logg))
			r.Get("/orders", ordercontrollers.VendorOrderList(svc.Orders, logg))
			r.Post("/orders/{orderId}/status", ordercontrollers.VendorUpdateStatus(svc.Orders, logg))
			r.Get("/analytics", analyticscontrollers.VendorAnalytics(svc.Analytics, logg))
		})
	})

	return r
}
