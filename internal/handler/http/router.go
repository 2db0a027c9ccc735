package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/promoforge/coupon-service/internal/service"
	"github.com/promoforge/coupon-service/pkg/health"
	"github.com/promoforge/coupon-service/pkg/middleware"
)

// NewRouter creates a chi router with all coupon service routes registered.
func NewRouter(
	couponService *service.CouponService,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS)
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("coupon"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Coupon API endpoints
	couponHandler := NewCouponHandler(couponService, logger)

	r.Route("/api/v1/coupons", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/", couponHandler.CreateCoupon)
		r.Get("/", couponHandler.ListCoupons)

		// Evaluation endpoints (must come before /{id} to avoid conflict).
		r.Post("/applicable-coupons", couponHandler.ApplicableCoupons)
		r.Post("/apply-coupon/{id}", couponHandler.ApplyCoupon)

		r.Get("/{id}", couponHandler.GetCoupon)
		r.Put("/{id}", couponHandler.UpdateCoupon)
		r.Delete("/{id}", couponHandler.DeleteCoupon)
	})

	return r
}
