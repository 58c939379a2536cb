package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-service/internal/cart"
	"github.com/vasiliy-maslov/shop-service/internal/coupon"
	"github.com/vasiliy-maslov/shop-service/internal/order"
)

// NewRouter mounts every API handler under /api next to the health check.
func NewRouter(carts cart.Service, coupons coupon.Service, orders order.Service) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	router.Route("/api", func(r chi.Router) {
		NewCartHandler(carts).RegisterRoutes(r)
		NewCouponHandler(coupons).RegisterRoutes(r)
		NewOrderHandler(orders).RegisterRoutes(r)
		NewAdminOrderHandler(orders).RegisterRoutes(r)
	})

	return router
}

// requestLogger writes one zerolog line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}
