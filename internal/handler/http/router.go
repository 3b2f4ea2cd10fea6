package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alpha-cen/auth-user-service/pkg/health"
	"github.com/alpha-cen/auth-user-service/pkg/middleware"

	"github.com/alpha-cen/auth-user-service/internal/domain"
	"github.com/alpha-cen/auth-user-service/internal/service"
)

// NewRouter creates a chi router with all service routes registered.
func NewRouter(
	authService *service.AuthService,
	userService *service.UserService,
	addressService *service.AddressService,
	validateToken middleware.TokenValidator,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig middleware.CORSConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("auth-user"))

	// Health and metrics endpoints
	r.Get("/actuator/health", healthHandler.LivenessHandler())
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	authHandler := NewAuthHandler(authService, userService, logger)
	userHandler := NewUserHandler(userService, logger)
	addressHandler := NewAddressHandler(addressService, logger)
	adminHandler := NewAdminHandler(userService, logger)

	// Public auth endpoints
	r.Route("/api/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/login", authHandler.Login)
		r.Post("/register", authHandler.Register)
		r.Post("/refresh", authHandler.Refresh)
		r.Post("/logout", authHandler.Logout)
		r.Post("/change-password", authHandler.ChangePassword)
		r.Post("/forgot-password", authHandler.ForgotPassword)
		r.Post("/confirm-forgot-password", authHandler.ConfirmForgotPassword)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(validateToken))
			r.Use(middleware.RequestLogger(logger))

			r.Get("/me", authHandler.Me)
		})
	})

	// Authenticated profile and address endpoints
	r.Route("/api/users/me", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(validateToken))
		r.Use(middleware.RequestLogger(logger))

		r.Get("/", userHandler.GetProfile)
		r.Put("/", userHandler.UpdateProfile)
		r.Delete("/", userHandler.DeleteAccount)
		r.Get("/full", userHandler.GetProfileFull)

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", addressHandler.List)
			r.Post("/", addressHandler.Create)
			r.Get("/default", addressHandler.GetDefault)
			r.Get("/{addressID}", addressHandler.Get)
			r.Put("/{addressID}", addressHandler.Update)
			r.Delete("/{addressID}", addressHandler.Delete)
			r.Patch("/{addressID}/default", addressHandler.SetDefault)
		})
	})

	// Admin endpoints
	r.Route("/api/admin/users", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(validateToken))
		r.Use(middleware.RequireRole(domain.RoleAdmin))
		r.Use(middleware.RequestLogger(logger))

		r.Get("/", adminHandler.List)
		r.Get("/statistics", adminHandler.Statistics)
		r.Get("/{id}", adminHandler.Get)
		r.Get("/{id}/full", adminHandler.GetFull)
		r.Get("/{id}/addresses", adminHandler.ListAddresses)
		r.Put("/{id}", adminHandler.Update)
		r.Delete("/{id}", adminHandler.Delete)
	})

	return r
}
