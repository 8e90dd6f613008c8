package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bizflowhq/bizflow-platform/internal/http/handlers"
	httpmiddleware "github.com/bizflowhq/bizflow-platform/internal/http/middleware"
	"github.com/bizflowhq/bizflow-platform/internal/messaging"
	"github.com/bizflowhq/bizflow-platform/internal/payments"
	"github.com/bizflowhq/bizflow-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger          *logging.Logger
	WhatsAppWebhook *messaging.WebhookHandler
	RazorpayWebhook *payments.WebhookHandler
	Checkout        *payments.CheckoutHandler
	Auth            *handlers.AuthHandler
	Dashboard       *handlers.AdminDashboardHandler
	MetricsHandler  http.Handler

	AdminAuthSecret    string
	CORSAllowedOrigins []string
	WebhookRateLimit   float64
	WebhookRateBurst   int
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (webhooks, health checks).
	r.Group(func(public chi.Router) {
		public.Get("/health", cfg.WhatsAppWebhook.HealthCheck)
		public.Route("/webhook", func(r chi.Router) {
			if cfg.WebhookRateLimit > 0 {
				r.Use(httpmiddleware.RateLimit(cfg.WebhookRateLimit, cfg.WebhookRateBurst))
			}
			r.Post("/whatsapp", cfg.WhatsAppWebhook.HandleWhatsApp)
			if cfg.RazorpayWebhook != nil {
				r.Post("/razorpay", cfg.RazorpayWebhook.Handle)
			}
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.Auth != nil {
			public.Post("/api/auth/login", cfg.Auth.Login)
		}
	})

	// Dashboard API (JWT protected).
	if cfg.AdminAuthSecret != "" {
		r.Route("/api", func(api chi.Router) {
			api.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			if cfg.Dashboard != nil {
				api.Get("/dashboard", cfg.Dashboard.Overview)
				api.Get("/bookings", cfg.Dashboard.ListBookings)
				api.Get("/bookings/export", cfg.Dashboard.ExportBookingsCSV)
				api.Post("/bookings/{bookingID}/cancel", cfg.Dashboard.CancelBooking)
			}
			if cfg.Checkout != nil {
				api.Post("/billing/orders", cfg.Checkout.CreateOrder)
			}
		})
	}

	return r
}
