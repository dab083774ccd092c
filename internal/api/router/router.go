package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chnmndlai/prescripto-full-stack-sub000/internal/appointments"
	"github.com/chnmndlai/prescripto-full-stack-sub000/internal/doctors"
	httpmiddleware "github.com/chnmndlai/prescripto-full-stack-sub000/internal/http/middleware"
	"github.com/chnmndlai/prescripto-full-stack-sub000/internal/identity"
	"github.com/chnmndlai/prescripto-full-stack-sub000/internal/payments"
	"github.com/chnmndlai/prescripto-full-stack-sub000/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	DoctorsHandler      *doctors.Handler
	AppointmentsHandler *appointments.Handler
	CheckoutHandler     *payments.CheckoutHandler
	StripeWebhook       *payments.StripeWebhookHandler
	RazorpayWebhook     *payments.RazorpayWebhookHandler
	MetricsHandler      http.Handler

	AuthJWTSecret      string
	CORSAllowedOrigins []string
	RateLimitPerSec    float64
	RateLimitBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
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
	if cfg.RateLimitPerSec > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSec, cfg.RateLimitBurst))
	}

	// Public endpoints (directory, webhooks, health checks)
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.DoctorsHandler != nil {
			public.Get("/doctors", cfg.DoctorsHandler.List)
			public.Get("/doctors/{doctorID}", cfg.DoctorsHandler.Get)
		}
		if cfg.AppointmentsHandler != nil {
			public.Get("/doctors/{doctorID}/slots", cfg.AppointmentsHandler.Slots)
		}
		if cfg.StripeWebhook != nil {
			public.Post("/webhooks/stripe", cfg.StripeWebhook.Handle)
		}
		if cfg.RazorpayWebhook != nil {
			public.Post("/webhooks/razorpay", cfg.RazorpayWebhook.Handle)
		}
	})

	// Authenticated routes
	if cfg.AuthJWTSecret != "" {
		r.Group(func(authed chi.Router) {
			authed.Use(httpmiddleware.Auth(cfg.AuthJWTSecret))

			if cfg.AppointmentsHandler != nil {
				authed.Route("/appointments", func(r chi.Router) {
					r.Get("/", cfg.AppointmentsHandler.ListMine)
					r.With(httpmiddleware.RequireRole(identity.RolePatient)).Post("/", cfg.AppointmentsHandler.Book)
					r.Post("/{appointmentID}/cancel", cfg.AppointmentsHandler.Cancel)
					r.With(httpmiddleware.RequireRole(identity.RoleDoctor)).Post("/{appointmentID}/complete", cfg.AppointmentsHandler.Complete)
				})
			}

			if cfg.AppointmentsHandler != nil {
				authed.With(httpmiddleware.RequireRole(identity.RoleDoctor)).
					Get("/doctors/me/appointments", cfg.AppointmentsHandler.ListSchedule)
			}

			if cfg.CheckoutHandler != nil {
				authed.With(httpmiddleware.RequireRole(identity.RolePatient)).
					Post("/payments/{appointmentID}/checkout", cfg.CheckoutHandler.CreateCheckout)
			}

			if cfg.DoctorsHandler != nil {
				authed.Route("/admin/doctors", func(r chi.Router) {
					r.Use(httpmiddleware.RequireRole(identity.RoleAdmin))
					r.Post("/", cfg.DoctorsHandler.Create)
					r.Patch("/{doctorID}/availability", cfg.DoctorsHandler.SetAvailability)
				})
			}
		})
	}

	return r
}
