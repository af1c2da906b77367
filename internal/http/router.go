package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/usetix/tix/internal/observability"
	"github.com/usetix/tix/internal/ratelimit"
	"github.com/usetix/tix/internal/service"
)

func SetupRouter(h *Handlers, identity *service.IdentityService, logger observability.Logger, rl *ratelimit.RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(TracingMiddleware)
	r.Use(MetricsMiddleware)
	r.Use(IdentityMiddleware(identity))
	r.Use(RateLimitMiddleware(rl))

	r.Route("/api", func(r chi.Router) {
		r.Get("/events", h.ListEvents)
		r.Get("/events/{id}", h.GetEvent)
		r.Get("/events/{id}/tickets", h.ListEventTickets)
		r.Get("/categories", h.Categories)

		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth)

			r.Get("/auth/user", h.CurrentUser)

			r.Post("/events", h.CreateEvent)
			r.Put("/events/{id}", h.UpdateEvent)
			r.Patch("/events/{id}/publish", h.PublishEvent)
			r.Patch("/events/{id}/unpublish", h.UnpublishEvent)
			r.Patch("/events/{id}/cancel", h.CancelEvent)
			r.Post("/events/{id}/tickets", h.CreateTicketType)
			r.Patch("/tickets/{id}", h.UpdateTicketType)
			r.Delete("/tickets/{id}", h.DeleteTicketType)

			r.Post("/bookings", h.CreateBooking)
			r.Get("/bookings", h.ListBookings)
			r.Get("/bookings/{id}", h.GetBooking)
			r.Get("/bookings/{id}/ticket", h.BookingTicket)
			r.Post("/bookings/{id}/cancel", h.CancelBooking)
			r.Post("/bookings/{id}/refund", h.RefundBooking)

			r.Post("/create-payment-intent", h.CreatePaymentIntent)
			r.Post("/payment-success", h.PaymentSuccess)

			r.Get("/dashboard/stats", h.DashboardStats)
			r.Get("/dashboard/events", h.DashboardEvents)

			r.Post("/upload-image", h.UploadEventImage)
			r.Post("/upload-profile-image", h.UploadProfileImage)
			r.Delete("/images/{publicId}", h.DeleteImage)

			r.Get("/admin/events", h.AdminEvents)
			r.Get("/admin/stats", h.AdminStats)
		})
	})

	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}
