// Package httpapi assembles the HTTP routes of the service.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"blogsmith/internal/http/handlers"
	"blogsmith/internal/middleware"
	"blogsmith/internal/observability"
)

// Options configures the middleware stack.
type Options struct {
	Logger             zerolog.Logger
	AllowedOrigins     []string
	RateLimitPerMinute int
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
	)

	r.Get("/healthz", app.Health)
	r.Handle("/metrics", observability.Handler())

	limited := r.With(middleware.RateLimit(opts.RateLimitPerMinute, time.Minute))
	limited.Post("/jobs", app.CreateJob)
	limited.Post("/api/generate-blog-async", app.CreateJob)

	r.Get("/jobs", app.ListJobs)
	r.Post("/jobs/cleanup", app.CleanupJobs)
	r.Get("/jobs/{trackingId}", app.GetJob)
	r.Get("/jobs/{trackingId}/export", app.ExportJob)

	r.Route("/credits", func(r chi.Router) {
		r.Post("/check", app.CheckCredits)
		r.Post("/consume", app.ConsumeCredit)
		r.Get("/status", app.CreditStatus)
	})
	r.Post("/users/init", app.InitUser)
	r.Post("/users/data", app.UserData)

	r.Route("/payments", func(r chi.Router) {
		r.Get("/plans", app.Plans)
		r.Post("/orders", app.CreatePayment)
		r.Post("/verify", app.VerifyPayment)
	})

	// Paths kept for clients of the previous web app.
	r.Get("/api/blog-status", app.ListJobs)
	r.Get("/api/blog-status/{trackingId}", app.GetJob)
	r.Post("/api/check-credits", app.CheckCredits)
	r.Post("/api/consume-credit", app.ConsumeCredit)
	r.Get("/api/credit-status", app.CreditStatus)
	r.Post("/api/init-user", app.InitUser)
	r.Post("/api/get-user-data", app.UserData)
	r.Post("/api/create-payment", app.CreatePayment)
	r.Post("/api/verify-payment", app.VerifyPayment)
	r.Post("/api/cleanup-jobs", app.CleanupJobs)
	r.Post("/api/download-html", app.DownloadHTML)

	return r
}
