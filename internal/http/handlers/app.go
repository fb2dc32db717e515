package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"blogsmith/internal/credits"
	"blogsmith/internal/domain"
	"blogsmith/internal/payment"
	"blogsmith/internal/pipeline"
	"blogsmith/internal/validate"
)

const maxBodyBytes = 1 << 20

type JobService interface {
	Submit(ctx context.Context, topic string, settings domain.BlogSettings) (*domain.Job, error)
	Status(ctx context.Context, trackingID string) (*domain.Job, error)
	List(ctx context.Context) ([]domain.Job, error)
}

type CreditGate interface {
	Init(ctx context.Context, email string) (credits.Balance, bool, error)
	Check(ctx context.Context, email string) (credits.Balance, error)
	Consume(ctx context.Context, email string, n int) (credits.Balance, bool, error)
	Refund(ctx context.Context, email string, d credits.Debit) (credits.Balance, error)
}

type PaymentService interface {
	CreateOrder(ctx context.Context, planID, email string) (payment.OrderResult, error)
	Verify(ctx context.Context, req payment.VerifyRequest) (payment.VerifyResult, error)
}

type JobCleaner interface {
	Cleanup(ctx context.Context, kind pipeline.CleanupType, dryRun bool) (pipeline.CleanupResult, error)
}

// App holds the dependencies of every HTTP handler. Payments and Janitor may
// be nil, in which case their endpoints answer 503.
type App struct {
	Jobs      JobService
	Credits   CreditGate
	Payments  PaymentService
	Janitor   JobCleaner
	Validator *validate.Validator
	Logger    zerolog.Logger

	// CreditsRequired rejects job submissions without a userEmail.
	CreditsRequired bool
	// CreditsPerJob is charged on submission. Defaults to 1.
	CreditsPerJob int
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]any{"error": errCode, "message": message})
}

// decode reads a JSON body into dst and validates it. It writes the error
// response itself and reports whether the handler may continue.
func (a *App) decode(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			a.error(w, http.StatusBadRequest, "bad_request", "invalid JSON payload")
			return false
		}
	}
	if a.Validator == nil {
		return true
	}
	if err := a.Validator.Struct(dst); err != nil {
		var verr *validate.ValidationError
		if errors.As(err, &verr) {
			a.json(w, http.StatusBadRequest, map[string]any{
				"error":   "validation_failed",
				"message": verr.Error(),
				"fields":  verr.Errors,
			})
			return false
		}
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return false
	}
	return true
}

// serviceError maps domain errors onto HTTP statuses.
func (a *App) serviceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrUnsupportedPlan):
		a.error(w, http.StatusBadRequest, "invalid_plan", "Invalid plan selected")
	case errors.Is(err, domain.ErrInvalidSignature):
		a.error(w, http.StatusBadRequest, "invalid_signature", "Payment verification failed")
	case errors.Is(err, domain.ErrInsufficientCredits):
		a.error(w, http.StatusPaymentRequired, "insufficient_credits", "Not enough credits to generate a blog")
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "User not found")
	case errors.Is(err, domain.ErrDuplicateKey):
		a.error(w, http.StatusConflict, "duplicate", err.Error())
	case errors.Is(err, domain.ErrProviderFailure):
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("http: upstream request failed")
		a.error(w, http.StatusBadGateway, "upstream_error", fallback)
	case errors.Is(err, pipeline.ErrShuttingDown):
		a.error(w, http.StatusServiceUnavailable, "unavailable", "server is shutting down")
	default:
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("http: request failed")
		a.error(w, http.StatusInternalServerError, "internal", fallback)
	}
}

func (a *App) creditsPerJob() int {
	if a.CreditsPerJob <= 0 {
		return 1
	}
	return a.CreditsPerJob
}
