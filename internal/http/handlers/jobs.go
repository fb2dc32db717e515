package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"blogsmith/internal/credits"
	"blogsmith/internal/domain"
	"blogsmith/internal/domain/jsoncfg"
)

// CreateJob charges credits when a user is given, then starts a generation.
func (a *App) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req jsoncfg.GenerateRequest
	if !a.decode(w, r, &req, false) {
		return
	}
	req.Normalize()
	if a.CreditsRequired && req.UserEmail == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "userEmail is required")
		return
	}
	var debit credits.Debit
	if req.UserEmail != "" {
		balance, ok, err := a.Credits.Consume(r.Context(), req.UserEmail, a.creditsPerJob())
		if err != nil {
			a.serviceError(w, r, err, "Failed to consume credit")
			return
		}
		if !ok {
			a.json(w, http.StatusPaymentRequired, map[string]any{
				"error":            "insufficient_credits",
				"message":          "Not enough credits to generate a blog",
				"freeCredits":      balance.Free,
				"purchasedCredits": balance.Purchased,
				"totalCredits":     balance.Total,
			})
			return
		}
		debit = balance.Debit
	}
	job, err := a.Jobs.Submit(r.Context(), req.Topic, req.BlogSettings())
	if err != nil {
		if debit.Total() > 0 {
			a.refund(r, req.UserEmail, debit)
		}
		a.serviceError(w, r, err, "Failed to create blog generation job")
		return
	}
	a.json(w, http.StatusAccepted, map[string]any{
		"success":    true,
		"trackingId": job.TrackingID,
		"message":    "Blog generation started",
		"status":     job.Status,
	})
}

// refund gives back credits charged for a submission that never became a job.
func (a *App) refund(r *http.Request, email string, debit credits.Debit) {
	ctx := context.WithoutCancel(r.Context())
	if _, err := a.Credits.Refund(ctx, email, debit); err != nil {
		a.Logger.Error().Err(err).
			Str("email", email).
			Int("credits", debit.Total()).
			Msg("credits: refund after failed submission failed")
	}
}

// GetJob returns the bare job record.
func (a *App) GetJob(w http.ResponseWriter, r *http.Request) {
	trackingID := strings.TrimSpace(chi.URLParam(r, "trackingId"))
	if trackingID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "Tracking ID is required")
		return
	}
	job, err := a.Jobs.Status(r.Context(), trackingID)
	if err != nil {
		a.jobError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, job)
}

// ListJobs returns one job when ?trackingId is set, every job otherwise.
func (a *App) ListJobs(w http.ResponseWriter, r *http.Request) {
	if trackingID := strings.TrimSpace(r.URL.Query().Get("trackingId")); trackingID != "" {
		job, err := a.Jobs.Status(r.Context(), trackingID)
		if err != nil {
			a.jobError(w, r, err)
			return
		}
		a.json(w, http.StatusOK, map[string]any{"success": true, "job": job})
		return
	}
	jobs, err := a.Jobs.List(r.Context())
	if err != nil {
		a.serviceError(w, r, err, "Failed to get job status")
		return
	}
	if jobs == nil {
		jobs = []domain.Job{}
	}
	a.json(w, http.StatusOK, map[string]any{"success": true, "jobs": jobs, "total": len(jobs)})
}

func (a *App) jobError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		a.error(w, http.StatusNotFound, "not_found", "Job not found")
		return
	}
	a.serviceError(w, r, err, "Failed to get job status")
}
