package handlers

import (
	"net/http"
	"strings"

	"blogsmith/internal/credits"
	"blogsmith/internal/domain/jsoncfg"
)

func creditsView(b credits.Balance) map[string]any {
	return map[string]any{
		"free":      b.Free,
		"purchased": b.Purchased,
		"total":     b.Total,
	}
}

func (a *App) CheckCredits(w http.ResponseWriter, r *http.Request) {
	var req jsoncfg.CreditRequest
	if !a.decode(w, r, &req, false) {
		return
	}
	balance, err := a.Credits.Check(r.Context(), req.UserEmail)
	if err != nil {
		a.serviceError(w, r, err, "Failed to check credits")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"success":          true,
		"freeCredits":      balance.Free,
		"purchasedCredits": balance.Purchased,
		"totalCredits":     balance.Total,
		"canGenerate":      balance.CanGenerate,
	})
}

// ConsumeCredit spends one credit. A short balance is reported as 500 to
// match the contract existing clients depend on.
func (a *App) ConsumeCredit(w http.ResponseWriter, r *http.Request) {
	var req jsoncfg.CreditRequest
	if !a.decode(w, r, &req, false) {
		return
	}
	balance, ok, err := a.Credits.Consume(r.Context(), req.UserEmail, 1)
	if err != nil {
		a.serviceError(w, r, err, "Failed to consume credit")
		return
	}
	if !ok {
		a.error(w, http.StatusInternalServerError, "consume_failed", "Failed to consume credit")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"success":          true,
		"remainingCredits": balance.Total,
		"freeCredits":      balance.Free,
		"purchasedCredits": balance.Purchased,
	})
}

// UserData returns the stored credit record for a user.
func (a *App) UserData(w http.ResponseWriter, r *http.Request) {
	var req jsoncfg.CreditRequest
	if !a.decode(w, r, &req, false) {
		return
	}
	balance, err := a.Credits.Check(r.Context(), req.UserEmail)
	if err != nil {
		a.serviceError(w, r, err, "Failed to get user data")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"success": true,
		"userData": map[string]any{
			"email":            balance.Email,
			"freeCredits":      balance.Free,
			"purchasedCredits": balance.Purchased,
			"totalCredits":     balance.Total,
		},
	})
}

// CreditStatus reports balances and the next free credit reset.
func (a *App) CreditStatus(w http.ResponseWriter, r *http.Request) {
	email := jsoncfg.NormalizeEmail(r.URL.Query().Get("email"))
	if email == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "Email parameter is required")
		return
	}
	balance, err := a.Credits.Check(r.Context(), email)
	if err != nil {
		a.serviceError(w, r, err, "Failed to check credit status")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"success": true,
		"user": map[string]any{
			"email":         balance.Email,
			"credits":       creditsView(balance),
			"canGenerate":   balance.CanGenerate,
			"nextResetTime": balance.NextReset,
		},
	})
}

func (a *App) InitUser(w http.ResponseWriter, r *http.Request) {
	var req jsoncfg.InitUserRequest
	if !a.decode(w, r, &req, false) {
		return
	}
	balance, created, err := a.Credits.Init(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		a.serviceError(w, r, err, "Failed to initialize user")
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	a.json(w, status, map[string]any{
		"success": true,
		"message": "User initialized successfully",
		"created": created,
		"user": map[string]any{
			"email":   balance.Email,
			"credits": creditsView(balance),
		},
	})
}
