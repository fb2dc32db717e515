package handlers

import (
	"net/http"

	"blogsmith/internal/domain/jsoncfg"
	"blogsmith/internal/payment"
)

func (a *App) paymentsEnabled(w http.ResponseWriter) bool {
	if a.Payments == nil {
		a.error(w, http.StatusServiceUnavailable, "payments_disabled", "payments are not configured")
		return false
	}
	return true
}

func (a *App) CreatePayment(w http.ResponseWriter, r *http.Request) {
	if !a.paymentsEnabled(w) {
		return
	}
	var req jsoncfg.CreateOrderRequest
	if !a.decode(w, r, &req, false) {
		return
	}
	order, err := a.Payments.CreateOrder(r.Context(), req.Plan, req.UserEmail)
	if err != nil {
		a.serviceError(w, r, err, "Failed to create payment")
		return
	}
	a.json(w, http.StatusOK, order)
}

func (a *App) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	if !a.paymentsEnabled(w) {
		return
	}
	var req jsoncfg.VerifyPaymentRequest
	if !a.decode(w, r, &req, false) {
		return
	}
	res, err := a.Payments.Verify(r.Context(), payment.VerifyRequest{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
		Email:     req.UserEmail,
		PlanID:    req.Plan,
	})
	if err != nil {
		a.serviceError(w, r, err, "Failed to verify payment")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"success":      true,
		"message":      "Payment verified and purchased credits added successfully",
		"paymentId":    res.PaymentID,
		"orderId":      res.OrderID,
		"plan":         res.Plan,
		"creditsAdded": res.CreditsAdded,
		"userData": map[string]any{
			"email":            res.Balance.Email,
			"freeCredits":      res.Balance.Free,
			"purchasedCredits": res.Balance.Purchased,
			"totalCredits":     res.Balance.Total,
		},
	})
}

// Plans lists the purchasable credit bundles.
func (a *App) Plans(w http.ResponseWriter, _ *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"plans": payment.Plans()})
}
