package domain

import "time"

// Plan is a purchasable credit bundle. Amount is in the smallest currency unit.
type Plan struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Credits  int    `json:"credits"`
}

// Payment is a verified purchase.
type Payment struct {
	PaymentID string    `json:"paymentId"`
	OrderID   string    `json:"orderId"`
	Email     string    `json:"email"`
	PlanID    string    `json:"planId"`
	Credits   int       `json:"credits"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"createdAt"`
}
