package jsoncfg

import "strings"

// CreditRequest identifies the user for credit check and consume calls.
type CreditRequest struct {
	UserEmail string `json:"userEmail" validate:"required,notblank,email"`
}

// InitUserRequest creates a credit record.
type InitUserRequest struct {
	Email string `json:"email" validate:"required,notblank,email"`
}

// CreateOrderRequest starts a credit purchase.
type CreateOrderRequest struct {
	Plan      string `json:"plan" validate:"required,notblank"`
	UserEmail string `json:"userEmail" validate:"required,notblank,email"`
}

// VerifyPaymentRequest is the checkout callback payload.
type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" validate:"required,notblank"`
	PaymentID string `json:"razorpay_payment_id" validate:"required,notblank"`
	Signature string `json:"razorpay_signature" validate:"required,notblank"`
	UserEmail string `json:"userEmail" validate:"required,notblank,email"`
	Plan      string `json:"plan" validate:"required,notblank"`
}

// CleanupRequest selects a janitor run. Type defaults to "all".
type CleanupRequest struct {
	Type   string `json:"type" validate:"omitempty,oneof=all status"`
	DryRun bool   `json:"dryRun"`
}

// DownloadRequest renders an article that is not stored as a job.
type DownloadRequest struct {
	Title     string      `json:"title" validate:"required,notblank"`
	Content   string      `json:"content" validate:"required,notblank"`
	WordCount int         `json:"wordCount" validate:"gte=0"`
	Rating    *RatingJSON `json:"rating"`
	Images    []string    `json:"images" validate:"omitempty,max=20,dive,url"`
}

type RatingJSON struct {
	Score  int    `json:"score" validate:"gte=0,lte=10"`
	Review string `json:"review"`
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
