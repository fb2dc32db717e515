package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"blogsmith/internal/credits"
	"blogsmith/internal/domain"
)

// Crediter is the part of the credit gate payments need.
type Crediter interface {
	Check(ctx context.Context, email string) (credits.Balance, error)
	AddPurchased(ctx context.Context, email string, n int) (credits.Balance, error)
}

type Options struct {
	Gateway   OrderGateway
	KeySecret string
	Payments  domain.PaymentRepository
	Credits   Crediter
	Logger    zerolog.Logger
}

type Service struct {
	gateway  OrderGateway
	secret   string
	payments domain.PaymentRepository
	credits  Crediter
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(opts Options) (*Service, error) {
	if opts.Gateway == nil {
		return nil, errors.New("payment: order gateway is required")
	}
	if strings.TrimSpace(opts.KeySecret) == "" {
		return nil, errors.New("payment: key secret is required")
	}
	if opts.Payments == nil || opts.Credits == nil {
		return nil, errors.New("payment: payment repository and credit gate are required")
	}
	return &Service{
		gateway:  opts.Gateway,
		secret:   strings.TrimSpace(opts.KeySecret),
		payments: opts.Payments,
		credits:  opts.Credits,
		logger:   opts.Logger,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// OrderResult is what the checkout widget needs to open a payment.
type OrderResult struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Plan     string `json:"plan"`
	Credits  int    `json:"credits"`
}

// CreateOrder opens a Razorpay order for planID on behalf of email.
func (s *Service) CreateOrder(ctx context.Context, planID, email string) (OrderResult, error) {
	plan, ok := PlanByID(planID)
	if !ok {
		return OrderResult{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedPlan, planID)
	}
	email = credits.NormalizeEmail(email)
	order, err := s.gateway.CreateOrder(ctx, OrderRequest{
		Amount:   plan.Amount,
		Currency: plan.Currency,
		Receipt:  newReceipt(),
		Notes: map[string]string{
			"userEmail": email,
			"plan":      plan.ID,
			"credits":   strconv.Itoa(plan.Credits),
		},
	})
	if err != nil {
		return OrderResult{}, fmt.Errorf("create order: %w", err)
	}
	s.logger.Info().Str("order_id", order.ID).Str("plan", plan.ID).Str("email", email).Msg("payment: order created")
	return OrderResult{
		OrderID:  order.ID,
		Amount:   plan.Amount,
		Currency: plan.Currency,
		Plan:     plan.ID,
		Credits:  plan.Credits,
	}, nil
}

// VerifyRequest carries the checkout callback fields.
type VerifyRequest struct {
	OrderID   string
	PaymentID string
	Signature string
	Email     string
	PlanID    string
}

type VerifyResult struct {
	PaymentID    string          `json:"paymentId"`
	OrderID      string          `json:"orderId"`
	Plan         string          `json:"plan"`
	CreditsAdded int             `json:"creditsAdded"`
	Balance      credits.Balance `json:"userData"`
}

// Verify checks the payment signature and grants credits once per payment
// id. The plan and buyer come from the order created by CreateOrder, so a
// callback cannot claim a plan other than the one that was paid for. A
// replayed payment returns domain.ErrDuplicateKey. When crediting fails after
// a genuine payment, the payment is refunded.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (VerifyResult, error) {
	orderID := strings.TrimSpace(req.OrderID)
	paymentID := strings.TrimSpace(req.PaymentID)
	if !VerifySignature(s.secret, orderID, paymentID, req.Signature) {
		s.logger.Warn().Str("order_id", orderID).Str("payment_id", paymentID).Msg("payment: signature mismatch")
		return VerifyResult{}, domain.ErrInvalidSignature
	}
	order, err := s.gateway.FetchOrder(ctx, orderID)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("fetch order: %w", err)
	}
	plan, email, err := s.bindOrder(order, req)
	if err != nil {
		s.logger.Warn().Err(err).Str("order_id", orderID).Str("payment_id", paymentID).Msg("payment: callback does not match order")
		return VerifyResult{}, err
	}

	if _, err := s.credits.Check(ctx, email); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.refund(ctx, paymentID, "User not found")
		}
		return VerifyResult{}, err
	}
	payment := &domain.Payment{
		PaymentID: paymentID,
		OrderID:   orderID,
		Email:     email,
		PlanID:    plan.ID,
		Credits:   plan.Credits,
		Amount:    plan.Amount,
		CreatedAt: s.now(),
	}
	if err := s.payments.Record(ctx, payment); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return VerifyResult{}, fmt.Errorf("payment %s already processed: %w", paymentID, err)
		}
		return VerifyResult{}, fmt.Errorf("record payment: %w", err)
	}
	balance, err := s.credits.AddPurchased(ctx, email, plan.Credits)
	if err != nil {
		s.logger.Error().Err(err).Str("payment_id", paymentID).Str("email", email).Int("credits", plan.Credits).Msg("payment: crediting failed after payment was recorded")
		s.refund(ctx, paymentID, "Failed to update user credits")
		return VerifyResult{}, fmt.Errorf("add purchased credits: %w", err)
	}
	s.logger.Info().Str("payment_id", paymentID).Str("plan", plan.ID).Str("email", email).Msg("payment: verified")
	return VerifyResult{
		PaymentID:    paymentID,
		OrderID:      orderID,
		Plan:         plan.ID,
		CreditsAdded: plan.Credits,
		Balance:      balance,
	}, nil
}

// bindOrder resolves the plan and buyer recorded on the order and rejects a
// callback that names different ones.
func (s *Service) bindOrder(order *Order, req VerifyRequest) (domain.Plan, string, error) {
	plan, ok := PlanByID(order.Notes["plan"])
	if !ok {
		return domain.Plan{}, "", fmt.Errorf("%w: order %s has no known plan", domain.ErrUnsupportedPlan, order.ID)
	}
	if strings.TrimSpace(req.PlanID) != "" {
		claimed, ok := PlanByID(req.PlanID)
		if !ok {
			return domain.Plan{}, "", fmt.Errorf("%w: %q", domain.ErrUnsupportedPlan, req.PlanID)
		}
		if claimed.ID != plan.ID {
			return domain.Plan{}, "", fmt.Errorf("%w: order %s was placed for %q, not %q", domain.ErrUnsupportedPlan, order.ID, plan.ID, claimed.ID)
		}
	}
	if order.Amount != plan.Amount || !strings.EqualFold(order.Currency, plan.Currency) {
		return domain.Plan{}, "", fmt.Errorf("%w: order %s amount %d %s does not match plan %q", domain.ErrInvalidSignature, order.ID, order.Amount, order.Currency, plan.ID)
	}
	email := credits.NormalizeEmail(order.Notes["userEmail"])
	claimed := credits.NormalizeEmail(req.Email)
	switch {
	case email == "":
		email = claimed
	case claimed != "" && claimed != email:
		return domain.Plan{}, "", fmt.Errorf("%w: order %s belongs to another user", domain.ErrInvalidSignature, order.ID)
	}
	if email == "" {
		return domain.Plan{}, "", fmt.Errorf("%w: user email is required", domain.ErrInvalidInput)
	}
	return plan, email, nil
}

func (s *Service) refund(ctx context.Context, paymentID, reason string) {
	ctx = context.WithoutCancel(ctx)
	refund, err := s.gateway.RefundPayment(ctx, paymentID, reason)
	if err != nil {
		s.logger.Error().Err(err).Str("payment_id", paymentID).Str("reason", reason).Msg("payment: refund failed, reconcile manually")
		return
	}
	s.logger.Warn().Str("payment_id", paymentID).Str("refund_id", refund.ID).Str("reason", reason).Msg("payment: refund initiated")
}

func newReceipt() string {
	return "blogsmith_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
}
