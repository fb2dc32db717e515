// Package credits implements the generation credit gate.
package credits

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"blogsmith/internal/domain"
	"blogsmith/internal/observability"
)

// maxAttempts bounds the optimistic retry loop around versioned updates.
const maxAttempts = 5

// Balance is the credit snapshot returned to callers.
type Balance struct {
	Email       string    `json:"email"`
	Free        int       `json:"freeCredits"`
	Purchased   int       `json:"purchasedCredits"`
	Total       int       `json:"totalCredits"`
	CanGenerate bool      `json:"canGenerate"`
	NextReset   time.Time `json:"nextResetTime"`

	// Debit is what the call that produced this balance took, if anything.
	Debit Debit `json:"-"`
}

// Debit splits a consumption between the two credit pools.
type Debit struct {
	Free      int
	Purchased int
}

// Total is the number of credits in the debit.
func (d Debit) Total() int { return d.Free + d.Purchased }

func balanceOf(u *domain.User) Balance {
	return Balance{
		Email:       u.Email,
		Free:        u.FreeCredits,
		Purchased:   u.PurchasedCredits,
		Total:       u.TotalCredits(),
		CanGenerate: u.TotalCredits() > 0,
		NextReset:   u.NextFreeCreditReset(),
	}
}

// Service applies the credit rules on top of a versioned user repository.
// Free credits are always spent before purchased ones.
type Service struct {
	users  domain.UserRepository
	logger zerolog.Logger
	now    func() time.Time
}

// NewService wires the gate to its repository.
func NewService(users domain.UserRepository, logger zerolog.Logger) *Service {
	return &Service{users: users, logger: logger, now: time.Now}
}

// NormalizeEmail is the identity key used for credit records.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Init creates a credit record with the daily free allowance. It reports
// whether a new record was created; an existing record is returned unchanged.
func (s *Service) Init(ctx context.Context, email string) (Balance, bool, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return Balance{}, false, fmt.Errorf("email is required: %w", domain.ErrInvalidInput)
	}
	user := domain.NewUser(email, s.now().UTC())
	err := s.users.Create(ctx, user)
	switch {
	case err == nil:
		observability.CreditsGranted.WithLabelValues("signup").Add(domain.DailyFreeCredits)
		s.logger.Info().Str("email", email).Msg("credits: user initialised")
		return balanceOf(user), true, nil
	case errors.Is(err, domain.ErrDuplicateKey):
		b, err := s.Check(ctx, email)
		return b, false, err
	default:
		return Balance{}, false, fmt.Errorf("create user: %w", err)
	}
}

// Check returns the balance, restoring the free allowance first when the
// reset interval has elapsed. It returns domain.ErrNotFound for unknown users.
func (s *Service) Check(ctx context.Context, email string) (Balance, error) {
	user, err := s.mutate(ctx, email, func(*domain.User) (bool, error) { return false, nil })
	if err != nil {
		return Balance{}, err
	}
	return balanceOf(user), nil
}

// Consume spends n credits, free first. It reports false without changing
// anything when the balance is short.
func (s *Service) Consume(ctx context.Context, email string, n int) (Balance, bool, error) {
	if n <= 0 {
		return Balance{}, false, fmt.Errorf("credit amount must be positive: %w", domain.ErrInvalidInput)
	}
	var fromFree, fromPurchased int
	user, err := s.mutate(ctx, email, func(u *domain.User) (bool, error) {
		if u.TotalCredits() < n {
			return false, domain.ErrInsufficientCredits
		}
		fromFree = min(u.FreeCredits, n)
		fromPurchased = n - fromFree
		u.FreeCredits -= fromFree
		u.PurchasedCredits -= fromPurchased
		return true, nil
	})
	if errors.Is(err, domain.ErrInsufficientCredits) {
		if user == nil {
			return Balance{}, false, nil
		}
		return balanceOf(user), false, nil
	}
	if err != nil {
		return Balance{}, false, err
	}
	observability.CreditsConsumed.WithLabelValues("free").Add(float64(fromFree))
	observability.CreditsConsumed.WithLabelValues("purchased").Add(float64(fromPurchased))
	s.logger.Info().
		Str("email", user.Email).
		Int("from_free", fromFree).
		Int("from_purchased", fromPurchased).
		Int("remaining", user.TotalCredits()).
		Msg("credits: consumed")
	b := balanceOf(user)
	b.Debit = Debit{Free: fromFree, Purchased: fromPurchased}
	return b, true, nil
}

// Refund returns a debit taken by Consume to the pools it came from. Free
// credits are capped at the daily allowance so a reset in between cannot
// push the balance above it.
func (s *Service) Refund(ctx context.Context, email string, d Debit) (Balance, error) {
	if d.Free < 0 || d.Purchased < 0 || d.Total() == 0 {
		return Balance{}, fmt.Errorf("refund must return at least one credit: %w", domain.ErrInvalidInput)
	}
	user, err := s.mutate(ctx, email, func(u *domain.User) (bool, error) {
		u.FreeCredits = min(u.FreeCredits+d.Free, max(u.FreeCredits, domain.DailyFreeCredits))
		u.PurchasedCredits += d.Purchased
		return true, nil
	})
	if err != nil {
		return Balance{}, err
	}
	observability.CreditsGranted.WithLabelValues("refund").Add(float64(d.Total()))
	s.logger.Info().
		Str("email", user.Email).
		Int("free", d.Free).
		Int("purchased", d.Purchased).
		Msg("credits: refunded")
	return balanceOf(user), nil
}

// AddPurchased credits n purchased credits to the user.
func (s *Service) AddPurchased(ctx context.Context, email string, n int) (Balance, error) {
	if n <= 0 {
		return Balance{}, fmt.Errorf("credit amount must be positive: %w", domain.ErrInvalidInput)
	}
	user, err := s.mutate(ctx, email, func(u *domain.User) (bool, error) {
		u.PurchasedCredits += n
		return true, nil
	})
	if err != nil {
		return Balance{}, err
	}
	observability.CreditsGranted.WithLabelValues("purchase").Add(float64(n))
	s.logger.Info().Str("email", user.Email).Int("credits", n).Msg("credits: purchased credits added")
	return balanceOf(user), nil
}

// mutate loads the user, applies any due free reset and fn, then writes the
// result guarded by the record version, retrying on conflicts. When fn
// returns an error the loaded user (after reset) is still returned.
func (s *Service) mutate(ctx context.Context, email string, fn func(*domain.User) (bool, error)) (*domain.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("email is required: %w", domain.ErrInvalidInput)
	}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		user, err := s.users.Get(ctx, email)
		if err != nil {
			return nil, err
		}
		now := s.now().UTC()
		dirty := false
		if user.ResetDue(now) {
			restored := domain.DailyFreeCredits - user.FreeCredits
			user.FreeCredits = domain.DailyFreeCredits
			user.LastFreeCreditReset = now
			dirty = true
			if restored > 0 {
				observability.CreditsGranted.WithLabelValues("reset").Add(float64(restored))
			}
		}
		changed, fnErr := fn(user)
		if fnErr != nil && !dirty {
			return user, fnErr
		}
		if !changed && !dirty {
			return user, nil
		}
		user.UpdatedAt = now
		err = s.users.Update(ctx, user)
		if errors.Is(err, domain.ErrConflict) {
			s.logger.Debug().Str("email", email).Int("attempt", attempt).Msg("credits: version conflict, retrying")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
		return user, fnErr
	}
	return nil, fmt.Errorf("update user %s: %w", email, domain.ErrConflict)
}
