// Package payment sells credit bundles through Razorpay orders.
package payment

import (
	"sort"
	"strings"

	"blogsmith/internal/domain"
)

const CurrencyINR = "INR"

var plans = map[string]domain.Plan{
	"single":  {ID: "single", Name: "Single Credit - 5 Credits", Amount: 1000, Currency: CurrencyINR, Credits: 5},
	"starter": {ID: "starter", Name: "Starter Plan - 60 Credits", Amount: 10000, Currency: CurrencyINR, Credits: 60},
	"pro":     {ID: "pro", Name: "Pro Plan - 500 Credits", Amount: 50000, Currency: CurrencyINR, Credits: 500},
}

// PlanByID looks up a plan, ignoring case and surrounding space.
func PlanByID(id string) (domain.Plan, bool) {
	p, ok := plans[strings.ToLower(strings.TrimSpace(id))]
	return p, ok
}

// Plans returns the catalog ordered by price.
func Plans() []domain.Plan {
	out := make([]domain.Plan, 0, len(plans))
	for _, p := range plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Amount < out[j].Amount })
	return out
}
