package domain

import "time"

const (
	// DailyFreeCredits is granted to new users and restored on every reset.
	DailyFreeCredits = 2
	// FreeCreditResetInterval is the minimum time between free credit resets.
	FreeCreditResetInterval = 24 * time.Hour
)

// User is the credit record kept per email address.
type User struct {
	Email               string    `json:"email"`
	FreeCredits         int       `json:"freeCredits"`
	PurchasedCredits    int       `json:"purchasedCredits"`
	LastFreeCreditReset time.Time `json:"lastFreeCreditReset"`
	Version             int64     `json:"-"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// NewUser returns a user holding the daily free allowance.
func NewUser(email string, now time.Time) *User {
	return &User{
		Email:               email,
		FreeCredits:         DailyFreeCredits,
		LastFreeCreditReset: now,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// TotalCredits sums free and purchased credits.
func (u User) TotalCredits() int {
	return u.FreeCredits + u.PurchasedCredits
}

// ResetDue reports whether the free allowance should be restored at now.
func (u User) ResetDue(now time.Time) bool {
	return now.Sub(u.LastFreeCreditReset) >= FreeCreditResetInterval
}

// NextFreeCreditReset returns when the free allowance is next restored.
func (u User) NextFreeCreditReset() time.Time {
	return u.LastFreeCreditReset.Add(FreeCreditResetInterval)
}
