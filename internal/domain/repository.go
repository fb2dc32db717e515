package domain

import "context"

// JobStore persists blog jobs. Implementations must be safe for concurrent use.
type JobStore interface {
	// Create inserts a new job and returns ErrDuplicateKey if the id exists.
	Create(ctx context.Context, job *Job) error
	// Get returns ErrNotFound when the job is absent or already pruned.
	Get(ctx context.Context, trackingID string) (*Job, error)
	// Merge applies a partial update. Missing and terminal jobs are left as is.
	Merge(ctx context.Context, trackingID string, patch JobPatch) error
	// ListAll returns every job ordered by creation time, newest first.
	ListAll(ctx context.Context) ([]Job, error)
	// Delete removes a job. Deleting a missing job is not an error.
	Delete(ctx context.Context, trackingID string) error
}

// UserRepository persists credit records with optimistic versioning.
type UserRepository interface {
	Get(ctx context.Context, email string) (*User, error)
	// Create returns ErrDuplicateKey if the email is already registered.
	Create(ctx context.Context, user *User) error
	// Update writes user only if the stored version equals user.Version and
	// returns ErrConflict otherwise. On success user.Version is incremented.
	Update(ctx context.Context, user *User) error
}

// PaymentRepository records verified payments so a payment is credited once.
type PaymentRepository interface {
	// Record returns ErrDuplicateKey when paymentID was already recorded.
	Record(ctx context.Context, payment *Payment) error
}
