package repo

import (
	"context"
	"sync"

	"blogsmith/internal/domain"
)

// MemoryUserRepository is a process-local domain.UserRepository.
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]domain.User)}
}

func (r *MemoryUserRepository) Get(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Email]; ok {
		return domain.ErrDuplicateKey
	}
	user.Version = 0
	r.users[user.Email] = *user
	return nil
}

func (r *MemoryUserRepository) Update(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[user.Email]
	if !ok || stored.Version != user.Version {
		return domain.ErrConflict
	}
	user.Version++
	r.users[user.Email] = *user
	return nil
}

// MemoryPaymentRepository is a process-local domain.PaymentRepository.
type MemoryPaymentRepository struct {
	mu       sync.Mutex
	payments map[string]domain.Payment
}

func NewMemoryPaymentRepository() *MemoryPaymentRepository {
	return &MemoryPaymentRepository{payments: make(map[string]domain.Payment)}
}

func (r *MemoryPaymentRepository) Record(ctx context.Context, p *domain.Payment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[p.PaymentID]; ok {
		return domain.ErrDuplicateKey
	}
	r.payments[p.PaymentID] = *p
	return nil
}

var (
	_ domain.UserRepository    = (*MemoryUserRepository)(nil)
	_ domain.PaymentRepository = (*MemoryPaymentRepository)(nil)
)
