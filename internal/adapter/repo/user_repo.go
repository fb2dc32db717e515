package repo

import (
	"context"

	"blogsmith/internal/domain"
	"blogsmith/internal/infra"
	"blogsmith/internal/sqlinline"
)

// UserRepositoryPG implements domain.UserRepository backed by PostgreSQL.
type UserRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewUserRepository creates a new UserRepositoryPG.
func NewUserRepository(sql infra.SQLExecutor) *UserRepositoryPG {
	return &UserRepositoryPG{sql: sql}
}

// Get fetches the credit record for email.
func (r *UserRepositoryPG) Get(ctx context.Context, email string) (*domain.User, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectCreditUser, email)
	var u domain.User
	if err := row.Scan(
		&u.Email,
		&u.FreeCredits,
		&u.PurchasedCredits,
		&u.LastFreeCreditReset,
		&u.Version,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a new credit record.
func (r *UserRepositoryPG) Create(ctx context.Context, user *domain.User) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertCreditUser,
		user.Email,
		user.FreeCredits,
		user.PurchasedCredits,
		user.LastFreeCreditReset,
		user.CreatedAt,
	)
	if err != nil {
		if infra.IsUniqueViolation(err) {
			return domain.ErrDuplicateKey
		}
		return err
	}
	user.Version = 0
	return nil
}

// Update writes balances guarded by the version column.
func (r *UserRepositoryPG) Update(ctx context.Context, user *domain.User) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateCreditUser,
		user.Email,
		user.FreeCredits,
		user.PurchasedCredits,
		user.LastFreeCreditReset,
		user.UpdatedAt,
		user.Version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	user.Version++
	return nil
}

var _ domain.UserRepository = (*UserRepositoryPG)(nil)
