package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogsmith/internal/domain"
	"blogsmith/internal/infra"
)

func newMockRunner(t *testing.T) (*infra.SQLRunner, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return infra.NewSQLRunner(mock, zerolog.Nop()), mock
}

func TestJobStorePG_Create(t *testing.T) {
	runner, mock := newMockRunner(t)
	store := NewJobStore(runner)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	job := domain.NewJob("blog_1_abc", "Rust vs Go", domain.DefaultBlogSettings(), created)

	mock.ExpectExec("insert into blog_jobs").
		WithArgs("blog_1_abc", "Rust vs Go", pgxmock.AnyArg(), "init", 0, "Initializing blog generation...", created).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Create(context.Background(), job))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStorePG_CreateDuplicate(t *testing.T) {
	runner, mock := newMockRunner(t)
	store := NewJobStore(runner)
	job := domain.NewJob("blog_1_abc", "topic", domain.DefaultBlogSettings(), time.Now())

	mock.ExpectExec("insert into blog_jobs").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := store.Create(context.Background(), job)
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStorePG_GetNotFound(t *testing.T) {
	runner, mock := newMockRunner(t)
	store := NewJobStore(runner)

	mock.ExpectQuery("from blog_jobs").
		WithArgs("blog_0_missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := store.Get(context.Background(), "blog_0_missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStorePG_MergeGuardsTerminal(t *testing.T) {
	runner, mock := newMockRunner(t)
	store := NewJobStore(runner)

	mock.ExpectExec(`status not in \('completed', 'failed'\)`).
		WithArgs("blog_1_abc", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, store.Merge(context.Background(), "blog_1_abc", domain.Progress(20, "Generating title...")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStorePG_DeleteIsIdempotent(t *testing.T) {
	runner, mock := newMockRunner(t)
	store := NewJobStore(runner)

	mock.ExpectExec("delete from blog_jobs").
		WithArgs("blog_1_abc").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, store.Delete(context.Background(), "blog_1_abc"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryPG_Get(t *testing.T) {
	runner, mock := newMockRunner(t)
	repo := NewUserRepository(runner)
	reset := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{"email", "free_credits", "purchased_credits", "last_free_credit_reset", "version", "created_at", "updated_at"}).
		AddRow("a@b.io", 1, 4, reset, int64(3), reset, reset)
	mock.ExpectQuery("from credit_users").WithArgs("a@b.io").WillReturnRows(rows)

	u, err := repo.Get(context.Background(), "a@b.io")
	require.NoError(t, err)
	assert.Equal(t, 1, u.FreeCredits)
	assert.Equal(t, 4, u.PurchasedCredits)
	assert.Equal(t, int64(3), u.Version)
	assert.True(t, u.LastFreeCreditReset.Equal(reset))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryPG_GetNotFound(t *testing.T) {
	runner, mock := newMockRunner(t)
	repo := NewUserRepository(runner)
	mock.ExpectQuery("from credit_users").WithArgs("nobody@b.io").WillReturnError(pgx.ErrNoRows)

	_, err := repo.Get(context.Background(), "nobody@b.io")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepositoryPG_UpdateVersioned(t *testing.T) {
	now := time.Now().UTC()
	tests := []struct {
		name     string
		affected int64
		wantErr  error
		wantVer  int64
	}{
		{name: "applied", affected: 1, wantVer: 8},
		{name: "stale version", affected: 0, wantErr: domain.ErrConflict, wantVer: 7},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			runner, mock := newMockRunner(t)
			repo := NewUserRepository(runner)
			u := &domain.User{Email: "a@b.io", FreeCredits: 1, PurchasedCredits: 0, LastFreeCreditReset: now, UpdatedAt: now, Version: 7}

			mock.ExpectExec("update credit_users").
				WithArgs("a@b.io", 1, 0, now, now, int64(7)).
				WillReturnResult(pgxmock.NewResult("UPDATE", tc.affected))

			err := repo.Update(context.Background(), u)
			if tc.wantErr != nil {
				assert.True(t, errors.Is(err, tc.wantErr), "err = %v", err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.wantVer, u.Version)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPaymentRepositoryPG_RecordDuplicate(t *testing.T) {
	runner, mock := newMockRunner(t)
	repo := NewPaymentRepository(runner)
	p := &domain.Payment{PaymentID: "pay_1", OrderID: "order_1", Email: "a@b.io", PlanID: "single", Credits: 5, Amount: 1000, CreatedAt: time.Now()}

	mock.ExpectExec("insert into payments").
		WithArgs("pay_1", "order_1", "a@b.io", "single", 5, int64(1000), p.CreatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	assert.ErrorIs(t, repo.Record(context.Background(), p), domain.ErrDuplicateKey)
}
