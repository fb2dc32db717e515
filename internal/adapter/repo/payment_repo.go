package repo

import (
	"context"

	"blogsmith/internal/domain"
	"blogsmith/internal/infra"
	"blogsmith/internal/sqlinline"
)

// PaymentRepositoryPG records verified payments.
type PaymentRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewPaymentRepository(sql infra.SQLExecutor) *PaymentRepositoryPG {
	return &PaymentRepositoryPG{sql: sql}
}

func (r *PaymentRepositoryPG) Record(ctx context.Context, p *domain.Payment) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertPayment,
		p.PaymentID,
		p.OrderID,
		p.Email,
		p.PlanID,
		p.Credits,
		p.Amount,
		p.CreatedAt,
	)
	if err != nil {
		if infra.IsUniqueViolation(err) {
			return domain.ErrDuplicateKey
		}
		return err
	}
	return nil
}

var _ domain.PaymentRepository = (*PaymentRepositoryPG)(nil)
