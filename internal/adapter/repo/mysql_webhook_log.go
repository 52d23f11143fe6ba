package repo

import (
	"context"
	"database/sql"

	"github.com/tiendamx/shop-api/internal/usecase"
)

// MySQLWebhookLog is the insert-only audit trail of webhook deliveries,
// backing the manual-reconciliation path when processing fails after the
// provider was acked.
type MySQLWebhookLog struct{ db *sql.DB }

func NewMySQLWebhookLog(db *sql.DB) *MySQLWebhookLog { return &MySQLWebhookLog{db: db} }

func (r *MySQLWebhookLog) Record(ctx context.Context, e usecase.WebhookRecord) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO webhook_log (provider,kind,payment_ref,order_id,outcome,created_at)
VALUES (?,?,?,?,?,NOW())
`, e.Provider, e.Kind, e.PaymentRef, e.OrderID, e.Outcome)
	return err
}

var _ usecase.WebhookLog = (*MySQLWebhookLog)(nil)
