package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tiendamx/shop-api/internal/logging"
	"github.com/tiendamx/shop-api/internal/usecase"
)

// Mailer is the port to whatever actually delivers customer mail.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, msg usecase.OrderConfirmedMsg) error
}

// ConfirmationHandler drains order.confirmed.q and sends the customer their
// confirmation. Consuming our own queue keeps mail delivery off the webhook
// hot path.
type ConfirmationHandler struct {
	Mail Mailer
}

func NewConfirmationHandler(m Mailer) *ConfirmationHandler {
	return &ConfirmationHandler{Mail: m}
}

// HandleConfirmed is intended to be used with the JSON adapter
// (queue.JSONHandler[usecase.OrderConfirmedMsg]).
func (h *ConfirmationHandler) HandleConfirmed(ctx context.Context, msg usecase.OrderConfirmedMsg) error {
	return h.Mail.SendOrderConfirmation(ctx, msg)
}

// LogMailer stands in for the external mail collaborator: it renders the
// confirmation into the structured log.
type LogMailer struct {
	log *slog.Logger
}

func NewLogMailer() *LogMailer {
	return &LogMailer{log: logging.New("mailer")}
}

func (m *LogMailer) SendOrderConfirmation(_ context.Context, msg usecase.OrderConfirmedMsg) error {
	m.log.Info("order confirmation sent",
		"order_number", msg.OrderNumber,
		"to", msg.CustomerEmail,
		"total", fmt.Sprintf("%.2f", float64(msg.TotalCents)/100),
		"payment_method", msg.PaymentMethod,
	)
	return nil
}

var _ Mailer = (*LogMailer)(nil)
