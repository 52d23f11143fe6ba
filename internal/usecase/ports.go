package usecase

import (
	"context"

	domain "github.com/tiendamx/shop-api/internal/entity"
	"github.com/tiendamx/shop-api/internal/payment"
)

// OrderFilter narrows admin listings. Empty string fields mean "any".
type OrderFilter struct {
	Status        string
	PaymentMethod string
	PaymentStatus string
	Archived      bool
	Page          int
	Limit         int
}

type OrderRepo interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// GetByCheckoutRef matches the provider-issued session/preference id stored
	// at checkout creation. Returns (nil, nil) when nothing matches.
	GetByCheckoutRef(ctx context.Context, provider, ref string) (*domain.Order, error)
	List(ctx context.Context, f OrderFilter) ([]domain.Order, int, error)

	// AttachCheckoutRef records the external correlation id; first call wins,
	// later calls are no-ops.
	AttachCheckoutRef(ctx context.Context, id, provider, ref string) error

	// ApprovePaymentIf flips payment status to approved, fulfillment to
	// confirmed and stamps paid_at — but only if payment is not already
	// approved. Returns whether the row changed; the caller gates the stock
	// decrement on that result.
	ApprovePaymentIf(ctx context.Context, id, paymentRef string) (bool, error)

	UpdateStatus(ctx context.Context, id string, to domain.Status) error
	UpdateShipping(ctx context.Context, id string, email, zipCode string) error
	SetArchived(ctx context.Context, id string, archived bool, reason string) error
	Delete(ctx context.Context, id string) error
}

type ProductRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// DecrementStock subtracts qty from one size entry, failing if the
	// remaining stock would go negative.
	DecrementStock(ctx context.Context, productID, size string, qty int) error
}

// ProcessedPayments is the fast-path dedup marker for webhook deliveries.
// MarkProcessed returns false when the payment id was already seen.
type ProcessedPayments interface {
	MarkProcessed(ctx context.Context, provider, paymentID string) (bool, error)
}

type OrderCache interface {
	SetStatus(ctx context.Context, orderID string, status string) error
	GetStatus(ctx context.Context, orderID string) (string, error)
}

// StatusEvents publishes fulfillment-status transitions for downstream
// consumers (analytics, storefront).
type StatusEvents interface {
	PublishStatusChanged(ctx context.Context, msg OrderStatusChangedMsg) error
}

// Notifications enqueues customer-facing messages (confirmation mail).
type Notifications interface {
	PublishConfirmed(ctx context.Context, msg OrderConfirmedMsg) error
}

// WebhookLog records every normalized webhook event for manual
// reconciliation. Insert-only.
type WebhookLog interface {
	Record(ctx context.Context, e WebhookRecord) error
}

type WebhookRecord struct {
	Provider   string
	Kind       string
	PaymentRef string
	OrderID    string
	Outcome    string // approved | duplicate | already_approved | unmatched | error
}

// CheckoutGateway is the provider-agnostic contract to the payment
// orchestrator.
type CheckoutGateway interface {
	CreateCheckout(ctx context.Context, provider string, req payment.CheckoutRequest) (*payment.CheckoutResult, error)
}
