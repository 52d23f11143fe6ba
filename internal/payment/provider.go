package payment

import "context"

// CheckoutItem is a read-only line-item snapshot handed to a provider. Names
// and prices are already frozen on the order; adapters never reach back into
// the catalog.
type CheckoutItem struct {
	ProductID      string
	Name           string
	Size           string
	Quantity       int
	UnitPriceCents int64
}

// CheckoutRequest is the order snapshot a provider turns into an externally
// hosted checkout.
type CheckoutRequest struct {
	OrderID       string
	OrderNumber   string
	CustomerName  string
	CustomerEmail string
	Items         []CheckoutItem
	TotalCents    int64
}

// CheckoutResult is what the client needs to continue paying: a redirect URL
// (redirect-style providers) or a session id for a hosted payment page
// (card-style providers). ExternalID is the provider-issued correlation id
// stored on the order for webhook matching.
type CheckoutResult struct {
	Provider   string `json:"provider"`
	ExternalID string `json:"-"`
	PaymentURL string `json:"payment_url,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
	Sandbox    bool   `json:"sandbox,omitempty"`
	TestCard   string `json:"test_card,omitempty"`
}

type EventKind string

const EventPaymentCompleted EventKind = "payment.completed"

// Event is a webhook notification normalized across providers. CheckoutRef
// matches Order.CheckoutRef; OrderRef, when present, is the order id the
// provider echoed back from checkout creation.
type Event struct {
	Provider          string
	Kind              EventKind
	ExternalPaymentID string
	CheckoutRef       string
	OrderRef          string

	// Optional payer details collected by the provider's own checkout flow.
	// When set they are considered more authoritative than the client-submitted
	// values (last write wins).
	PayerEmail  string
	ShippingZip string
}

// Provider is the integration boundary to one external payment processor.
//
// VerifyWebhook authenticates the raw payload (exact wire bytes; re-serializing
// breaks at least one provider's scheme) and normalizes it. It returns
// (nil, nil) for event kinds the order core does not act on, and
// ErrInvalidSignature when authentication fails.
type Provider interface {
	Name() string
	Enabled() bool
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error)
	VerifyWebhook(payload []byte, signature string) (*Event, error)
}
