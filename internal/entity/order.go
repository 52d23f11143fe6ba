package domain

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// Status is the fulfillment axis of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// PaymentStatus is the money axis, independent of fulfillment.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentApproved   PaymentStatus = "approved"
	PaymentRejected   PaymentStatus = "rejected"
	PaymentRefunded   PaymentStatus = "refunded"
	PaymentChargeback PaymentStatus = "charged_back"
)

var (
	ErrEmptyOrder         = errors.New("order must contain at least one item")
	ErrCustomerIncomplete = errors.New("customer name and email are required")
	ErrInvalidStatus      = errors.New("invalid order status")
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Customer is a snapshot taken at checkout time; guest checkout means there is
// no account to dereference later.
type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
}

type ShippingAddress struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
	Country string `json:"country,omitempty"`
}

// OrderItem freezes product name and unit price at creation time so later
// catalog edits never rewrite history.
type OrderItem struct {
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name"`
	Size           string `json:"size"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	SubtotalCents  int64  `json:"subtotal_cents"`
}

type Order struct {
	ID          string `json:"id"`
	OrderNumber string `json:"order_number"`

	Customer Customer    `json:"customer"`
	Items    []OrderItem `json:"items"`

	ShippingCents int64 `json:"shipping_cents"`
	TotalCents    int64 `json:"total_cents"`

	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`

	// PaymentMethod names the provider chosen at checkout; CheckoutRef is the
	// provider-issued session/preference id and PaymentRef the provider-issued
	// payment id, both used to correlate inbound webhooks.
	PaymentMethod string `json:"payment_method"`
	CheckoutRef   string `json:"checkout_ref,omitempty"`
	PaymentRef    string `json:"payment_ref,omitempty"`

	ShippingAddress *ShippingAddress `json:"shipping_address,omitempty"`
	CustomerNotes   string           `json:"customer_notes,omitempty"`

	Archived      bool   `json:"archived"`
	ArchiveReason string `json:"archive_reason,omitempty"`

	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	StatusChangedAt *time.Time `json:"status_changed_at,omitempty"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
	ShippedAt       *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	ArchivedAt      *time.Time `json:"archived_at,omitempty"`
}

// ComputeTotal recomputes line subtotals and the order total from the frozen
// unit prices plus shipping. Client-supplied totals are never trusted.
func (o *Order) ComputeTotal() {
	var sum int64
	for i := range o.Items {
		o.Items[i].SubtotalCents = o.Items[i].UnitPriceCents * int64(o.Items[i].Quantity)
		sum += o.Items[i].SubtotalCents
	}
	o.TotalCents = sum + o.ShippingCents
}

// NewOrderNumber generates the human-referenceable order number, assigned
// exactly once at first persistence. The random suffix covers two orders
// landing in the same millisecond.
func NewOrderNumber() string {
	return fmt.Sprintf("ORD-%d-%04d", time.Now().UnixMilli(), rand.Intn(10000))
}
