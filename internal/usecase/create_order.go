package usecase

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/tiendamx/shop-api/internal/entity"
	"github.com/tiendamx/shop-api/internal/logging"
	"github.com/tiendamx/shop-api/internal/payment"
	"github.com/google/uuid"
)

// ErrProviderFailure marks upstream payment-processor errors (auth, malformed
// request). Distinguishable from client-input validation at the HTTP boundary.
var ErrProviderFailure = errors.New("payment provider failure")

var ErrOrderNotFound = errors.New("order not found")

type ItemInput struct {
	ProductID string
	Size      string
	Quantity  int
}

type CreateOrderInput struct {
	Customer        domain.Customer
	Items           []ItemInput
	ShippingAddress *domain.ShippingAddress
	Notes           string
	PaymentMethod   string
}

type CreateOrderOutput struct {
	Order    *domain.Order
	Checkout *payment.CheckoutResult
}

type CreateOrder struct {
	orders          OrderRepo
	products        ProductRepo
	gateway         CheckoutGateway
	shippingCents   int64
	defaultProvider string
}

func NewCreateOrder(orders OrderRepo, products ProductRepo, gateway CheckoutGateway, shippingCents int64, defaultProvider string) *CreateOrder {
	return &CreateOrder{
		orders:          orders,
		products:        products,
		gateway:         gateway,
		shippingCents:   shippingCents,
		defaultProvider: defaultProvider,
	}
}

func (uc *CreateOrder) Execute(ctx context.Context, in CreateOrderInput) (*CreateOrderOutput, error) {
	if in.Customer.Name == "" || in.Customer.Email == "" {
		return nil, domain.ErrCustomerIncomplete
	}
	if len(in.Items) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	method := in.PaymentMethod
	if method == "" {
		method = uc.defaultProvider
	}
	if in.ShippingAddress != nil && in.ShippingAddress.Country == "" {
		in.ShippingAddress.Country = "México"
	}

	// Validate against the catalog and freeze name/price per line. Stock is
	// checked but NOT decremented here: checkout may be abandoned, so the
	// decrement waits for the approved-payment transition.
	items := make([]domain.OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrEmptyOrder)
		}
		p, err := uc.products.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, it.ProductID)
		}
		ss := p.FindSize(it.Size)
		if ss == nil {
			return nil, fmt.Errorf("%w: size %s for %s", domain.ErrSizeUnavailable, it.Size, p.Name)
		}
		if ss.Stock < it.Quantity {
			return nil, fmt.Errorf("%w for %s size %s: available %d, requested %d",
				domain.ErrInsufficientStock, p.Name, it.Size, ss.Stock, it.Quantity)
		}
		items = append(items, domain.OrderItem{
			ProductID:      p.ID,
			ProductName:    p.Name,
			Size:           it.Size,
			Quantity:       it.Quantity,
			UnitPriceCents: p.PriceCents,
		})
	}

	order := &domain.Order{
		ID:              uuid.NewString(),
		OrderNumber:     domain.NewOrderNumber(),
		Customer:        in.Customer,
		Items:           items,
		ShippingCents:   uc.shippingCents,
		Status:          domain.StatusPending,
		PaymentStatus:   domain.PaymentPending,
		PaymentMethod:   method,
		ShippingAddress: in.ShippingAddress,
		CustomerNotes:   in.Notes,
	}
	order.ComputeTotal()

	if err := uc.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	checkout, err := uc.gateway.CreateCheckout(ctx, method, snapshot(order))
	if err != nil {
		// The pending order row stays behind for manual reconciliation or a
		// checkout retry; creation is not atomic with the external call.
		logging.FromCtx(ctx).Error("checkout creation failed, order left pending",
			"order_id", order.ID, "provider", method, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}

	if err := uc.orders.AttachCheckoutRef(ctx, order.ID, method, checkout.ExternalID); err != nil {
		logging.FromCtx(ctx).Error("failed to attach checkout ref",
			"order_id", order.ID, "ref", checkout.ExternalID, "err", err)
	} else {
		order.CheckoutRef = checkout.ExternalID
	}

	return &CreateOrderOutput{Order: order, Checkout: checkout}, nil
}

func snapshot(o *domain.Order) payment.CheckoutRequest {
	items := make([]payment.CheckoutItem, len(o.Items))
	for i, it := range o.Items {
		items[i] = payment.CheckoutItem{
			ProductID:      it.ProductID,
			Name:           it.ProductName,
			Size:           it.Size,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
		}
	}
	return payment.CheckoutRequest{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		CustomerName:  o.Customer.Name,
		CustomerEmail: o.Customer.Email,
		Items:         items,
		TotalCents:    o.TotalCents,
	}
}
