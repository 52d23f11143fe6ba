package usecase

import (
	"context"
	"fmt"

	"github.com/tiendamx/shop-api/internal/payment"
)

// CreateCheckout builds a fresh checkout session for an already-persisted
// order — the retry path when the external call failed during creation, or
// when the customer switches provider before paying.
type CreateCheckout struct {
	orders  OrderRepo
	gateway CheckoutGateway
}

func NewCreateCheckout(orders OrderRepo, gateway CheckoutGateway) *CreateCheckout {
	return &CreateCheckout{orders: orders, gateway: gateway}
}

func (uc *CreateCheckout) Execute(ctx context.Context, orderID, provider string) (*payment.CheckoutResult, error) {
	order, err := uc.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if provider == "" {
		provider = order.PaymentMethod
	}

	checkout, err := uc.gateway.CreateCheckout(ctx, provider, snapshot(order))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}

	// First checkout-creation call wins; a ref attached earlier stays.
	if err := uc.orders.AttachCheckoutRef(ctx, order.ID, provider, checkout.ExternalID); err != nil {
		return nil, err
	}
	return checkout, nil
}
