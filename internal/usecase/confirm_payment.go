package usecase

import (
	"context"

	domain "github.com/tiendamx/shop-api/internal/entity"
	"github.com/tiendamx/shop-api/internal/logging"
	"github.com/tiendamx/shop-api/internal/payment"
)

// ConfirmPayment applies the webhook-driven state transition: locate the
// order, flip payment/fulfillment status exactly once, decrement stock exactly
// once. Safe under at-least-once and out-of-order delivery.
type ConfirmPayment struct {
	orders    OrderRepo
	products  ProductRepo
	processed ProcessedPayments
	cache     OrderCache
	events    StatusEvents
	notify    Notifications
	log       WebhookLog
}

func NewConfirmPayment(orders OrderRepo, products ProductRepo, processed ProcessedPayments,
	cache OrderCache, events StatusEvents, notify Notifications, log WebhookLog) *ConfirmPayment {
	return &ConfirmPayment{
		orders:    orders,
		products:  products,
		processed: processed,
		cache:     cache,
		events:    events,
		notify:    notify,
		log:       log,
	}
}

// Execute returns an error only for infrastructure failures; unmatched and
// duplicate events resolve to nil so the transport layer can ack the provider
// and stop redeliveries.
func (uc *ConfirmPayment) Execute(ctx context.Context, ev payment.Event) error {
	l := logging.FromCtx(ctx).With("provider", ev.Provider, "payment_ref", ev.ExternalPaymentID)

	order, err := uc.locate(ctx, ev)
	if err != nil {
		uc.record(ctx, ev, "", "error")
		return err
	}
	if order == nil {
		// Providers replay webhooks and send test events with no real order
		// behind them; expected noise, not an error.
		l.Warn("webhook matched no order", "checkout_ref", ev.CheckoutRef, "order_ref", ev.OrderRef)
		uc.record(ctx, ev, "", "unmatched")
		return nil
	}
	l = l.With("order_id", order.ID)

	// Fast path: drop deliveries whose payment id was already handled. Best
	// effort only — the conditional update below is the real guard.
	if ev.ExternalPaymentID != "" && uc.processed != nil {
		if first, err := uc.processed.MarkProcessed(ctx, ev.Provider, ev.ExternalPaymentID); err == nil && !first {
			uc.record(ctx, ev, order.ID, "duplicate")
			return nil
		}
	}

	changed, err := uc.orders.ApprovePaymentIf(ctx, order.ID, ev.ExternalPaymentID)
	if err != nil {
		uc.record(ctx, ev, order.ID, "error")
		return err
	}
	if !changed {
		// Already approved: replayed delivery. No stock movement.
		uc.record(ctx, ev, order.ID, "already_approved")
		return nil
	}

	// Provider-collected payer details win over what the client typed at
	// checkout.
	if ev.PayerEmail != "" || ev.ShippingZip != "" {
		if err := uc.orders.UpdateShipping(ctx, order.ID, ev.PayerEmail, ev.ShippingZip); err != nil {
			l.Error("failed to refresh payer details from webhook", "err", err)
		}
	}

	// Inventory adjustment, exactly once per order reaching approved — gated
	// by the row change above.
	for _, it := range order.Items {
		if err := uc.products.DecrementStock(ctx, it.ProductID, it.Size, it.Quantity); err != nil {
			l.Error("stock decrement failed, needs manual reconciliation",
				"product_id", it.ProductID, "size", it.Size, "qty", it.Quantity, "err", err)
		}
	}

	uc.afterApproval(ctx, order)
	uc.record(ctx, ev, order.ID, "approved")
	l.Info("payment approved", "order_number", order.OrderNumber)
	return nil
}

func (uc *ConfirmPayment) locate(ctx context.Context, ev payment.Event) (*domain.Order, error) {
	if ev.CheckoutRef != "" {
		order, err := uc.orders.GetByCheckoutRef(ctx, ev.Provider, ev.CheckoutRef)
		if err != nil {
			return nil, err
		}
		if order != nil {
			return order, nil
		}
	}
	if ev.OrderRef != "" {
		return uc.orders.GetByID(ctx, ev.OrderRef)
	}
	return nil, nil
}

// afterApproval fans out best-effort side channels; none of them may fail the
// transition.
func (uc *ConfirmPayment) afterApproval(ctx context.Context, order *domain.Order) {
	l := logging.FromCtx(ctx)
	if uc.cache != nil {
		if err := uc.cache.SetStatus(ctx, order.ID, string(domain.StatusConfirmed)); err != nil {
			l.Warn("status cache update failed", "order_id", order.ID, "err", err)
		}
	}
	if uc.events != nil {
		err := uc.events.PublishStatusChanged(ctx, OrderStatusChangedMsg{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			Status:        string(domain.StatusConfirmed),
			PaymentStatus: string(domain.PaymentApproved),
		})
		if err != nil {
			l.Warn("status event publish failed", "order_id", order.ID, "err", err)
		}
	}
	if uc.notify != nil {
		err := uc.notify.PublishConfirmed(ctx, OrderConfirmedMsg{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			CustomerName:  order.Customer.Name,
			CustomerEmail: order.Customer.Email,
			TotalCents:    order.TotalCents,
			PaymentMethod: order.PaymentMethod,
		})
		if err != nil {
			l.Warn("confirmation notification enqueue failed", "order_id", order.ID, "err", err)
		}
	}
}

func (uc *ConfirmPayment) record(ctx context.Context, ev payment.Event, orderID, outcome string) {
	if uc.log == nil {
		return
	}
	err := uc.log.Record(ctx, WebhookRecord{
		Provider:   ev.Provider,
		Kind:       string(ev.Kind),
		PaymentRef: ev.ExternalPaymentID,
		OrderID:    orderID,
		Outcome:    outcome,
	})
	if err != nil {
		logging.FromCtx(ctx).Warn("webhook log write failed", "err", err)
	}
}
