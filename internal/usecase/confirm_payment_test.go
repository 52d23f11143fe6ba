package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	domain "github.com/tiendamx/shop-api/internal/entity"
	"github.com/tiendamx/shop-api/internal/payment"
	"github.com/tiendamx/shop-api/internal/usecase"
	"github.com/tiendamx/shop-api/internal/usecase/mocks"
)

type confirmFixture struct {
	orders    *mocks.MockOrderRepo
	products  *mocks.MockProductRepo
	processed *mocks.MockProcessedPayments
	cache     *mocks.MockOrderCache
	events    *mocks.MockStatusEvents
	notify    *mocks.MockNotifications
	log       *mocks.MockWebhookLog
	uc        *usecase.ConfirmPayment
}

func newConfirmFixture() *confirmFixture {
	f := &confirmFixture{
		orders:    new(mocks.MockOrderRepo),
		products:  new(mocks.MockProductRepo),
		processed: new(mocks.MockProcessedPayments),
		cache:     new(mocks.MockOrderCache),
		events:    new(mocks.MockStatusEvents),
		notify:    new(mocks.MockNotifications),
		log:       new(mocks.MockWebhookLog),
	}
	f.uc = usecase.NewConfirmPayment(f.orders, f.products, f.processed, f.cache, f.events, f.notify, f.log)
	return f
}

func pendingOrder() *domain.Order {
	return &domain.Order{
		ID:            "ord-1",
		OrderNumber:   "ORD-1700000000000-0042",
		Customer:      domain.Customer{Name: "Ana Torres", Email: "ana@example.com"},
		Items:         []domain.OrderItem{{ProductID: "prod-1", Size: "M", Quantity: 2}},
		Status:        domain.StatusPending,
		PaymentStatus: domain.PaymentPending,
		PaymentMethod: "stripe",
		CheckoutRef:   "cs_123",
		TotalCents:    129700,
	}
}

func stripeEvent() payment.Event {
	return payment.Event{
		Provider:          "stripe",
		Kind:              payment.EventPaymentCompleted,
		ExternalPaymentID: "pi_abc",
		CheckoutRef:       "cs_123",
	}
}

func TestConfirmPayment_Execute(t *testing.T) {
	ctx := context.TODO()

	t.Run("first delivery approves and decrements stock", func(t *testing.T) {
		f := newConfirmFixture()

		f.orders.On("GetByCheckoutRef", ctx, "stripe", "cs_123").Return(pendingOrder(), nil).Once()
		f.processed.On("MarkProcessed", ctx, "stripe", "pi_abc").Return(true, nil).Once()
		f.orders.On("ApprovePaymentIf", ctx, "ord-1", "pi_abc").Return(true, nil).Once()
		f.products.On("DecrementStock", ctx, "prod-1", "M", 2).Return(nil).Once()
		f.cache.On("SetStatus", ctx, "ord-1", "confirmed").Return(nil).Once()
		f.events.On("PublishStatusChanged", ctx, mock.AnythingOfType("usecase.OrderStatusChangedMsg")).Return(nil).Once()
		f.notify.On("PublishConfirmed", ctx, mock.AnythingOfType("usecase.OrderConfirmedMsg")).Return(nil).Once()
		f.log.On("Record", ctx, mock.MatchedBy(func(r usecase.WebhookRecord) bool {
			return r.Outcome == "approved" && r.OrderID == "ord-1"
		})).Return(nil).Once()

		err := f.uc.Execute(ctx, stripeEvent())

		assert.NoError(t, err)
		f.orders.AssertExpectations(t)
		f.products.AssertExpectations(t)
		f.log.AssertExpectations(t)
	})

	t.Run("duplicate delivery caught by dedup marker", func(t *testing.T) {
		f := newConfirmFixture()

		f.orders.On("GetByCheckoutRef", ctx, "stripe", "cs_123").Return(pendingOrder(), nil).Once()
		f.processed.On("MarkProcessed", ctx, "stripe", "pi_abc").Return(false, nil).Once()
		f.log.On("Record", ctx, mock.MatchedBy(func(r usecase.WebhookRecord) bool {
			return r.Outcome == "duplicate"
		})).Return(nil).Once()

		err := f.uc.Execute(ctx, stripeEvent())

		assert.NoError(t, err)
		f.orders.AssertNotCalled(t, "ApprovePaymentIf", mock.Anything, mock.Anything, mock.Anything)
		f.products.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("replay past dedup stopped by conditional update", func(t *testing.T) {
		// Marker store restarted (or TTL expired): the SQL guard is the real one.
		f := newConfirmFixture()

		f.orders.On("GetByCheckoutRef", ctx, "stripe", "cs_123").Return(pendingOrder(), nil).Once()
		f.processed.On("MarkProcessed", ctx, "stripe", "pi_abc").Return(true, nil).Once()
		f.orders.On("ApprovePaymentIf", ctx, "ord-1", "pi_abc").Return(false, nil).Once()
		f.log.On("Record", ctx, mock.MatchedBy(func(r usecase.WebhookRecord) bool {
			return r.Outcome == "already_approved"
		})).Return(nil).Once()

		err := f.uc.Execute(ctx, stripeEvent())

		assert.NoError(t, err)
		f.products.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.notify.AssertNotCalled(t, "PublishConfirmed", mock.Anything, mock.Anything)
	})

	t.Run("dedup store down does not block approval", func(t *testing.T) {
		f := newConfirmFixture()

		f.orders.On("GetByCheckoutRef", ctx, "stripe", "cs_123").Return(pendingOrder(), nil).Once()
		f.processed.On("MarkProcessed", ctx, "stripe", "pi_abc").Return(false, errors.New("redis down")).Once()
		f.orders.On("ApprovePaymentIf", ctx, "ord-1", "pi_abc").Return(true, nil).Once()
		f.products.On("DecrementStock", ctx, "prod-1", "M", 2).Return(nil).Once()
		f.cache.On("SetStatus", ctx, "ord-1", "confirmed").Return(nil).Once()
		f.events.On("PublishStatusChanged", ctx, mock.Anything).Return(nil).Once()
		f.notify.On("PublishConfirmed", ctx, mock.Anything).Return(nil).Once()
		f.log.On("Record", ctx, mock.Anything).Return(nil).Once()

		err := f.uc.Execute(ctx, stripeEvent())

		assert.NoError(t, err)
		f.orders.AssertExpectations(t)
	})

	t.Run("unmatched event acks and records", func(t *testing.T) {
		f := newConfirmFixture()

		f.orders.On("GetByCheckoutRef", ctx, "stripe", "cs_123").Return(nil, nil).Once()
		f.log.On("Record", ctx, mock.MatchedBy(func(r usecase.WebhookRecord) bool {
			return r.Outcome == "unmatched" && r.OrderID == ""
		})).Return(nil).Once()

		err := f.uc.Execute(ctx, stripeEvent())

		assert.NoError(t, err, "unmatched is expected noise, not an error")
		f.orders.AssertNotCalled(t, "ApprovePaymentIf", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("falls back to order ref when checkout ref misses", func(t *testing.T) {
		f := newConfirmFixture()

		ev := payment.Event{
			Provider:          "mercadopago",
			Kind:              payment.EventPaymentCompleted,
			ExternalPaymentID: "12345",
			CheckoutRef:       "pref-9",
			OrderRef:          "ord-1",
		}
		order := pendingOrder()
		order.PaymentMethod = "mercadopago"

		f.orders.On("GetByCheckoutRef", ctx, "mercadopago", "pref-9").Return(nil, nil).Once()
		f.orders.On("GetByID", ctx, "ord-1").Return(order, nil).Once()
		f.processed.On("MarkProcessed", ctx, "mercadopago", "12345").Return(true, nil).Once()
		f.orders.On("ApprovePaymentIf", ctx, "ord-1", "12345").Return(true, nil).Once()
		f.products.On("DecrementStock", ctx, "prod-1", "M", 2).Return(nil).Once()
		f.cache.On("SetStatus", ctx, "ord-1", "confirmed").Return(nil).Once()
		f.events.On("PublishStatusChanged", ctx, mock.Anything).Return(nil).Once()
		f.notify.On("PublishConfirmed", ctx, mock.Anything).Return(nil).Once()
		f.log.On("Record", ctx, mock.Anything).Return(nil).Once()

		err := f.uc.Execute(ctx, ev)

		assert.NoError(t, err)
		f.orders.AssertExpectations(t)
	})

	t.Run("payer details from provider refresh the order", func(t *testing.T) {
		f := newConfirmFixture()

		ev := stripeEvent()
		ev.PayerEmail = "real@example.com"
		ev.ShippingZip = "06600"

		f.orders.On("GetByCheckoutRef", ctx, "stripe", "cs_123").Return(pendingOrder(), nil).Once()
		f.processed.On("MarkProcessed", ctx, "stripe", "pi_abc").Return(true, nil).Once()
		f.orders.On("ApprovePaymentIf", ctx, "ord-1", "pi_abc").Return(true, nil).Once()
		f.orders.On("UpdateShipping", ctx, "ord-1", "real@example.com", "06600").Return(nil).Once()
		f.products.On("DecrementStock", ctx, "prod-1", "M", 2).Return(nil).Once()
		f.cache.On("SetStatus", ctx, "ord-1", "confirmed").Return(nil).Once()
		f.events.On("PublishStatusChanged", ctx, mock.Anything).Return(nil).Once()
		f.notify.On("PublishConfirmed", ctx, mock.Anything).Return(nil).Once()
		f.log.On("Record", ctx, mock.Anything).Return(nil).Once()

		err := f.uc.Execute(ctx, ev)

		assert.NoError(t, err)
		f.orders.AssertExpectations(t)
	})

	t.Run("stock decrement failure does not roll back approval", func(t *testing.T) {
		f := newConfirmFixture()

		f.orders.On("GetByCheckoutRef", ctx, "stripe", "cs_123").Return(pendingOrder(), nil).Once()
		f.processed.On("MarkProcessed", ctx, "stripe", "pi_abc").Return(true, nil).Once()
		f.orders.On("ApprovePaymentIf", ctx, "ord-1", "pi_abc").Return(true, nil).Once()
		f.products.On("DecrementStock", ctx, "prod-1", "M", 2).Return(domain.ErrInsufficientStock).Once()
		f.cache.On("SetStatus", ctx, "ord-1", "confirmed").Return(nil).Once()
		f.events.On("PublishStatusChanged", ctx, mock.Anything).Return(nil).Once()
		f.notify.On("PublishConfirmed", ctx, mock.Anything).Return(nil).Once()
		f.log.On("Record", ctx, mock.MatchedBy(func(r usecase.WebhookRecord) bool {
			return r.Outcome == "approved"
		})).Return(nil).Once()

		err := f.uc.Execute(ctx, stripeEvent())

		assert.NoError(t, err, "the customer paid; oversell is reconciled manually")
	})

	t.Run("repo failure propagates for provider retry", func(t *testing.T) {
		f := newConfirmFixture()

		f.orders.On("GetByCheckoutRef", ctx, "stripe", "cs_123").Return(pendingOrder(), nil).Once()
		f.processed.On("MarkProcessed", ctx, "stripe", "pi_abc").Return(true, nil).Once()
		f.orders.On("ApprovePaymentIf", ctx, "ord-1", "pi_abc").Return(false, errors.New("db gone")).Once()
		f.log.On("Record", ctx, mock.MatchedBy(func(r usecase.WebhookRecord) bool {
			return r.Outcome == "error"
		})).Return(nil).Once()

		err := f.uc.Execute(ctx, stripeEvent())

		assert.Error(t, err)
	})
}
