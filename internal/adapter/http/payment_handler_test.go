package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	domain "github.com/tiendamx/shop-api/internal/entity"
	"github.com/tiendamx/shop-api/internal/payment"
	"github.com/tiendamx/shop-api/internal/usecase"
	"github.com/tiendamx/shop-api/internal/usecase/mocks"
)

type staticProvider struct {
	name  string
	event *payment.Event
	err   error
}

func (s *staticProvider) Name() string  { return s.name }
func (s *staticProvider) Enabled() bool { return true }
func (s *staticProvider) CreateCheckout(context.Context, payment.CheckoutRequest) (*payment.CheckoutResult, error) {
	return nil, nil
}
func (s *staticProvider) VerifyWebhook([]byte, string) (*payment.Event, error) {
	return s.event, s.err
}

func webhookRig(t *testing.T, p payment.Provider) (*gin.Engine, *mocks.MockOrderRepo, *mocks.MockProductRepo, *mocks.MockWebhookLog) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	orders := new(mocks.MockOrderRepo)
	products := new(mocks.MockProductRepo)
	whLog := new(mocks.MockWebhookLog)
	confirm := usecase.NewConfirmPayment(orders, products, nil, nil, nil, nil, whLog)

	orch := payment.NewOrchestrator(p)
	ph := NewPaymentHandler(orch, usecase.NewCreateCheckout(orders, orch), confirm)

	r := gin.New()
	r.POST("/api/payments/webhook/:provider", ph.Webhook)
	return r, orders, products, whLog
}

func postWebhook(r *gin.Engine, path, body, sigHeader, sig string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if sig != "" {
		req.Header.Set(sigHeader, sig)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookEndpoint(t *testing.T) {
	t.Run("invalid signature returns 401", func(t *testing.T) {
		r, _, _, _ := webhookRig(t, &staticProvider{name: "stripe", err: payment.ErrInvalidSignature})

		w := postWebhook(r, "/api/payments/webhook/stripe", `{}`, "Stripe-Signature", "t=1,v1=bad")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown provider returns 404", func(t *testing.T) {
		r, _, _, _ := webhookRig(t, &staticProvider{name: "stripe"})

		w := postWebhook(r, "/api/payments/webhook/paypal", `{}`, "", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("non-actionable event acked with 200", func(t *testing.T) {
		r, orders, _, _ := webhookRig(t, &staticProvider{name: "stripe", event: nil})

		w := postWebhook(r, "/api/payments/webhook/stripe", `{}`, "Stripe-Signature", "t=1,v1=ok")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"received":true`)
		orders.AssertNotCalled(t, "GetByCheckoutRef", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("completed payment flows through confirmation", func(t *testing.T) {
		ev := &payment.Event{
			Provider:          "stripe",
			Kind:              payment.EventPaymentCompleted,
			ExternalPaymentID: "pi_1",
			CheckoutRef:       "cs_1",
		}
		r, orders, products, whLog := webhookRig(t, &staticProvider{name: "stripe", event: ev})

		order := &domain.Order{
			ID:    "ord-1",
			Items: []domain.OrderItem{{ProductID: "prod-1", Size: "M", Quantity: 1}},
		}
		orders.On("GetByCheckoutRef", mock.Anything, "stripe", "cs_1").Return(order, nil).Once()
		orders.On("ApprovePaymentIf", mock.Anything, "ord-1", "pi_1").Return(true, nil).Once()
		products.On("DecrementStock", mock.Anything, "prod-1", "M", 1).Return(nil).Once()
		whLog.On("Record", mock.Anything, mock.MatchedBy(func(rec usecase.WebhookRecord) bool {
			return rec.Outcome == "approved"
		})).Return(nil).Once()

		w := postWebhook(r, "/api/payments/webhook/stripe", `{}`, "Stripe-Signature", "t=1,v1=ok")

		assert.Equal(t, http.StatusOK, w.Code)
		orders.AssertExpectations(t)
		products.AssertExpectations(t)
	})

	t.Run("unmatched order still acked with 200", func(t *testing.T) {
		ev := &payment.Event{Provider: "stripe", Kind: payment.EventPaymentCompleted, ExternalPaymentID: "pi_x", CheckoutRef: "cs_x"}
		r, orders, _, whLog := webhookRig(t, &staticProvider{name: "stripe", event: ev})

		orders.On("GetByCheckoutRef", mock.Anything, "stripe", "cs_x").Return(nil, nil).Once()
		whLog.On("Record", mock.Anything, mock.MatchedBy(func(rec usecase.WebhookRecord) bool {
			return rec.Outcome == "unmatched"
		})).Return(nil).Once()

		w := postWebhook(r, "/api/payments/webhook/stripe", `{}`, "Stripe-Signature", "t=1,v1=ok")

		assert.Equal(t, http.StatusOK, w.Code)
		whLog.AssertExpectations(t)
	})
}
