package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tiendamx/shop-api/internal/adapter/http/middleware"
	"github.com/tiendamx/shop-api/internal/logging"
	"github.com/tiendamx/shop-api/internal/payment"
	"github.com/tiendamx/shop-api/internal/usecase"
)

type PaymentHandler struct {
	orch     *payment.Orchestrator
	checkout *usecase.CreateCheckout
	confirm  *usecase.ConfirmPayment
}

func NewPaymentHandler(orch *payment.Orchestrator, checkout *usecase.CreateCheckout, confirm *usecase.ConfirmPayment) *PaymentHandler {
	return &PaymentHandler{orch: orch, checkout: checkout, confirm: confirm}
}

type createCheckoutReq struct {
	OrderID  string `json:"orderId" binding:"required"`
	Provider string `json:"provider"`
}

// CreateCheckout opens a new provider session for an existing order.
func (h *PaymentHandler) CreateCheckout(c *gin.Context) {
	var req createCheckoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	res, err := h.checkout.Execute(ctx, req.OrderID, req.Provider)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *PaymentHandler) ListProviders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": h.orch.Available()})
}

// Webhook receives provider notifications. The body must reach signature
// verification byte-for-byte as sent, so it is read raw here and never bound.
//
// Contract with the providers' retry machinery: only a signature failure is
// rejected; every other outcome (unknown event kind, unmatched order,
// processing error) is acked with 200 so the provider stops retrying —
// failures land in the webhook log for reconciliation instead.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	providerName := c.Param("provider")
	log := logging.From(c)

	raw, err := c.GetRawData()
	if err != nil {
		middleware.WebhookEvents.WithLabelValues(providerName, "error").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	sig := c.GetHeader("Stripe-Signature")
	if sig == "" {
		sig = c.GetHeader("X-Signature")
	}

	ev, err := h.orch.HandleWebhook(providerName, raw, sig)
	switch {
	case errors.Is(err, payment.ErrUnsupportedProvider):
		middleware.WebhookEvents.WithLabelValues(providerName, "unknown_provider").Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown provider"})
		return
	case errors.Is(err, payment.ErrInvalidSignature):
		middleware.WebhookEvents.WithLabelValues(providerName, "rejected_signature").Inc()
		log.Warn("webhook signature rejected", "provider", providerName)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	case err != nil:
		middleware.WebhookEvents.WithLabelValues(providerName, "error").Inc()
		log.Error("webhook parse failed", "provider", providerName, "error", err)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	case ev == nil:
		// Authentic but not an event kind we act on.
		middleware.WebhookEvents.WithLabelValues(providerName, "ignored").Inc()
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	if err := h.confirm.Execute(ctx, *ev); err != nil {
		middleware.WebhookEvents.WithLabelValues(providerName, "error").Inc()
		log.Error("payment confirmation failed", "provider", providerName,
			"payment_ref", ev.ExternalPaymentID, "error", err)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	middleware.WebhookEvents.WithLabelValues(providerName, "processed").Inc()
	c.JSON(http.StatusOK, gin.H{"received": true})
}
