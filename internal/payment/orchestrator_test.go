package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeProvider struct {
	name    string
	enabled bool

	checkout *CheckoutResult
	event    *Event
	err      error

	gotPayload   []byte
	gotSignature string
}

func (f *fakeProvider) Name() string  { return f.name }
func (f *fakeProvider) Enabled() bool { return f.enabled }

func (f *fakeProvider) CreateCheckout(_ context.Context, _ CheckoutRequest) (*CheckoutResult, error) {
	return f.checkout, f.err
}

func (f *fakeProvider) VerifyWebhook(payload []byte, signature string) (*Event, error) {
	f.gotPayload = payload
	f.gotSignature = signature
	return f.event, f.err
}

func TestOrchestrator_CreateCheckout(t *testing.T) {
	enabled := &fakeProvider{name: "stripe", enabled: true, checkout: &CheckoutResult{Provider: "stripe"}}
	disabled := &fakeProvider{name: "mercadopago", enabled: false}
	o := NewOrchestrator(enabled, disabled)

	t.Run("dispatches to the named provider", func(t *testing.T) {
		res, err := o.CreateCheckout(context.Background(), "stripe", CheckoutRequest{})
		assert.NoError(t, err)
		assert.Equal(t, "stripe", res.Provider)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := o.CreateCheckout(context.Background(), "paypal", CheckoutRequest{})
		assert.ErrorIs(t, err, ErrUnsupportedProvider)
	})

	t.Run("unconfigured provider is refused, not substituted", func(t *testing.T) {
		_, err := o.CreateCheckout(context.Background(), "mercadopago", CheckoutRequest{})
		assert.ErrorIs(t, err, ErrProviderDisabled)
	})
}

func TestOrchestrator_HandleWebhook(t *testing.T) {
	p := &fakeProvider{name: "stripe", enabled: true, event: &Event{Provider: "stripe"}}
	o := NewOrchestrator(p)

	t.Run("passes raw payload and signature through untouched", func(t *testing.T) {
		payload := []byte(`{"type":"checkout.session.completed"}`)
		ev, err := o.HandleWebhook("stripe", payload, "t=1,v1=abc")

		assert.NoError(t, err)
		assert.Equal(t, "stripe", ev.Provider)
		assert.Equal(t, payload, p.gotPayload)
		assert.Equal(t, "t=1,v1=abc", p.gotSignature)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := o.HandleWebhook("paypal", nil, "")
		assert.ErrorIs(t, err, ErrUnsupportedProvider)
	})
}

func TestOrchestrator_Available(t *testing.T) {
	o := NewOrchestrator(
		&fakeProvider{name: "stripe", enabled: true},
		&fakeProvider{name: "mercadopago", enabled: false},
	)

	got := o.Available()

	assert.Equal(t, []ProviderStatus{
		{Name: "stripe", Enabled: true},
		{Name: "mercadopago", Enabled: false},
	}, got, "registration order is preserved")
}
