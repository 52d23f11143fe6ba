package payment

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrUnsupportedProvider = errors.New("unsupported payment provider")
	ErrProviderDisabled    = errors.New("payment provider not configured")
	ErrInvalidSignature    = errors.New("invalid webhook signature")
)

// ProviderStatus reports whether a registered provider has its credentials
// configured. A provider with missing configuration is reported disabled,
// never silently swapped for another.
type ProviderStatus struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// Orchestrator is a stateless dispatcher over the registered providers. It is
// built once at startup; the registry never changes afterwards.
type Orchestrator struct {
	providers map[string]Provider
	order     []string
}

func NewOrchestrator(providers ...Provider) *Orchestrator {
	o := &Orchestrator{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		o.providers[p.Name()] = p
		o.order = append(o.order, p.Name())
	}
	return o
}

func (o *Orchestrator) CreateCheckout(ctx context.Context, provider string, req CheckoutRequest) (*CheckoutResult, error) {
	p, ok := o.providers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}
	if !p.Enabled() {
		return nil, fmt.Errorf("%w: %s", ErrProviderDisabled, provider)
	}
	return p.CreateCheckout(ctx, req)
}

// HandleWebhook authenticates and normalizes a raw webhook delivery. A nil
// event with nil error means the payload was authentic but not actionable.
func (o *Orchestrator) HandleWebhook(provider string, payload []byte, signature string) (*Event, error) {
	p, ok := o.providers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}
	return p.VerifyWebhook(payload, signature)
}

func (o *Orchestrator) Available() []ProviderStatus {
	out := make([]ProviderStatus, 0, len(o.order))
	for _, name := range o.order {
		out = append(out, ProviderStatus{Name: name, Enabled: o.providers[name].Enabled()})
	}
	return out
}
