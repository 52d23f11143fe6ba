// Package stripe integrates the card-style provider: hosted checkout sessions
// created over Stripe's form-encoded REST API, webhooks authenticated with the
// signed-payload scheme (`t=<ts>,v1=<hmac>`) over the untouched request bytes.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tiendamx/shop-api/internal/payment"
	"github.com/tiendamx/shop-api/internal/security"
)

const defaultAPIBase = "https://api.stripe.com"

// signatureTolerance bounds webhook replay: signatures older than this are
// rejected even when the HMAC checks out.
const signatureTolerance = 5 * time.Minute

type Config struct {
	SecretKey     string
	WebhookSecret string
	APIBase       string
	SuccessURL    string
	CancelURL     string
	Currency      string
}

type Provider struct {
	cfg    Config
	client *http.Client
	now    func() time.Time
}

// New builds the provider from an explicit config value; nothing is read from
// process env after startup.
func New(cfg Config) *Provider {
	if cfg.APIBase == "" {
		cfg.APIBase = defaultAPIBase
	}
	if cfg.Currency == "" {
		cfg.Currency = "mxn"
	}
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		now:    time.Now,
	}
}

func (p *Provider) Name() string  { return "stripe" }
func (p *Provider) Enabled() bool { return p.cfg.SecretKey != "" }

type sessionResp struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *Provider) CreateCheckout(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutResult, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	form.Set("success_url", p.cfg.SuccessURL+"?session_id={CHECKOUT_SESSION_ID}&order_id="+req.OrderID+"&provider=stripe")
	form.Set("cancel_url", p.cfg.CancelURL)
	form.Set("customer_email", req.CustomerEmail)
	// The order id rides in session metadata and comes back on the
	// checkout.session.completed webhook.
	form.Set("metadata[order_id]", req.OrderID)
	form.Set("metadata[order_number]", req.OrderNumber)
	for i, it := range req.Items {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[quantity]", strconv.Itoa(it.Quantity))
		form.Set(prefix+"[price_data][currency]", p.cfg.Currency)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(it.UnitPriceCents, 10))
		form.Set(prefix+"[price_data][product_data][name]", it.Name)
		form.Set(prefix+"[price_data][product_data][description]", "Talla: "+it.Size)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.APIBase+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.SecretKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("stripe: create session: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("stripe: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		_ = json.Unmarshal(body, &apiErr)
		return nil, fmt.Errorf("stripe: session rejected (%d): %s", resp.StatusCode, apiErr.Error.Message)
	}

	var s sessionResp
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("stripe: decode response: %w", err)
	}

	return &payment.CheckoutResult{
		Provider:   p.Name(),
		ExternalID: s.ID,
		SessionID:  s.ID,
		PaymentURL: s.URL,
	}, nil
}

type wireEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID              string            `json:"id"`
			PaymentIntent   string            `json:"payment_intent"`
			Metadata        map[string]string `json:"metadata"`
			CustomerDetails struct {
				Email string `json:"email"`
			} `json:"customer_details"`
			ShippingDetails struct {
				Address struct {
					PostalCode string `json:"postal_code"`
				} `json:"address"`
			} `json:"shipping_details"`
		} `json:"object"`
	} `json:"data"`
}

// VerifyWebhook recomputes the signature over the exact wire bytes. Any
// re-serialization of the payload upstream breaks verification, so the raw
// body must arrive here unmodified.
func (p *Provider) VerifyWebhook(payload []byte, signature string) (*payment.Event, error) {
	if p.cfg.WebhookSecret == "" || signature == "" {
		return nil, payment.ErrInvalidSignature
	}

	ts, candidates, err := parseSignatureHeader(signature)
	if err != nil {
		return nil, payment.ErrInvalidSignature
	}

	age := p.now().Sub(time.Unix(ts, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return nil, fmt.Errorf("%w: timestamp outside tolerance", payment.ErrInvalidSignature)
	}

	signed := append([]byte(strconv.FormatInt(ts, 10)+"."), payload...)
	ok := false
	for _, c := range candidates {
		if security.VerifyHMACSHA256([]byte(p.cfg.WebhookSecret), signed, c) {
			ok = true
			break
		}
	}
	if !ok {
		return nil, payment.ErrInvalidSignature
	}

	var ev wireEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("stripe: decode event: %w", err)
	}
	if ev.Type != "checkout.session.completed" {
		// Authentic but not actionable (payment_intent.created etc.).
		return nil, nil
	}

	obj := ev.Data.Object
	extPaymentID := obj.PaymentIntent
	if extPaymentID == "" {
		extPaymentID = obj.ID
	}
	return &payment.Event{
		Provider:          p.Name(),
		Kind:              payment.EventPaymentCompleted,
		ExternalPaymentID: extPaymentID,
		CheckoutRef:       obj.ID,
		OrderRef:          obj.Metadata["order_id"],
		PayerEmail:        obj.CustomerDetails.Email,
		ShippingZip:       obj.ShippingDetails.Address.PostalCode,
	}, nil
}

// parseSignatureHeader splits "t=1699000000,v1=abc,v1=def" into the timestamp
// and the v1 candidates (Stripe sends several during secret rotation).
func parseSignatureHeader(header string) (int64, []string, error) {
	var ts int64 = -1
	var candidates []string
	for _, part := range strings.Split(header, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return 0, nil, err
			}
			ts = n
		case "v1":
			candidates = append(candidates, v)
		}
	}
	if ts < 0 || len(candidates) == 0 {
		return 0, nil, fmt.Errorf("malformed signature header")
	}
	return ts, candidates, nil
}
