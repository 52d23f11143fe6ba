// Package mercadopago integrates the redirect-style provider: checkout
// preferences created over the JSON REST API, webhooks authenticated with an
// HMAC over the JSON payload when a signing secret is configured.
package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tiendamx/shop-api/internal/logging"
	"github.com/tiendamx/shop-api/internal/payment"
	"github.com/tiendamx/shop-api/internal/security"
)

const defaultAPIBase = "https://api.mercadopago.com"

// testCard is the fixed sandbox instrument surfaced to clients in test mode.
const testCard = "4509 9535 6623 3704 (12/25 - 123)"

type Config struct {
	AccessToken   string
	WebhookSecret string
	APIBase       string
	FrontendURL   string
	// NotifyURL is where the provider delivers payment notifications.
	NotifyURL string
	Currency  string
}

type Provider struct {
	cfg    Config
	client *http.Client
	log    *slog.Logger
}

func New(cfg Config) *Provider {
	if cfg.APIBase == "" {
		cfg.APIBase = defaultAPIBase
	}
	if cfg.Currency == "" {
		cfg.Currency = "MXN"
	}
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    logging.New("mercadopago"),
	}
}

func (p *Provider) Name() string  { return "mercadopago" }
func (p *Provider) Enabled() bool { return p.cfg.AccessToken != "" }

// sandbox credentials are issued with a TEST- prefix.
func (p *Provider) sandbox() bool { return strings.HasPrefix(p.cfg.AccessToken, "TEST-") }

type preferenceItem struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
	CurrencyID  string  `json:"currency_id"`
	Description string  `json:"description"`
	CategoryID  string  `json:"category_id"`
}

type backURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type preferenceReq struct {
	Items             []preferenceItem `json:"items"`
	BackURLs          backURLs         `json:"back_urls"`
	AutoReturn        string           `json:"auto_return"`
	ExternalReference string           `json:"external_reference"`
	NotificationURL   string           `json:"notification_url"`
	Expires           bool             `json:"expires"`
}

type preferenceResp struct {
	ID              string `json:"id"`
	InitPoint       string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

func (p *Provider) CreateCheckout(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutResult, error) {
	items := make([]preferenceItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = preferenceItem{
			ID:          it.ProductID,
			Title:       truncateTitle(it.Name),
			UnitPrice:   float64(it.UnitPriceCents) / 100,
			Quantity:    it.Quantity,
			CurrencyID:  p.cfg.Currency,
			Description: "Talla: " + it.Size,
			CategoryID:  "fashion",
		}
	}

	body, err := json.Marshal(preferenceReq{
		Items: items,
		BackURLs: backURLs{
			Success: p.cfg.FrontendURL + "/checkout/success",
			Failure: p.cfg.FrontendURL + "/checkout/failure",
			Pending: p.cfg.FrontendURL + "/checkout/pending",
		},
		AutoReturn:        "approved",
		ExternalReference: req.OrderID,
		NotificationURL:   p.cfg.NotifyURL,
		Expires:           false,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.APIBase+"/checkout/preferences", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.AccessToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: create preference: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("mercadopago: preference rejected (%d): %s", resp.StatusCode, string(respBody))
	}

	var pref preferenceResp
	if err := json.Unmarshal(respBody, &pref); err != nil {
		return nil, fmt.Errorf("mercadopago: decode response: %w", err)
	}

	payURL := pref.InitPoint
	sandbox := p.sandbox()
	if sandbox {
		payURL = pref.SandboxInitPoint
	}
	if payURL == "" {
		return nil, fmt.Errorf("mercadopago: preference %s returned no payment url", pref.ID)
	}

	res := &payment.CheckoutResult{
		Provider:   p.Name(),
		ExternalID: pref.ID,
		PaymentURL: payURL,
		Sandbox:    sandbox,
	}
	if sandbox {
		res.TestCard = testCard
	}
	return res, nil
}

type wireNotification struct {
	Type string `json:"type"`
	Data struct {
		ID json.Number `json:"id"`
	} `json:"data"`
	PreferenceID      string `json:"preference_id"`
	ExternalReference string `json:"external_reference"`
}

// VerifyWebhook checks the keyed hash over the JSON payload when a secret is
// configured. Without a secret, verification is skipped — explicitly
// permissive for sandbox notifications, which arrive unsigned.
func (p *Provider) VerifyWebhook(payload []byte, signature string) (*payment.Event, error) {
	switch {
	case p.cfg.WebhookSecret == "":
		p.log.Warn("webhook accepted without verification: no signing secret configured")
	case signature == "":
		p.log.Warn("webhook accepted without signature (sandbox delivery)")
	default:
		if !security.VerifyHMACSHA256([]byte(p.cfg.WebhookSecret), payload, signature) {
			return nil, payment.ErrInvalidSignature
		}
	}

	var n wireNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, fmt.Errorf("mercadopago: decode notification: %w", err)
	}
	if n.Type != "payment" {
		// merchant_order and other informational kinds are ignored.
		return nil, nil
	}

	return &payment.Event{
		Provider:          p.Name(),
		Kind:              payment.EventPaymentCompleted,
		ExternalPaymentID: n.Data.ID.String(),
		CheckoutRef:       n.PreferenceID,
		OrderRef:          n.ExternalReference,
	}, nil
}

// truncateTitle keeps preference item titles inside the provider's 50-char cap.
func truncateTitle(s string) string {
	if len(s) > 50 {
		return s[:47] + "..."
	}
	return s
}
