// README: PayPulse gateway client; server-to-server initiate and pidx lookup.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/surajacharya12/Mr.Fodee-sub000/internal/config"
	"github.com/surajacharya12/Mr.Fodee-sub000/internal/types"
)

type PayPulseClient struct {
	cfg  config.PayPulseConfig
	http *http.Client
}

func NewPayPulseClient(cfg config.PayPulseConfig) *PayPulseClient {
	return &PayPulseClient{
		cfg:  cfg,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

type payPulseInitiateResponse struct {
	Pidx       string `json:"pidx"`
	PaymentURL string `json:"payment_url"`
}

type payPulseLookupResponse struct {
	Pidx          string `json:"pidx"`
	TotalAmount   int64  `json:"total_amount"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
}

// Initiate registers the payment with the gateway and returns the hosted
// payment URL. The amount goes over the wire in paisa.
func (c *PayPulseClient) Initiate(ctx context.Context, orderID string, amount decimal.Decimal) (InitiateResult, error) {
	body := map[string]any{
		"return_url":          c.cfg.ReturnURL,
		"website_url":         c.cfg.WebsiteURL,
		"amount":              types.Paisa(amount),
		"purchase_order_id":   orderID,
		"purchase_order_name": "Fodee order " + orderID,
	}
	var out payPulseInitiateResponse
	if err := c.post(ctx, "/epayment/initiate/", body, &out); err != nil {
		return InitiateResult{}, err
	}
	return InitiateResult{RedirectURL: out.PaymentURL, Pidx: out.Pidx}, nil
}

// Verify looks the pidx up server-side; the redirect parameters alone are
// never trusted.
func (c *PayPulseClient) Verify(ctx context.Context, pidx string) (*Confirmation, error) {
	var out payPulseLookupResponse
	if err := c.post(ctx, "/epayment/lookup/", map[string]any{"pidx": pidx}, &out); err != nil {
		return nil, err
	}
	if !strings.EqualFold(out.Status, "Completed") {
		return nil, ErrPaymentIncomplete
	}
	raw, _ := json.Marshal(out)
	amount := decimal.NewFromInt(out.TotalAmount).Div(decimal.NewFromInt(100))
	return &Confirmation{TransactionID: out.TransactionID, Amount: amount, Raw: raw}, nil
}

func (c *PayPulseClient) post(ctx context.Context, path string, body map[string]any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+c.cfg.SecretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", path, ErrGatewayUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %d: %w", path, resp.StatusCode, ErrGatewayUnavailable)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s decode: %w", path, ErrGatewayUnavailable)
	}
	return nil
}
