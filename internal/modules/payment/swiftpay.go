// README: SwiftPay gateway client. Redirects carry an HMAC-SHA256 signature;
// verify never trusts the browser callback without a server-side status check.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/surajacharya12/Mr.Fodee-sub000/internal/config"
)

type SwiftPayClient struct {
	cfg  config.SwiftPayConfig
	http *http.Client
}

func NewSwiftPayClient(cfg config.SwiftPayConfig) *SwiftPayClient {
	return &SwiftPayClient{
		cfg:  cfg,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

const swiftPaySignedFields = "total_amount,transaction_uuid,product_code"

// Initiate builds the signed form the customer's browser posts to the
// gateway. Nothing is persisted; this is a pure computation.
func (c *SwiftPayClient) Initiate(orderID string, amount decimal.Decimal) InitiateResult {
	total := amount.StringFixed(2)
	fields := map[string]string{
		"amount":                  total,
		"tax_amount":              "0",
		"total_amount":            total,
		"transaction_uuid":        orderID,
		"product_code":            c.cfg.ProductCode,
		"product_service_charge":  "0",
		"product_delivery_charge": "0",
		"success_url":             c.cfg.SuccessURL,
		"failure_url":             c.cfg.FailureURL,
		"signed_field_names":      swiftPaySignedFields,
	}
	fields["signature"] = c.sign(fields, swiftPaySignedFields)
	return InitiateResult{
		RedirectURL: c.cfg.BaseURL + "/api/epay/main/v2/form",
		FormFields:  fields,
	}
}

// swiftPayCallback is the base64 JSON blob the gateway appends to the success
// redirect.
type swiftPayCallback struct {
	TransactionCode  string `json:"transaction_code"`
	Status           string `json:"status"`
	TotalAmount      string `json:"total_amount"`
	TransactionUUID  string `json:"transaction_uuid"`
	ProductCode      string `json:"product_code"`
	SignedFieldNames string `json:"signed_field_names"`
	Signature        string `json:"signature"`
}

type swiftPayStatusResponse struct {
	Status string `json:"status"`
	RefID  string `json:"ref_id"`
}

// Verify decodes the callback payload, checks its signature and status, and
// then re-verifies against the gateway's own status endpoint so a forged
// client-side callback can never complete a payment.
func (c *SwiftPayClient) Verify(ctx context.Context, data string) (*Confirmation, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode callback: %w", ErrPaymentIncomplete)
	}
	var cb swiftPayCallback
	if err := json.Unmarshal(raw, &cb); err != nil {
		return nil, fmt.Errorf("parse callback: %w", ErrPaymentIncomplete)
	}

	values := map[string]string{
		"transaction_code":   cb.TransactionCode,
		"status":             cb.Status,
		"total_amount":       cb.TotalAmount,
		"transaction_uuid":   cb.TransactionUUID,
		"product_code":       cb.ProductCode,
		"signed_field_names": cb.SignedFieldNames,
	}
	if !hmac.Equal([]byte(c.sign(values, cb.SignedFieldNames)), []byte(cb.Signature)) {
		return nil, ErrSignatureMismatch
	}
	if !strings.EqualFold(cb.Status, "COMPLETE") {
		return nil, ErrPaymentIncomplete
	}

	amount, err := parseGatewayAmount(cb.TotalAmount)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", cb.TotalAmount, ErrPaymentIncomplete)
	}

	status, err := c.lookupStatus(ctx, cb.TransactionUUID, cb.TotalAmount)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(status.Status, "COMPLETE") {
		return nil, ErrPaymentIncomplete
	}

	txnID := status.RefID
	if txnID == "" {
		txnID = cb.TransactionCode
	}
	return &Confirmation{TransactionID: txnID, Amount: amount, Raw: raw}, nil
}

func (c *SwiftPayClient) lookupStatus(ctx context.Context, transactionUUID, totalAmount string) (*swiftPayStatusResponse, error) {
	q := url.Values{}
	q.Set("product_code", c.cfg.ProductCode)
	q.Set("total_amount", totalAmount)
	q.Set("transaction_uuid", transactionUUID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/api/epay/transaction/status/?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("status lookup: %w", ErrGatewayUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status lookup returned %d: %w", resp.StatusCode, ErrGatewayUnavailable)
	}
	var out swiftPayStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("status lookup decode: %w", ErrGatewayUnavailable)
	}
	return &out, nil
}

// sign computes base64(HMAC-SHA256) over "k=v,k=v" for the named fields, in
// the order the gateway names them.
func (c *SwiftPayClient) sign(values map[string]string, signedFieldNames string) string {
	names := strings.Split(signedFieldNames, ",")
	pairs := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		pairs = append(pairs, name+"="+values[name])
	}
	mac := hmac.New(sha256.New, []byte(c.cfg.SecretKey))
	mac.Write([]byte(strings.Join(pairs, ",")))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// parseGatewayAmount tolerates the gateway's thousands separators ("1,100.0").
func parseGatewayAmount(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
}
