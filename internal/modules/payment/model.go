// README: Payment bridge types and error taxonomy.
package payment

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/surajacharya12/Mr.Fodee-sub000/internal/modules/order"
)

var (
	ErrUnsupportedMethod  = errors.New("payment method has no gateway")
	ErrAlreadyPaid        = errors.New("order payment already completed")
	ErrAmountMismatch     = errors.New("gateway amount does not match order total")
	ErrPaymentIncomplete  = errors.New("gateway reports payment not complete")
	ErrSignatureMismatch  = errors.New("gateway callback signature mismatch")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// InitiateResult is what the client needs to hand the customer off to the
// gateway. SwiftPay is a signed form post; PayPulse is a hosted payment URL.
type InitiateResult struct {
	Method      order.PaymentMethod `json:"method"`
	RedirectURL string              `json:"redirect_url"`
	FormFields  map[string]string   `json:"form_fields,omitempty"`
	Pidx        string              `json:"pidx,omitempty"`
}

// Confirmation is a gateway's verdict after server-side verification. Amount
// is normalized to rupees regardless of the gateway's wire unit.
type Confirmation struct {
	TransactionID string
	Amount        decimal.Decimal
	Raw           []byte
}
