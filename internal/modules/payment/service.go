// README: Payment verification bridge. Reconciles gateway confirmations with
// the order's payment axis; never touches delivery status.
package payment

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/surajacharya12/Mr.Fodee-sub000/internal/modules/order"
	"github.com/surajacharya12/Mr.Fodee-sub000/internal/types"
)

// Orders is the slice of the order store this bridge needs.
type Orders interface {
	Get(ctx context.Context, id uuid.UUID) (*order.Order, error)
	MarkPaymentCompleted(ctx context.Context, id uuid.UUID, transactionID string, details []byte) (bool, error)
}

// Carts clears a customer's cart once an online payment settles; COD carts
// were already cleared at checkout.
type Carts interface {
	Clear(ctx context.Context, customerID types.ID) error
}

type Service struct {
	orders   Orders
	carts    Carts
	swiftpay *SwiftPayClient
	paypulse *PayPulseClient
}

func NewService(orders Orders, carts Carts, swiftpay *SwiftPayClient, paypulse *PayPulseClient) *Service {
	return &Service{orders: orders, carts: carts, swiftpay: swiftpay, paypulse: paypulse}
}

// Initiate computes the gateway redirect for an order. Pure read; order state
// is untouched.
func (s *Service) Initiate(ctx context.Context, orderID uuid.UUID, method order.PaymentMethod) (InitiateResult, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return InitiateResult{}, err
	}
	if o.PaymentStatus == order.PaymentCompleted {
		return InitiateResult{}, ErrAlreadyPaid
	}

	switch method {
	case order.MethodSwiftPay:
		res := s.swiftpay.Initiate(o.ID.String(), o.TotalAmount)
		res.Method = method
		return res, nil
	case order.MethodPayPulse:
		res, err := s.paypulse.Initiate(ctx, o.ID.String(), o.TotalAmount)
		if err != nil {
			return InitiateResult{}, err
		}
		res.Method = method
		return res, nil
	default:
		return InitiateResult{}, ErrUnsupportedMethod
	}
}

type VerifyRequest struct {
	OrderID uuid.UUID
	Method  order.PaymentMethod
	// Data is SwiftPay's base64 callback blob; Pidx is PayPulse's lookup key.
	Data string
	Pidx string
}

// Verify settles the payment axis from a gateway callback. Verifying an
// already-completed order is a no-op returning the stored order; a mismatch
// or gateway failure leaves every payment field untouched.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (*order.Order, error) {
	o, err := s.orders.Get(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if o.PaymentStatus == order.PaymentCompleted {
		return o, nil
	}

	var conf *Confirmation
	switch req.Method {
	case order.MethodSwiftPay:
		conf, err = s.swiftpay.Verify(ctx, req.Data)
	case order.MethodPayPulse:
		conf, err = s.paypulse.Verify(ctx, req.Pidx)
	default:
		return nil, ErrUnsupportedMethod
	}
	if err != nil {
		return nil, err
	}

	if !types.SameAmount(conf.Amount, o.TotalAmount) {
		return nil, ErrAmountMismatch
	}

	updated, err := s.orders.MarkPaymentCompleted(ctx, o.ID, conf.TransactionID, conf.Raw)
	if err != nil {
		return nil, err
	}
	if updated && s.carts != nil {
		if err := s.carts.Clear(ctx, o.CustomerID); err != nil {
			log.Printf("payment %s: clear cart for %s: %v", o.ID, o.CustomerID, err)
		}
	}
	// !updated means a concurrent verify settled first; both callers see the
	// same completed order.
	return s.orders.Get(ctx, o.ID)
}
