// README: Order aggregate, delivery/payment status definitions and the transition table.
package order

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/surajacharya12/Mr.Fodee-sub000/internal/types"
)

type Status string

const (
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusAssigned       Status = "assigned"
	StatusAccepted       Status = "accepted"
	StatusPickedUp       Status = "picked_up"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

// PaymentStatus is an independent axis from Status: a delivered COD order can
// still be payment-pending, a confirmed prepaid order already completed. The
// one coupling rule is that Delivered forces Completed.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	MethodCOD      PaymentMethod = "cod"
	MethodCard     PaymentMethod = "card"
	MethodSwiftPay PaymentMethod = "swiftpay"
	MethodPayPulse PaymentMethod = "paypulse"
)

func ToPaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(s); m {
	case MethodCOD, MethodCard, MethodSwiftPay, MethodPayPulse:
		return m, nil
	}
	return "", errors.New("invalid payment method")
}

func ToStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusConfirmed, StatusAssigned, StatusAccepted,
		StatusPickedUp, StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return st, nil
	}
	return "", errors.New("invalid order status")
}

func ToPaymentStatus(s string) (PaymentStatus, error) {
	switch ps := PaymentStatus(s); ps {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return ps, nil
	}
	return "", errors.New("invalid payment status")
}

// AddressKind tags the delivery address variant, decided once at write time
// instead of sniffing string prefixes on every read.
type AddressKind string

const (
	AddressText    AddressKind = "text"
	AddressMapLink AddressKind = "map_link"
)

type Address struct {
	Kind  AddressKind `json:"kind"`
	Value string      `json:"value"`
}

// NewAddress classifies the raw value: anything that parses as an http(s) URL
// is stored as a map link, everything else as free text.
func NewAddress(raw string) (Address, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Address{}, errors.New("empty delivery address")
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		if _, err := url.ParseRequestURI(trimmed); err != nil {
			return Address{}, errors.New("malformed map link")
		}
		return Address{Kind: AddressMapLink, Value: trimmed}, nil
	}
	return Address{Kind: AddressText, Value: trimmed}, nil
}

type Item struct {
	FoodID   types.ID        `json:"food_id"`
	Quantity int             `json:"quantity"`
	// UnitPrice is captured at order time and never re-read from the catalog.
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type Order struct {
	ID           uuid.UUID
	CustomerID   types.ID
	RestaurantID *types.ID
	RiderID      *types.ID

	// RestaurantLocation is captured at creation and is the matcher's input.
	RestaurantLocation *types.Point

	Items       []Item
	TotalAmount decimal.Decimal
	Address     Address
	Method      PaymentMethod

	Status        Status
	StatusVersion int

	PaymentStatus  PaymentStatus
	TransactionID  *string
	PaymentDetails []byte

	Instructions string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Event struct {
	ID         int64
	OrderID    uuid.UUID
	FromStatus Status
	ToStatus   Status
	ActorType  string
	ActorID    *types.ID
	CreatedAt  time.Time
}

// AllowedTransitions is the fulfillment state flow as code. Cancelled is
// reachable from every non-terminal status; which actors may trigger it is
// policy, not mechanics (see DESIGN.md).
var AllowedTransitions = map[Status][]Status{
	StatusPending:        {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusAssigned, StatusCancelled},
	StatusAssigned:       {StatusAccepted, StatusCancelled},
	StatusAccepted:       {StatusPickedUp, StatusCancelled},
	StatusPickedUp:       {StatusOutForDelivery, StatusCancelled},
	StatusOutForDelivery: {StatusDelivered, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// ActiveRiderStatuses are the statuses that make up a rider's work queue.
var ActiveRiderStatuses = []Status{
	StatusAssigned, StatusAccepted, StatusPickedUp, StatusOutForDelivery,
}
