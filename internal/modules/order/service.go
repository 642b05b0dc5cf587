// README: Order service implements the fulfillment state machine, the
// confirm→match→assign flow, and the delivery completion side effects.
package order

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/surajacharya12/Mr.Fodee-sub000/internal/config"
	"github.com/surajacharya12/Mr.Fodee-sub000/internal/modules/rider"
	"github.com/surajacharya12/Mr.Fodee-sub000/internal/types"
)

var (
	ErrNotFound     = errors.New("order not found")
	ErrBadRequest   = errors.New("bad request")
	ErrInvalidState = errors.New("invalid state transition")
	ErrConflict     = errors.New("order state conflict")
	ErrNotAssignee  = errors.New("order is bound to a different rider")
)

// Matcher is the nearest-rider query; a nil rider with a nil error means no
// candidate, a non-nil error means the lookup backend failed.
type Matcher interface {
	NearestCandidates(ctx context.Context, p types.Point, radiusMeters float64) ([]rider.Rider, error)
}

// RiderPool covers the availability writes this service needs from the rider
// directory.
type RiderPool interface {
	Reserve(ctx context.Context, id types.ID) (bool, error)
	SetAvailable(ctx context.Context, id types.ID, available bool) error
	CreditDelivery(ctx context.Context, tx pgx.Tx, id types.ID, commission decimal.Decimal) error
}

// Notifier pushes best-effort realtime events; implementations must never
// block order progress on a slow or absent client.
type Notifier interface {
	Publish(riderID types.ID, event any)
}

// CartClearer is the cart collaborator; carts live outside this core.
type CartClearer interface {
	Clear(ctx context.Context, customerID types.ID) error
}

type Service struct {
	store    *Store
	matcher  Matcher
	riders   RiderPool
	notifier Notifier
	carts    CartClearer
	matchCfg config.MatchingConfig
	orderCfg config.OrderConfig
}

func NewService(store *Store, matcher Matcher, riders RiderPool, notifier Notifier, carts CartClearer, matchCfg config.MatchingConfig, orderCfg config.OrderConfig) *Service {
	return &Service{
		store:    store,
		matcher:  matcher,
		riders:   riders,
		notifier: notifier,
		carts:    carts,
		matchCfg: matchCfg,
		orderCfg: orderCfg,
	}
}

type CreateCommand struct {
	CustomerID         types.ID
	RestaurantID       *types.ID
	RestaurantLocation *types.Point
	Items              []Item
	TotalAmount        decimal.Decimal
	Address            string
	Method             PaymentMethod
	Instructions       string
}

// Create places a new order at pending/pending. The total is trusted from the
// caller (see DESIGN.md); the cart is cleared immediately only for COD —
// online methods keep it until verify succeeds.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Order, error) {
	if cmd.CustomerID == "" || len(cmd.Items) == 0 {
		return nil, ErrBadRequest
	}
	for _, item := range cmd.Items {
		if item.FoodID == "" || item.Quantity < 1 || item.UnitPrice.IsNegative() {
			return nil, ErrBadRequest
		}
	}
	if cmd.TotalAmount.IsNegative() || cmd.TotalAmount.IsZero() {
		return nil, ErrBadRequest
	}
	addr, err := NewAddress(cmd.Address)
	if err != nil {
		return nil, ErrBadRequest
	}
	if _, err := ToPaymentMethod(string(cmd.Method)); err != nil {
		return nil, ErrBadRequest
	}

	o := &Order{
		ID:                 uuid.New(),
		CustomerID:         cmd.CustomerID,
		RestaurantID:       cmd.RestaurantID,
		RestaurantLocation: cmd.RestaurantLocation,
		Items:              cmd.Items,
		TotalAmount:        cmd.TotalAmount,
		Address:            addr,
		Method:             cmd.Method,
		Status:             StatusPending,
		PaymentStatus:      PaymentPending,
		Instructions:       cmd.Instructions,
	}
	if err := s.store.Create(ctx, o); err != nil {
		return nil, err
	}
	_ = s.store.AppendEvent(ctx, &Event{
		OrderID:    o.ID,
		FromStatus: "",
		ToStatus:   StatusPending,
		ActorType:  "customer",
		ActorID:    &cmd.CustomerID,
		CreatedAt:  time.Now(),
	})

	if cmd.Method == MethodCOD && s.carts != nil {
		if err := s.carts.Clear(ctx, cmd.CustomerID); err != nil {
			log.Printf("order %s: clear cart for %s: %v", o.ID, cmd.CustomerID, err)
		}
	}
	return s.store.Get(ctx, o.ID)
}

type UpdateStatusCommand struct {
	OrderID       uuid.UUID
	Status        *Status
	PaymentStatus *PaymentStatus
	ActorType     string
	ActorID       *types.ID
}

// UpdateStatus is the admin PATCH: status and paymentStatus are two
// independently settable axes on one call. Only confirmed and cancelled are
// admin-settable; confirmed triggers the matcher.
func (s *Service) UpdateStatus(ctx context.Context, cmd UpdateStatusCommand) (*Order, error) {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	if cmd.Status != nil {
		switch *cmd.Status {
		case StatusConfirmed:
			if err := s.confirm(ctx, o, cmd.ActorType, cmd.ActorID); err != nil {
				return nil, err
			}
		case StatusCancelled:
			if err := s.Cancel(ctx, CancelCommand{OrderID: o.ID, ActorType: cmd.ActorType, ActorID: cmd.ActorID}); err != nil {
				return nil, err
			}
		default:
			// Assignment and delivery progression carry side effects
			// (reservation, wallet credit, payment completion) that only
			// tryAssign and the rider endpoints apply. The admin PATCH
			// cannot take those shortcuts.
			return nil, ErrInvalidState
		}
	}

	if cmd.PaymentStatus != nil {
		if err := s.store.SetPaymentStatus(ctx, o.ID, *cmd.PaymentStatus); err != nil {
			return nil, err
		}
	}

	return s.store.Get(ctx, o.ID)
}

// confirm runs the pending→confirmed CAS, then attempts nearest-rider
// assignment. No eligible rider leaves the order confirmed for the sweep.
func (s *Service) confirm(ctx context.Context, o *Order, actorType string, actorID *types.ID) error {
	if !CanTransition(o.Status, StatusConfirmed) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, o.ID, o.Status, StatusConfirmed, o.StatusVersion)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	_ = s.store.AppendEvent(ctx, &Event{
		OrderID:    o.ID,
		FromStatus: o.Status,
		ToStatus:   StatusConfirmed,
		ActorType:  actorType,
		ActorID:    actorID,
		CreatedAt:  time.Now(),
	})
	return s.tryAssign(ctx, o.ID)
}

// tryAssign walks the nearest candidates and reserves the first rider it can.
// Reservation and binding are both single conditional writes, so two orders
// confirming at once cannot share a rider and two confirms of one order
// cannot bind twice.
func (s *Service) tryAssign(ctx context.Context, orderID uuid.UUID) error {
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if o.Status != StatusConfirmed || o.RiderID != nil {
		return nil
	}
	if o.RestaurantLocation == nil {
		log.Printf("order %s: no restaurant location, cannot match", o.ID)
		return nil
	}

	candidates, err := s.matcher.NearestCandidates(ctx, *o.RestaurantLocation, s.matchCfg.RadiusMeters)
	if err != nil {
		// Lookup failure is not "no rider"; surface it.
		return err
	}

	for _, cand := range candidates {
		reserved, err := s.riders.Reserve(ctx, cand.ID)
		if err != nil {
			return err
		}
		if !reserved {
			continue
		}
		bound, err := s.store.BindRider(ctx, o.ID, cand.ID)
		if err != nil {
			_ = s.riders.SetAvailable(ctx, cand.ID, true)
			return err
		}
		if !bound {
			// Another confirm won the order while we held the rider.
			_ = s.riders.SetAvailable(ctx, cand.ID, true)
			return nil
		}
		_ = s.store.AppendEvent(ctx, &Event{
			OrderID:    o.ID,
			FromStatus: StatusConfirmed,
			ToStatus:   StatusAssigned,
			ActorType:  "system",
			CreatedAt:  time.Now(),
		})
		s.notifier.Publish(cand.ID, map[string]any{
			"type":         "new_order",
			"order_id":     o.ID.String(),
			"total_amount": o.TotalAmount,
			"address":      o.Address,
			"instructions": o.Instructions,
		})
		log.Printf("order %s: assigned to rider %s (%.0fm search radius)", o.ID, cand.ID, s.matchCfg.RadiusMeters)
		return nil
	}

	log.Printf("order %s: no eligible rider within %.0fm, staying confirmed", o.ID, s.matchCfg.RadiusMeters)
	return nil
}

type AcceptCommand struct {
	OrderID uuid.UUID
	RiderID types.ID
}

// Accept is the rider-side claim: legal only from assigned, only for the
// bound rider, and settled by a single conditional write.
func (s *Service) Accept(ctx context.Context, cmd AcceptCommand) (*Order, error) {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, StatusAccepted) {
		return nil, ErrInvalidState
	}
	if o.RiderID == nil || *o.RiderID != cmd.RiderID {
		return nil, ErrNotAssignee
	}
	ok, err := s.store.AcceptByRider(ctx, o.ID, cmd.RiderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	// The rider was reserved at assignment; re-assert in case they toggled
	// themselves available in between.
	if err := s.riders.SetAvailable(ctx, cmd.RiderID, false); err != nil {
		log.Printf("order %s: mark rider %s busy: %v", o.ID, cmd.RiderID, err)
	}
	_ = s.store.AppendEvent(ctx, &Event{
		OrderID:    o.ID,
		FromStatus: StatusAssigned,
		ToStatus:   StatusAccepted,
		ActorType:  "rider",
		ActorID:    &cmd.RiderID,
		CreatedAt:  time.Now(),
	})
	return s.store.Get(ctx, o.ID)
}

type ProgressCommand struct {
	OrderID uuid.UUID
	RiderID types.ID
	To      Status
}

// Progress advances the rider through picked_up, out_for_delivery and
// delivered. Delivery completion additionally forces paymentStatus=completed
// and credits the rider, all in one transaction.
func (s *Service) Progress(ctx context.Context, cmd ProgressCommand) (*Order, error) {
	switch cmd.To {
	case StatusPickedUp, StatusOutForDelivery, StatusDelivered:
	default:
		return nil, ErrBadRequest
	}

	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if o.RiderID == nil || *o.RiderID != cmd.RiderID {
		return nil, ErrNotAssignee
	}
	if !CanTransition(o.Status, cmd.To) {
		return nil, ErrInvalidState
	}

	if cmd.To == StatusDelivered {
		ok, err := s.store.CompleteDelivery(ctx, o.ID, cmd.RiderID, func(ctx context.Context, tx pgx.Tx) error {
			return s.riders.CreditDelivery(ctx, tx, cmd.RiderID, s.matchCfg.RiderCommission)
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrConflict
		}
	} else {
		ok, err := s.store.UpdateStatus(ctx, o.ID, o.Status, cmd.To, o.StatusVersion)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrConflict
		}
	}

	_ = s.store.AppendEvent(ctx, &Event{
		OrderID:    o.ID,
		FromStatus: o.Status,
		ToStatus:   cmd.To,
		ActorType:  "rider",
		ActorID:    &cmd.RiderID,
		CreatedAt:  time.Now(),
	})
	return s.store.Get(ctx, o.ID)
}

type CancelCommand struct {
	OrderID   uuid.UUID
	ActorType string
	ActorID   *types.ID
}

// Cancel is allowed from any non-terminal status. Whether a bound rider is
// released is configurable; refunds are out of scope here.
func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) error {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if o.Status.Terminal() || !CanTransition(o.Status, StatusCancelled) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, o.ID, o.Status, StatusCancelled, o.StatusVersion)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	if o.RiderID != nil && s.orderCfg.ReleaseRiderOnCancel {
		if err := s.riders.SetAvailable(ctx, *o.RiderID, true); err != nil {
			log.Printf("order %s: release rider %s after cancel: %v", o.ID, *o.RiderID, err)
		}
	}
	_ = s.store.AppendEvent(ctx, &Event{
		OrderID:    o.ID,
		FromStatus: o.Status,
		ToStatus:   StatusCancelled,
		ActorType:  cmd.ActorType,
		ActorID:    cmd.ActorID,
		CreatedAt:  time.Now(),
	})
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListByCustomer(ctx context.Context, customerID types.ID) ([]*Order, error) {
	return s.store.ListByCustomer(ctx, customerID)
}

func (s *Service) ListAll(ctx context.Context) ([]*Order, error) {
	return s.store.ListAll(ctx)
}

func (s *Service) ActiveForRider(ctx context.Context, riderID types.ID) ([]*Order, error) {
	return s.store.ListActiveByRider(ctx, riderID)
}

// RunRematchSweep periodically retries matching for orders stuck at confirmed
// with no rider, so a rider coming online later still picks up older orders.
func (s *Service) RunRematchSweep(ctx context.Context) {
	interval := time.Duration(s.matchCfg.SweepSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stuck, err := s.store.ListStuckConfirmed(ctx, 50)
			if err != nil {
				log.Printf("rematch sweep: list: %v", err)
				continue
			}
			for _, o := range stuck {
				if err := s.tryAssign(ctx, o.ID); err != nil {
					log.Printf("rematch sweep: order %s: %v", o.ID, err)
				}
			}
		}
	}
}
