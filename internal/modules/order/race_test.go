// README: Concurrency tests for order transitions and rider binding (run with -race).
package order

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/surajacharya12/Mr.Fodee-sub000/internal/types"
)

func TestConcurrentAcceptSameOrder(t *testing.T) {
	env := setupTestEnv(t)
	svc := env.newService(t)
	ctx := context.Background()
	env.addRider(t, "r1", true, true)

	o := mustCreateOrder(t, svc, "c_multi_accept")
	mustConfirm(t, svc, o)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	start := make(chan struct{})

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Accept(ctx, AcceptCommand{OrderID: o.ID, RiderID: "r1"})
			errs <- err
		}()
	}

	close(start)
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if err != ErrConflict && err != ErrInvalidState {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 successful accept, got %d", success)
	}
	assertStatus(t, svc, o, StatusAccepted)
}

// TestConcurrentConfirmNoDoubleBind races two confirms of the same order with
// two riders free; the order must end up with exactly one rider and only that
// rider reserved.
func TestConcurrentConfirmNoDoubleBind(t *testing.T) {
	env := setupTestEnv(t)
	svc := env.newService(t)
	ctx := context.Background()
	env.addRider(t, "r1", true, true)
	env.addRider(t, "r2", true, true)

	o := mustCreateOrder(t, svc, "c_double_confirm")

	confirmed := StatusConfirmed
	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.UpdateStatus(ctx, UpdateStatusCommand{OrderID: o.ID, Status: &confirmed, ActorType: "admin"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil && err != ErrConflict && err != ErrInvalidState {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	final, err := svc.Get(ctx, o.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if final.Status != StatusAssigned || final.RiderID == nil {
		t.Fatalf("expected assigned with one rider, got %s (%v)", final.Status, final.RiderID)
	}

	reserved := 0
	for _, id := range []types.ID{"r1", "r2"} {
		r, err := env.riders.Get(ctx, id)
		if err != nil {
			t.Fatalf("get rider: %v", err)
		}
		if !r.IsAvailable {
			reserved++
			if id != *final.RiderID {
				t.Fatalf("rider %s reserved but order is bound to %s", id, *final.RiderID)
			}
		}
	}
	if reserved != 1 {
		t.Fatalf("expected exactly 1 reserved rider, got %d", reserved)
	}
}

// TestConcurrentConfirmTwoOrdersOneRider races two orders over a single free
// rider; only one may bind, the other stays confirmed for the sweep.
func TestConcurrentConfirmTwoOrdersOneRider(t *testing.T) {
	env := setupTestEnv(t)
	svc := env.newService(t)
	ctx := context.Background()
	env.addRider(t, "r1", true, true)

	a := mustCreateOrder(t, svc, "c_contend_a")
	b := mustCreateOrder(t, svc, "c_contend_b")

	confirmed := StatusConfirmed
	var wg sync.WaitGroup
	for _, o := range []*Order{a, b} {
		wg.Add(1)
		go func(o *Order) {
			defer wg.Done()
			_, err := svc.UpdateStatus(ctx, UpdateStatusCommand{OrderID: o.ID, Status: &confirmed, ActorType: "admin"})
			if err != nil && err != ErrConflict {
				t.Errorf("confirm %s: %v", o.ID, err)
			}
		}(o)
	}
	wg.Wait()

	assigned := 0
	for _, o := range []*Order{a, b} {
		got, err := svc.Get(ctx, o.ID)
		if err != nil {
			t.Fatalf("get order: %v", err)
		}
		switch got.Status {
		case StatusAssigned:
			assigned++
			if got.RiderID == nil || *got.RiderID != "r1" {
				t.Fatalf("order %s assigned without the rider", got.ID)
			}
		case StatusConfirmed:
			if got.RiderID != nil {
				t.Fatalf("confirmed order %s should have no rider", got.ID)
			}
		default:
			t.Fatalf("unexpected status %s for order %s", got.Status, got.ID)
		}
	}
	if assigned != 1 {
		t.Fatalf("expected exactly 1 assigned order, got %d", assigned)
	}
}

func TestConcurrentAcceptVsCancel(t *testing.T) {
	env := setupTestEnv(t)
	svc := env.newService(t)
	ctx := context.Background()
	env.addRider(t, "r1", true, true)

	o := mustCreateOrder(t, svc, "c_accept_cancel")
	mustConfirm(t, svc, o)

	var wg sync.WaitGroup
	errs := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := svc.Accept(ctx, AcceptCommand{OrderID: o.ID, RiderID: "r1"})
		errs <- err
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		errs <- svc.Cancel(ctx, CancelCommand{OrderID: o.ID, ActorType: "customer"})
	}()

	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if err != ErrConflict && err != ErrInvalidState {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success < 1 || success > 2 {
		t.Fatalf("expected 1 or 2 successes, got %d", success)
	}

	final, err := svc.Get(ctx, o.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if final.Status != StatusAccepted && final.Status != StatusCancelled {
		t.Fatalf("unexpected final status: %s", final.Status)
	}
}

func TestConcurrentProgressDelivered(t *testing.T) {
	env := setupTestEnv(t)
	svc := env.newService(t)
	ctx := context.Background()
	env.addRider(t, "r1", true, true)

	o := mustCreateOrder(t, svc, "c_double_deliver")
	mustConfirm(t, svc, o)
	if _, err := svc.Accept(ctx, AcceptCommand{OrderID: o.ID, RiderID: "r1"}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	for _, st := range []Status{StatusPickedUp, StatusOutForDelivery} {
		if _, err := svc.Progress(ctx, ProgressCommand{OrderID: o.ID, RiderID: "r1", To: st}); err != nil {
			t.Fatalf("progress to %s: %v", st, err)
		}
	}

	const attempts = 4
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Progress(ctx, ProgressCommand{OrderID: o.ID, RiderID: "r1", To: StatusDelivered})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if err != ErrConflict && err != ErrInvalidState {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 successful delivery, got %d", success)
	}

	// The credit must have landed exactly once.
	r, err := env.riders.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("get rider: %v", err)
	}
	if r.TotalDeliveries != 1 {
		t.Fatalf("expected 1 delivery credited, got %d", r.TotalDeliveries)
	}
	if r.WalletBalance.Cmp(decimal.NewFromInt(60)) != 0 {
		t.Fatalf("expected wallet balance 60, got %s", r.WalletBalance)
	}
}
