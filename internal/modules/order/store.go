// README: Order store backed by PostgreSQL. Every transition is one conditional
// UPDATE guarded by current status (and version), never read-then-write.
package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"

	"github.com/surajacharya12/Mr.Fodee-sub000/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const orderColumns = `
    id, customer_id, restaurant_id, rider_id,
    restaurant_lat, restaurant_lng,
    total_amount, address_kind, address_value,
    payment_method, status, status_version,
    payment_status, transaction_id, payment_details,
    instructions, created_at, updated_at`

func (s *Store) Create(ctx context.Context, o *Order) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var restaurantID *string
	if o.RestaurantID != nil {
		v := string(*o.RestaurantID)
		restaurantID = &v
	}
	var lat, lng *float64
	if o.RestaurantLocation != nil {
		lat, lng = &o.RestaurantLocation.Lat, &o.RestaurantLocation.Lng
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO orders (
            id, customer_id, restaurant_id,
            restaurant_lat, restaurant_lng,
            total_amount, address_kind, address_value,
            payment_method, status, payment_status, instructions
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		o.ID, string(o.CustomerID), restaurantID,
		lat, lng,
		o.TotalAmount, string(o.Address.Kind), o.Address.Value,
		string(o.Method), string(o.Status), string(o.PaymentStatus), o.Instructions,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, item := range o.Items {
		_, err = tx.Exec(ctx, `
            INSERT INTO order_items (order_id, position, food_id, quantity, unit_price)
            VALUES ($1, $2, $3, $4, $5)`,
			o.ID, i, string(item.FoodID), item.Quantity, item.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	row := s.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if err := s.attachItems(ctx, []*Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

// ListByCustomer returns a customer's orders newest first, items included.
func (s *Store) ListByCustomer(ctx context.Context, customerID types.ID) ([]*Order, error) {
	return s.list(ctx, `SELECT `+orderColumns+` FROM orders
        WHERE customer_id = $1 ORDER BY created_at DESC`, string(customerID))
}

// ListAll is the admin listing, newest first.
func (s *Store) ListAll(ctx context.Context) ([]*Order, error) {
	return s.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

// ListActiveByRider returns the rider's work queue.
func (s *Store) ListActiveByRider(ctx context.Context, riderID types.ID) ([]*Order, error) {
	statuses := lo.Map(ActiveRiderStatuses, func(st Status, _ int) string { return string(st) })
	return s.list(ctx, `SELECT `+orderColumns+` FROM orders
        WHERE rider_id = $1 AND status = ANY($2) ORDER BY created_at`, string(riderID), statuses)
}

// ListStuckConfirmed returns orders confirmed but never assigned, oldest
// first; the re-match sweep feeds on this.
func (s *Store) ListStuckConfirmed(ctx context.Context, limit int) ([]*Order, error) {
	return s.list(ctx, `SELECT `+orderColumns+` FROM orders
        WHERE status = 'confirmed' AND rider_id IS NULL
        ORDER BY created_at LIMIT $1`, limit)
}

// UpdateStatus performs the compare-and-swap transition. Returns false when
// the order moved on since the caller read it.
func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, version int) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE orders SET status = $1, status_version = status_version + 1, updated_at = NOW()
        WHERE id = $2 AND status = $3 AND status_version = $4`,
		string(to), id, string(from), version,
	)
	if err != nil {
		return false, fmt.Errorf("update status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// BindRider advances confirmed→assigned and binds the rider in the same
// write; only one of two racing confirms can win this.
func (s *Store) BindRider(ctx context.Context, id uuid.UUID, riderID types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE orders SET status = 'assigned', rider_id = $1,
            status_version = status_version + 1, updated_at = NOW()
        WHERE id = $2 AND status = 'confirmed' AND rider_id IS NULL`,
		string(riderID), id,
	)
	if err != nil {
		return false, fmt.Errorf("bind rider: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// AcceptByRider is the rider's guarded accept: assigned→accepted only, and
// only for the rider the order is bound to.
func (s *Store) AcceptByRider(ctx context.Context, id uuid.UUID, riderID types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE orders SET status = 'accepted',
            status_version = status_version + 1, updated_at = NOW()
        WHERE id = $1 AND status = 'assigned' AND rider_id = $2`,
		id, string(riderID),
	)
	if err != nil {
		return false, fmt.Errorf("accept order: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CompleteDelivery flips out_for_delivery→delivered and forces the payment
// axis to completed, then runs credit (the rider-side effects) inside the
// same transaction so neither half can land without the other.
func (s *Store) CompleteDelivery(ctx context.Context, id uuid.UUID, riderID types.ID, credit func(ctx context.Context, tx pgx.Tx) error) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
        UPDATE orders SET status = 'delivered', payment_status = 'completed',
            status_version = status_version + 1, updated_at = NOW()
        WHERE id = $1 AND status = 'out_for_delivery' AND rider_id = $2`,
		id, string(riderID),
	)
	if err != nil {
		return false, fmt.Errorf("deliver order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if err := credit(ctx, tx); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

// SetPaymentStatus is the admin's direct write on the payment axis.
func (s *Store) SetPaymentStatus(ctx context.Context, id uuid.UUID, ps PaymentStatus) error {
	tag, err := s.db.Exec(ctx, `
        UPDATE orders SET payment_status = $1, updated_at = NOW() WHERE id = $2`,
		string(ps), id,
	)
	if err != nil {
		return fmt.Errorf("set payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkPaymentCompleted records a verified gateway confirmation. Conditional on
// not being completed already, so a racing double-verify settles exactly once.
func (s *Store) MarkPaymentCompleted(ctx context.Context, id uuid.UUID, transactionID string, details []byte) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE orders SET payment_status = 'completed',
            transaction_id = $1, payment_details = $2, updated_at = NOW()
        WHERE id = $3 AND payment_status <> 'completed'`,
		transactionID, details, id,
	)
	if err != nil {
		return false, fmt.Errorf("mark payment completed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	var actorID *string
	if e.ActorID != nil {
		v := string(*e.ActorID)
		actorID = &v
	}
	_, err := s.db.Exec(ctx, `
        INSERT INTO order_state_events (order_id, from_status, to_status, actor_type, actor_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		e.OrderID, string(e.FromStatus), string(e.ToStatus), e.ActorType, actorID, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]*Order, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Store) attachItems(ctx context.Context, orders []*Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := lo.Map(orders, func(o *Order, _ int) uuid.UUID { return o.ID })
	rows, err := s.db.Query(ctx, `
        SELECT order_id, food_id, quantity, unit_price
        FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, position`, ids)
	if err != nil {
		return fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	itemsByOrder := make(map[uuid.UUID][]Item, len(orders))
	for rows.Next() {
		var orderID uuid.UUID
		var item Item
		if err := rows.Scan(&orderID, &item.FoodID, &item.Quantity, &item.UnitPrice); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		itemsByOrder[orderID] = append(itemsByOrder[orderID], item)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, o := range orders {
		o.Items = itemsByOrder[o.ID]
	}
	return nil
}

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o                        Order
		restaurantID, riderID    *string
		lat, lng                 *float64
		addressKind              string
		method, status, payState string
	)
	err := row.Scan(
		&o.ID, &o.CustomerID, &restaurantID, &riderID,
		&lat, &lng,
		&o.TotalAmount, &addressKind, &o.Address.Value,
		&method, &status, &o.StatusVersion,
		&payState, &o.TransactionID, &o.PaymentDetails,
		&o.Instructions, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if restaurantID != nil {
		v := types.ID(*restaurantID)
		o.RestaurantID = &v
	}
	if riderID != nil {
		v := types.ID(*riderID)
		o.RiderID = &v
	}
	if lat != nil && lng != nil {
		o.RestaurantLocation = &types.Point{Lat: *lat, Lng: *lng}
	}
	o.Address.Kind = AddressKind(addressKind)
	o.Method = PaymentMethod(method)
	o.Status = Status(status)
	o.PaymentStatus = PaymentStatus(payState)
	return &o, nil
}
