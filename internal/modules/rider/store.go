// README: Rider store backed by PostgreSQL; availability writes are single conditional updates.
package rider

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/surajacharya12/Mr.Fodee-sub000/internal/types"
)

var ErrNotFound = errors.New("rider not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const riderColumns = `
    id, user_id, vehicle_type, license_number,
    is_online, is_available, lat, lng,
    wallet_balance, total_deliveries, rating,
    created_at, updated_at`

func (s *Store) Create(ctx context.Context, r *Rider) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO riders (
            id, user_id, vehicle_type, license_number,
            is_online, is_available, lat, lng,
            wallet_balance, total_deliveries, rating
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		string(r.ID), string(r.UserID), r.VehicleType, r.LicenseNumber,
		r.IsOnline, r.IsAvailable, r.Location.Lat, r.Location.Lng,
		r.WalletBalance, r.TotalDeliveries, r.Rating,
	)
	if err != nil {
		return fmt.Errorf("insert rider: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Rider, error) {
	row := s.db.QueryRow(ctx, `SELECT `+riderColumns+` FROM riders WHERE id = $1`, string(id))
	r, err := scanRider(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get rider: %w", err)
	}
	return r, nil
}

// ListByIDs returns the riders for the given ids, preserving input order.
// Unknown ids are skipped.
func (s *Store) ListByIDs(ctx context.Context, ids []types.ID) ([]Rider, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw := lo.Map(ids, func(id types.ID, _ int) string { return string(id) })
	rows, err := s.db.Query(ctx, `SELECT `+riderColumns+` FROM riders WHERE id = ANY($1)`, raw)
	if err != nil {
		return nil, fmt.Errorf("list riders: %w", err)
	}
	defer rows.Close()

	byID := make(map[types.ID]Rider, len(ids))
	for rows.Next() {
		r, err := scanRider(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rider: %w", err)
		}
		byID[r.ID] = *r
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Rider, 0, len(byID))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) SetOnline(ctx context.Context, id types.ID, online bool) error {
	tag, err := s.db.Exec(ctx, `
        UPDATE riders SET is_online = $1, updated_at = NOW() WHERE id = $2`,
		online, string(id),
	)
	if err != nil {
		return fmt.Errorf("set online: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetAvailable(ctx context.Context, id types.ID, available bool) error {
	tag, err := s.db.Exec(ctx, `
        UPDATE riders SET is_available = $1, updated_at = NOW() WHERE id = $2`,
		available, string(id),
	)
	if err != nil {
		return fmt.Errorf("set available: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateLocation is last-write-wins; callers stream these at will.
func (s *Store) UpdateLocation(ctx context.Context, id types.ID, p types.Point) error {
	tag, err := s.db.Exec(ctx, `
        UPDATE riders SET lat = $1, lng = $2, updated_at = NOW() WHERE id = $3`,
		p.Lat, p.Lng, string(id),
	)
	if err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Reserve flips is_available to false only if the rider is still online and
// available. Returns false when somebody else won the rider first; that is
// the caller's cue to try the next candidate.
func (s *Store) Reserve(ctx context.Context, id types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE riders SET is_available = FALSE, updated_at = NOW()
        WHERE id = $1 AND is_online AND is_available`,
		string(id),
	)
	if err != nil {
		return false, fmt.Errorf("reserve rider: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Release makes a reserved rider available again (delivery done or cancelled).
func (s *Store) Release(ctx context.Context, id types.ID) error {
	return s.SetAvailable(ctx, id, true)
}

// CreditDelivery applies the completion side effects to the rider row:
// available again, one more delivery, commission credited. Runs inside the
// caller's transaction so the order flip and the credit commit together.
func (s *Store) CreditDelivery(ctx context.Context, tx pgx.Tx, id types.ID, commission decimal.Decimal) error {
	tag, err := tx.Exec(ctx, `
        UPDATE riders SET
            is_available = TRUE,
            total_deliveries = total_deliveries + 1,
            wallet_balance = wallet_balance + $1,
            updated_at = NOW()
        WHERE id = $2`,
		commission, string(id),
	)
	if err != nil {
		return fmt.Errorf("credit delivery: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRider(row pgx.Row) (*Rider, error) {
	var r Rider
	err := row.Scan(
		&r.ID, &r.UserID, &r.VehicleType, &r.LicenseNumber,
		&r.IsOnline, &r.IsAvailable, &r.Location.Lat, &r.Location.Lng,
		&r.WalletBalance, &r.TotalDeliveries, &r.Rating,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
