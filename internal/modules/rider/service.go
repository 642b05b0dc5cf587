// README: Rider directory service; mirrors position changes into the GEO index.
package rider

import (
	"context"
	"errors"

	"github.com/surajacharya12/Mr.Fodee-sub000/internal/types"
)

var ErrBadRequest = errors.New("bad request")

// GeoIndex is the proximity index the matcher searches. Implemented by the
// matching store (Redis GEO).
type GeoIndex interface {
	Upsert(ctx context.Context, id types.ID, p types.Point) error
	Remove(ctx context.Context, id types.ID) error
}

type Service struct {
	store *Store
	geo   GeoIndex
}

func NewService(store *Store, geo GeoIndex) *Service {
	return &Service{store: store, geo: geo}
}

type RegisterCommand struct {
	ID            types.ID
	UserID        types.ID
	VehicleType   string
	LicenseNumber string
}

// Register creates the rider row at onboarding. New riders start offline and
// available.
func (s *Service) Register(ctx context.Context, cmd RegisterCommand) error {
	if cmd.ID == "" || cmd.UserID == "" {
		return ErrBadRequest
	}
	return s.store.Create(ctx, &Rider{
		ID:            cmd.ID,
		UserID:        cmd.UserID,
		VehicleType:   cmd.VehicleType,
		LicenseNumber: cmd.LicenseNumber,
		IsAvailable:   true,
	})
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Rider, error) {
	return s.store.Get(ctx, id)
}

// SetOnline toggles the rider's own switch. Going online publishes the last
// known position to the GEO index; going offline withdraws the rider from
// matching entirely.
func (s *Service) SetOnline(ctx context.Context, id types.ID, online bool) error {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.SetOnline(ctx, id, online); err != nil {
		return err
	}
	if online {
		return s.geo.Upsert(ctx, id, r.Location)
	}
	return s.geo.Remove(ctx, id)
}

func (s *Service) SetAvailable(ctx context.Context, id types.ID, available bool) error {
	return s.store.SetAvailable(ctx, id, available)
}

// UpdateLocation is last-write-wins in both stores; there is no ordering
// guarantee beyond arrival order.
func (s *Service) UpdateLocation(ctx context.Context, id types.ID, p types.Point) error {
	if err := s.store.UpdateLocation(ctx, id, p); err != nil {
		return err
	}
	return s.geo.Upsert(ctx, id, p)
}
