// README: Nearest-rider matcher; a pure query over the GEO index and the rider directory.
package matching

import (
	"context"

	"github.com/surajacharya12/Mr.Fodee-sub000/internal/config"
	"github.com/surajacharya12/Mr.Fodee-sub000/internal/modules/rider"
	"github.com/surajacharya12/Mr.Fodee-sub000/internal/types"
)

// RiderSource resolves candidate ids to rider records for eligibility checks.
type RiderSource interface {
	ListByIDs(ctx context.Context, ids []types.ID) ([]rider.Rider, error)
}

type Service struct {
	store  *Store
	riders RiderSource
	cfg    config.MatchingConfig
}

func NewService(store *Store, riders RiderSource, cfg config.MatchingConfig) *Service {
	return &Service{store: store, riders: riders, cfg: cfg}
}

// NearestCandidates returns online+available riders within radiusMeters of p,
// closest first. Zero candidates is a legitimate outcome, not an error; errors
// mean the lookup backend failed and must not be read as "no rider".
func (s *Service) NearestCandidates(ctx context.Context, p types.Point, radiusMeters float64) ([]rider.Rider, error) {
	if radiusMeters <= 0 {
		radiusMeters = s.cfg.RadiusMeters
	}
	candidates, err := s.store.Nearby(ctx, p, radiusMeters)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make([]types.ID, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	riders, err := s.riders.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	eligible := riders[:0]
	for _, r := range riders {
		if r.Eligible() {
			eligible = append(eligible, r)
		}
	}
	return eligible, nil
}

// FindNearest returns the single closest eligible rider, or nil when none
// qualifies. No side effects; binding the result is the caller's job.
func (s *Service) FindNearest(ctx context.Context, p types.Point, radiusMeters float64) (*rider.Rider, error) {
	riders, err := s.NearestCandidates(ctx, p, radiusMeters)
	if err != nil {
		return nil, err
	}
	if len(riders) == 0 {
		return nil, nil
	}
	return &riders[0], nil
}
