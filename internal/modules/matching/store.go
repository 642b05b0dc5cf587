// README: Matching store backed by Redis GEO; one sorted set of rider positions.
package matching

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/surajacharya12/Mr.Fodee-sub000/internal/types"
)

const riderGeoKey = "riders:geo"

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

func (s *Store) Upsert(ctx context.Context, id types.ID, p types.Point) error {
	err := s.redis.GeoAdd(ctx, riderGeoKey, &redis.GeoLocation{
		Name:      string(id),
		Longitude: p.Lng,
		Latitude:  p.Lat,
	}).Err()
	if err != nil {
		return fmt.Errorf("geo add: %w", err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, id types.ID) error {
	if err := s.redis.ZRem(ctx, riderGeoKey, string(id)).Err(); err != nil {
		return fmt.Errorf("geo remove: %w", err)
	}
	return nil
}

// Nearby returns riders within radiusMeters of p, closest first. An empty
// result is a normal outcome; an error means the index itself failed.
func (s *Store) Nearby(ctx context.Context, p types.Point, radiusMeters float64) ([]Candidate, error) {
	results, err := s.redis.GeoSearchLocation(ctx, riderGeoKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  p.Lng,
			Latitude:   p.Lat,
			Radius:     radiusMeters,
			RadiusUnit: "m",
			Sort:       "ASC",
		},
		WithDist: true,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("geo search: %w", err)
	}
	out := make([]Candidate, len(results))
	for i, r := range results {
		out[i] = Candidate{ID: types.ID(r.Name), DistanceMeters: r.Dist}
	}
	return out, nil
}
