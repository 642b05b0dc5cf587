// README: Cart collaborator. Carts themselves are owned by the storefront;
// the order core only ever empties one at checkout.
package cart

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/surajacharya12/Mr.Fodee-sub000/internal/types"
)

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

func cartKey(customerID types.ID) string {
	return fmt.Sprintf("cart:%s", customerID)
}

// Clear drops the customer's pending cart. Safe to call when empty.
func (s *Store) Clear(ctx context.Context, customerID types.ID) error {
	if err := s.redis.Del(ctx, cartKey(customerID)).Err(); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
