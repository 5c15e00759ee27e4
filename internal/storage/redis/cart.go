// Package redis stores customer carts in Redis so a cart survives across
// sessions and server restarts.
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/TessaEngelbrecht/artos-pos/internal/domain/cart"
)

// cartTTL keeps abandoned carts around for a week before they expire.
const cartTTL = 7 * 24 * time.Hour

// CartStore persists carts keyed by customer ID.
type CartStore struct {
	client *redis.Client
}

// NewCartStore wraps an existing Redis client.
func NewCartStore(client *redis.Client) *CartStore {
	return &CartStore{client: client}
}

func cartKey(customerID string) string {
	return "cart:" + customerID
}

// Get loads the customer's cart. A missing key yields an empty cart.
func (s *CartStore) Get(ctx context.Context, customerID string) (cart.Cart, error) {
	data, err := s.client.Get(ctx, cartKey(customerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return cart.Cart{}, nil
		}
		return cart.Cart{}, errors.Wrap(err, "get cart")
	}

	var c cart.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return cart.Cart{}, errors.Wrap(err, "decode cart")
	}
	return c, nil
}

// Save stores the cart and refreshes its expiry.
func (s *CartStore) Save(ctx context.Context, customerID string, c cart.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode cart")
	}
	if err := s.client.Set(ctx, cartKey(customerID), data, cartTTL).Err(); err != nil {
		return errors.Wrap(err, "save cart")
	}
	return nil
}

// Delete drops the customer's cart, typically after checkout.
func (s *CartStore) Delete(ctx context.Context, customerID string) error {
	if err := s.client.Del(ctx, cartKey(customerID)).Err(); err != nil {
		return errors.Wrap(err, "delete cart")
	}
	return nil
}
