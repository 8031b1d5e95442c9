package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/mercato-labs/mercato-backend/pkg/redis"
)

// ErrCartMiss is returned by a Store when the buyer has no saved cart.
var ErrCartMiss = errors.New("cart not found")

// Store persists one cart document per buyer.
type Store interface {
	Load(ctx context.Context, buyerID string) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	Delete(ctx context.Context, buyerID string) error
}

// kv is the slice of the redis client the cart store needs.
type kv interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(buyerID string) string
}

const maxJitter = 5 * time.Minute

// RedisStore keeps carts as JSON documents that expire after a period of
// inactivity. Each save refreshes the TTL with a little jitter so carts
// created together do not expire together.
type RedisStore struct {
	client  kv
	baseTTL time.Duration
	jitter  func() time.Duration
}

// NewRedisStore builds a cart store on top of the shared redis client.
func NewRedisStore(client kv, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	return &RedisStore{
		client:  client,
		baseTTL: ttl,
		jitter: func() time.Duration {
			return time.Duration(rand.Int63n(int64(maxJitter)))
		},
	}, nil
}

func (s *RedisStore) Load(ctx context.Context, buyerID string) (*Cart, error) {
	raw, err := s.client.Get(ctx, s.client.CartKey(buyerID))
	if redis.IsNil(err) {
		return nil, ErrCartMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var cart Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	return &cart, nil
}

func (s *RedisStore) Save(ctx context.Context, cart *Cart) error {
	if cart == nil {
		return fmt.Errorf("cart required")
	}
	payload, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	ttl := s.baseTTL + s.jitter()
	if err := s.client.Set(ctx, s.client.CartKey(cart.BuyerID), string(payload), ttl); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, buyerID string) error {
	if err := s.client.Del(ctx, s.client.CartKey(buyerID)); err != nil {
		return fmt.Errorf("redis delete cart: %w", err)
	}
	return nil
}
