package ratecache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/bet-ledger/internal/currency"
)

const key = "sync:exchange-rate:USD_PEN"

// RedisCache guarda a última cotação servida pelo proxy.
// TTL: tempo de expiração da cotação
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisCache(c *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

func (r *RedisCache) Get(ctx context.Context) (currency.Quote, bool, error) {
	b, err := r.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return currency.Quote{}, false, nil
	}
	if err != nil {
		return currency.Quote{}, false, err
	}
	var q currency.Quote
	if err := json.Unmarshal(b, &q); err != nil {
		return currency.Quote{}, false, err
	}
	return q, true, nil
}

func (r *RedisCache) Set(ctx context.Context, q currency.Quote) error {
	b, err := json.Marshal(q)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, key, b, r.TTL).Err()
}

func (r *RedisCache) Ping(ctx context.Context) error { return r.Client.Ping(ctx).Err() }
