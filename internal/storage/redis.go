package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTier é o tier de sessão: as chaves expiram após TTL sem escrita.
// Client: cliente Redis
// Prefix: isola as chaves desta instalação
type RedisTier struct {
	Client *redis.Client
	Prefix string
	TTL    time.Duration
}

func NewRedisTier(c *redis.Client, prefix string, ttl time.Duration) *RedisTier {
	return &RedisTier{Client: c, Prefix: prefix, TTL: ttl}
}

func (r *RedisTier) Name() string { return "session" }

func (r *RedisTier) key(k string) string { return r.Prefix + k }

func (r *RedisTier) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.Client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *RedisTier) Set(ctx context.Context, key string, val []byte) error {
	return r.Client.Set(ctx, r.key(key), val, r.TTL).Err()
}

func (r *RedisTier) Delete(ctx context.Context, key string) error {
	return r.Client.Del(ctx, r.key(key)).Err()
}
