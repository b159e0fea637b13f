package cache

import (
	"context"
	"errors"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

// redisClient implementa Client sobre Redis, para quando o proxy roda em
// mais de uma instância e os caches precisam ser compartilhados.
type redisClient struct {
	c          *rdb.Client
	prefix     string
	defaultTTL time.Duration
}

// NewRedis cria um cliente de cache Redis.
func NewRedis(cfg Config) Client {
	return &redisClient{
		c: rdb.NewClient(&rdb.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		}),
		prefix:     cfg.RedisPrefix,
		defaultTTL: cfg.DefaultTTL,
	}
}

func (r *redisClient) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

func (r *redisClient) Get(ctx context.Context, key string) (string, error) {
	v, err := r.c.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, rdb.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	return v, nil
}

func (r *redisClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	return r.c.Set(ctx, r.key(key), value, ttl).Err()
}

func (r *redisClient) Delete(ctx context.Context, key string) error {
	return r.c.Del(ctx, r.key(key)).Err()
}

func (r *redisClient) Close() error {
	return r.c.Close()
}
