package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisClient implementa Client sobre go-redis.
type redisClient struct {
	rdb    *redis.Client
	prefix string
}

// RedisConfig configura el backend Redis.
type RedisConfig struct {
	Addr   string
	DB     int
	Prefix string
}

// NewRedis crea un cliente de cache sobre Redis.
func NewRedis(cfg RedisConfig) Client {
	return &redisClient{
		rdb: redis.NewClient(&redis.Options{
			Addr: cfg.Addr,
			DB:   cfg.DB,
		}),
		prefix: cfg.Prefix,
	}
}

func (r *redisClient) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

func (r *redisClient) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return b, err
}

func (r *redisClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.rdb.Set(ctx, r.key(key), value, ttl).Err()
}

func (r *redisClient) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, r.key(key)).Err()
}

// ConsumeOnce usa GETDEL, atómico en el server de Redis.
func (r *redisClient) ConsumeOnce(ctx context.Context, key string) ([]byte, error) {
	b, err := r.rdb.GetDel(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return b, err
}

func (r *redisClient) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *redisClient) Close() error {
	return r.rdb.Close()
}
