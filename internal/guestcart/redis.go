package guestcart

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{client: client}
}

// RedisKV stores the guest cart under Key in Redis. No TTL: the guest cart
// survives until cleared or abandoned.
type RedisKV struct {
	client *redis.Client
}

func (r *RedisKV) Get(ctx context.Context) ([]byte, error) {
	data, err := r.client.Get(ctx, Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (r *RedisKV) Set(ctx context.Context, value []byte) error {
	if err := r.client.Set(ctx, Key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisKV) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, Key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
