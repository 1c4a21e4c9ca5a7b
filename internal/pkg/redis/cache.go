package redis

import (
	"context"
	"time"
)

// Cache service 层依赖的缓存能力，便于替换为内存实现
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error
	Incr(ctx context.Context, key string) (int64, error)
	GetInt(ctx context.Context, key string) (int64, error)
}

type clientCache struct{}

// NewCache 基于全局 Rdb 的缓存实现，需先调用 InitRedis
func NewCache() Cache {
	return &clientCache{}
}

func (c *clientCache) Get(ctx context.Context, key string) (string, error) {
	return GetValue(ctx, key)
}

func (c *clientCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	return SetWithExpiration(ctx, key, value, expiration)
}

func (c *clientCache) Delete(ctx context.Context, keys ...string) error {
	return DeleteKey(ctx, keys...)
}

func (c *clientCache) DeletePattern(ctx context.Context, pattern string) error {
	return DeleteByPattern(ctx, pattern)
}

func (c *clientCache) Incr(ctx context.Context, key string) (int64, error) {
	return Incr(ctx, key)
}

func (c *clientCache) GetInt(ctx context.Context, key string) (int64, error) {
	return GetInt(ctx, key)
}
