// Package cache は読み取り用キャッシュの抽象とRedis実装を提供する。
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache はバイト列を保持するキー・バリューキャッシュ。
// Getはキーが存在しない場合にfound=falseを返し、エラーにはしない。
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// RedisCache はRedisを使用したCache実装。
// 全てのキーにprefixを付与して名前空間を分離する。
type RedisCache struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisCache はRedisCacheを生成する。
func NewRedisCache(client redis.UniversalClient, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

// NewRedisClient はREDIS_URL形式の接続文字列からRedisクライアントを生成する。
// 例: "redis://:password@localhost:6379/0"
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (c *RedisCache) key(k string) string {
	var b strings.Builder
	b.Grow(len(c.prefix) + 1 + len(k))
	b.WriteString(c.prefix)
	b.WriteString(":")
	b.WriteString(k)
	return b.String()
}

// Get はキーに対応する値を返す。
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

// Set は値をTTL付きで保存する。
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete は指定キーを削除する。存在しないキーは無視される。
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = c.key(k)
	}
	if err := c.client.Del(ctx, prefixed...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Nop は何も保持しないCache。REDIS_URL未設定時に使用する。
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Nop) Delete(context.Context, ...string) error { return nil }

var (
	_ Cache = (*RedisCache)(nil)
	_ Cache = Nop{}
)
