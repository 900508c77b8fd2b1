package rediscache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSeenCache реализует SeenCachePort на ключах с TTL. Проверка и
// пометка разнесены: ключи помечаются только после того, как объявление
// надежно записано в постоянный индекс.
type RedisSeenCache struct {
	client *redis.Client
}

// NewRedisSeenCache подключается к Redis по URL и проверяет соединение.
func NewRedisSeenCache(ctx context.Context, redisURL string) (*RedisSeenCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis seen cache: failed to parse URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis seen cache: failed to ping: %w", err)
	}

	return &RedisSeenCache{client: client}, nil
}

// Seen возвращает true, только если КАЖДЫЙ ключ уже помечен. Частичное
// совпадение - не дубликат: запись с новым контент-хэшем обязана дойти
// до постоянного индекса.
func (c *RedisSeenCache) Seen(ctx context.Context, keys []string) (bool, error) {
	if len(keys) == 0 {
		return false, nil
	}

	pipe := c.client.Pipeline()
	cmds := make([]*redis.IntCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.Exists(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis seen cache: exists pipeline failed: %w", err)
	}

	for _, cmd := range cmds {
		if cmd.Val() == 0 {
			return false, nil
		}
	}
	return true, nil
}

// Mark помечает ключи с TTL.
func (c *RedisSeenCache) Mark(ctx context.Context, keys []string, ttl time.Duration) error {
	if len(keys) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for _, key := range keys {
		pipe.Set(ctx, key, 1, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis seen cache: set pipeline failed: %w", err)
	}
	return nil
}

func (c *RedisSeenCache) Close() error {
	return c.client.Close()
}
