package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrCacheMiss is returned by Get and TakeString when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// Cache backs the catalog snapshot, geocode results, rate-limit windows and
// Telegram link codes.
type Cache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewWithClient wraps an existing client without pinging it.
func NewWithClient(client *redis.Client, logger *zap.Logger) *Cache {
	return &Cache{client: client, logger: logger}
}

func New(addr, password string, db int, logger *zap.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     20,
		MinIdleConns: 4,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}

	logger.Info("connected to Redis", zap.String("addr", addr), zap.Int("db", db))

	return NewWithClient(client, logger), nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Set stores value as JSON under key.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Error("redis set failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("set %s: %w", key, err)
	}

	return nil
}

// Get decodes the JSON stored under key into dest.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		c.logger.Error("redis get failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		// A payload from an older release is treated as absent.
		c.logger.Warn("dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		return ErrCacheMiss
	}

	return nil
}

func (c *Cache) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.Error("redis set failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// TakeString reads and deletes a key in one round trip.
func (c *Cache) TakeString(ctx context.Context, key string) (string, error) {
	value, err := c.client.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	if err != nil {
		c.logger.Error("redis getdel failed", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("take %s: %w", key, err)
	}

	return value, nil
}

// IncrementWindow counts a hit in a fixed window. The TTL is only set by the
// first hit so the window closes on schedule under steady traffic.
func (c *Cache) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Error("redis increment failed", zap.String("key", key), zap.Error(err))
		return 0, fmt.Errorf("increment %s: %w", key, err)
	}

	return incr.Val(), nil
}
