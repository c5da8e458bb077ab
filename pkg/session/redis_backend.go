package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend implements LogBackend using Redis lists.
// The live log is one list; each date gets its own mirror list.
type RedisBackend struct {
	client *redis.Client
	prefix string
	mu     sync.RWMutex
	closed bool
}

// RedisConfig holds Redis connection configuration for the log backend.
type RedisConfig struct {
	// Addr is the Redis server address (host:port).
	Addr string
	// Password is the Redis password (optional).
	Password string
	// DB is the Redis database number.
	DB int
	// Prefix is the key prefix for all log keys (default: "tsuzuri:log:").
	Prefix string
	// PoolSize is the connection pool size (default: 10).
	PoolSize int
}

// NewRedisBackend creates a new Redis log backend.
func NewRedisBackend(cfg RedisConfig) (*RedisBackend, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "tsuzuri:log:"
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: poolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisBackend{client: client, prefix: prefix}, nil
}

// NewRedisBackendFromClient creates a Redis backend from an existing
// client. This is useful for testing with miniredis.
func NewRedisBackendFromClient(client *redis.Client, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = "tsuzuri:log:"
	}
	return &RedisBackend{client: client, prefix: prefix}
}

func (b *RedisBackend) liveKey() string {
	return b.prefix + "live"
}

func (b *RedisBackend) dateKey(date string) string {
	return b.prefix + "date:" + date
}

// Reset atomically clears the live log (a single DEL).
func (b *RedisBackend) Reset(ctx context.Context) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBackendClosed
	}
	b.mu.RUnlock()

	if err := b.client.Del(ctx, b.liveKey()).Err(); err != nil {
		return fmt.Errorf("reset live log: %w", err)
	}

	return nil
}

// Append adds one turn to the live log and mirrors it into the dated log.
func (b *RedisBackend) Append(ctx context.Context, turn Turn, date string) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBackendClosed
	}
	b.mu.RUnlock()

	if err := validateDateKey(date); err != nil {
		return err
	}

	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}

	pipe := b.client.Pipeline()
	pipe.RPush(ctx, b.liveKey(), data)
	pipe.RPush(ctx, b.dateKey(date), data)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append turn: %w", err)
	}

	return nil
}

// Turns returns the live log's turns in insertion order.
func (b *RedisBackend) Turns(ctx context.Context) ([]Turn, error) {
	return b.loadList(ctx, b.liveKey())
}

// TurnsByDate returns the turns recorded under date in insertion order.
func (b *RedisBackend) TurnsByDate(ctx context.Context, date string) ([]Turn, error) {
	if err := validateDateKey(date); err != nil {
		return nil, err
	}
	return b.loadList(ctx, b.dateKey(date))
}

func (b *RedisBackend) loadList(ctx context.Context, key string) ([]Turn, error) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return nil, ErrBackendClosed
	}
	b.mu.RUnlock()

	data, err := b.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load turns: %w", err)
	}

	turns := make([]Turn, 0, len(data))
	for _, d := range data {
		var turn Turn
		if err := json.Unmarshal([]byte(d), &turn); err != nil {
			return nil, fmt.Errorf("unmarshal turn: %w", err)
		}
		turns = append(turns, turn)
	}

	return turns, nil
}

// Ping checks if the Redis connection is alive.
func (b *RedisBackend) Ping(ctx context.Context) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBackendClosed
	}
	b.mu.RUnlock()

	return b.client.Ping(ctx).Err()
}

// Close releases the underlying Redis client.
func (b *RedisBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.closed = true
	return b.client.Close()
}
