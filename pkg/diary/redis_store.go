package diary

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store using Redis string keys, one per date.
// Suitable when the diary service runs on a host without durable local
// storage; durability then follows the Redis deployment's persistence.
type RedisStore struct {
	client *redis.Client
	prefix string
	mu     sync.RWMutex
	closed bool
}

// RedisStoreConfig holds Redis connection configuration.
type RedisStoreConfig struct {
	// Addr is the Redis server address (host:port).
	Addr string
	// Password is the Redis password (optional).
	Password string
	// DB is the Redis database number.
	DB int
	// Prefix is the key prefix for all diary keys (default: "tsuzuri:diary:").
	Prefix string
	// PoolSize is the connection pool size (default: 10).
	PoolSize int
}

// NewRedisStore creates a new Redis diary store.
func NewRedisStore(cfg RedisStoreConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "tsuzuri:diary:"
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

	return &RedisStore{client: client, prefix: prefix}, nil
}

// NewRedisStoreFromClient creates a Redis store from an existing client.
// This is useful for testing with miniredis.
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "tsuzuri:diary:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) entryKey(date string) string {
	return s.prefix + "entry:" + date
}

// Save creates or fully overwrites the entry at date.
func (s *RedisStore) Save(ctx context.Context, date, content string) (string, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return "", ErrStoreClosed
	}
	s.mu.RUnlock()

	if !ValidDate(date) {
		return "", ErrInvalidDate
	}

	key := s.entryKey(date)
	if err := s.client.Set(ctx, key, content, 0).Err(); err != nil {
		return "", fmt.Errorf("store entry: %w", err)
	}

	return key, nil
}

// Get returns the stored content for date, or ok=false if none exists.
func (s *RedisStore) Get(ctx context.Context, date string) (string, bool, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return "", false, ErrStoreClosed
	}
	s.mu.RUnlock()

	if !ValidDate(date) {
		return "", false, ErrInvalidDate
	}

	content, err := s.client.Get(ctx, s.entryKey(date)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read entry: %w", err)
	}

	return content, true, nil
}

// Delete removes the entry at date. Missing entries are ignored.
func (s *RedisStore) Delete(ctx context.Context, date string) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrStoreClosed
	}
	s.mu.RUnlock()

	if !ValidDate(date) {
		return ErrInvalidDate
	}

	if err := s.client.Del(ctx, s.entryKey(date)).Err(); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	return nil
}

// ListMonth projects every calendar day of (year, month) using a single
// MGET across the month's keys.
func (s *RedisStore) ListMonth(ctx context.Context, year, month int) (*MonthProjection, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, ErrStoreClosed
	}
	s.mu.RUnlock()

	if month < 1 || month > 12 || year < 1 {
		return nil, ErrInvalidMonth
	}

	dates := monthDates(year, month)
	keys := make([]string, len(dates))
	for i, date := range dates {
		keys[i] = s.entryKey(date)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list month: %w", err)
	}

	days := make([]DayCell, len(dates))
	for i, date := range dates {
		days[i] = DayCell{Date: date}
		if content, ok := values[i].(string); ok {
			days[i].HasEntry = true
			days[i].Preview = Preview(content)
		}
	}

	return &MonthProjection{Year: year, Month: month, Days: days}, nil
}

// Ping checks if the Redis connection is alive.
func (s *RedisStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrStoreClosed
	}
	s.mu.RUnlock()

	return s.client.Ping(ctx).Err()
}

// Close releases the underlying Redis client.
func (s *RedisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.client.Close()
}
