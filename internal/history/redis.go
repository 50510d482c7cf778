package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/example/visionlearn/internal/config"
)

// listClient is the part of *redis.Client the store uses.
type listClient interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	LRem(ctx context.Context, key string, count int64, value interface{}) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisStore keeps the history as a Redis list of JSON documents, newest at
// the head.
type RedisStore struct {
	client listClient
	key    string
	limit  int
	log    *zap.Logger
}

// NewRedisStore connects lazily to addr.
func NewRedisStore(addr string, db int, key string, limit int, log *zap.Logger) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	return newRedisStore(client, key, limit, log)
}

func newRedisStore(client listClient, key string, limit int, log *zap.Logger) *RedisStore {
	if key == "" {
		key = config.DefaultRedisKey
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisStore{client: client, key: key, limit: limit, log: log}
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Add pushes e to the head of the list and trims it to the limit.
func (s *RedisStore) Add(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := s.client.LPush(ctx, s.key, data).Err(); err != nil {
		return fmt.Errorf("push history entry: %w", err)
	}
	if err := s.client.LTrim(ctx, s.key, 0, int64(s.limit-1)).Err(); err != nil {
		return fmt.Errorf("trim history: %w", err)
	}
	return nil
}

func (s *RedisStore) raw(ctx context.Context) ([]string, []Entry, error) {
	vals, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("read history: %w", err)
	}
	entries := make([]Entry, 0, len(vals))
	kept := make([]string, 0, len(vals))
	for _, v := range vals {
		var e Entry
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			s.log.Warn("skipping corrupt history entry", zap.Error(err))
			continue
		}
		entries = append(entries, e)
		kept = append(kept, v)
	}
	return kept, entries, nil
}

// List returns all entries, newest first.
func (s *RedisStore) List(ctx context.Context) ([]Entry, error) {
	_, entries, err := s.raw(ctx)
	return entries, err
}

// Get returns the entry with id.
func (s *RedisStore) Get(ctx context.Context, id string) (Entry, error) {
	_, entries, err := s.raw(ctx)
	if err != nil {
		return Entry{}, err
	}
	i := find(entries, id)
	if i < 0 {
		return Entry{}, ErrNotFound
	}
	return entries[i], nil
}

// Delete removes the entry with id.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	vals, entries, err := s.raw(ctx)
	if err != nil {
		return err
	}
	i := find(entries, id)
	if i < 0 {
		return ErrNotFound
	}
	return s.client.LRem(ctx, s.key, 1, vals[i]).Err()
}

// Clear removes the list.
func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

// Close releases the connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
