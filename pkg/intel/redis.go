package intel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "baitline:intel:"

// RedisStore persists records as JSON values, one key per session, so
// intelligence survives process restarts.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRecordTTL expires records after d. Zero keeps them forever.
func WithRecordTTL(d time.Duration) RedisOption {
	return func(s *RedisStore) { s.ttl = d }
}

// NewRedisStore connects to addr and verifies the connection.
func NewRedisStore(ctx context.Context, addr, password string, db int, opts ...RedisOption) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("intel: redis ping: %w", err)
	}
	s := &RedisStore{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func redisKey(sessionID string) string { return redisKeyPrefix + sessionID }

// Put stores rec as JSON under its session key.
func (s *RedisStore) Put(ctx context.Context, rec *SessionIntel) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("intel: marshal record: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(rec.SessionID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("intel: redis set: %w", err)
	}
	return nil
}

// Get loads and decodes the record for sessionID.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*SessionIntel, error) {
	payload, err := s.client.Get(ctx, redisKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("intel: redis get: %w", err)
	}
	var rec SessionIntel
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("intel: decode record: %w", err)
	}
	return &rec, nil
}

// Delete removes the record for sessionID.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, redisKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("intel: redis del: %w", err)
	}
	return nil
}

// List scans for all session keys and returns the ids, sorted.
func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	var ids []string
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), redisKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("intel: redis scan: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close releases the client connection.
func (s *RedisStore) Close() error { return s.client.Close() }
