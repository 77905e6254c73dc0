// Package store keeps session snapshots in Redis so games survive a restart.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/benbeisheim/chessrules-backend/internal/model"
)

const defaultTTL = 24 * time.Hour

var ErrNotFound = errors.New("snapshot not found")

type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to redisURL (redis:// or rediss://) and pings it.
func New(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStore, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("redis url required")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewWithClient(rdb, ttl), nil
}

func NewWithClient(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func gameKey(id string) string { return "chess:game:" + strings.TrimSpace(id) }

// Save writes the snapshot and refreshes its TTL.
func (s *RedisStore) Save(ctx context.Context, snap model.Snapshot) error {
	if snap.ID == "" || snap.Game == nil {
		return fmt.Errorf("incomplete snapshot")
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", snap.ID, err)
	}
	return s.rdb.Set(ctx, gameKey(snap.ID), raw, s.ttl).Err()
}

// Load returns ErrNotFound when the key is missing or expired.
func (s *RedisStore) Load(ctx context.Context, id string) (model.Snapshot, error) {
	raw, err := s.rdb.Get(ctx, gameKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return model.Snapshot{}, err
	}
	var snap model.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return model.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	if snap.Game == nil {
		return model.Snapshot{}, fmt.Errorf("decode snapshot %s: missing game", id)
	}
	return snap, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, gameKey(id)).Err()
}
