package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"

	"github.com/tgchan/tgchan/internal/entities"
)

// RedisStore is a Store which keeps reply mode across bot restarts.
// The board engine runs as a single process, so the store is not meant to be shared by replicas.
type RedisStore struct {
	rdb  *redis.Client
	data *cache.Cache
	ttl  time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to redis and checks connection.
func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisStore{
		rdb:  rdb,
		data: cache.New(&cache.Options{Redis: rdb}),
		ttl:  ttl,
	}, nil
}

// Ping checks redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func redisKey(p entities.Pseudonym) string {
	return "session/reply/" + string(p)
}

// Get ...
func (s *RedisStore) Get(ctx context.Context, p entities.Pseudonym) (entities.PostID, bool, error) {
	var id int64
	if err := s.data.Get(ctx, redisKey(p), &id); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get session: %w", err)
	}

	return entities.PostID(id), true, nil
}

// Set ...
func (s *RedisStore) Set(ctx context.Context, p entities.Pseudonym, id entities.PostID) error {
	if err := s.data.Set(&cache.Item{
		Ctx:   ctx,
		Key:   redisKey(p),
		Value: int64(id),
		TTL:   s.ttl,
	}); err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}

	return nil
}

// Delete ...
func (s *RedisStore) Delete(ctx context.Context, p entities.Pseudonym) (bool, error) {
	if err := s.data.Delete(ctx, redisKey(p)); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete session: %w", err)
	}

	return true, nil
}
