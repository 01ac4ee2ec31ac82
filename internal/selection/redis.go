package selection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/benvon/smart-worklog/internal/models"
)

const redisKeyPrefix = "worklog:selection:"

// NewRedisClient parses redisURL and checks the server answers within 5 seconds
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// RedisStore keeps pending selections in Redis so several server instances
// can share them. Entries expire through native key TTLs, and Take relies on
// GETDEL for at-most-once consumption.
type RedisStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRedisStore wraps client. A nil clock defaults to time.Now.
func NewRedisStore(client redis.UniversalClient, now func() time.Time) *RedisStore {
	if now == nil {
		now = time.Now
	}
	return &RedisStore{client: client, now: now}
}

func (s *RedisStore) Put(ctx context.Context, sel *models.PendingSelection) error {
	payload, err := json.Marshal(sel)
	if err != nil {
		return fmt.Errorf("failed to encode pending selection: %w", err)
	}

	ttl := sel.ExpiresAt.Sub(s.now())
	if ttl < time.Millisecond {
		ttl = time.Millisecond
	}

	ok, err := s.client.SetNX(ctx, redisKey(sel.ID), payload, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to store pending selection: %w", err)
	}
	if !ok {
		return ErrSelectionExists
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.PendingSelection, error) {
	payload, err := s.client.Get(ctx, redisKey(id)).Bytes()
	if err != nil {
		return nil, missingOr(err, "failed to read pending selection")
	}
	sel, err := s.decode(payload)
	if err != nil {
		return nil, err
	}
	if sel.Expired(s.now()) {
		_ = s.Delete(ctx, id)
		return nil, ErrSelectionMissing
	}
	return sel, nil
}

func (s *RedisStore) Take(ctx context.Context, id string) (*models.PendingSelection, error) {
	payload, err := s.client.GetDel(ctx, redisKey(id)).Bytes()
	if err != nil {
		return nil, missingOr(err, "failed to take pending selection")
	}
	sel, err := s.decode(payload)
	if err != nil {
		return nil, err
	}
	if sel.Expired(s.now()) {
		return nil, ErrSelectionMissing
	}
	return sel, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, redisKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete pending selection: %w", err)
	}
	return nil
}

// Prune is a no-op: Redis expires keys on its own
func (s *RedisStore) Prune(context.Context, time.Time) (int, error) {
	return 0, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) decode(payload []byte) (*models.PendingSelection, error) {
	var sel models.PendingSelection
	if err := json.Unmarshal(payload, &sel); err != nil {
		return nil, fmt.Errorf("failed to decode pending selection: %w", err)
	}
	return &sel, nil
}

func missingOr(err error, msg string) error {
	if errors.Is(err, redis.Nil) {
		return ErrSelectionMissing
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}
