package sessionstorage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/burenotti/go_health_funnel/internal/adapter/storage"
	"github.com/burenotti/go_health_funnel/internal/domain"
	"github.com/burenotti/go_health_funnel/internal/domain/funnel"
	"github.com/redis/go-redis/v9"
	"time"
)

const redisKeyPrefix = "funnel:session:"

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

func NewRedisClient(opts RedisOptions) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
		PoolSize: opts.PoolSize,
	})
}

func PingRedis(ctx context.Context, client *redis.Client) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}

// RedisBackend stores each session under its own key with the key's TTL
// matching the session expiry, so expired sessions vanish on their own.
type RedisBackend struct {
	client *redis.Client
}

func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func (b *RedisBackend) Storage(_ storage.DBContext) *RedisStorage {
	return &RedisStorage{client: b.client, seen: newTracker()}
}

type RedisStorage struct {
	client *redis.Client
	seen   *tracker
}

func (s *RedisStorage) Add(ctx context.Context, sess *funnel.Session) error {
	data, ttl, err := encodeForRedis(sess)
	if err != nil {
		return err
	}

	ok, err := s.client.SetNX(ctx, redisKey(sess.SessionID), data, ttl).Result()
	if err != nil {
		return storage.InternalError(err)
	}
	if !ok {
		return funnel.ErrSessionExists
	}
	s.seen.mark(sess)
	return nil
}

func (s *RedisStorage) GetByID(ctx context.Context, sessionID string) (*funnel.Session, error) {
	data, err := s.client.Get(ctx, redisKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, funnel.ErrSessionNotFound
		}
		return nil, storage.InternalError(err)
	}

	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, storage.InternalError(err)
	}
	sess := r.toDomain()
	s.seen.mark(sess)
	return sess, nil
}

func (s *RedisStorage) Persist(ctx context.Context, sess *funnel.Session) error {
	data, ttl, err := encodeForRedis(sess)
	if err != nil {
		return err
	}

	ok, err := s.client.SetXX(ctx, redisKey(sess.SessionID), data, ttl).Result()
	if err != nil {
		return storage.InternalError(err)
	}
	if !ok {
		return funnel.ErrSessionNotFound
	}
	s.seen.mark(sess)
	return nil
}

// DeleteExpired is a no-op: redis evicts keys when their TTL runs out.
func (s *RedisStorage) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (s *RedisStorage) CollectEvents() []domain.Event {
	return s.seen.collect()
}

func (s *RedisStorage) Close() error {
	s.seen.clear()
	return nil
}

func redisKey(sessionID string) string {
	return redisKeyPrefix + sessionID
}

func encodeForRedis(sess *funnel.Session) ([]byte, time.Duration, error) {
	data, err := json.Marshal(toRecord(sess))
	if err != nil {
		return nil, 0, storage.InternalError(err)
	}
	ttl := time.Until(sess.ExpiresAt)
	if ttl < time.Millisecond {
		ttl = time.Millisecond
	}
	return data, ttl, nil
}
