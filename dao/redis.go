package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"

	"storybot/model"
)

const (
	defaultKeyPrefix  = "storybot:session:"
	defaultMaxRetries = 3
)

type RedisStore struct {
	client     *redis.Client
	keyPrefix  string
	ttl        time.Duration
	maxRetries int
}

func NewRedisStore(addr, password string, db int, ttl time.Duration) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisStoreWithClient(client, ttl)
}

func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client:     client,
		keyPrefix:  defaultKeyPrefix,
		ttl:        ttl,
		maxRetries: defaultMaxRetries,
	}
}

// WithKeyPrefix changes the namespace of session keys.
func (s *RedisStore) WithKeyPrefix(prefix string) *RedisStore {
	s.keyPrefix = prefix
	return s
}

func (s *RedisStore) Get(ctx context.Context, userID model.UserID) (*model.Session, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	data, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.NewSession(userID), nil
	}
	if err != nil {
		return nil, err
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", userID.ID, err)
	}
	return &session, nil
}

func (s *RedisStore) Save(ctx context.Context, session *model.Session) error {
	return s.SaveWithOptimisticLock(ctx, session, s.maxRetries)
}

// SaveWithOptimisticLock writes the session under WATCH. A stored version
// different from the session's version means another turn saved first and
// yields ErrSessionConflict; aborted transactions are retried.
func (s *RedisStore) SaveWithOptimisticLock(ctx context.Context, session *model.Session, maxRetries int) error {
	if err := validateSession(session); err != nil {
		return err
	}
	if maxRetries < 0 {
		return fmt.Errorf("%w: maxRetries cannot be negative", ErrInvalidParam)
	}

	key := s.key(session.UserID)
	next := session.Clone()
	stamp(next)
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.UserID.ID, err)
	}

	for i := 0; i <= maxRetries; i++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			currentData, err := tx.Get(ctx, key).Bytes()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}

			if err == nil {
				var current model.Session
				if err := json.Unmarshal(currentData, &current); err != nil {
					return err
				}
				if current.Version != session.Version {
					return ErrSessionConflict
				}
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, s.ttl)
				return nil
			})
			return err
		}, key)

		if !s.shouldRetry(err) {
			if err != nil {
				return err
			}
			session.Version, session.UpdatedAt = next.Version, next.UpdatedAt
			return nil
		}

		if i < maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Millisecond * time.Duration(10*(i+1))):
			}
		}
	}

	return fmt.Errorf("%w for session %s", ErrMaxRetries, session.UserID.ID)
}

// shouldRetry reports whether err is a WATCH abort worth another attempt.
func (s *RedisStore) shouldRetry(err error) bool {
	return errors.Is(err, redis.TxFailedErr)
}

func (s *RedisStore) Delete(ctx context.Context, userID model.UserID) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	return s.client.Del(ctx, s.key(userID)).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) key(userID model.UserID) string {
	return s.keyPrefix + userID.ID
}
