// Package redis stores sessions in Redis so several gateway replicas can
// share them. Expiry is delegated to Redis key TTLs.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aussiebroadwan/grantgate/internal/gateway/domain"
	"github.com/aussiebroadwan/grantgate/internal/gateway/store"
)

const DefaultKeyPrefix = "grantgate:session:"

// expiredGraceTTL is how long a record written with a past ExpiresAt is
// kept. Readers reject it as expired; Redis then evicts it.
const expiredGraceTTL = time.Minute

// maxWatchRetries bounds optimistic transaction retries when the watched key
// is touched between WATCH and EXEC by something other than a session write.
const maxWatchRetries = 3

type Store struct {
	client    redis.UniversalClient
	codec     *store.Codec
	keyPrefix string
}

// Open parses url, connects and pings.
func Open(ctx context.Context, url string, codec *store.Codec) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewStore(client, codec), nil
}

// NewStore wraps an existing client.
func NewStore(client redis.UniversalClient, codec *store.Codec) *Store {
	return &Store{client: client, codec: codec, keyPrefix: DefaultKeyPrefix}
}

func (s *Store) Sessions() store.Sessions { return s }
func (s *Store) ApplyMigrations() error   { return nil }
func (s *Store) Close() error             { return s.client.Close() }

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) key(k string) string { return s.keyPrefix + k }

func (s *Store) GetSession(ctx context.Context, key string) (domain.Session, error) {
	blob, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Session{}, err
	}
	return s.codec.Decode(key, blob)
}

func (s *Store) CreateSession(ctx context.Context, sess domain.Session) error {
	blob, err := s.codec.Encode(sess)
	if err != nil {
		return err
	}

	ok, err := s.client.SetNX(ctx, s.key(sess.Key), blob, keyTTL(sess.ExpiresAt)).Result()
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrAlreadyExists
	}
	return nil
}

func (s *Store) ReplaceSession(ctx context.Context, expected int64, next domain.Session) error {
	blob, err := s.codec.Encode(next)
	if err != nil {
		return err
	}
	k := s.key(next.Key)

	txf := func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}

		sess, err := s.codec.Decode(next.Key, cur)
		if err != nil {
			return err
		}
		if sess.Version != expected {
			return store.ErrConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, blob, keyTTL(next.ExpiresAt))
			return nil
		})
		return err
	}

	for range maxWatchRetries {
		err := s.client.Watch(ctx, txf, k)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return store.ErrConflict
}

// keyTTL maps a session expiry onto a key TTL. Zero means no expiry.
func keyTTL(expiresAt time.Time) time.Duration {
	if expiresAt.IsZero() {
		return 0
	}
	if ttl := time.Until(expiresAt); ttl > 0 {
		return ttl
	}
	return expiredGraceTTL
}

func (s *Store) DeleteSession(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

// DeleteExpiredSessions is a no-op; Redis evicts expired keys itself.
func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}
