package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const redisKeyPrefix = "folio:"

type redisBackend struct {
	client *redis.Client
	key    string
	logger zerolog.Logger
}

// NewRedisStore creates a Store backed by the Redis server at redisURL.
func NewRedisStore(redisURL string, logger zerolog.Logger) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, logger), nil
}

// NewRedisStoreWithClient creates a Store from an existing Redis client.
func NewRedisStoreWithClient(client *redis.Client, logger zerolog.Logger) *Store {
	redisLogger := logger.With().Str("component", "state").Logger()
	st := newStore(
		&redisBackend{client: client, key: redisKeyPrefix + activeStoreName, logger: redisLogger},
		&redisBackend{client: client, key: redisKeyPrefix + closedStoreName, logger: redisLogger},
		logger,
	)
	st.closeFn = client.Close
	return st
}

func (b *redisBackend) read(ctx context.Context) ([]WindowSession, error) {
	raw, err := b.client.Get(ctx, b.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", b.key, err)
	}

	var sessions []WindowSession
	if err := json.Unmarshal(raw, &sessions); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, b.key, err)
	}
	for _, s := range sessions {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, b.key, err)
		}
	}
	return sessions, nil
}

func (b *redisBackend) write(ctx context.Context, sessions []WindowSession) error {
	if len(sessions) == 0 {
		return b.client.Del(ctx, b.key).Err()
	}
	data, err := json.Marshal(sessions)
	if err != nil {
		return err
	}
	return b.client.Set(ctx, b.key, data, 0).Err()
}

// recover drops an undecodable value. Connection errors leave the key alone.
func (b *redisBackend) recover(ctx context.Context, cause error) {
	if !errors.Is(cause, ErrCorrupt) {
		return
	}
	if err := b.client.Del(ctx, b.key).Err(); err != nil {
		b.logger.Error().Err(err).Str("key", b.key).Msg("delete corrupted session key failed")
	}
}
