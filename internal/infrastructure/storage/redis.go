package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/sweetcrumb/bakery-portal/internal/core/domain"
)

const defaultTimeout = 5 * time.Second

const (
	tokenKey = "portal:session:token"
	userKey  = "portal:session:user"
)

// RedisConfig captures the settings for establishing a Redis connection.
type RedisConfig struct {
	Addr    string
	DB      int
	Timeout time.Duration
}

// Connect initialises a Redis client and validates connectivity with a ping.
// A default timeout is applied when none is provided.
func Connect(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}

// RedisStore keeps the session under two well-known keys. Intended for
// kiosk/shared installs where several portal instances present one session;
// no cross-instance change notification is attempted — an instance notices a
// remote logout on its next read, matching the file store's semantics.
type RedisStore struct {
	client   *redis.Client
	validate *validator.Validate
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, validate: validator.New()}
}

func (s *RedisStore) SetToken(ctx context.Context, token string) error {
	return s.client.Set(ctx, tokenKey, token, 0).Err()
}

func (s *RedisStore) Token(ctx context.Context) (string, bool) {
	token, err := s.client.Get(ctx, tokenKey).Result()
	if err != nil || token == "" {
		return "", false
	}
	return token, true
}

func (s *RedisStore) RemoveToken(ctx context.Context) error {
	return s.client.Del(ctx, tokenKey).Err()
}

func (s *RedisStore) SetUser(ctx context.Context, user *domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, userKey, data, 0).Err()
}

func (s *RedisStore) User(ctx context.Context) (*domain.User, bool) {
	data, err := s.client.Get(ctx, userKey).Bytes()
	if err != nil {
		return nil, false
	}
	return decodeUser(s.validate, data)
}

// Clear removes both keys in a single command, so concurrent readers see
// either the full session or none of it.
func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, tokenKey, userKey).Err()
}
