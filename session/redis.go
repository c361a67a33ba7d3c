package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisSessionPrefix = "rsess"

// RedisStore keeps reset sessions in redis so multiple instances can serve
// any step of a reset flow. Expiry is delegated to redis key TTLs.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) key(token string) string {
	return redisSessionPrefix + ":" + token
}

func (s *RedisStore) Mint(ctx context.Context, phone string, stage Stage) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	expiresAt := time.Now().Add(TokenTTL)
	payload := map[string]any{
		"phone":      phone,
		"stage":      string(stage),
		"expires_at": expiresAt.Unix(),
	}
	key := s.key(token)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, payload)
	pipe.Expire(ctx, key, TokenTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("session redis mint: %w", err)
	}
	return token, nil
}

func (s *RedisStore) Validate(ctx context.Context, token, phone string) (*Session, error) {
	vals, err := s.client.HGetAll(ctx, s.key(token)).Result()
	if err != nil {
		return nil, fmt.Errorf("session redis validate: %w", err)
	}
	if len(vals) == 0 {
		return nil, ErrSessionNotFound
	}
	expires, err := strconv.ParseInt(vals["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("session redis: malformed expires_at: %w", err)
	}
	sess := Session{
		PhoneNumber: vals["phone"],
		Stage:       Stage(vals["stage"]),
		ExpiresAt:   time.Unix(expires, 0),
	}
	if sess.PhoneNumber != phone {
		return nil, ErrSubjectMismatch
	}
	return &sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("session redis delete: %w", err)
	}
	return nil
}
