package otp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisCodePrefix = "otp"

// RedisStore keeps codes in redis so multiple instances share one registry.
// Expiry is delegated to redis key TTLs; consume-on-match runs under WATCH
// so two concurrent verifications of the same code cannot both succeed.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) key(subject, purpose string) string {
	return redisCodePrefix + ":" + purpose + ":" + subject
}

func (s *RedisStore) Issue(ctx context.Context, subject, purpose string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}
	now := time.Now()
	payload := map[string]any{
		"value":     code,
		"issued_at": now.Unix(),
	}
	key := s.key(subject, purpose)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, payload)
	pipe.Expire(ctx, key, CodeTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("otp redis issue: %w", err)
	}
	return code, nil
}

func (s *RedisStore) Get(ctx context.Context, subject, purpose string) (*Code, error) {
	vals, err := s.client.HGetAll(ctx, s.key(subject, purpose)).Result()
	if err != nil {
		return nil, fmt.Errorf("otp redis get: %w", err)
	}
	if len(vals) == 0 {
		return nil, ErrCodeNotFound
	}
	return decodeCode(vals)
}

func (s *RedisStore) Verify(ctx context.Context, subject, purpose, candidate string) error {
	const maxRetries = 4
	key := s.key(subject, purpose)

	for i := 0; i < maxRetries; i++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			vals, err := tx.HGetAll(ctx, key).Result()
			if err != nil {
				return err
			}
			if len(vals) == 0 {
				return ErrCodeNotFound
			}
			code, err := decodeCode(vals)
			if err != nil {
				return err
			}
			if code.Value != candidate {
				return ErrCodeMismatch
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			return err
		}, key)
		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, ErrCodeNotFound), errors.Is(err, ErrCodeMismatch):
				return err
			default:
				return fmt.Errorf("otp redis verify: %w", err)
			}
		}
		return nil
	}
	return ErrCodeNotFound
}

func (s *RedisStore) Delete(ctx context.Context, subject, purpose string) error {
	if err := s.client.Del(ctx, s.key(subject, purpose)).Err(); err != nil {
		return fmt.Errorf("otp redis delete: %w", err)
	}
	return nil
}

func decodeCode(vals map[string]string) (*Code, error) {
	issued, err := strconv.ParseInt(vals["issued_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("otp redis: malformed issued_at: %w", err)
	}
	issuedAt := time.Unix(issued, 0)
	return &Code{
		Value:     vals["value"],
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(CodeTTL),
	}, nil
}
