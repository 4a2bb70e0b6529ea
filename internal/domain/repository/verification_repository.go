package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// VerificationRepository keeps email verification tokens and resend
// cooldowns. Both expire on their own.
type VerificationRepository interface {
	SaveToken(ctx context.Context, token, userID string, ttl time.Duration) error
	// ConsumeToken returns the user id bound to token and deletes it.
	// An unknown or expired token yields ("", false, nil).
	ConsumeToken(ctx context.Context, token string) (string, bool, error)
	// AcquireCooldown reports false while a previous cooldown for email is live.
	AcquireCooldown(ctx context.Context, email string, ttl time.Duration) (bool, error)
	// ReleaseCooldown drops the cooldown for email so a failed send can be retried.
	ReleaseCooldown(ctx context.Context, email string) error
}

type redisVerificationRepository struct {
	rdb *redis.Client
}

func NewRedisVerificationRepository(rdb *redis.Client) VerificationRepository {
	return &redisVerificationRepository{rdb: rdb}
}

func verifyTokenKey(token string) string    { return "verify:token:" + token }
func verifyCooldownKey(email string) string { return "verify:cooldown:" + email }

func (r *redisVerificationRepository) SaveToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	if err := r.rdb.Set(ctx, verifyTokenKey(token), userID, ttl).Err(); err != nil {
		return fmt.Errorf("redisVerificationRepository.SaveToken: %w", err)
	}
	return nil
}

func (r *redisVerificationRepository) ConsumeToken(ctx context.Context, token string) (string, bool, error) {
	userID, err := r.rdb.GetDel(ctx, verifyTokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redisVerificationRepository.ConsumeToken: %w", err)
	}
	return userID, true, nil
}

func (r *redisVerificationRepository) AcquireCooldown(ctx context.Context, email string, ttl time.Duration) (bool, error) {
	ok, err := r.rdb.SetNX(ctx, verifyCooldownKey(email), time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redisVerificationRepository.AcquireCooldown: %w", err)
	}
	return ok, nil
}

func (r *redisVerificationRepository) ReleaseCooldown(ctx context.Context, email string) error {
	if err := r.rdb.Del(ctx, verifyCooldownKey(email)).Err(); err != nil {
		return fmt.Errorf("redisVerificationRepository.ReleaseCooldown: %w", err)
	}
	return nil
}
