package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jh-platform/auth-api/internal/models"
)

const sessionKeyPrefix = "refresh_session:"

// RedisSessionRepository persists refresh sessions as JSON values keyed by
// username. SET/GET/DEL on a single key are atomic, giving the same
// read-your-write guarantee as the single-row PostgreSQL store. The key TTL
// mirrors the session expiry so abandoned sessions age out on their own.
type RedisSessionRepository struct {
	client *redis.Client
}

// NewRedisSessionRepository creates a new instance of RedisSessionRepository.
func NewRedisSessionRepository(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{client: client}
}

func sessionKey(username string) string {
	return sessionKeyPrefix + username
}

// Get returns the refresh session for a username.
func (r *RedisSessionRepository) Get(ctx context.Context, username string) (*models.RefreshSession, error) {
	raw, err := r.client.Get(ctx, sessionKey(username)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get refresh session: %w", err)
	}

	var session models.RefreshSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode refresh session: %w", err)
	}
	return &session, nil
}

// Upsert replaces the stored session for session.Username.
func (r *RedisSessionRepository) Upsert(ctx context.Context, session *models.RefreshSession) error {
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode refresh session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		// Already expired; storing it would be indistinguishable from absence
		// on the next lookup anyway.
		return r.Delete(ctx, session.Username)
	}

	if err := r.client.Set(ctx, sessionKey(session.Username), payload, ttl).Err(); err != nil {
		return fmt.Errorf("upsert refresh session: %w", err)
	}
	return nil
}

// Delete removes the session for a username. Absence is not an error.
func (r *RedisSessionRepository) Delete(ctx context.Context, username string) error {
	if err := r.client.Del(ctx, sessionKey(username)).Err(); err != nil {
		return fmt.Errorf("delete refresh session: %w", err)
	}
	return nil
}
