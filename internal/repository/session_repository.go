package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jh-platform/auth-api/internal/models"
)

// ErrSessionNotFound signals that no refresh session exists for a username.
// Both session store backends normalise absence to this sentinel.
var ErrSessionNotFound = errors.New("refresh session not found")

// SessionRepository persists refresh sessions in PostgreSQL, one row per
// username. The upsert is a single-row atomic replace, which is all the
// consistency the lifecycle manager requires: a get right after an upsert for
// the same username observes the new value.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new instance of SessionRepository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Get returns the refresh session for a username.
func (r *SessionRepository) Get(ctx context.Context, username string) (*models.RefreshSession, error) {
	const query = `SELECT username, token, expires_at, revoked, revoked_at, created_at, updated_at FROM refresh_sessions WHERE username = $1 LIMIT 1`
	var session models.RefreshSession
	if err := r.db.GetContext(ctx, &session, query, username); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get refresh session: %w", err)
	}
	return &session, nil
}

// Upsert replaces the session row keyed by username. Concurrent logins for
// the same user race to last-write-wins, which is the intended
// invalidation-on-relogin behaviour.
func (r *SessionRepository) Upsert(ctx context.Context, session *models.RefreshSession) error {
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	const query = `INSERT INTO refresh_sessions (username, token, expires_at, revoked, revoked_at, created_at, updated_at)
		VALUES (:username, :token, :expires_at, :revoked, :revoked_at, :created_at, :updated_at)
		ON CONFLICT (username) DO UPDATE SET
			token = EXCLUDED.token,
			expires_at = EXCLUDED.expires_at,
			revoked = EXCLUDED.revoked,
			revoked_at = EXCLUDED.revoked_at,
			updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("upsert refresh session: %w", err)
	}
	return nil
}

// Delete removes the session row for a username. Deleting an absent row is
// not an error.
func (r *SessionRepository) Delete(ctx context.Context, username string) error {
	const query = `DELETE FROM refresh_sessions WHERE username = $1`
	if _, err := r.db.ExecContext(ctx, query, username); err != nil {
		return fmt.Errorf("delete refresh session: %w", err)
	}
	return nil
}
