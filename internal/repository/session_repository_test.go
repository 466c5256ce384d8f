package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jh-platform/auth-api/internal/models"
)

func TestSessionGet(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"username", "token", "expires_at", "revoked", "revoked_at", "created_at", "updated_at"}).
		AddRow("alice", "token-value", now.Add(time.Hour), false, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT username, token, expires_at, revoked, revoked_at, created_at, updated_at FROM refresh_sessions WHERE username = $1 LIMIT 1")).
		WithArgs("alice").
		WillReturnRows(rows)

	session, err := repo.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "token-value", session.Token)
	assert.False(t, session.Revoked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionGetAbsent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectQuery("SELECT .+ FROM refresh_sessions").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionUpsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec("INSERT INTO refresh_sessions").WillReturnResult(sqlmock.NewResult(1, 1))

	session := &models.RefreshSession{Username: "alice", Token: "token-value", ExpiresAt: time.Now().Add(time.Hour)}
	err := repo.Upsert(context.Background(), session)
	require.NoError(t, err)
	assert.False(t, session.CreatedAt.IsZero())
	assert.False(t, session.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionDeleteIdempotent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	// deleting an absent row affects zero rows and is still a success
	mock.ExpectExec("DELETE FROM refresh_sessions").WithArgs("alice").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM refresh_sessions").WithArgs("alice").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "alice"))
	require.NoError(t, repo.Delete(context.Background(), "alice"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
