package handler

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jh-platform/auth-api/internal/middleware"
	"github.com/jh-platform/auth-api/internal/models"
	"github.com/jh-platform/auth-api/internal/repository"
	"github.com/jh-platform/auth-api/internal/service"
	"github.com/jh-platform/auth-api/internal/token"
)

const testSecret = "handler-test-secret-0123456789abcdef"

type memUsers struct {
	byUsername map[string]*models.User
	audits     []*models.AuditLog
}

func (m *memUsers) FindByUsername(_ context.Context, username string) (*models.User, error) {
	user, ok := m.byUsername[username]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (m *memUsers) Create(_ context.Context, user *models.User) error {
	m.byUsername[user.Username] = user
	return nil
}

func (m *memUsers) UpdateLastLogin(_ context.Context, _ string, _ time.Time) error {
	return nil
}

func (m *memUsers) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	m.audits = append(m.audits, log)
	return nil
}

type memSessions struct {
	byUsername map[string]*models.RefreshSession
}

func (m *memSessions) Get(_ context.Context, username string) (*models.RefreshSession, error) {
	session, ok := m.byUsername[username]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (m *memSessions) Upsert(_ context.Context, session *models.RefreshSession) error {
	m.byUsername[session.Username] = session
	return nil
}

func (m *memSessions) Delete(_ context.Context, username string) error {
	delete(m.byUsername, username)
	return nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *memSessions) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := &memUsers{byUsername: map[string]*models.User{}}
	sessions := &memSessions{byUsername: map[string]*models.RefreshSession{}}
	codec := token.NewCodec(testSecret)

	svc := service.NewAuthService(users, sessions, codec, nil, nil, nil, service.AuthConfig{
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
	})
	h := NewAuthHandler(svc, codec, CookieSettings{
		AccessMaxAge:  int((15 * time.Minute).Seconds()),
		RefreshMaxAge: int((24 * time.Hour).Seconds()),
	})

	r := gin.New()
	r.Use(middleware.Authenticate(codec))
	auth := r.Group("/api/auth")
	{
		auth.POST("/signup", h.Signup)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)
		auth.GET("/user", middleware.RequireUser(), h.Me)
	}
	return r, sessions
}

func do(r *gin.Engine, method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func cookieByName(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func signupAndLogin(t *testing.T, r *gin.Engine) []*http.Cookie {
	t.Helper()

	w := do(r, http.MethodPost, "/api/auth/signup", `{"username":"alice","password":"s3cret-pass","name":"Alice"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(r, http.MethodPost, "/api/auth/login", `{"username":"alice","password":"s3cret-pass"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	access := cookieByName(t, w, middleware.AccessTokenCookie)
	refresh := cookieByName(t, w, RefreshTokenCookie)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	return []*http.Cookie{access, refresh}
}

func TestLoginSetsHttpOnlyCookiesAndKeepsBodyClean(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/auth/signup", `{"username":"alice","password":"s3cret-pass","name":"Alice"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	w = do(r, http.MethodPost, "/api/auth/login", `{"username":"alice","password":"s3cret-pass"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	access := cookieByName(t, w, middleware.AccessTokenCookie)
	refresh := cookieByName(t, w, RefreshTokenCookie)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.True(t, access.HttpOnly)
	assert.True(t, refresh.HttpOnly)

	// Token material travels only in cookies.
	assert.NotContains(t, w.Body.String(), access.Value)
	assert.NotContains(t, w.Body.String(), refresh.Value)
}

func TestLoginWrongPassword(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/auth/signup", `{"username":"alice","password":"s3cret-pass","name":"Alice"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(r, http.MethodPost, "/api/auth/login", `{"username":"alice","password":"wrong-pass"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Result().Cookies())
}

func TestSignupDuplicate(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/auth/signup", `{"username":"alice","password":"s3cret-pass","name":"Alice"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(r, http.MethodPost, "/api/auth/signup", `{"username":"alice","password":"other-pass","name":"Alice"}`, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRefreshFromCookie(t *testing.T) {
	r, _ := newTestRouter(t)
	cookies := signupAndLogin(t, r)

	w := do(r, http.MethodPost, "/api/auth/refresh", "", cookies)
	require.Equal(t, http.StatusOK, w.Code)

	access := cookieByName(t, w, middleware.AccessTokenCookie)
	require.NotNil(t, access)
	assert.NotEmpty(t, access.Value)

	// The refresh token is not rotated, so no new refresh cookie is written.
	assert.Nil(t, cookieByName(t, w, RefreshTokenCookie))
}

func TestRefreshFromBody(t *testing.T) {
	r, _ := newTestRouter(t)
	cookies := signupAndLogin(t, r)

	var refresh string
	for _, c := range cookies {
		if c.Name == RefreshTokenCookie {
			refresh = c.Value
		}
	}
	require.NotEmpty(t, refresh)

	w := do(r, http.MethodPost, "/api/auth/refresh", `{"refresh_token":"`+refresh+`"}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRefreshWithoutToken(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/auth/refresh", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutClearsCookiesAndKillsSession(t *testing.T) {
	r, sessions := newTestRouter(t)
	cookies := signupAndLogin(t, r)

	w := do(r, http.MethodPost, "/api/auth/logout", "", cookies)
	require.Equal(t, http.StatusOK, w.Code)

	for _, name := range []string{middleware.AccessTokenCookie, RefreshTokenCookie} {
		cleared := cookieByName(t, w, name)
		require.NotNil(t, cleared, "expected %s to be cleared", name)
		assert.Empty(t, cleared.Value)
		assert.Less(t, cleared.MaxAge, 0)
	}
	assert.Empty(t, sessions.byUsername)

	// The deleted session makes the old refresh token unusable.
	w = do(r, http.MethodPost, "/api/auth/refresh", "", cookies)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutWithoutSessionStillSucceeds(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	for _, name := range []string{middleware.AccessTokenCookie, RefreshTokenCookie} {
		require.NotNil(t, cookieByName(t, w, name))
	}
}

func TestMeRequiresAccessToken(t *testing.T) {
	r, _ := newTestRouter(t)
	cookies := signupAndLogin(t, r)

	w := do(r, http.MethodGet, "/api/auth/user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/api/auth/user", "", cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice")
	assert.NotContains(t, w.Body.String(), "password_hash")
}
