package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jh-platform/auth-api/internal/models"
	"github.com/jh-platform/auth-api/internal/password"
	"github.com/jh-platform/auth-api/internal/repository"
	"github.com/jh-platform/auth-api/internal/token"
	appErrors "github.com/jh-platform/auth-api/pkg/errors"
)

type credentialStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type refreshSessionStore interface {
	Get(ctx context.Context, username string) (*models.RefreshSession, error)
	Upsert(ctx context.Context, session *models.RefreshSession) error
	Delete(ctx context.Context, username string) error
}

// AuthConfig defines configuration for the token lifecycle.
type AuthConfig struct {
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration

	// Clock supplies the current time; nil means time.Now. Injectable so
	// expiry behaviour is deterministic under test.
	Clock func() time.Time
}

// AuthService orchestrates signup, login, refresh and logout. It holds no
// mutable state of its own; everything shared lives in the session store, so
// it is safe to call from concurrent request handlers.
type AuthService struct {
	users     credentialStore
	sessions  refreshSessionStore
	codec     *token.Codec
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance. metrics may be nil.
func NewAuthService(users credentialStore, sessions refreshSessionStore, codec *token.Codec, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	now := config.Clock
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		users:     users,
		sessions:  sessions,
		codec:     codec,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		config:    config,
		now:       now,
	}
}

// Signup registers a new credential. It has no token side effects.
func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid signup payload")
	}

	if _, err := s.users.FindByUsername(ctx, req.Username); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "username already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check username uniqueness")
	}

	digest, err := password.Hash(req.Password)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: digest,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Status:       models.StatusActive,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.audit(ctx, req.Username, models.AuditActionSignup, `{"status":"created"}`, req.IP, req.UserAgent)

	sanitized := *user
	sanitized.PasswordHash = ""
	return &sanitized, nil
}

// Login authenticates a credential and issues a fresh access/refresh token
// pair, superseding any prior refresh session for the user. Unknown usernames
// and wrong passwords return the same outward error.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.ObserveLogin(false)
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if !password.Matches(req.Password, user.PasswordHash) {
		s.metrics.ObserveLogin(false)
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}

	if user.Status != models.StatusActive {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "account is not active")
	}

	now := s.now().UTC()

	accessToken, err := s.codec.Issue(user.Username, token.KindAccess, s.config.AccessTokenExpiry)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	refreshToken, err := s.codec.Issue(user.Username, token.KindRefresh, s.config.RefreshTokenExpiry)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refresh token")
	}

	session := &models.RefreshSession{
		Username:  user.Username,
		Token:     refreshToken,
		ExpiresAt: now.Add(s.config.RefreshTokenExpiry),
		Revoked:   false,
	}
	if err := s.sessions.Upsert(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist refresh session")
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to update last login", zap.String("username", user.Username), zap.Error(err))
	}

	s.audit(ctx, user.Username, models.AuditActionLogin, `{"status":"success"}`, req.IP, req.UserAgent)
	s.metrics.ObserveLogin(true)
	s.metrics.ObserveTokenIssued(string(token.KindAccess))
	s.metrics.ObserveTokenIssued(string(token.KindRefresh))

	return &models.LoginResponse{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresIn:  int64(s.config.AccessTokenExpiry.Seconds()),
		RefreshExpiresIn: int64(s.config.RefreshTokenExpiry.Seconds()),
		IssuedAt:         now,
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The stored
// session is authoritative: the presented token must match it exactly, be
// unrevoked and unexpired by the store's own clock. The session itself is not
// mutated and the refresh token is not rotated. All rejection reasons share
// one outward error so the response carries no oracle.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.RefreshResponse, error) {
	parsed, err := s.codec.Parse(refreshToken)
	if err != nil {
		s.metrics.ObserveRefresh(false)
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token is invalid or expired")
	}

	if parsed.Kind != token.KindRefresh {
		s.logger.Debug("refresh rejected: wrong token kind", zap.String("username", parsed.Subject), zap.String("kind", string(parsed.Kind)))
		s.metrics.ObserveRefresh(false)
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token is invalid or expired")
	}

	session, err := s.sessions.Get(ctx, parsed.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			s.metrics.ObserveRefresh(false)
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token is invalid or expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load refresh session")
	}

	if session.Token != refreshToken {
		// Still signature-valid, but superseded by a newer login.
		s.logger.Debug("refresh rejected: token superseded", zap.String("username", parsed.Subject))
		s.metrics.ObserveRefresh(false)
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token is invalid or expired")
	}

	if session.Revoked {
		s.logger.Debug("refresh rejected: session revoked", zap.String("username", parsed.Subject))
		s.metrics.ObserveRefresh(false)
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token is invalid or expired")
	}

	if !session.ExpiresAt.After(s.now().UTC()) {
		s.logger.Debug("refresh rejected: session expired", zap.String("username", parsed.Subject))
		s.metrics.ObserveRefresh(false)
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token is invalid or expired")
	}

	accessToken, err := s.codec.Issue(parsed.Subject, token.KindAccess, s.config.AccessTokenExpiry)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	s.metrics.ObserveRefresh(true)
	s.metrics.ObserveTokenIssued(string(token.KindAccess))

	return &models.RefreshResponse{
		AccessToken:     accessToken,
		AccessExpiresIn: int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:        s.now().UTC(),
	}, nil
}

// Logout deletes the user's refresh session. Store failures are logged and
// swallowed: the client must still be able to clear its cookies, and a second
// logout for the same user is a no-op, not an error.
func (s *AuthService) Logout(ctx context.Context, username, ip, userAgent string) error {
	if err := s.sessions.Delete(ctx, username); err != nil {
		s.logger.Error("failed to delete refresh session on logout", zap.String("username", username), zap.Error(err))
	}
	s.audit(ctx, username, models.AuditActionLogout, `{"status":"logout"}`, ip, userAgent)
	return nil
}

// GetIdentity returns the profile for a username with the password hash
// stripped.
func (s *AuthService) GetIdentity(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	sanitized := *user
	sanitized.PasswordHash = ""
	return &sanitized, nil
}

func (s *AuthService) audit(ctx context.Context, username string, action models.AuditAction, detail, ip, userAgent string) {
	err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		Username:  username,
		Action:    action,
		Detail:    detail,
		IPAddress: ip,
		UserAgent: userAgent,
	})
	if err != nil {
		s.logger.Warn("failed to record audit log", zap.String("username", username), zap.String("action", string(action)), zap.Error(err))
	}
}
