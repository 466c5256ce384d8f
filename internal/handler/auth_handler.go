package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jh-platform/auth-api/internal/middleware"
	"github.com/jh-platform/auth-api/internal/models"
	"github.com/jh-platform/auth-api/internal/service"
	"github.com/jh-platform/auth-api/internal/token"
	appErrors "github.com/jh-platform/auth-api/pkg/errors"
	"github.com/jh-platform/auth-api/pkg/response"
)

// RefreshTokenCookie is the HttpOnly cookie carrying the refresh token.
const RefreshTokenCookie = "refreshToken"

// CookieSettings controls the token cookies written by the handler. Tokens
// travel in HttpOnly cookies and are never echoed in response bodies.
type CookieSettings struct {
	Secure        bool
	Domain        string
	AccessMaxAge  int
	RefreshMaxAge int
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service *service.AuthService
	codec   *token.Codec
	cookies CookieSettings
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc *service.AuthService, codec *token.Codec, cookies CookieSettings) *AuthHandler {
	return &AuthHandler{service: svc, codec: codec, cookies: cookies}
}

// Signup godoc
// @Summary Register account
// @Description Register a new username/password credential
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.SignupRequest true "Signup payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid signup payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	user, err := h.service.Signup(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, user)
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate by username and password; tokens are set as HttpOnly cookies
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setTokenCookie(c, middleware.AccessTokenCookie, res.AccessToken, h.cookies.AccessMaxAge)
	h.setTokenCookie(c, RefreshTokenCookie, res.RefreshToken, h.cookies.RefreshMaxAge)

	response.Message(c, http.StatusOK, "login successful")
}

// Refresh godoc
// @Summary Reissue access token
// @Description Exchange the refresh token cookie for a new access token cookie
// @Tags Authentication
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken := h.refreshTokenValue(c)
	if refreshToken == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token is missing"))
		return
	}

	res, err := h.service.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setTokenCookie(c, middleware.AccessTokenCookie, res.AccessToken, h.cookies.AccessMaxAge)

	response.Message(c, http.StatusOK, "access token reissued")
}

// Logout godoc
// @Summary Logout
// @Description Delete the refresh session and clear token cookies
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	username := h.logoutUsername(c)
	if username != "" {
		// Logout never fails outwardly; store errors are swallowed inside the
		// service so cookie clearing below always happens.
		_ = h.service.Logout(c.Request.Context(), username, c.ClientIP(), c.GetHeader("User-Agent"))
	}

	h.setTokenCookie(c, middleware.AccessTokenCookie, "", -1)
	h.setTokenCookie(c, RefreshTokenCookie, "", -1)

	response.Message(c, http.StatusOK, "logout successful")
}

// Me godoc
// @Summary Get current user
// @Description Returns the authenticated user's profile without the password hash
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /auth/user [get]
func (h *AuthHandler) Me(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)
	if identity == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	user, err := h.service.GetIdentity(c.Request.Context(), identity.Username)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, user)
}

func (h *AuthHandler) setTokenCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", h.cookies.Domain, h.cookies.Secure, true)
}

func (h *AuthHandler) refreshTokenValue(c *gin.Context) string {
	if cookie, err := c.Cookie(RefreshTokenCookie); err == nil && cookie != "" {
		return cookie
	}

	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&payload); err == nil {
		return payload.RefreshToken
	}
	return ""
}

// logoutUsername determines whose session to delete: from the refresh token
// cookie when it still verifies, otherwise from the resolved identity.
func (h *AuthHandler) logoutUsername(c *gin.Context) string {
	if cookie, err := c.Cookie(RefreshTokenCookie); err == nil && cookie != "" {
		if parsed, err := h.codec.Parse(cookie); err == nil && parsed.Kind == token.KindRefresh {
			return parsed.Subject
		}
	}

	if identity := middleware.IdentityFromContext(c); identity != nil {
		return identity.Username
	}
	return ""
}
