// Package token signs and parses the compact bearer tokens issued by the
// service. Access and refresh tokens share one format and one signing key;
// they differ only in the declared kind claim and the ttl chosen at issuance.
// Which kind is accepted where is enforced by the caller, not here.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind labels a token as access or refresh.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// ErrInvalid is returned for any token that cannot be trusted: bad signature,
// malformed structure, or past expiry. Callers get no finer detail.
var ErrInvalid = errors.New("invalid token")

// Claims is the signed JWT payload.
type Claims struct {
	Kind Kind `json:"kind"`
	jwt.RegisteredClaims
}

// Parsed is the verified content of a token.
type Parsed struct {
	Subject   string
	Kind      Kind
	ExpiresAt time.Time
}

// Codec issues and verifies HS256-signed tokens with a single process-wide
// secret. The clock is injectable for deterministic expiry tests.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// NewCodec builds a codec around the signing secret. Secret length validation
// happens at config load; by the time a codec exists the key is usable.
func NewCodec(secret string, opts ...Option) *Codec {
	c := &Codec{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue signs a token for the subject with issued_at = now and
// expires_at = now + ttl.
func (c *Codec) Issue(subject string, kind Kind, ttl time.Duration) (string, error) {
	now := c.now().UTC()
	claims := &Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Parse verifies the signature before trusting any claim, then checks expiry.
// Expiry is exclusive: a token is already invalid at the instant now equals
// expires_at.
func (c *Codec) Parse(tokenString string) (*Parsed, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, ErrInvalid
	}

	expiresAt := claims.ExpiresAt.Time
	if !c.now().Before(expiresAt) {
		return nil, ErrInvalid
	}

	return &Parsed{Subject: claims.Subject, Kind: claims.Kind, ExpiresAt: expiresAt}, nil
}
