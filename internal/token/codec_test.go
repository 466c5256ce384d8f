package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func frozenClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestIssueAndParseRoundTrip(t *testing.T) {
	issued := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := NewCodec(testSecret, WithClock(frozenClock(issued)))

	for _, kind := range []Kind{KindAccess, KindRefresh} {
		raw, err := codec.Issue("alice", kind, 15*time.Minute)
		require.NoError(t, err)

		parsed, err := codec.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "alice", parsed.Subject)
		assert.Equal(t, kind, parsed.Kind)
		assert.True(t, parsed.ExpiresAt.Equal(issued.Add(15*time.Minute)))
	}
}

func TestParseRejectsZeroTTL(t *testing.T) {
	issued := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := NewCodec(testSecret, WithClock(frozenClock(issued)))

	raw, err := codec.Issue("alice", KindAccess, 0)
	require.NoError(t, err)

	_, err = codec.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseRejectsExpired(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := NewCodec(testSecret, WithClock(func() time.Time { return now }))

	raw, err := codec.Issue("alice", KindAccess, time.Minute)
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	_, err = codec.Parse(raw)
	require.NoError(t, err)

	// exactly at expires_at the token is already invalid
	now = now.Add(30 * time.Second)
	_, err = codec.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	codec := NewCodec(testSecret)
	other := NewCodec("another-secret-key-of-enough-length!")

	raw, err := other.Issue("alice", KindAccess, time.Minute)
	require.NoError(t, err)

	_, err = codec.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseRejectsTamperedPayload(t *testing.T) {
	codec := NewCodec(testSecret)

	raw, err := codec.Issue("alice", KindAccess, time.Minute)
	require.NoError(t, err)

	parts := strings.Split(raw, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	_, err = codec.Parse(tampered)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseRejectsMalformed(t *testing.T) {
	codec := NewCodec(testSecret)

	for _, raw := range []string{"", "garbage", "a.b", "a.b.c"} {
		_, err := codec.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalid, "input %q", raw)
	}
}
