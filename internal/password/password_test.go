package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndMatches(t *testing.T) {
	digest, err := Hash("s3cret-pw")
	require.NoError(t, err)
	require.NotEmpty(t, digest)

	assert.True(t, Matches("s3cret-pw", digest))
	assert.False(t, Matches("wrong-pw", digest))
}

func TestHashIsSalted(t *testing.T) {
	first, err := Hash("same-password")
	require.NoError(t, err)
	second, err := Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, Matches("same-password", first))
	assert.True(t, Matches("same-password", second))
}

func TestMatchesMalformedDigest(t *testing.T) {
	assert.False(t, Matches("anything", "not-a-bcrypt-digest"))
	assert.False(t, Matches("anything", ""))
}
