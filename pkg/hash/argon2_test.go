package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordAndVerify(t *testing.T) {
	encoded, err := Password("correct-horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$"))

	ok, err := Verify("correct-horse", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify("wrong-horse", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPassword_UniqueSalt(t *testing.T) {
	a, err := Password("same-password")
	require.NoError(t, err)
	b, err := Password("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestVerify_MalformedHash(t *testing.T) {
	_, err := Verify("anything", "not-a-hash")
	assert.ErrorIs(t, err, ErrInvalidHash)
}
