// AngelaMos | 2026
// security_test.go

package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := VerifyPassword("correct horse battery", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong horse battery", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordUsesFreshSalt(t *testing.T) {
	a, err := HashPassword("same-password")
	require.NoError(t, err)
	b, err := HashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	_, err := VerifyPassword("pw", "$bcrypt$nope")
	assert.ErrorIs(t, err, ErrMalformedHash)

	_, err = VerifyPassword("pw", "$argon2id$v=1$m=1,t=1,p=1$c2FsdA$a2V5")
	assert.ErrorIs(t, err, ErrMalformedHash)
}

func TestVerifyPasswordTimingSafeWithoutHash(t *testing.T) {
	ok, newHash, err := VerifyPasswordTimingSafe("anything", nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, newHash)

	empty := ""
	ok, _, err = VerifyPasswordTimingSafe("anything", &empty)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNeedsRehashDetectsParamDrift(t *testing.T) {
	hash, err := HashPassword("upgrade-me")
	require.NoError(t, err)

	assert.False(t, needsRehash(hash))
	assert.True(t, needsRehash(strings.Replace(hash, "t=1", "t=2", 1)))
	assert.True(t, needsRehash("garbage"))

	ok, newHash, err := VerifyPasswordWithRehash("upgrade-me", hash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, newHash)
}

func TestSecretsEqual(t *testing.T) {
	assert.True(t, SecretsEqual("operator-key", "operator-key"))
	assert.False(t, SecretsEqual("operator-key", "operator-kex"))
	assert.False(t, SecretsEqual("short", "operator-key"))
	assert.False(t, SecretsEqual("", "operator-key"))
}

func TestGenerateSecureToken(t *testing.T) {
	a, err := GenerateSecureToken(32)
	require.NoError(t, err)
	b, err := GenerateSecureToken(32)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 44)
}
