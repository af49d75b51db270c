package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOpaqueUnique(t *testing.T) {
	a, err := GenerateOpaque(32)
	require.NoError(t, err)
	b, err := GenerateOpaque(32)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.GreaterOrEqual(t, len(a), 43) // 32 bytes base64url
}

func TestLookupKeyDeterministic(t *testing.T) {
	key := []byte("server-key")
	assert.Equal(t, LookupKey(key, "tok"), LookupKey(key, "tok"))
	assert.NotEqual(t, LookupKey(key, "tok"), LookupKey(key, "tok2"))
	assert.NotEqual(t, LookupKey(key, "tok"), LookupKey([]byte("other"), "tok"))
	assert.Len(t, LookupKey(key, "tok"), 24) // 18 bytes base64url
}

func TestConstantTimeEquals(t *testing.T) {
	assert.True(t, ConstantTimeEquals("abc", "abc"))
	assert.False(t, ConstantTimeEquals("abc", "abd"))
	assert.False(t, ConstantTimeEquals("abc", "abcd"))
}
