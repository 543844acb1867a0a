package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	encoded, err := Hash("reseller123")
	require.NoError(t, err)

	assert.True(t, Verify("reseller123", encoded))
	assert.False(t, Verify("reseller124", encoded))
	assert.False(t, Verify("reseller123", "$2a$10$bcrypt-looking-hash"))
	assert.False(t, Verify("reseller123", ""))
}

func TestHashUsesFreshSalt(t *testing.T) {
	a, err := Hash("same")
	require.NoError(t, err)
	b, err := Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestGenerate(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 20; i++ {
		pw, err := Generate()
		require.NoError(t, err)
		assert.Len(t, pw, generatedLength)
		seen[pw] = struct{}{}
	}
	assert.Greater(t, len(seen), 1)
}
