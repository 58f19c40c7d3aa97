package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomNumericString(t *testing.T) {
	code := RandomNumericString(6)
	require.Len(t, code, 6)
	for _, r := range code {
		assert.True(t, r >= '0' && r <= '9', "expected digit, got %q", r)
	}
}

func TestRandomNumericStringUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		s := RandomNumericString(32)
		assert.False(t, seen[s], "duplicate random string")
		seen[s] = true
	}
}

func TestSecureToken(t *testing.T) {
	a := SecureToken(48)
	b := SecureToken(48)
	require.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestHashTokenDeterministic(t *testing.T) {
	raw := SecureToken(48)
	assert.Equal(t, HashToken(raw), HashToken(raw))
	assert.NotEqual(t, raw, HashToken(raw))
}
