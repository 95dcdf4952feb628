package helpers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)
	require.NotEqual(t, "secret", hash)

	require.True(t, CompareHashAndPassword(hash, "secret"))
	require.False(t, CompareHashAndPassword(hash, "wrong"))
}
