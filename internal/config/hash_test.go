package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeHash(t *testing.T) {
	body := []byte(`[]`)
	sum := ComputeHash(body, "secret")
	require.Len(t, sum, 64)
	require.Equal(t, sum, ComputeHash(body, "secret"))
	require.NotEqual(t, sum, ComputeHash(body, "other"))

	require.True(t, VerifyHash(body, "secret", sum))
	require.False(t, VerifyHash([]byte(`[1]`), "secret", sum))
	require.False(t, VerifyHash(body, "secret", ""))
}
