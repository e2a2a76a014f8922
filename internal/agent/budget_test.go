package agent

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFailureBudget(t *testing.T) {
	b := NewFailureBudget(3)
	require.Equal(t, 3, b.Limit())
	require.False(t, b.Exhausted())

	require.Equal(t, 1, b.Fail())
	require.Equal(t, 2, b.Fail())
	require.False(t, b.Exhausted())
	require.Equal(t, 3, b.Fail())
	require.True(t, b.Exhausted())
	require.Equal(t, 3, b.Failures())
}

func TestFailureBudget_Default(t *testing.T) {
	require.Equal(t, DefaultFailureBudget, NewFailureBudget(0).Limit())
	require.Equal(t, DefaultFailureBudget, NewFailureBudget(-2).Limit())
}
