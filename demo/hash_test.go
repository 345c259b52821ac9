package demo_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dune-go/remoteindex/demo"
)

func TestHashLabel_IsDeterministic(t *testing.T) {
	require.Equal(t, demo.HashLabel("vertex-42"), demo.HashLabel("vertex-42"))
}

func TestHashLabel_DiffersAcrossLabels(t *testing.T) {
	require.NotEqual(t, demo.HashLabel("vertex-42"), demo.HashLabel("vertex-43"))
}

func TestBuildRing_RanksAreDistinct(t *testing.T) {
	comms := demo.BuildRing(4)
	require.Len(t, comms, 4)
	for i, c := range comms {
		require.Equal(t, i, c.Rank())
		require.Equal(t, 4, c.Size())
	}
}
