package match_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dune-go/remoteindex/codec"
	"github.com/dune-go/remoteindex/index"
	"github.com/dune-go/remoteindex/match"
)

func TestMerge_EmitsOnlyMatches(t *testing.T) {
	local := index.NewSortedSet(
		index.Pair{Global: 10, Tag: index.LocalTag{LocalIndex: 0}},
		index.Pair{Global: 20, Tag: index.LocalTag{LocalIndex: 1}},
		index.Pair{Global: 40, Tag: index.LocalTag{LocalIndex: 2}},
	)
	remote := []codec.Record{
		{Global: 5, Attribute: 9},  // local doesn't know 5, discarded
		{Global: 20, Attribute: 1}, // match
		{Global: 30, Attribute: 9}, // local doesn't know 30, discarded
		{Global: 40, Attribute: 2}, // match
	}

	entries := match.Merge(local.Pairs(), local, remote)
	require.Len(t, entries, 2)

	require.Equal(t, index.Attribute(1), entries[0].PeerAttribute)
	require.Equal(t, index.G(20), entries[0].Local.Pair().Global)

	require.Equal(t, index.Attribute(2), entries[1].PeerAttribute)
	require.Equal(t, index.G(40), entries[1].Local.Pair().Global)
}

func TestMerge_StopsWhenRemoteExhausted(t *testing.T) {
	local := index.NewSortedSet(
		index.Pair{Global: 1},
		index.Pair{Global: 2},
	)
	remote := []codec.Record{{Global: 1}}

	entries := match.Merge(local.Pairs(), local, remote)
	require.Len(t, entries, 1)
}

func TestMerge_NoMatchesIsEmpty(t *testing.T) {
	local := index.NewSortedSet(index.Pair{Global: 1})
	remote := []codec.Record{{Global: 2}}

	require.Empty(t, match.Merge(local.Pairs(), local, remote))
}
