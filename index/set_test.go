package index_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dune-go/remoteindex/index"
)

func TestSortedSet_InsertOrdersAndCounts(t *testing.T) {
	s := index.NewSortedSet()
	h10 := s.Insert(index.Pair{Global: 10, Tag: index.LocalTag{LocalIndex: 0, Attribute: 1, IsPublic: true}})
	s.Insert(index.Pair{Global: 20, Tag: index.LocalTag{LocalIndex: 1, Attribute: 1, IsPublic: false}})
	h30 := s.Insert(index.Pair{Global: 30, Tag: index.LocalTag{LocalIndex: 2, Attribute: 2, IsPublic: true}})

	require.Equal(t, 3, s.Len())
	require.Equal(t, 2, s.PublicCount())

	pairs := s.Pairs()
	require.Len(t, pairs, 3)
	require.Equal(t, index.G(10), pairs[0].Pair.Global)
	require.Equal(t, index.G(30), pairs[2].Pair.Global)

	p, ok := s.At(h10)
	require.True(t, ok)
	require.Equal(t, index.G(10), p.Global)

	seqBefore := s.SeqNo()
	s.Remove(h30)
	require.Greater(t, s.SeqNo(), seqBefore)
	require.Equal(t, 2, s.Len())
	require.Equal(t, 1, s.PublicCount())

	_, ok = s.At(h30)
	require.False(t, ok)
}

func TestSortedSet_InsertRejectsOutOfOrder(t *testing.T) {
	s := index.NewSortedSet()
	s.Insert(index.Pair{Global: 10})

	require.Panics(t, func() {
		s.Insert(index.Pair{Global: 5})
	})
}

func TestRef_PairPanicsOnRemovedHandle(t *testing.T) {
	s := index.NewSortedSet()
	h := s.Insert(index.Pair{Global: 1})
	ref := index.Ref{Set: s, Handle: h}

	require.NotPanics(t, func() { ref.Pair() })

	s.Remove(h)
	require.Panics(t, func() { ref.Pair() })
}
