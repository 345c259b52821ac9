package remotemap_test

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dune-go/remoteindex/comm"
	"github.com/dune-go/remoteindex/comm/local"
	"github.com/dune-go/remoteindex/index"
	"github.com/dune-go/remoteindex/remotemap"
)

func pub(global index.G, localIdx uint32) index.Pair {
	return index.Pair{Global: global, Tag: index.LocalTag{LocalIndex: localIdx, IsPublic: true}}
}

func rebuildAll(t *testing.T, maps []*remotemap.RemoteMap, ignorePublic bool) {
	t.Helper()
	var wg sync.WaitGroup
	errs := make([]error, len(maps))
	wg.Add(len(maps))
	for i, m := range maps {
		i, m := i, m
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			errs[i] = m.Rebuild(ctx, ignorePublic)
		}()
	}
	wg.Wait()
	for i, err := range errs {
		require.NoError(t, err, "rank %d", i)
	}
}

func TestRemoteMap_FreshBeforeRebuild(t *testing.T) {
	comms := local.NewRing(2)
	set := index.NewSortedSet(pub(1, 0))
	m := remotemap.New(set, set, comms[0])
	require.Equal(t, remotemap.Fresh, m.State())
	require.False(t, m.IsSynced())
}

func TestRemoteMap_RebuildSyncsAndDetectsStaleness(t *testing.T) {
	comms := local.NewRing(2)
	sourceSets := []*index.SortedSet{
		index.NewSortedSet(pub(10, 0), pub(20, 1)),
		index.NewSortedSet(pub(20, 0), pub(30, 1)),
	}
	sets := make([]index.Set, len(sourceSets))
	for i, s := range sourceSets {
		sets[i] = s
	}

	maps := make([]*remotemap.RemoteMap, len(comms))
	for i := range comms {
		maps[i] = remotemap.New(sets[i], sets[i], comms[i])
	}
	rebuildAll(t, maps, false)

	require.Equal(t, remotemap.Synced, maps[0].State())
	require.True(t, maps[0].IsSynced())
	require.Contains(t, maps[0].Peers(), 1)
	require.Equal(t, index.G(20), maps[0].Peers()[1].Send[0].Local.Pair().Global)

	sourceSets[0].Insert(pub(40, 2))
	require.Equal(t, remotemap.Stale, maps[0].State())
}

func TestRemoteMap_CopyLocalSkippedWhenSourceIsDestination(t *testing.T) {
	comms := local.NewRing(1)
	set := index.NewSortedSet(pub(1, 0))
	m := remotemap.New(set, set, comms[0])
	require.NoError(t, m.Rebuild(context.Background(), false))
	require.Empty(t, m.CopyLocalPairs())
}

func TestRemoteMap_CopyLocalBuildsWhenSetsDiffer(t *testing.T) {
	var c comm.Comm = local.NewRing(1)[0]
	source := index.NewSortedSet(pub(1, 0), pub(2, 1))
	destination := index.NewSortedSet(pub(2, 5), pub(3, 6))

	m := remotemap.New(source, destination, c)
	require.NoError(t, m.Rebuild(context.Background(), false))

	pairs := m.CopyLocalPairs()
	require.Len(t, pairs, 1)
	require.Equal(t, uint32(1), pairs[0].SourceLocal)
	require.Equal(t, uint32(5), pairs[0].DestLocal)
}

func TestRemoteMap_DumpWritesSummary(t *testing.T) {
	comms := local.NewRing(1)
	set := index.NewSortedSet(pub(1, 0))
	m := remotemap.New(set, set, comms[0])
	require.NoError(t, m.Rebuild(context.Background(), false))

	var buf bytes.Buffer
	require.NoError(t, m.Dump(&buf))
	require.Contains(t, buf.String(), "rank=0")
	require.Contains(t, buf.String(), "state=synced")
}
