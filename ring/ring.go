// Package ring implements the ring-rotation collective (spec §2.5, §4.4):
// in one pass of Size()-1 hops, every rank receives the published-pair
// lists of every other rank and, via package match, turns each hop's
// payload into that peer's send/receive RemoteEntry lists.
//
// Grounded on DUNE's buildRemote<ignorePublic>() hop loop —
// MPI_Allreduce for the buffer size, the even/odd Ssend/Recv ordering, the
// fixed comm tag — and on the ring-relative addressing idiom already
// present in the teacher's chord package for a neighbor's rank.
package ring

import (
	"context"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"golang.org/x/xerrors"

	"github.com/dune-go/remoteindex/codec"
	"github.com/dune-go/remoteindex/comm"
	"github.com/dune-go/remoteindex/index"
	"github.com/dune-go/remoteindex/match"
)

// PeerPair is the pair of RemoteEntry lists attached to one remote rank
// (spec §3). Aliased reports whether Send and Receive share the same
// backing slice (spec §5's aliasing when source and destination are the
// same set) — kept as an explicit flag so callers never need to compare
// slice headers to find out.
type PeerPair struct {
	Send, Receive []index.RemoteEntry
	Aliased       bool
}

func publishedPairs(set index.Set, ignorePublic bool) []index.HandledPair {
	all := set.Pairs()
	if ignorePublic {
		return all
	}
	out := make([]index.HandledPair, 0, set.PublicCount())
	for _, hp := range all {
		if hp.Pair.Tag.IsPublic {
			out = append(out, hp)
		}
	}
	return out
}

// Run drives one collective pass. source and destination are compared by
// interface identity to decide whether one or two index sets need to be
// circulated (spec §4.4 "Published pairs"). The returned map has no entry
// for a peer with no matches in either direction (spec §4.5 step 4).
func Run(ctx context.Context, c comm.Comm, source, destination index.Set, ignorePublic bool, log zerolog.Logger) (map[int]PeerPair, error) {
	size := c.Size()
	if size == 1 {
		// Nothing to do in sequential mode (spec §4.6 degenerate case).
		return map[int]PeerPair{}, nil
	}
	rank := c.Rank()
	buildID := xid.New().String()
	hlog := log.With().Str("build_id", buildID).Int("rank", rank).Logger()

	sendTwo := source != destination

	localSourcePairs := publishedPairs(source, ignorePublic)
	var localDestPairs []index.HandledPair
	var destSet index.Set
	if sendTwo {
		localDestPairs = publishedPairs(destination, ignorePublic)
		destSet = destination
	} else {
		localDestPairs = localSourcePairs
		destSet = source
	}
	sourcePublish := len(localSourcePairs)
	destPublish := 0
	if sendTwo {
		destPublish = len(localDestPairs)
	}

	maxPublish, err := c.AllReduceMax(ctx, sourcePublish+destPublish)
	if err != nil {
		return nil, xerrors.Errorf("ring: all-reduce max publish count: %w", err)
	}

	bufferSize := codec.HeaderSize + maxPublish*codec.RecordSize
	buffers := [2][]byte{make([]byte, bufferSize), make([]byte, bufferSize)}

	peers := make(map[int]PeerPair)

	for hop := 1; hop < size; hop++ {
		outBuf := buffers[1-(hop%2)]
		inBuf := buffers[hop%2]

		// Every hop exchanges the full fixed-size buffer the all-reduced
		// maxPublish sized (spec §4.4 "Sizing"): only hop 1 packs fresh
		// data into it, later hops simply forward what they received the
		// previous hop, trailing bytes beyond the sender's own
		// NSource/NDest counts are never read back out.
		if hop == 1 {
			pos := 0
			if err := codec.PackHeader(codec.Header{
				SendTwo: sendTwo,
				NSource: uint32(sourcePublish),
				NDest:   uint32(destPublish),
			}, outBuf, &pos); err != nil {
				return nil, xerrors.Errorf("ring: pack header: %w", err)
			}
			for _, hp := range localSourcePairs {
				if err := codec.Pack(hp.Pair, outBuf, &pos); err != nil {
					return nil, xerrors.Errorf("ring: pack source record: %w", err)
				}
			}
			if sendTwo {
				for _, hp := range localDestPairs {
					if err := codec.Pack(hp.Pair, outBuf, &pos); err != nil {
						return nil, xerrors.Errorf("ring: pack dest record: %w", err)
					}
				}
			}
		}

		if err := exchange(ctx, c, rank, size, outBuf, inBuf, hlog); err != nil {
			return nil, err
		}

		pos := 0
		header, err := codec.UnpackHeader(inBuf, &pos)
		if err != nil {
			return nil, xerrors.Errorf("ring: unpack header at hop %d: %w", hop, err)
		}
		remoteSource := make([]codec.Record, header.NSource)
		for i := range remoteSource {
			rec, err := codec.Unpack(inBuf, &pos)
			if err != nil {
				return nil, xerrors.Errorf("ring: unpack source record at hop %d: %w", hop, err)
			}
			remoteSource[i] = rec
		}
		var remoteDest []codec.Record
		if header.SendTwo {
			remoteDest = make([]codec.Record, header.NDest)
			for i := range remoteDest {
				rec, err := codec.Unpack(inBuf, &pos)
				if err != nil {
					return nil, xerrors.Errorf("ring: unpack dest record at hop %d: %w", hop, err)
				}
				remoteDest[i] = rec
			}
		}

		peerRank := (rank + size - hop) % size

		receiveList := match.Merge(localDestPairs, destSet, remoteSource)

		var sendList []index.RemoteEntry
		aliased := false
		if header.SendTwo || sendTwo {
			sendList = match.Merge(localSourcePairs, source, remoteDest)
		} else {
			sendList = receiveList
			aliased = true
		}

		hlog.Debug().Int("peer", peerRank).Int("send", len(sendList)).Int("receive", len(receiveList)).Msg("hop matched")

		if len(sendList) == 0 && len(receiveList) == 0 {
			continue
		}
		peers[peerRank] = PeerPair{Send: sendList, Receive: receiveList, Aliased: aliased}
	}

	return peers, nil
}

// exchange performs one ring hop: even ranks send then receive, odd ranks
// receive then send, so the synchronous send never deadlocks against its
// own neighbor (spec §4.4, §5).
func exchange(ctx context.Context, c comm.Comm, rank, size int, out, in []byte, log zerolog.Logger) error {
	next := (rank + 1) % size
	prev := (rank + size - 1) % size

	if rank%2 == 0 {
		if err := c.SSend(ctx, next, comm.CommTag, out); err != nil {
			return xerrors.Errorf("ring: ssend to %d: %w", next, err)
		}
		received, err := c.Recv(ctx, prev, comm.CommTag)
		if err != nil {
			return xerrors.Errorf("ring: recv from %d: %w", prev, err)
		}
		copy(in, received)
	} else {
		received, err := c.Recv(ctx, prev, comm.CommTag)
		if err != nil {
			return xerrors.Errorf("ring: recv from %d: %w", prev, err)
		}
		copy(in, received)
		if err := c.SSend(ctx, next, comm.CommTag, out); err != nil {
			return xerrors.Errorf("ring: ssend to %d: %w", next, err)
		}
	}
	log.Debug().Int("next", next).Int("prev", prev).Msg("hop exchanged")
	return nil
}
