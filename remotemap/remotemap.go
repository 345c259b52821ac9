// Package remotemap provides RemoteMap, the root type a caller builds and
// keeps around (spec §2.7, §3): it owns a source and destination index set,
// a communicator, and the per-peer send/receive lists and copy-local list a
// Rebuild call produces.
package remotemap

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"golang.org/x/xerrors"

	"github.com/dune-go/remoteindex/comm"
	"github.com/dune-go/remoteindex/index"
	"github.com/dune-go/remoteindex/merge"
	"github.com/dune-go/remoteindex/ring"
	"github.com/dune-go/remoteindex/tracer"
)

// PeerPair re-exports ring.PeerPair: the ring package owns the collective
// that produces it, RemoteMap owns storing and exposing it.
type PeerPair = ring.PeerPair

// State describes how a RemoteMap's cached result relates to its index
// sets' current sequence numbers (spec §5, §9 "staleness").
type State int

const (
	// Fresh means Rebuild has never been called.
	Fresh State = iota
	// Synced means the cached peers/copy-local lists match the index
	// sets' current SeqNo.
	Synced
	// Stale means at least one index set mutated since the last Rebuild.
	Stale
)

func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Synced:
		return "synced"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}

// RemoteMap is the discovery result for one (source, destination) pair of
// index sets (spec §3). Source and Destination may be the same Set value,
// in which case Rebuild skips the local copy merge per spec §4.3.
type RemoteMap struct {
	Source, Destination index.Set

	comm comm.Comm

	built     bool
	sourceSeq int
	destSeq   int

	copyLocal []merge.CopyPair
	peers     map[int]PeerPair

	tracer tracer.Tracer
	log    zerolog.Logger
}

// New builds a RemoteMap. It does not run the collective; call Rebuild.
func New(source, destination index.Set, c comm.Comm, opts ...Option) *RemoteMap {
	m := &RemoteMap{Source: source, Destination: destination, comm: c}
	for _, opt := range defaultOptions() {
		opt(m)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Rebuild runs the ring exchanger collective (spec §4.4) and, unless Source
// and Destination are the same Set, the local copy-local merge (spec
// §4.3). Every rank in the communicator must call Rebuild concurrently —
// the collective blocks on synchronous sends until every rank participates
// (spec §5).
func (m *RemoteMap) Rebuild(ctx context.Context, ignorePublic bool) error {
	buildID := xid.New().String()
	rank := m.comm.Rank()
	m.tracer.RebuildStarted(buildID, rank, m.comm.Size())

	var copyLocal []merge.CopyPair
	if m.Source != m.Destination {
		copyLocal = merge.CopyLocal(m.Source, m.Destination, ignorePublic)
	}

	peers, err := ring.Run(ctx, m.comm, m.Source, m.Destination, ignorePublic, m.log)
	if err != nil {
		return xerrors.Errorf("remotemap: rebuild: %w", err)
	}

	m.peers = peers
	m.copyLocal = copyLocal
	m.sourceSeq = m.Source.SeqNo()
	m.destSeq = m.Destination.SeqNo()
	m.built = true

	m.tracer.RebuildFinished(buildID, rank, len(peers))
	m.log.Info().
		Str("build_id", buildID).
		Int("peers", len(peers)).
		Int("copy_local", len(copyLocal)).
		Msg("rebuild complete")
	return nil
}

// State reports how the cached result relates to the index sets' current
// sequence numbers.
func (m *RemoteMap) State() State {
	if !m.built {
		return Fresh
	}
	if m.sourceSeq != m.Source.SeqNo() || m.destSeq != m.Destination.SeqNo() {
		return Stale
	}
	return Synced
}

// IsSynced is State() == Synced.
func (m *RemoteMap) IsSynced() bool { return m.State() == Synced }

// CopyLocalPairs returns the copy-local list from the last Rebuild. It is
// empty when Source and Destination are the same Set (spec §4.3).
func (m *RemoteMap) CopyLocalPairs() []merge.CopyPair { return m.copyLocal }

// Peers returns the per-remote-rank send/receive lists from the last
// Rebuild. Callers must not mutate the returned map.
func (m *RemoteMap) Peers() map[int]PeerPair { return m.peers }

// Dump writes a human-readable listing of the copyLocal pairs and every
// peer's send/receive records, ranks in ascending order, for debugging
// (spec §6 diagnostics). The format is not stable across versions.
func (m *RemoteMap) Dump(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "remotemap rank=%d state=%s\n", m.comm.Rank(), m.State()); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "copyLocal:\n"); err != nil {
		return err
	}
	for _, cp := range m.copyLocal {
		if _, err := fmt.Fprintf(w, "  source_local=%d dest_local=%d\n", cp.SourceLocal, cp.DestLocal); err != nil {
			return err
		}
	}

	ranks := make([]int, 0, len(m.peers))
	for r := range m.peers {
		ranks = append(ranks, r)
	}
	sort.Ints(ranks)

	for _, r := range ranks {
		p := m.peers[r]
		if _, err := fmt.Fprintf(w, "peer=%d aliased=%t\n", r, p.Aliased); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "  send:\n"); err != nil {
			return err
		}
		for _, e := range p.Send {
			if _, err := fmt.Fprintf(w, "    global=%d attribute=%d\n", e.Local.Pair().Global, e.PeerAttribute); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "  receive:\n"); err != nil {
			return err
		}
		for _, e := range p.Receive {
			if _, err := fmt.Fprintf(w, "    global=%d attribute=%d\n", e.Local.Pair().Global, e.PeerAttribute); err != nil {
				return err
			}
		}
	}
	return nil
}
