// Package match implements the per-hop merge between a peer's just-received
// published pairs and one of this process's own published-pair arrays
// (spec §2.6, §4.5): the step that turns raw wire records into RemoteEntry
// lists.
package match

import (
	"github.com/dune-go/remoteindex/codec"
	"github.com/dune-go/remoteindex/index"
)

// Merge walks both streams — remote, already decoded, and local, the
// published-pair array this process built at hop 0 — in ascending Global
// order and emits one index.RemoteEntry per match. It stops once remote is
// exhausted (spec §4.5: "terminate when the remote stream is exhausted").
//
// remote < local discards the remote record (the peer has an index we do
// not publish); remote > local advances the local cursor alone. Because
// both streams are ascending and G is unique per process (spec §4.5 "tie
// breaks"), the merge is unambiguous.
func Merge(local []index.HandledPair, localSet index.Set, remote []codec.Record) []index.RemoteEntry {
	out := make([]index.RemoteEntry, 0)
	i, j := 0, 0
	for i < len(remote) && j < len(local) {
		r := remote[i]
		l := local[j]
		switch {
		case r.Global == l.Pair.Global:
			out = append(out, index.RemoteEntry{
				PeerAttribute: r.Attribute,
				Local:         index.Ref{Set: localSet, Handle: l.Handle},
			})
			i++
			j++
		case r.Global < l.Pair.Global:
			i++
		default:
			j++
		}
	}
	return out
}
