// Package merge implements the on-process merge between two local index
// sets (spec §2.4, §4.3): the copy-local list of aliases where source and
// destination name the same global index.
package merge

import "github.com/dune-go/remoteindex/index"

// CopyPair is one (sourceLocal, destLocal) alias: source and destination
// both hold the same global index, at these respective local indices.
type CopyPair struct {
	SourceLocal uint32
	DestLocal   uint32
}

// CopyLocal merges source and destination on ascending Global and returns
// the copy-local list (spec §4.3). On equal globals an entry is emitted
// when ignorePublic is true or both sides are public; otherwise the
// smaller-global cursor advances alone. Both inputs must already be in
// ascending Global order — Set guarantees this.
//
// Complexity is O(len(source) + len(destination)), a single pass over both
// ordered views.
//
// Callers should recognize the source == destination case and skip calling
// this at all (spec §4.3 edge case: "copyLocal is the identity over all
// public entries" in that case, and building it would be pure overhead);
// CopyLocal does not special-case identical Set values itself.
func CopyLocal(source, destination index.Set, ignorePublic bool) []CopyPair {
	src := source.Pairs()
	dst := destination.Pairs()

	out := make([]CopyPair, 0)
	i, j := 0, 0
	for i < len(src) && j < len(dst) {
		sp, dp := src[i].Pair, dst[j].Pair
		switch {
		case sp.Global == dp.Global:
			if ignorePublic || (sp.Tag.IsPublic && dp.Tag.IsPublic) {
				out = append(out, CopyPair{SourceLocal: sp.Tag.LocalIndex, DestLocal: dp.Tag.LocalIndex})
			}
			i++
			j++
		case dp.Global < sp.Global:
			j++
		default:
			i++
		}
	}
	return out
}
