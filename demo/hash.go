// Package demo provides convenience helpers for exercising the discovery
// protocol outside of a real cluster: deriving a global index from a
// human-readable label and building an in-process simulated ring.
package demo

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/dune-go/remoteindex/index"
)

// HashLabel derives a global index from an arbitrary string label via
// Keccak256, the hash the teacher already depends on for wallet
// addressing (blockchain/wallet/wallet.go). It is a convenience for demos
// and tests that want stable, collision-resistant global indices without
// hand-assigning numbers.
func HashLabel(label string) index.G {
	sum := crypto.Keccak256([]byte(label))
	return index.G(binary.BigEndian.Uint64(sum[:8]))
}
