package demo

import (
	"github.com/dune-go/remoteindex/comm"
	"github.com/dune-go/remoteindex/comm/local"
)

// BuildRing returns n in-process communicators sharing one rendezvous hub,
// ranked 0..n-1 — the simulated-ring mode cmd/ringdiscover runs by default.
func BuildRing(n int) []comm.Comm {
	return local.NewRing(n)
}
