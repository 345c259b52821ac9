// Package tracer defines an optional diagnostic side channel a RemoteMap can
// be given to observe Rebuild calls. It never touches the wire protocol —
// spec §1 scopes "ancillary diagnostic printing and trace logging" out of
// the discovery core, so a Tracer is purely an observer bolted on from
// outside package ring.
package tracer

// Tracer is notified around each RemoteMap.Rebuild call.
type Tracer interface {
	RebuildStarted(buildID string, rank, size int)
	RebuildFinished(buildID string, rank, peerCount int)
}

// Noop discards every event. It is the default when a RemoteMap is built
// without the remotemap.WithTracer functional option.
type Noop struct{}

func (Noop) RebuildStarted(string, int, int)  {}
func (Noop) RebuildFinished(string, int, int) {}

var _ Tracer = Noop{}
