package remotemap

import (
	"github.com/rs/zerolog"

	"github.com/dune-go/remoteindex/logging"
	"github.com/dune-go/remoteindex/tracer"
)

// Option configures a RemoteMap at construction time, grounded on the
// functional-options pattern the teacher uses to build its test client
// (internal/testing/client.go).
type Option func(*RemoteMap)

// WithTracer attaches a diagnostic tracer (spec §1's ancillary logging,
// kept outside the discovery core proper). The default is tracer.Noop{}.
func WithTracer(t tracer.Tracer) Option {
	return func(m *RemoteMap) { m.tracer = t }
}

// WithLogger overrides the zerolog.Logger a RemoteMap scopes its own
// Rebuild-level messages to. The default is logging.Component("remotemap").
func WithLogger(log zerolog.Logger) Option {
	return func(m *RemoteMap) { m.log = log }
}

func defaultOptions() []Option {
	return []Option{
		WithTracer(tracer.Noop{}),
		WithLogger(logging.Component("remotemap")),
	}
}
