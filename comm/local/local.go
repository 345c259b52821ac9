// Package local implements comm.Comm in-process, over a shared set of
// rendezvous channels. It is the default communicator for tests and for
// cmd/ringdiscover's simulated-ring mode.
//
// The teacher's transport/udp.Socket buffers each received packet in a
// channel (recvTimeoutBuf) guarded by a mutex-protected packets list; here
// that idea is turned inside out for an in-process setting: instead of one
// socket owning a buffer per destination, one hub owns one unbuffered
// channel per (sender, receiver, tag) edge, and SSend/Recv rendezvous on
// it directly — giving the synchronous-send semantics spec §4.4 and §5
// require without an extra buffering layer to reconcile.
package local

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dune-go/remoteindex/comm"
	"github.com/dune-go/remoteindex/logging"
)

type edgeKey struct {
	from, to, tag int
}

type hub struct {
	mu    sync.Mutex
	edges map[edgeKey]chan []byte
}

func newHub() *hub {
	return &hub{edges: make(map[edgeKey]chan []byte)}
}

func (h *hub) edge(k edgeKey) chan []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch, ok := h.edges[k]
	if !ok {
		ch = make(chan []byte)
		h.edges[k] = ch
	}
	return ch
}

// Comm is one rank's endpoint into an in-process ring.
type Comm struct {
	hub        *hub
	rank, size int
	log        zerolog.Logger
}

// NewRing builds a fully-connected set of size in-process communicators,
// ranked 0..size-1, sharing one hub.
func NewRing(size int) []comm.Comm {
	h := newHub()
	out := make([]comm.Comm, size)
	for r := 0; r < size; r++ {
		out[r] = &Comm{
			hub:  h,
			rank: r,
			size: size,
			log:  logging.Component("comm.local").With().Int("rank", r).Logger(),
		}
	}
	return out
}

func (c *Comm) Rank() int { return c.rank }
func (c *Comm) Size() int { return c.size }

func (c *Comm) SSend(ctx context.Context, to int, tag int, data []byte) error {
	ch := c.hub.edge(edgeKey{from: c.rank, to: to, tag: tag})
	c.log.Debug().Int("to", to).Int("tag", tag).Int("bytes", len(data)).Msg("ssend")
	select {
	case ch <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Comm) Recv(ctx context.Context, from int, tag int) ([]byte, error) {
	ch := c.hub.edge(edgeKey{from: from, to: c.rank, tag: tag})
	select {
	case data := <-ch:
		c.log.Debug().Int("from", from).Int("tag", tag).Int("bytes", len(data)).Msg("recv")
		return data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Comm) AllReduceMax(ctx context.Context, v int) (int, error) {
	return comm.RingAllReduceMax(ctx, c, v)
}
