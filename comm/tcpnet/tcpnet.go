// Package tcpnet implements comm.Comm over real TCP connections, one rank
// per OS process, for running the ring exchanger across machines rather
// than in-process. It is grounded directly on the teacher's
// transport/udp/mod.go (net.ListenPacket, net.ResolveUDPAddr), switched
// from a connectionless UDP socket to connected TCP streams: SSend's
// "block until the peer has posted a matching Recv" semantics (spec §4.4,
// §5) need a connection to rendezvous over, which a datagram socket can't
// express as directly.
package tcpnet

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dune-go/remoteindex/comm"
	"github.com/dune-go/remoteindex/logging"
)

// A frame header is the sender rank and tag packed into one uint32
// (rank<<16 | tag), then the payload length (uint32), both big-endian.
const frameHeaderSize = 8

type inboxKey struct {
	from, tag int
}

// Comm is one rank's TCP endpoint into the ring. Addrs maps every rank,
// including this one, to its "host:port" listen address.
type Comm struct {
	rank  int
	addrs []string
	log   zerolog.Logger

	ln net.Listener

	mu     sync.Mutex
	dialed map[int]net.Conn
	inbox  map[inboxKey]chan []byte
}

// Listen starts accepting connections for rank on addrs[rank] and returns
// the Comm handle. Outbound connections are dialed lazily on the first
// SSend to each rank, so every rank's listener must be up before any SSend.
func Listen(rank int, addrs []string) (*Comm, error) {
	ln, err := net.Listen("tcp", addrs[rank])
	if err != nil {
		return nil, fmt.Errorf("tcpnet: listen rank %d: %w", rank, err)
	}
	c := &Comm{
		rank:   rank,
		addrs:  addrs,
		log:    logging.Component("comm.tcpnet").With().Int("rank", rank).Logger(),
		ln:     ln,
		dialed: make(map[int]net.Conn),
		inbox:  make(map[inboxKey]chan []byte),
	}
	go c.acceptLoop()
	return c, nil
}

// Close releases the listener and every outbound connection.
func (c *Comm) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, conn := range c.dialed {
		conn.Close()
	}
	return c.ln.Close()
}

func (c *Comm) Rank() int { return c.rank }
func (c *Comm) Size() int { return len(c.addrs) }

func (c *Comm) acceptLoop() {
	for {
		conn, err := c.ln.Accept()
		if err != nil {
			return
		}
		go c.serve(conn)
	}
}

// serve reads frames from an accepted connection and, for each, blocks
// until some Recv call claims it before writing back a one-byte ack. That
// handoff — channel send only unblocks once a receiver is waiting — is
// what gives SSend its synchronous semantics over a connection that is
// otherwise just a byte stream.
func (c *Comm) serve(conn net.Conn) {
	defer conn.Close()
	header := make([]byte, frameHeaderSize)
	for {
		if _, err := io.ReadFull(conn, header); err != nil {
			return
		}
		fromTag := int(int32(binary.BigEndian.Uint32(header[0:4])))
		payloadLen := binary.BigEndian.Uint32(header[4:8])
		payload := make([]byte, payloadLen)
		if _, err := io.ReadFull(conn, payload); err != nil {
			return
		}
		// The upper 16 bits of fromTag carry the sender rank, the lower
		// 16 bits the protocol tag, packed by the sender's SSend.
		from := fromTag >> 16
		tag := fromTag & 0xffff

		ch := c.inboxFor(inboxKey{from: from, tag: tag})
		ch <- payload
		if _, err := conn.Write([]byte{1}); err != nil {
			return
		}
	}
}

func (c *Comm) inboxFor(k inboxKey) chan []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.inbox[k]
	if !ok {
		ch = make(chan []byte)
		c.inbox[k] = ch
	}
	return ch
}

func (c *Comm) connTo(to int) (net.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if conn, ok := c.dialed[to]; ok {
		return conn, nil
	}
	conn, err := net.Dial("tcp", c.addrs[to])
	if err != nil {
		return nil, fmt.Errorf("tcpnet: dial rank %d at %s: %w", to, c.addrs[to], err)
	}
	c.dialed[to] = conn
	return conn, nil
}

func (c *Comm) SSend(ctx context.Context, to int, tag int, data []byte) error {
	conn, err := c.connTo(to)
	if err != nil {
		return err
	}
	header := make([]byte, frameHeaderSize)
	binary.BigEndian.PutUint32(header[0:4], uint32(c.rank<<16|tag))
	binary.BigEndian.PutUint32(header[4:8], uint32(len(data)))

	done := make(chan error, 1)
	go func() {
		if _, err := conn.Write(header); err != nil {
			done <- fmt.Errorf("tcpnet: write header to rank %d: %w", to, err)
			return
		}
		if _, err := conn.Write(data); err != nil {
			done <- fmt.Errorf("tcpnet: write payload to rank %d: %w", to, err)
			return
		}
		ack := make([]byte, 1)
		if _, err := io.ReadFull(conn, ack); err != nil {
			done <- fmt.Errorf("tcpnet: wait ack from rank %d: %w", to, err)
			return
		}
		done <- nil
	}()

	c.log.Debug().Int("to", to).Int("tag", tag).Int("bytes", len(data)).Msg("ssend")
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Comm) Recv(ctx context.Context, from int, tag int) ([]byte, error) {
	ch := c.inboxFor(inboxKey{from: from, tag: tag})
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
