package core

import "sync"

// DefaultSendQueueSize is used when a Peer is created with a non-positive size.
const DefaultSendQueueSize = 256

// Peer is the outbound side of one connection. Frames queued with Send are
// drained by the transport in FIFO order.
type Peer struct {
	ID string

	mu     sync.Mutex
	events chan []byte
	closed bool
}

// NewPeer constructs a peer with a bounded outbound queue.
func NewPeer(id string, queueSize int) *Peer {
	if queueSize <= 0 {
		queueSize = DefaultSendQueueSize
	}
	return &Peer{
		ID:     id,
		events: make(chan []byte, queueSize),
	}
}

// Events is closed once the peer is closed.
func (p *Peer) Events() <-chan []byte {
	return p.events
}

// Send queues a frame without blocking.
func (p *Peer) Send(frame []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPeerClosed
	}
	select {
	case p.events <- frame:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close marks the peer closed and closes its queue. Safe to call repeatedly.
func (p *Peer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	close(p.events)
}

// Closed reports whether Close has been called.
func (p *Peer) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Client is the record of a connection that has joined a room.
type Client struct {
	ID   string
	Name string
	Room string
}
