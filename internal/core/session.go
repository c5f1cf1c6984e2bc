package core

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/party-relay/internal/proto"
)

// SessionState is the lifecycle stage of a connection.
type SessionState int

const (
	// StateConnecting is the initial state: connected, not in a room.
	StateConnecting SessionState = iota
	// StateJoined means the connection has a Client record in a room.
	StateJoined
	// StateClosed is terminal.
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateJoined:
		return "joined"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session drives one connection through Connecting, Joined and Closed.
// Handle is meant to be called from a single reader goroutine; Close may be
// called from anywhere and runs cleanup exactly once.
type Session struct {
	hub  *Hub
	peer *Peer
	log  zerolog.Logger

	mu     sync.Mutex
	state  SessionState
	client *Client

	closeOnce sync.Once
}

func newSession(h *Hub, peer *Peer) *Session {
	return &Session{
		hub:  h,
		peer: peer,
		log:  h.log.With().Str("client_id", peer.ID).Logger(),
	}
}

// ID returns the connection's client id.
func (s *Session) ID() string {
	return s.peer.ID
}

// Peer returns the outbound side of the connection.
func (s *Session) Peer() *Peer {
	return s.peer
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Client returns the joined record, if any.
func (s *Session) Client() (Client, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return Client{}, false
	}
	return *s.client, true
}

// Handle processes one inbound text frame. Undecodable frames are
// discarded without reply.
func (s *Session) Handle(raw []byte) {
	msg, err := proto.Decode(raw)
	if err != nil {
		s.hub.metrics.DecodeFailed()
		s.log.Debug().Err(err).Int("bytes", len(raw)).Msg("discarding undecodable frame")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return
	}

	switch {
	case msg.Kind == proto.KindJoin:
		if s.client != nil {
			// A second join moves the client: leave the old room first so it
			// is never a member of two rooms at once.
			s.hub.leave(*s.client)
			s.client = nil
		}
		c := s.hub.join(s.peer, msg.JoinRequest())
		s.client = &c
		s.state = StateJoined
	case s.client == nil:
		s.log.Debug().Str("type", msg.Type).Msg("ignoring message before join")
	case msg.Kind.Relayed():
		s.hub.relay(*s.client, msg)
	default:
		s.log.Debug().Str("type", msg.Type).Msg("ignoring unrelayed message type")
	}
}

// Close ends the session. It leaves the joined room, if any, and releases
// the connection. Only the first call has an effect.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		client := s.client
		s.client = nil
		s.state = StateClosed
		s.mu.Unlock()

		if client != nil {
			s.hub.leave(*client)
		}
		s.hub.release(s.peer)
	})
}
