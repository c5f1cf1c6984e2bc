package core

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/party-relay/internal/metrics"
	"github.com/vovakirdan/party-relay/internal/proto"
	"github.com/vovakirdan/party-relay/internal/utils"
)

// Hub ties the room registry, the broadcaster and the set of live
// connections together. Transports obtain a Session per connection from
// Connect and feed it inbound frames.
type Hub struct {
	registry    *Registry
	broadcaster *Broadcaster
	metrics     *metrics.Metrics
	log         *zerolog.Logger
	queueSize   int
	newID       func() string

	mu      sync.Mutex
	peers   map[string]*Peer
	closing bool
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the hub logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(h *Hub) {
		if logger != nil {
			h.log = logger
		}
	}
}

// WithMetrics records hub activity into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hub) {
		h.metrics = m
	}
}

// WithSendQueueSize sets the per-connection outbound queue size.
func WithSendQueueSize(n int) Option {
	return func(h *Hub) {
		h.queueSize = n
	}
}

// WithIDGenerator overrides client id allocation.
func WithIDGenerator(gen func() string) Option {
	return func(h *Hub) {
		if gen != nil {
			h.newID = gen
		}
	}
}

// NewHub creates a new relay hub instance.
func NewHub(opts ...Option) *Hub {
	nop := zerolog.Nop()
	h := &Hub{
		registry:  NewRegistry(),
		log:       &nop,
		queueSize: DefaultSendQueueSize,
		newID:     utils.NewID,
		peers:     make(map[string]*Peer),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.broadcaster = NewBroadcaster(h.registry, h.metrics, h.log)
	return h
}

// Registry exposes the hub's room registry.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Rooms lists live rooms.
func (h *Hub) Rooms() []RoomInfo {
	return h.registry.Rooms()
}

// Room describes one live room.
func (h *Hub) Room(id string) (RoomInfo, bool) {
	return h.registry.Room(id)
}

// Connect allocates an id and outbound queue for a new connection.
func (h *Hub) Connect() (*Session, error) {
	h.mu.Lock()
	if h.closing {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	id := h.newID()
	for {
		if _, taken := h.peers[id]; !taken {
			break
		}
		id = h.newID()
	}
	peer := NewPeer(id, h.queueSize)
	h.peers[id] = peer
	count := len(h.peers)
	h.mu.Unlock()

	h.metrics.ConnectionOpened()
	h.log.Info().Str("client_id", id).Int("connections", count).Msg("client connected")

	return newSession(h, peer), nil
}

// Run blocks until ctx is cancelled, then closes every live peer so that
// transports wind their connections down.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	h.closing = true
	peers := make([]*Peer, 0, len(h.peers))
	for _, p := range h.peers {
		peers = append(peers, p)
	}
	h.mu.Unlock()

	for _, p := range peers {
		p.Close()
	}
	h.log.Info().Int("connections", len(peers)).Msg("hub stopped")
}

// join registers the client and greets it. The welcome, room_state and
// peer_join frames are queued inside the registry critical section so that
// no relayed frame can reach the joiner ahead of its welcome.
func (h *Hub) join(peer *Peer, req proto.JoinData) Client {
	c := Client{
		ID:   peer.ID,
		Name: NormalizeName(req.Name),
		Room: NormalizeRoomID(req.Room),
	}

	res := h.registry.Join(c, peer, func(res JoinResult, others []*Peer) {
		self := []*Peer{peer}
		h.broadcaster.Deliver(c.Room, self, proto.NewWelcome(c.ID))

		peers := make([]proto.PeerInfo, 0, len(res.Members))
		for _, m := range res.Members {
			peers = append(peers, proto.PeerInfo{ID: m.ID, Name: m.Name})
		}
		h.broadcaster.Deliver(c.Room, self, proto.NewRoomState(res.HostID, peers))
		h.broadcaster.Deliver(c.Room, others, proto.NewPeerJoin(c.ID, c.Name))
	})
	if res.Created {
		h.metrics.RoomOpened()
	}

	h.log.Info().
		Str("client_id", c.ID).
		Str("room", c.Room).
		Str("name", c.Name).
		Bool("host", res.IsHost).
		Int("members", len(res.Members)).
		Msg("client joined room")
	return c
}

// leave removes the client from its room and notifies the rest:
// host_changed first when the host left, then peer_leave.
func (h *Hub) leave(c Client) {
	out := h.registry.Leave(c.Room, c.ID, func(out LeaveOutcome, remaining []*Peer) {
		if out.Kind != LeaveRemaining {
			return
		}
		if out.WasHost && out.NewHostID != "" {
			h.broadcaster.Deliver(c.Room, remaining, proto.NewHostChanged(out.NewHostID))
		}
		h.broadcaster.Deliver(c.Room, remaining, proto.NewPeerLeave(c.ID))
	})

	switch out.Kind {
	case LeaveRoomClosed:
		h.metrics.RoomClosed()
		h.log.Info().Str("client_id", c.ID).Str("room", c.Room).Msg("room closed")
	case LeaveRemaining:
		if out.WasHost {
			h.metrics.HostChanged()
			h.log.Info().Str("room", c.Room).Str("host_id", out.NewHostID).Str("previous_host_id", c.ID).Msg("host changed")
		}
		h.log.Info().Str("client_id", c.ID).Str("room", c.Room).Msg("client left room")
	}
}

// relay forwards an input or snapshot to the rest of the sender's room.
func (h *Hub) relay(c Client, msg proto.Message) {
	frame, err := proto.Encode(msg.WithFrom(c.ID))
	if err != nil {
		h.metrics.DeliveryFailed(metrics.ReasonEncode)
		h.log.Warn().Err(err).Str("client_id", c.ID).Str("type", msg.Type).Msg("encode relay")
		return
	}
	h.broadcaster.BroadcastFrame(c.Room, frame, c.ID)
	h.metrics.MessageRelayed(msg.Type)
}

// release forgets a connection and closes its outbound queue.
func (h *Hub) release(peer *Peer) {
	h.mu.Lock()
	_, ok := h.peers[peer.ID]
	if ok {
		delete(h.peers, peer.ID)
	}
	count := len(h.peers)
	h.mu.Unlock()

	peer.Close()
	if ok {
		h.metrics.ConnectionClosed()
		h.log.Info().Str("client_id", peer.ID).Int("connections", count).Msg("client disconnected")
	}
}
