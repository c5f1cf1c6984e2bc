package core

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/party-relay/internal/metrics"
	"github.com/vovakirdan/party-relay/internal/proto"
)

// Broadcaster fans frames out to room members. Delivery is best effort:
// a failed send to one recipient never stops the rest and is never
// reported to the caller.
type Broadcaster struct {
	registry *Registry
	metrics  *metrics.Metrics
	log      *zerolog.Logger
}

// NewBroadcaster builds a broadcaster over the given registry.
func NewBroadcaster(registry *Registry, m *metrics.Metrics, logger *zerolog.Logger) *Broadcaster {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Broadcaster{registry: registry, metrics: m, log: logger}
}

// BroadcastFrame delivers an encoded frame to every member of the room
// except skip and returns the number of successful deliveries. Recipients
// are a snapshot taken before the first send, so concurrent joins and
// leaves never affect an in-flight fan-out.
func (b *Broadcaster) BroadcastFrame(roomID string, frame []byte, skip string) int {
	return b.fanOut(roomID, b.registry.Recipients(roomID, skip), frame)
}

// Deliver encodes v and sends it to an explicit recipient snapshot. It
// never blocks, so it may run inside a Registry callback.
func (b *Broadcaster) Deliver(roomID string, recipients []*Peer, v any) int {
	if len(recipients) == 0 {
		return 0
	}
	frame, ok := b.encode(roomID, v)
	if !ok {
		return 0
	}
	return b.fanOut(roomID, recipients, frame)
}

func (b *Broadcaster) encode(roomID string, v any) ([]byte, bool) {
	frame, err := proto.Encode(v)
	if err != nil {
		b.metrics.DeliveryFailed(metrics.ReasonEncode)
		b.log.Error().Err(err).Str("room", roomID).Msg("encode broadcast")
		return nil, false
	}
	return frame, true
}

func (b *Broadcaster) fanOut(roomID string, recipients []*Peer, frame []byte) int {
	delivered := 0
	for _, peer := range recipients {
		if err := peer.Send(frame); err != nil {
			b.dropped(roomID, peer.ID, err)
			continue
		}
		delivered++
	}
	return delivered
}

func (b *Broadcaster) dropped(roomID, peerID string, err error) {
	switch {
	case errors.Is(err, ErrPeerClosed):
		b.metrics.DeliveryFailed(metrics.ReasonClosed)
	case errors.Is(err, ErrSendQueueFull):
		b.metrics.DeliveryFailed(metrics.ReasonQueueFull)
	}
	b.log.Debug().Err(err).Str("room", roomID).Str("client_id", peerID).Msg("delivery dropped")
}
