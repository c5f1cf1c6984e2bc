// Package metrics exposes Prometheus collectors for the relay.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "partyrelay"

// Delivery failure reasons.
const (
	ReasonClosed    = "closed"
	ReasonQueueFull = "queue_full"
	ReasonEncode    = "encode"
)

// Metrics holds relay counters and gauges. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	connectionsActive prometheus.Gauge
	roomsActive       prometheus.Gauge
	messagesRelayed   *prometheus.CounterVec
	deliveryFailures  *prometheus.CounterVec
	decodeFailures    prometheus.Counter
	hostChanges       prometheus.Counter
}

// New registers the relay collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		connectionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Number of open client connections",
		}),
		roomsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms_active",
			Help:      "Number of non-empty rooms",
		}),
		messagesRelayed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_relayed_total",
			Help:      "Total number of client messages relayed to a room",
		}, []string{"type"}),
		deliveryFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_failures_total",
			Help:      "Total number of dropped per-recipient deliveries",
		}, []string{"reason"}),
		decodeFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_failures_total",
			Help:      "Total number of discarded undecodable frames",
		}),
		hostChanges: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "host_changes_total",
			Help:      "Total number of host handoffs",
		}),
	}
}

// ConnectionOpened counts a new live connection.
func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.connectionsActive.Inc()
}

// ConnectionClosed counts a released connection.
func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.connectionsActive.Dec()
}

// RoomOpened counts a room created by its first join.
func (m *Metrics) RoomOpened() {
	if m == nil {
		return
	}
	m.roomsActive.Inc()
}

// RoomClosed counts a room deleted by its last leave.
func (m *Metrics) RoomClosed() {
	if m == nil {
		return
	}
	m.roomsActive.Dec()
}

// MessageRelayed counts one relayed frame by type.
func (m *Metrics) MessageRelayed(typ string) {
	if m == nil {
		return
	}
	m.messagesRelayed.WithLabelValues(typ).Inc()
}

// DeliveryFailed counts one dropped delivery by reason.
func (m *Metrics) DeliveryFailed(reason string) {
	if m == nil {
		return
	}
	m.deliveryFailures.WithLabelValues(reason).Inc()
}

// DecodeFailed counts a discarded undecodable frame.
func (m *Metrics) DecodeFailed() {
	if m == nil {
		return
	}
	m.decodeFailures.Inc()
}

// HostChanged counts a host handoff.
func (m *Metrics) HostChanged() {
	if m == nil {
		return
	}
	m.hostChanges.Inc()
}
