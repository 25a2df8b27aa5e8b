package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ActiveConnections prometheus.Gauge
	RejectedConns     prometheus.Counter
	EventsPublished   *prometheus.CounterVec
	DeliveryFailures  prometheus.Counter
	VotesCast         prometheus.Counter
	PollsStopped      *prometheus.CounterVec
	RoomsExpired      prometheus.Counter
	SweepDuration     *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Active WebSocket connections",
		}),
		RejectedConns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "websocket_connections_rejected_total",
			Help: "WebSocket connections rejected by the per-address cap",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "room_events_published_total",
			Help: "Room events published, by type",
		}, []string{"type"}),
		DeliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "room_event_delivery_failures_total",
			Help: "Event deliveries that failed and dropped the connection",
		}),
		VotesCast: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "votes_cast_total",
			Help: "Votes recorded",
		}),
		PollsStopped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "polls_stopped_total",
			Help: "Polls completed, by reason",
		}, []string{"reason"}),
		RoomsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rooms_expired_total",
			Help: "Rooms removed by the inactivity sweep",
		}),
		SweepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scheduler_sweep_duration_seconds",
			Help:    "Duration of background sweeps",
			Buckets: prometheus.DefBuckets,
		}, []string{"sweep"}),
	}

	reg.MustRegister(
		m.ActiveConnections,
		m.RejectedConns,
		m.EventsPublished,
		m.DeliveryFailures,
		m.VotesCast,
		m.PollsStopped,
		m.RoomsExpired,
		m.SweepDuration,
	)
	return m
}

func (m *Metrics) ConnectionOpened() {
	if m != nil {
		m.ActiveConnections.Inc()
	}
}

func (m *Metrics) ConnectionClosed() {
	if m != nil {
		m.ActiveConnections.Dec()
	}
}

func (m *Metrics) ConnectionRejected() {
	if m != nil {
		m.RejectedConns.Inc()
	}
}

func (m *Metrics) EventPublished(eventType string) {
	if m != nil {
		m.EventsPublished.WithLabelValues(eventType).Inc()
	}
}

func (m *Metrics) DeliveryFailed() {
	if m != nil {
		m.DeliveryFailures.Inc()
	}
}

func (m *Metrics) VoteCast() {
	if m != nil {
		m.VotesCast.Inc()
	}
}

func (m *Metrics) PollStopped(reason string) {
	if m != nil {
		m.PollsStopped.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) RoomExpired() {
	if m != nil {
		m.RoomsExpired.Inc()
	}
}

func (m *Metrics) ObserveSweep(sweep string, seconds float64) {
	if m != nil {
		m.SweepDuration.WithLabelValues(sweep).Observe(seconds)
	}
}
