package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "poseparty"

// Metrics holds the server's collectors on a private registry, so tests can
// build as many as they like.
type Metrics struct {
	Registry        *prometheus.Registry
	RejectedEvents  *prometheus.CounterVec
	ThrottledFrames prometheus.Counter
	RoundsStarted   prometheus.Counter
	GamesEnded      *prometheus.CounterVec
	ArchiveErrors   prometheus.Counter
}

// New registers the collectors. rooms and conns back the live gauges.
func New(rooms, conns func() int) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		RejectedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_events_total",
			Help:      "Inbound events ignored, by reason.",
		}, []string{"reason"}),
		ThrottledFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "throttled_frames_total",
			Help:      "Inbound frames delayed by the per-connection rate limiter.",
		}),
		RoundsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_started_total",
			Help:      "Rounds opened across all rooms.",
		}),
		GamesEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_ended_total",
			Help:      "Games ended, by whether every round was played.",
		}, []string{"completed"}),
		ArchiveErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_errors_total",
			Help:      "Finished games that could not be written to the archive.",
		}),
	}

	reg.MustRegister(
		m.RejectedEvents,
		m.ThrottledFrames,
		m.RoundsStarted,
		m.GamesEnded,
		m.ArchiveErrors,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rooms",
			Help:      "Rooms with a live game.",
		}, func() float64 { return float64(rooms()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Open WebSocket connections.",
		}, func() float64 { return float64(conns()) }),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Reject counts an ignored inbound event.
func (m *Metrics) Reject(reason string) {
	m.RejectedEvents.WithLabelValues(reason).Inc()
}

func (m *Metrics) GameEnded(completed bool) {
	label := "false"
	if completed {
		label = "true"
	}
	m.GamesEnded.WithLabelValues(label).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
