package outbox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsEnqueuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "timecode_agent",
			Name:      "events_enqueued_total",
			Help:      "Events appended to the outbound queue.",
		},
	)

	eventsSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "timecode_agent",
			Name:      "events_sent_total",
			Help:      "Events acknowledged by the server, duplicates included.",
		},
	)

	flushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "timecode_agent",
			Name:      "flushes_total",
			Help:      "Flush attempts by result.",
		},
		[]string{"result"},
	)

	pendingEvents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "timecode_agent",
			Name:      "pending_events",
			Help:      "Events waiting in the outbound queue.",
		},
	)
)
