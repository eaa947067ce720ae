package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "chain_events"

// Outcome labels shared by the counters below
const (
	OutcomeAck       = "ack"
	OutcomeNak       = "nak"
	OutcomeTerm      = "term"
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeInserted  = "inserted"
	OutcomeDuplicate = "duplicate"
)

var (
	EnvelopesPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "relay",
		Name:      "envelopes_published_total",
		Help:      "Envelopes accepted by the broker.",
	}, []string{"network", "kind"})

	EnvelopesDeadLettered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "relay",
		Name:      "dead_lettered_total",
		Help:      "Payloads routed to the dead-letter stream.",
	}, []string{"network"})

	PublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "relay",
		Name:      "publish_failures_total",
		Help:      "Publishes rejected by the broker.",
	}, []string{"subject_prefix"})

	MessagesConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "consumer",
		Name:      "messages_total",
		Help:      "Broker messages handled by the consumer, by outcome.",
	}, []string{"outcome"})

	EventsPersisted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "consumer",
		Name:      "events_total",
		Help:      "Event upserts, by whether a new row was inserted.",
	}, []string{"network", "outcome"})

	NotificationsMaterialized = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "materializer",
		Name:      "notifications_total",
		Help:      "Notification rows created.",
	})

	RepublishAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "republish",
		Name:      "attempts_total",
		Help:      "Event type descriptor republish attempts, by outcome.",
	}, []string{"outcome"})

	FanoutConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "fanout",
		Name:      "connections",
		Help:      "Live fan-out connections.",
	})

	FanoutPushes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "fanout",
		Name:      "pushes_total",
		Help:      "Event notifications pushed to synced connections.",
	})

	SubscriberRestarts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "emitter",
		Name:      "subscriber_restarts_total",
		Help:      "Chain subscriber restarts after a failure.",
	}, []string{"network"})
)
