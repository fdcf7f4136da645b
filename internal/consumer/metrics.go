package consumer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	receivedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trainer_workload",
		Subsystem: "consumer",
		Name:      "messages_received_total",
		Help:      "Number of workload messages fetched from Kafka.",
	}, []string{"topic"})

	outcomeCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trainer_workload",
		Subsystem: "consumer",
		Name:      "outcomes_total",
		Help:      "Terminal outcomes grouped by action and outcome.",
	}, []string{"action", "outcome"})

	deadLetterCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trainer_workload",
		Subsystem: "consumer",
		Name:      "dead_letters_total",
		Help:      "Number of messages routed to the dead-letter topic, by failure class.",
	}, []string{"class"})

	emitErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trainer_workload",
		Subsystem: "consumer",
		Name:      "emit_errors_total",
		Help:      "Number of terminal outcomes that could not be published; the message stays uncommitted.",
	}, []string{"outcome"})

	processingHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "trainer_workload",
		Subsystem: "consumer",
		Name:      "processing_seconds",
		Help:      "Time from fetch to terminal outcome.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"action"})

	lastMessageGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "trainer_workload",
		Subsystem: "consumer",
		Name:      "last_message_timestamp_seconds",
		Help:      "Unix timestamp of the most recent message committed per topic.",
	}, []string{"topic"})
)

func init() {
	prometheus.MustRegister(receivedCounter, outcomeCounter, deadLetterCounter, emitErrorCounter, processingHistogram, lastMessageGauge)
}

func recordReceived(topic string) {
	receivedCounter.WithLabelValues(topic).Inc()
}

func recordOutcome(action string, o outcome, elapsed time.Duration) {
	if action == "" {
		action = "unknown"
	}
	outcomeCounter.WithLabelValues(action, string(o)).Inc()
	processingHistogram.WithLabelValues(action).Observe(elapsed.Seconds())
}

func recordDeadLetter(class string) {
	deadLetterCounter.WithLabelValues(class).Inc()
}

func recordEmitError(o outcome) {
	emitErrorCounter.WithLabelValues(string(o)).Inc()
}

func recordCommitted(topic string, ts time.Time) {
	if ts.IsZero() {
		return
	}
	lastMessageGauge.WithLabelValues(topic).Set(float64(ts.Unix()))
}
