package deadletter

import "github.com/prometheus/client_golang/prometheus"

var (
	observedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trainer_workload",
		Subsystem: "dead_letter",
		Name:      "messages_observed_total",
		Help:      "Number of dead-lettered workload messages seen by the monitor.",
	}, []string{"class"})

	recordedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "trainer_workload",
		Subsystem: "dead_letter",
		Name:      "messages_recorded_total",
		Help:      "Number of dead-lettered messages written to the forensic table.",
	})

	recordErrorCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "trainer_workload",
		Subsystem: "dead_letter",
		Name:      "record_errors_total",
		Help:      "Number of dead-lettered messages that could not be recorded.",
	})

	backlogGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "trainer_workload",
		Subsystem: "dead_letter",
		Name:      "recorded_messages",
		Help:      "Current number of entries in the forensic table.",
	})

	lastObservedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "trainer_workload",
		Subsystem: "dead_letter",
		Name:      "last_message_timestamp_seconds",
		Help:      "Unix timestamp of the most recent dead-lettered message.",
	})
)

func init() {
	prometheus.MustRegister(observedCounter, recordedCounter, recordErrorCounter, backlogGauge, lastObservedGauge)
}

func recordObserved(entry Entry) {
	observedCounter.WithLabelValues(entry.Class).Inc()
	if !entry.CreatedAt.IsZero() {
		lastObservedGauge.Set(float64(entry.CreatedAt.Unix()))
	}
}

func recordRecorded() {
	recordedCounter.Inc()
}

func recordRecordError() {
	recordErrorCounter.Inc()
}

func setBacklog(count int64) {
	backlogGauge.Set(float64(count))
}
