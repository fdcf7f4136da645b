// Package observability holds process-wide Prometheus collectors for ledger persistence.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ledgerSavedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trainer_workload",
		Subsystem: "ledger",
		Name:      "saves_total",
		Help:      "Number of ledgers persisted, labeled by the action that changed them.",
	}, []string{"action"})

	ledgerSavedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "trainer_workload",
		Subsystem: "ledger",
		Name:      "last_saved_timestamp_seconds",
		Help:      "Unix timestamp of the most recent ledger save.",
	})

	versionConflictCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "trainer_workload",
		Subsystem: "ledger",
		Name:      "version_conflicts_total",
		Help:      "Number of saves rejected because the stored ledger changed concurrently.",
	})

	duplicateCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trainer_workload",
		Subsystem: "ledger",
		Name:      "duplicates_skipped_total",
		Help:      "Number of mutating commands skipped because their transaction id was already applied.",
	}, []string{"action"})

	degradedQueryCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "trainer_workload",
		Subsystem: "query",
		Name:      "degraded_total",
		Help:      "Number of monthly queries answered with an empty workload after a repository failure.",
	})
)

func init() {
	prometheus.MustRegister(ledgerSavedCounter, ledgerSavedGauge, versionConflictCounter, duplicateCounter, degradedQueryCounter)
}

// RecordLedgerSaved counts a save and updates the watermark gauge.
func RecordLedgerSaved(action string, ts time.Time) {
	ledgerSavedCounter.WithLabelValues(action).Inc()
	if ts.IsZero() {
		return
	}
	ledgerSavedGauge.Set(float64(ts.Unix()))
}

// RecordVersionConflict counts an optimistic-lock conflict.
func RecordVersionConflict() {
	versionConflictCounter.Inc()
}

// RecordDuplicateSkipped counts a command skipped by the processed-message log.
func RecordDuplicateSkipped(action string) {
	duplicateCounter.WithLabelValues(action).Inc()
}

// RecordQueryDegraded counts a query answered by the degrade policy.
func RecordQueryDegraded() {
	degradedQueryCounter.Inc()
}

// VersionConflicts exposes the conflict counter for assertions.
func VersionConflicts() prometheus.Counter { return versionConflictCounter }

// DuplicatesSkipped exposes the duplicate counter for assertions.
func DuplicatesSkipped(action string) prometheus.Counter {
	return duplicateCounter.WithLabelValues(action)
}
