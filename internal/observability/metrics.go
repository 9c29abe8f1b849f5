package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "longevity"

var (
	syncRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "runs_total",
		Help:      "Sync runs by outcome (ok, partial, failed).",
	}, []string{"outcome"})

	syncRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "records_total",
		Help:      "Records written by sync, by source and kind.",
	}, []string{"source", "kind"})

	syncErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "errors_total",
		Help:      "Per-record sync errors, by source.",
	}, []string{"source"})

	lastSyncGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the most recent completed sync.",
	})

	rejectedRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "recompute",
		Name:      "rejected_records_total",
		Help:      "Malformed records skipped while recomputing derived fields.",
	}, []string{"kind"})

	daysSinceGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "status",
		Name:      "days_since_last_activity",
		Help:      "Days since the most recent activity; -1 when there is none.",
	})

	streakGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "status",
		Name:      "current_streak",
		Help:      "Activities in the current streak.",
	})
)

func init() {
	prometheus.MustRegister(syncRuns, syncRecords, syncErrors, lastSyncGauge,
		rejectedRecords, daysSinceGauge, streakGauge)
}

// RecordSyncRun counts a finished sync and updates the success watermark.
func RecordSyncRun(outcome string, finished time.Time) {
	syncRuns.WithLabelValues(outcome).Inc()
	if outcome != "failed" && !finished.IsZero() {
		lastSyncGauge.Set(float64(finished.Unix()))
	}
}

// RecordSynced adds n written records of kind from source.
func RecordSynced(source, kind string, n int) {
	if n <= 0 {
		return
	}
	syncRecords.WithLabelValues(source, kind).Add(float64(n))
}

// RecordSyncError counts one failed record.
func RecordSyncError(source string) {
	syncErrors.WithLabelValues(source).Inc()
}

// RecordRejected adds n skipped records of kind.
func RecordRejected(kind string, n int) {
	if n <= 0 {
		return
	}
	rejectedRecords.WithLabelValues(kind).Add(float64(n))
}

// RecordStatus publishes the latest gap and streak.
func RecordStatus(daysSince *float64, streak int) {
	if daysSince == nil {
		daysSinceGauge.Set(-1)
	} else {
		daysSinceGauge.Set(*daysSince)
	}
	streakGauge.Set(float64(streak))
}
