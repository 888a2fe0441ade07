package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	syncOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "device_sync",
		Subsystem: "pipeline",
		Name:      "syncs_total",
		Help:      "Device activity syncs by outcome.",
	}, []string{"outcome"})
	setsExtracted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "device_sync",
		Subsystem: "pipeline",
		Name:      "sets_extracted_total",
		Help:      "Strength sets accepted by the activity file scanner.",
	})
	fetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "device_sync",
		Subsystem: "fetcher",
		Name:      "fetch_duration_seconds",
		Help:      "Time spent downloading activity files.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"result"})
	entryPersistFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "device_sync",
		Subsystem: "reconciler",
		Name:      "entry_persist_failures_total",
		Help:      "Exercise log rows skipped because persistence failed.",
	})
	exerciseLogPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "device_sync",
		Subsystem: "persistence",
		Name:      "last_exercise_log_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent exercise log persisted to Postgres.",
	})
	syncCompletedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "device_sync",
		Subsystem: "pipeline",
		Name:      "last_successful_sync_timestamp_seconds",
		Help:      "Unix timestamp of the most recent sync that fetched and scanned a file.",
	})
)

func init() {
	prometheus.MustRegister(syncOutcomes, setsExtracted, fetchDuration, entryPersistFailures, exerciseLogPersistGauge, syncCompletedGauge)
}

// RecordSyncOutcome counts one finished sync attempt.
func RecordSyncOutcome(outcome string) {
	syncOutcomes.WithLabelValues(outcome).Inc()
}

// RecordSetsExtracted adds accepted sets to the running total.
func RecordSetsExtracted(n int) {
	if n <= 0 {
		return
	}
	setsExtracted.Add(float64(n))
}

// ObserveFetch records a download attempt.
func ObserveFetch(d time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	fetchDuration.WithLabelValues(result).Observe(d.Seconds())
}

// RecordEntryPersistFailure counts one skipped exercise log row.
func RecordEntryPersistFailure() {
	entryPersistFailures.Inc()
}

// RecordExerciseLogPersisted updates the persistence watermark gauge.
func RecordExerciseLogPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	exerciseLogPersistGauge.Set(float64(ts.Unix()))
}

// RecordSyncCompleted updates the sync watermark gauge.
func RecordSyncCompleted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	syncCompletedGauge.Set(float64(ts.Unix()))
}
