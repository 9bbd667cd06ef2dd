package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Sweep subsystem metrics
var (
	// SweepDuration tracks how long sweeps take
	SweepDuration prometheus.Histogram

	// BytesFreedTotal tracks total bytes freed across all sweeps
	BytesFreedTotal prometheus.Counter

	// ActionsTotal counts reported actions by action and object type
	ActionsTotal *prometheus.CounterVec

	// RemovedEntryBytes tracks the size distribution of removed entries
	RemovedEntryBytes prometheus.Histogram

	// LastRunTimestamp records Unix timestamp of the last sweep
	LastRunTimestamp prometheus.Gauge

	// LastRunFailures records how many deletions failed in the last sweep
	LastRunFailures prometheus.Gauge

	// RootFreeBytes records free space on the root's filesystem after the last sweep
	RootFreeBytes *prometheus.GaugeVec
)

// initSweepMetrics initializes all sweep subsystem metrics
func initSweepMetrics() {
	SweepDuration = NewDurationHistogram(
		"projectsweeper_sweep_duration_seconds",
		"Duration of sweeps in seconds.",
	)

	BytesFreedTotal = NewBytesCounter(
		"projectsweeper_bytes_freed_total",
		"Total bytes freed by project-sweeper.",
	)

	ActionsTotal = NewCounterVec(
		"projectsweeper_actions_total",
		"Total actions reported by project-sweeper.",
		[]string{"action", "object_type"},
	)

	RemovedEntryBytes = NewBytesHistogram(
		"projectsweeper_removed_entry_bytes",
		"Size of each removed directory or file in bytes.",
	)

	LastRunTimestamp = NewSizeGauge(
		"projectsweeper_last_run_timestamp",
		"Timestamp of the last sweep (Unix epoch seconds).",
	)

	LastRunFailures = NewSizeGauge(
		"projectsweeper_last_run_failures",
		"Number of failed or blocked deletions in the last sweep.",
	)

	RootFreeBytes = NewGaugeVec(
		"projectsweeper_root_free_bytes",
		"Free bytes on the filesystem holding the project root after the last sweep.",
		[]string{"root"},
	)
}

// registerSweepMetrics registers all sweep metrics with Registry
func registerSweepMetrics() {
	Registry.MustRegister(SweepDuration)
	Registry.MustRegister(BytesFreedTotal)
	Registry.MustRegister(ActionsTotal)
	Registry.MustRegister(RemovedEntryBytes)
	Registry.MustRegister(LastRunTimestamp)
	Registry.MustRegister(LastRunFailures)
	Registry.MustRegister(RootFreeBytes)
}

// RecordAction counts one reported action; DELETE actions also add to bytes freed
func RecordAction(action, objectType string, size int64) {
	if objectType == "" {
		objectType = "none"
	}
	ActionsTotal.WithLabelValues(action, objectType).Inc()
	if action == "DELETE" {
		BytesFreedTotal.Add(float64(size))
		RemovedEntryBytes.Observe(float64(size))
	}
}

// RecordSweep stores the outcome of a finished sweep
func RecordSweep(duration time.Duration, failures int) {
	SweepDuration.Observe(duration.Seconds())
	LastRunTimestamp.Set(float64(time.Now().Unix()))
	LastRunFailures.Set(float64(failures))
}

// SetRootFreeBytes records free space for the root's filesystem
func SetRootFreeBytes(root string, free int64) {
	RootFreeBytes.WithLabelValues(root).Set(float64(free))
}
