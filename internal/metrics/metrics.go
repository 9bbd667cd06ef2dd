package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	initOnce sync.Once

	// Registry holds every project-sweeper metric. A private registry keeps the
	// textfile free of Go runtime collectors, which node-exporter already exports.
	Registry = prometheus.NewRegistry()
)

// Init initializes all metrics subsystems and registers them with Registry
// This function is safe to call multiple times (uses sync.Once)
func Init() {
	initOnce.Do(func() {
		initSweepMetrics()
		registerSweepMetrics()

		// Initialize metrics with default values so they appear in the textfile
		// even before the first sweep
		LastRunTimestamp.Set(0)
		LastRunFailures.Set(0)
	})
}

// WriteTextfile atomically writes the current metrics in the node-exporter
// textfile collector format
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
