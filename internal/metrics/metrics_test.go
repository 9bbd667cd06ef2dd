package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMetricsInit verifies that Init() is idempotent and registers metrics
func TestMetricsInit(t *testing.T) {
	Init()
	Init()
	Init()

	require.NotNil(t, SweepDuration)
	require.NotNil(t, BytesFreedTotal)
	require.NotNil(t, ActionsTotal)
	require.NotNil(t, LastRunTimestamp)

	mfs, err := Registry.Gather()
	require.NoError(t, err)

	found := make(map[string]bool)
	for _, mf := range mfs {
		found[mf.GetName()] = true
	}

	// Vec metrics only appear once a label set exists
	for _, expected := range []string{
		"projectsweeper_sweep_duration_seconds",
		"projectsweeper_bytes_freed_total",
		"projectsweeper_removed_entry_bytes",
		"projectsweeper_last_run_timestamp",
		"projectsweeper_last_run_failures",
	} {
		assert.True(t, found[expected], "metric %s not registered", expected)
	}
}

func TestRecordAction(t *testing.T) {
	Init()

	beforeFreed := testutil.ToFloat64(BytesFreedTotal)
	beforeDeletes := testutil.ToFloat64(ActionsTotal.WithLabelValues("DELETE", "directory"))
	beforeMissing := testutil.ToFloat64(ActionsTotal.WithLabelValues("NOT_FOUND", "none"))

	RecordAction("DELETE", "directory", 2048)
	RecordAction("NOT_FOUND", "", 0)
	RecordAction("ERROR", "file", 512)

	assert.Equal(t, beforeFreed+2048, testutil.ToFloat64(BytesFreedTotal))
	assert.Equal(t, beforeDeletes+1, testutil.ToFloat64(ActionsTotal.WithLabelValues("DELETE", "directory")))
	assert.Equal(t, beforeMissing+1, testutil.ToFloat64(ActionsTotal.WithLabelValues("NOT_FOUND", "none")))
}

func TestRecordSweep(t *testing.T) {
	Init()

	RecordSweep(1500*time.Millisecond, 3)
	assert.Equal(t, 3.0, testutil.ToFloat64(LastRunFailures))
	assert.InDelta(t, float64(time.Now().Unix()), testutil.ToFloat64(LastRunTimestamp), 5)

	SetRootFreeBytes("/work/app", 1<<30)
	assert.Equal(t, float64(1<<30), testutil.ToFloat64(RootFreeBytes.WithLabelValues("/work/app")))
}

func TestWriteTextfile(t *testing.T) {
	Init()
	RecordAction("DELETE", "file", 10)

	path := filepath.Join(t.TempDir(), "textfile", "project_sweeper.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "projectsweeper_actions_total")
	assert.Contains(t, string(data), "projectsweeper_bytes_freed_total")
}

func TestWriteTextfileDisabled(t *testing.T) {
	assert.NoError(t, WriteTextfile(""))
}

// TestStandardBuckets verifies that standard bucket definitions are ascending
func TestStandardBuckets(t *testing.T) {
	for name, buckets := range map[string][]float64{
		"duration": DurationBuckets,
		"bytes":    BytesBuckets,
	} {
		for i := 1; i < len(buckets); i++ {
			assert.Less(t, buckets[i-1], buckets[i], "%s bucket %d", name, i)
		}
	}
}
