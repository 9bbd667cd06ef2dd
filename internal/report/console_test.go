package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"project-sweeper/internal/sweep"
)

func TestConsoleLines(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(&out, true)

	c.Start(sweep.Params{Root: "/work/app"})
	c.Report(sweep.Event{Action: sweep.ActionDelete, Path: "/work/app/node_modules", ObjectType: sweep.ObjectDirectory})
	c.Report(sweep.Event{Action: sweep.ActionDelete, Path: "/work/app/yarn.lock", ObjectType: sweep.ObjectFile})
	c.Report(sweep.Event{Action: sweep.ActionError, Path: "/work/app/dist", ObjectType: sweep.ObjectDirectory, Err: errors.New("permission denied")})
	c.Report(sweep.Event{Action: sweep.ActionError, Path: "/work/app/Thumbs.db", ObjectType: sweep.ObjectFile, Err: errors.New("busy")})
	c.Report(sweep.Event{Action: sweep.ActionNotFound, Path: "/work/app/out"})
	c.Report(sweep.Event{Action: sweep.ActionBlocked, Path: "/work/app/link/x", Err: errors.New("symlink escape detected")})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, []string{
		"Starting project cleanup in /work/app...",
		"",
		"[directory removed] /work/app/node_modules",
		"[file removed] /work/app/yarn.lock",
		"[directory removal failed] /work/app/dist: permission denied",
		"[file removal failed] /work/app/Thumbs.db: busy",
		"[not found] /work/app/out",
		"[blocked] /work/app/link/x: symlink escape detected",
	}, lines)
}

func TestConsoleDryRun(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(&out, true)

	c.Start(sweep.Params{Root: "/work/app", DryRun: true})
	c.Report(sweep.Event{Action: sweep.ActionDryRun, Path: "/work/app/dist", ObjectType: sweep.ObjectDirectory, Size: 2048})
	c.Complete(&sweep.Result{DryRun: true, Planned: 1, BytesPlanned: 2048})

	s := out.String()
	assert.Contains(t, s, "dry run")
	assert.Contains(t, s, "[would remove directory] /work/app/dist (2.0 KB)")
	assert.Contains(t, s, "1 entries would be removed (2.0 KB)")
}

func TestConsoleCompleteBanner(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(&out, true)

	c.Complete(&sweep.Result{DirectoriesRemoved: 2, FilesRemoved: 3, BytesFreed: 1536, Failed: 1})

	s := out.String()
	assert.Contains(t, s, "Cleanup complete")
	assert.Contains(t, s, "2 directories and 3 files removed, 1.5 KB freed.")
	assert.Contains(t, s, "1 deletions failed.")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.0 KB", FormatBytes(1024))
	assert.Equal(t, "1.5 MB", FormatBytes(1536*1024))
	assert.Equal(t, "2.0 GB", FormatBytes(2<<30))
}
