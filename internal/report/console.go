package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"project-sweeper/internal/sweep"
)

// Console prints one line per sweep action
type Console struct {
	out io.Writer

	title   *color.Color
	removed *color.Color
	planned *color.Color
	failed  *color.Color
	missing *color.Color
	banner  *color.Color
}

// NewConsole creates a console reporter; noColor forces plain text
func NewConsole(out io.Writer, noColor bool) *Console {
	c := &Console{
		out:     out,
		title:   color.New(color.FgCyan, color.Bold),
		removed: color.New(color.FgGreen),
		planned: color.New(color.FgYellow),
		failed:  color.New(color.FgRed, color.Bold),
		missing: color.New(color.FgHiBlack),
		banner:  color.New(color.FgGreen, color.Bold),
	}
	if noColor {
		for _, col := range []*color.Color{c.title, c.removed, c.planned, c.failed, c.missing, c.banner} {
			col.DisableColor()
		}
	}
	return c
}

func (c *Console) Start(p sweep.Params) {
	if p.DryRun {
		c.title.Fprintf(c.out, "Starting project cleanup in %s (dry run, nothing will be deleted)...\n\n", p.Root)
		return
	}
	c.title.Fprintf(c.out, "Starting project cleanup in %s...\n\n", p.Root)
}

func (c *Console) Report(ev sweep.Event) {
	fmt.Fprintln(c.out, c.line(ev))
}

func (c *Console) line(ev sweep.Event) string {
	kind := "file"
	if ev.ObjectType == sweep.ObjectDirectory {
		kind = "directory"
	}

	switch ev.Action {
	case sweep.ActionDelete:
		return c.removed.Sprintf("[%s removed] %s", kind, ev.Path)
	case sweep.ActionDryRun:
		return c.planned.Sprintf("[would remove %s] %s (%s)", kind, ev.Path, FormatBytes(ev.Size))
	case sweep.ActionError:
		return c.failed.Sprintf("[%s removal failed] %s: %v", kind, ev.Path, ev.Err)
	case sweep.ActionBlocked:
		return c.failed.Sprintf("[blocked] %s: %v", ev.Path, ev.Err)
	case sweep.ActionNotFound:
		return c.missing.Sprintf("[not found] %s", ev.Path)
	default:
		return fmt.Sprintf("[%s] %s", ev.Action, ev.Path)
	}
}

func (c *Console) Complete(res *sweep.Result) {
	fmt.Fprintln(c.out)
	if res.DryRun {
		c.banner.Fprintf(c.out, "Dry run complete - %d entries would be removed (%s).\n",
			res.Planned, FormatBytes(res.BytesPlanned))
	} else {
		c.banner.Fprintln(c.out, "Cleanup complete - the project is fresh for a new build!")
		fmt.Fprintf(c.out, "%d directories and %d files removed, %s freed.\n",
			res.DirectoriesRemoved, res.FilesRemoved, FormatBytes(res.BytesFreed))
	}
	if res.HasFailures() {
		c.failed.Fprintf(c.out, "%d deletions failed.\n", res.Failed+res.Blocked)
	}
}

// FormatBytes renders a byte count with a binary unit
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
