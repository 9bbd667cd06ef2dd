package sweep

import (
	"time"
)

// Action classifies what happened to a single target
type Action string

const (
	ActionDelete   Action = "DELETE"    // Target existed and was removed
	ActionDryRun   Action = "DRY_RUN"   // Target exists and would be removed
	ActionNotFound Action = "NOT_FOUND" // Target absent; not an error
	ActionError    Action = "ERROR"     // Deletion attempted and failed
	ActionBlocked  Action = "BLOCKED"   // Safety validator refused the path
)

// Reason says which configured list selected a target
const (
	ReasonTargetDirectory = "target_directory"
	ReasonTargetFilename  = "target_filename"
)

// Object types reported for existing targets
const (
	ObjectDirectory = "directory"
	ObjectFile      = "file"
	ObjectSymlink   = "symlink"
)

// Event is one reported action
type Event struct {
	Time       time.Time
	Action     Action
	Path       string
	ObjectType string // Empty when the target did not exist
	Reason     string
	Size       int64 // Bytes held by the target before deletion
	Err        error
}

// Failed reports whether the event counts as a deletion failure
func (e Event) Failed() bool {
	return e.Action == ActionError || e.Action == ActionBlocked
}

// ErrorMessage returns the error text or an empty string
func (e Event) ErrorMessage() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// Result aggregates one sweep
type Result struct {
	SweepID            int64 // Zero when no history database is configured
	Root               string
	DryRun             bool
	StartedAt          time.Time
	FinishedAt         time.Time
	DirectoriesRemoved int
	FilesRemoved       int
	Planned            int // Dry-run only
	NotFound           int
	Failed             int
	Blocked            int
	WalkErrors         int // Unreadable directories skipped during traversal
	BytesFreed         int64
	BytesPlanned       int64 // Dry-run only
	Events             []Event
}

func (r *Result) add(ev Event) {
	r.Events = append(r.Events, ev)
	switch ev.Action {
	case ActionDelete:
		if ev.ObjectType == ObjectDirectory {
			r.DirectoriesRemoved++
		} else {
			r.FilesRemoved++
		}
		r.BytesFreed += ev.Size
	case ActionDryRun:
		r.Planned++
		r.BytesPlanned += ev.Size
	case ActionNotFound:
		r.NotFound++
	case ActionError:
		r.Failed++
	case ActionBlocked:
		r.Blocked++
	}
}

// HasFailures reports whether any deletion failed or was blocked
func (r *Result) HasFailures() bool {
	return r.Failed > 0 || r.Blocked > 0
}

// Duration returns how long the sweep took
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
