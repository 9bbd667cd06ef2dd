package sweep

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"project-sweeper/internal/config"
	"project-sweeper/internal/database"
	"project-sweeper/internal/disk"
	"project-sweeper/internal/fsops"
	"project-sweeper/internal/metrics"
	"project-sweeper/internal/safety"
)

var errStillPresent = errors.New("path still present after delete")

// Params is everything one sweep needs to know
type Params struct {
	Root              string
	TargetDirectories []string // Slash-separated, relative to Root, processed in order
	TargetFilenames   []string // Bare names matched at any depth
	DryRun            bool
}

// ParamsFromConfig copies the sweep parameters out of a loaded config
func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		Root:              cfg.Root,
		TargetDirectories: append([]string(nil), cfg.TargetDirectories...),
		TargetFilenames:   append([]string(nil), cfg.TargetFilenames...),
		DryRun:            cfg.DryRun,
	}
}

// Reporter receives human-readable progress
type Reporter interface {
	Start(p Params)
	Report(ev Event)
	Complete(res *Result)
}

// OnComplete runs after the completion banner, e.g. to wait for the operator
type OnComplete func(res *Result)

type nopReporter struct{}

func (nopReporter) Start(Params)     {}
func (nopReporter) Report(Event)     {}
func (nopReporter) Complete(*Result) {}

// Sweeper removes target directories and target filenames below one root
type Sweeper struct {
	params     Params
	names      map[string]struct{}
	logger     logrus.FieldLogger
	reporter   Reporter
	deleter    fsops.Deleter
	validator  *safety.Validator
	db         *database.SweepDB // Optional sweep history
	onComplete OnComplete
	now        func() time.Time

	// per-sweep state
	current *Result
	planned map[string]bool // Dry-run directories the walk must not descend into
}

// NewSweeper creates a Sweeper deleting through the real filesystem
func NewSweeper(p Params, logger logrus.FieldLogger, db *database.SweepDB) *Sweeper {
	metrics.Init()

	if logger == nil {
		logger = logrus.StandardLogger()
	}
	// WalkDir does not descend into a symlinked root, so sweep the link target
	if resolved, err := filepath.EvalSymlinks(p.Root); err == nil {
		p.Root = resolved
	}
	names := make(map[string]struct{}, len(p.TargetFilenames))
	for _, n := range p.TargetFilenames {
		names[n] = struct{}{}
	}
	return &Sweeper{
		params:    p,
		names:     names,
		logger:    logger,
		reporter:  nopReporter{},
		deleter:   fsops.OSDeleter{},
		validator: safety.NewValidator(p.Root, nil),
		db:        db,
		now:       time.Now,
	}
}

// SetDeleter replaces the filesystem deleter
func (s *Sweeper) SetDeleter(d fsops.Deleter) {
	s.deleter = d
}

// SetValidator replaces the safety validator
func (s *Sweeper) SetValidator(v *safety.Validator) {
	s.validator = v
}

// SetReporter sets where progress lines go
func (s *Sweeper) SetReporter(r Reporter) {
	if r == nil {
		r = nopReporter{}
	}
	s.reporter = r
}

// SetOnComplete sets the hook run after the completion banner
func (s *Sweeper) SetOnComplete(fn OnComplete) {
	s.onComplete = fn
}

// CheckRoot verifies the root exists, is a directory, and is not a protected system path
func (s *Sweeper) CheckRoot() error {
	info, err := os.Stat(s.params.Root)
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", config.ErrInvalidRoot, s.params.Root)
	}
	if err := s.validator.ValidateRoot(); err != nil {
		return fmt.Errorf("root %s: %w", s.params.Root, err)
	}
	return nil
}

// Sweep deletes every target directory in order, then walks the whole tree
// deleting target filenames. Deletion failures are reported and never stop the
// sweep; an error is returned only when the root itself is unusable, before
// anything was touched.
func (s *Sweeper) Sweep() (*Result, error) {
	if err := s.CheckRoot(); err != nil {
		return nil, err
	}

	res := &Result{
		Root:      s.params.Root,
		DryRun:    s.params.DryRun,
		StartedAt: s.now(),
	}
	s.current = res
	s.planned = make(map[string]bool)
	defer func() {
		s.current = nil
		s.planned = nil
	}()

	if s.db != nil {
		id, err := s.db.BeginSweep(res.Root, res.DryRun, res.StartedAt)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to record sweep start to database")
		} else {
			res.SweepID = id
		}
	}

	s.logger.WithFields(logrus.Fields{
		"root":        res.Root,
		"directories": len(s.params.TargetDirectories),
		"filenames":   len(s.params.TargetFilenames),
		"dry_run":     res.DryRun,
	}).Info("Starting sweep")
	s.reporter.Start(s.params)

	for _, d := range s.params.TargetDirectories {
		ev := s.RemoveEntry(filepath.Join(s.params.Root, filepath.FromSlash(d)), ReasonTargetDirectory)
		if ev.Action == ActionDryRun && ev.ObjectType == ObjectDirectory {
			s.planned[ev.Path] = true
		}
	}

	s.walk(res)

	res.FinishedAt = s.now()
	s.finish(res)
	s.reporter.Complete(res)

	if s.onComplete != nil {
		s.onComplete(res)
	}
	return res, nil
}

// walk visits every entry below root and removes regular files whose name is a target
func (s *Sweeper) walk(res *Result) {
	root := s.params.Root
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			res.WalkErrors++
			s.logger.WithError(err).WithField("path", p).Warn("Skipping unreadable path")
			return nil
		}

		if d.IsDir() {
			if s.planned[p] {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if _, ok := s.names[d.Name()]; !ok {
			return nil
		}

		s.RemoveEntry(p, ReasonTargetFilename)
		return nil
	})
	if err != nil {
		res.WalkErrors++
		s.logger.WithError(err).WithField("root", root).Warn("Tree walk stopped early")
	}
}

// RemoveEntry deletes a directory tree or a single file and reports the outcome.
// A missing path is reported as NOT_FOUND and is never an error.
func (s *Sweeper) RemoveEntry(path, reason string) Event {
	ev := s.removeEntry(path, reason)
	s.emit(ev)
	return ev
}

func (s *Sweeper) removeEntry(path, reason string) Event {
	ev := Event{Time: s.now(), Path: path, Reason: reason}

	// A real sweep would already have removed anything below a planned directory
	if s.params.DryRun && s.coveredByPlanned(path) {
		ev.Action = ActionNotFound
		return ev
	}

	info, err := os.Lstat(path)
	if err != nil {
		if isNotExist(err) {
			ev.Action = ActionNotFound
			return ev
		}
		ev.Action = ActionError
		ev.Err = err
		return ev
	}
	ev.ObjectType = objectType(info)

	if err := s.validator.ValidateDeleteTarget(path); err != nil {
		ev.Action = ActionBlocked
		ev.Err = err
		return ev
	}

	if stats, err := disk.ScanPath(path); err == nil {
		ev.Size = stats.UsedBytes
	}

	if s.params.DryRun {
		ev.Action = ActionDryRun
		return ev
	}

	if info.IsDir() {
		err = s.deleter.RemoveAll(path)
	} else {
		err = s.deleter.Remove(path)
	}
	if err != nil {
		// Vanished between the stat and the delete
		if isNotExist(err) {
			ev.Action = ActionNotFound
			ev.ObjectType = ""
			ev.Size = 0
			return ev
		}
		ev.Action = ActionError
		ev.Err = err
		return ev
	}

	if _, err := os.Lstat(path); err == nil {
		ev.Action = ActionError
		ev.Err = errStillPresent
		return ev
	}

	ev.Action = ActionDelete
	return ev
}

func (s *Sweeper) coveredByPlanned(path string) bool {
	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		if s.planned[dir] {
			return true
		}
		if dir == s.params.Root || dir == filepath.Dir(dir) {
			return false
		}
	}
}

// emit fans an event out to the reporter, logger, metrics and history database
func (s *Sweeper) emit(ev Event) {
	if s.current != nil {
		s.current.add(ev)
	}

	s.reporter.Report(ev)

	entry := s.logger.WithFields(logrus.Fields{
		"action": ev.Action,
		"path":   ev.Path,
		"object": ev.ObjectType,
		"reason": ev.Reason,
		"size":   ev.Size,
	})
	if ev.Failed() {
		entry.WithError(ev.Err).Warn("Failed to delete")
	} else {
		entry.Debug("Sweep action")
	}

	metrics.RecordAction(string(ev.Action), ev.ObjectType, ev.Size)

	if s.db != nil && s.current != nil && s.current.SweepID != 0 {
		rec := database.ActionRecord{
			Timestamp:    ev.Time,
			Action:       string(ev.Action),
			Path:         ev.Path,
			ObjectType:   ev.ObjectType,
			Reason:       ev.Reason,
			Size:         ev.Size,
			ErrorMessage: ev.ErrorMessage(),
		}
		if err := s.db.RecordAction(s.current.SweepID, rec); err != nil {
			// Don't fail the sweep if the history write fails
			s.logger.WithError(err).Error("Failed to record action to database")
		}
	}
}

// finish updates metrics and history once every target was processed
func (s *Sweeper) finish(res *Result) {
	metrics.RecordSweep(res.Duration(), res.Failed+res.Blocked)

	if _, free, _, err := disk.GetDiskUsage(res.Root); err == nil {
		metrics.SetRootFreeBytes(res.Root, free)
	}

	if s.db != nil && res.SweepID != 0 {
		finished := res.FinishedAt
		summary := database.SweepRecord{
			FinishedAt:         &finished,
			DirectoriesRemoved: res.DirectoriesRemoved,
			FilesRemoved:       res.FilesRemoved,
			NotFound:           res.NotFound,
			Failed:             res.Failed + res.Blocked,
			BytesFreed:         res.BytesFreed,
		}
		if err := s.db.FinishSweep(res.SweepID, summary); err != nil {
			s.logger.WithError(err).Error("Failed to record sweep summary to database")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"directories_removed": res.DirectoriesRemoved,
		"files_removed":       res.FilesRemoved,
		"planned":             res.Planned,
		"not_found":           res.NotFound,
		"failed":              res.Failed,
		"blocked":             res.Blocked,
		"bytes_freed":         res.BytesFreed,
		"duration":            res.Duration().String(),
	}).Info("Sweep complete")
}

func objectType(info fs.FileInfo) string {
	switch {
	case info.Mode()&fs.ModeSymlink != 0:
		return ObjectSymlink
	case info.IsDir():
		return ObjectDirectory
	default:
		return ObjectFile
	}
}

// isNotExist also treats a file where a parent directory was expected
// (app/dist with app being a file) as "nothing there"
func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}
