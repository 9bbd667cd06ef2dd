package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"project-sweeper/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger that writes to stderr only, at info level
func New() *logrus.Logger {
	logger, _ := NewWithConfig(nil)
	return logger
}

// NewWithConfig creates a logger writing to stderr and, when configured,
// to an append-only log file that is rotated by age. The returned closer
// releases the log file and is never nil.
func NewWithConfig(cfg *config.LoggingCfg) (*logrus.Logger, io.Closer) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000000",
	})
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.InfoLevel)

	if cfg == nil {
		return logger, nopCloser{}
	}

	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(level)
	}

	if cfg.File == "" {
		return logger, nopCloser{}
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		logger.Warnf("failed to ensure log directory for %s: %v", cfg.File, err)
		return logger, nopCloser{}
	}

	rotateDays := 30
	if cfg.RotationDays > 0 {
		rotateDays = cfg.RotationDays
	}
	rotateLogsIfNeeded(logger, cfg.File, rotateDays)

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		logger.Warnf("failed to open log file %s: %v", cfg.File, err)
		return logger, nopCloser{}
	}

	logger.SetOutput(io.MultiWriter(os.Stderr, f))
	return logger, f
}

// rotateLogsIfNeeded renames the log file aside once it is older than rotationDays
func rotateLogsIfNeeded(logger *logrus.Logger, logPath string, rotationDays int) {
	info, err := os.Stat(logPath)
	if err != nil {
		// Log file doesn't exist yet, nothing to rotate
		return
	}

	cutoffTime := time.Now().AddDate(0, 0, -rotationDays)
	if !info.ModTime().Before(cutoffTime) {
		return
	}

	rotatedPath := logPath + "." + info.ModTime().Format("20060102-150405")
	if err := os.Rename(logPath, rotatedPath); err != nil {
		logger.Warnf("failed to rotate log file: %v", err)
		return
	}
	// Age the rotated file from now, otherwise the pruning below removes it at once
	now := time.Now()
	if err := os.Chtimes(rotatedPath, now, now); err != nil {
		logger.Warnf("failed to touch rotated log file %s: %v", rotatedPath, err)
	}

	cleanupOldLogs(logger, logPath, rotationDays)
}

// cleanupOldLogs removes rotated log files older than rotationDays
func cleanupOldLogs(logger *logrus.Logger, logPath string, rotationDays int) {
	logDir := filepath.Dir(logPath)
	prefix := filepath.Base(logPath) + "."

	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}

	cutoffTime := time.Now().AddDate(0, 0, -rotationDays)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoffTime) {
			fullPath := filepath.Join(logDir, entry.Name())
			if err := os.Remove(fullPath); err != nil {
				logger.Warnf("failed to remove old log file %s: %v", fullPath, err)
			}
		}
	}
}
