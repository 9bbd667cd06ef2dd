package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultTargetDirectories are removed wholesale, relative to the project root.
// The set matches an Electron + Vite project layout.
var DefaultTargetDirectories = []string{
	"node_modules",
	"dist",
	"out",
	"build",
	".webpack",
	"release",
	"app/dist",
	"app/node_modules",
	"temp",
	"__pycache__",
}

// DefaultTargetFilenames are removed wherever they appear in the tree.
var DefaultTargetFilenames = []string{
	".DS_Store",
	"Thumbs.db",
	"npm-debug.log",
	"yarn-error.log",
	"package-lock.json",
	"pnpm-lock.yaml",
	"yarn.lock",
}

type MetricsCfg struct {
	TextfilePath string `yaml:"textfile_path" json:"textfile_path"` // node-exporter textfile output, empty disables
}

type LoggingCfg struct {
	File         string `yaml:"file" json:"file"`                   // Optional log file, empty logs to stderr only
	Level        string `yaml:"level" json:"level"`                 // logrus level name
	RotationDays int    `yaml:"rotation_days" json:"rotation_days"` // Days to keep logs before rotation
}

type Config struct {
	Root              string     `yaml:"root" json:"root"`
	TargetDirectories []string   `yaml:"target_directories" json:"target_directories"`
	TargetFilenames   []string   `yaml:"target_filenames" json:"target_filenames"`
	DryRun            bool       `yaml:"dry_run" json:"dry_run"`
	Strict            bool       `yaml:"strict" json:"strict"`               // Deletion failures produce a non-zero exit
	DatabasePath      string     `yaml:"database_path" json:"database_path"` // SQLite sweep history, empty disables
	Metrics           MetricsCfg `yaml:"metrics" json:"metrics"`
	Logging           LoggingCfg `yaml:"logging" json:"logging"`
}

var (
	ErrInvalidRoot     = errors.New("root must be an existing directory")
	ErrAbsoluteTarget  = errors.New("target directory must be relative to root")
	ErrTraversalTarget = errors.New("target directory must not contain '..'")
	ErrEmptyTarget     = errors.New("target entry must not be empty")
	ErrFilenameHasPath = errors.New("target filename must be a bare name")
)

// ExecDir returns the directory containing the running executable.
// Tests replace it to avoid depending on the test binary location.
var ExecDir = func() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	dir := filepath.Dir(exe)
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}

// Default returns a config with the built-in target lists rooted at the executable's directory.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.validateAndDefault(); err != nil {
		return nil, fmt.Errorf("default config: %w", err)
	}
	return cfg, nil
}

func Load(configPath string) (*Config, error) {
	f, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := decode(f)
	if err != nil {
		return nil, err
	}
	if err := cfg.validateAndDefault(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader) (*Config, error) {
	cfg := &Config{}
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(cfg); err != nil {
		// An empty file is a valid config that takes every default
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return cfg, nil
}

// Validate re-checks a config after command-line overrides were applied.
func (c *Config) Validate() error {
	return c.validateAndDefault()
}

func (c *Config) validateAndDefault() error {
	if c.Root == "" {
		c.Root = ExecDir()
	}

	if len(c.TargetDirectories) == 0 {
		c.TargetDirectories = append([]string(nil), DefaultTargetDirectories...)
	}
	if len(c.TargetFilenames) == 0 {
		c.TargetFilenames = append([]string(nil), DefaultTargetFilenames...)
	}

	if c.Logging.RotationDays <= 0 {
		c.Logging.RotationDays = 30
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	dirs := make([]string, 0, len(c.TargetDirectories))
	for _, d := range c.TargetDirectories {
		cd, err := cleanRelative(d)
		if err != nil {
			return err
		}
		dirs = append(dirs, cd)
	}
	c.TargetDirectories = dirs

	for _, name := range c.TargetFilenames {
		if err := checkBareName(name); err != nil {
			return err
		}
	}

	return nil
}

// Resolve makes the root absolute, resolves symlinks in it and checks that it
// is an existing directory.
func (c *Config) Resolve() error {
	abs, err := filepath.Abs(c.Root)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRoot, c.Root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRoot, abs, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, abs)
	}
	// The tree walk does not follow symlinks, so a linked root must be walked at its target
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRoot, abs, err)
	}
	c.Root = filepath.Clean(resolved)
	return nil
}

// cleanRelative normalizes a slash-separated relative directory entry.
func cleanRelative(p string) (string, error) {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		return "", ErrEmptyTarget
	}
	slashed := filepath.ToSlash(trimmed)
	if path.IsAbs(slashed) || filepath.IsAbs(trimmed) || filepath.VolumeName(trimmed) != "" {
		return "", fmt.Errorf("%w: %s", ErrAbsoluteTarget, p)
	}
	for _, part := range strings.Split(slashed, "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: %s", ErrTraversalTarget, p)
		}
	}
	cleaned := path.Clean(slashed)
	if cleaned == "." {
		return "", fmt.Errorf("%w: %s", ErrEmptyTarget, p)
	}
	return cleaned, nil
}

func checkBareName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyTarget
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: %s", ErrFilenameHasPath, name)
	}
	return nil
}
