package safety

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrInvalidPath   = errors.New("invalid path")
	ErrProtectedPath = errors.New("protected path")
	ErrOutsideRoot   = errors.New("outside project root")
	ErrIsRoot        = errors.New("refusing to delete the project root")
	ErrTraversal     = errors.New("path traversal detected")
	ErrSymlinkEscape = errors.New("symlink escape detected")
)

// Validator enforces that every delete stays strictly inside one project root
type Validator struct {
	Root           string
	ProtectedPaths []string
}

// NewValidator creates a validator for root with optional additional protected paths
func NewValidator(root string, extraProtected []string) *Validator {
	normalized, err := NormalizePath(root)
	if err != nil {
		normalized = ""
	}
	return &Validator{
		Root:           normalized,
		ProtectedPaths: defaultProtected(extraProtected),
	}
}

// ValidateRoot rejects roots that are system-critical directories themselves.
// A project below one of them, such as /usr/local/src/app, is allowed.
func (v *Validator) ValidateRoot() error {
	if v.Root == "" {
		return ErrInvalidPath
	}
	if IsProtectedPath(v.Root, v.ProtectedPaths) {
		return ErrProtectedPath
	}
	return nil
}

// ValidateDeleteTarget is the single-source-of-truth for delete authorization
// Returns typed error on safety violation
func (v *Validator) ValidateDeleteTarget(path string) error {
	// 1. Normalize path to absolute, cleaned form
	p, err := NormalizePath(path)
	if err != nil {
		return err
	}

	if v.Root == "" {
		return ErrInvalidPath
	}

	// 2. Never the root itself
	if p == v.Root {
		return ErrIsRoot
	}

	// 3. Ensure strictly within the root
	if !IsWithinRoot(p, v.Root) {
		return ErrOutsideRoot
	}

	// 4. Detect path traversal in raw input
	if DetectTraversal(path) {
		return ErrTraversal
	}

	// 5. Detect symlink escape through a parent directory. The final element is
	// removed with unlink semantics, so a symlink there is never followed.
	escaped, err := DetectSymlinkEscape(p, v.Root)
	if err != nil {
		// If the parent vanished, the delete will report not-found on its own
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if escaped {
		return ErrSymlinkEscape
	}

	return nil
}

// NormalizePath converts path to absolute, cleaned form
func NormalizePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ErrInvalidPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", ErrInvalidPath
	}
	return filepath.Clean(abs), nil
}

// DetectTraversal blocks any ".." segment in raw input
func DetectTraversal(raw string) bool {
	parts := strings.Split(filepath.ToSlash(raw), "/")
	for _, p := range parts {
		if p == ".." {
			return true
		}
	}
	return false
}

// IsWithinRoot checks if path is root or below it
func IsWithinRoot(path, root string) bool {
	return hasPathPrefix(filepath.Clean(path), root)
}

// DetectSymlinkEscape resolves the parent directory of cleanAbs and reports
// whether it lands outside the resolved root
func DetectSymlinkEscape(cleanAbs string, root string) (bool, error) {
	resolvedRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return false, err
	}
	resolvedParent, err := filepath.EvalSymlinks(filepath.Dir(cleanAbs))
	if err != nil {
		return false, err
	}
	return !IsWithinRoot(resolvedParent, resolvedRoot), nil
}

// IsProtectedPath checks if path is exactly one of the protected system paths
func IsProtectedPath(path string, protected []string) bool {
	p := filepath.Clean(path)

	// Hard block: "/" exact
	if p == string(os.PathSeparator) {
		return true
	}

	for _, prot := range protected {
		if p == filepath.Clean(prot) {
			return true
		}
	}
	return false
}

// hasPathPrefix checks if path has the given prefix
func hasPathPrefix(path, prefix string) bool {
	path = filepath.Clean(path)
	prefix = filepath.Clean(prefix)

	if prefix == string(os.PathSeparator) {
		return strings.HasPrefix(path, prefix)
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+string(os.PathSeparator))
}

// defaultProtected returns the base set of protected paths plus any extras
func defaultProtected(extra []string) []string {
	base := []string{
		"/",
		"/etc",
		"/bin",
		"/usr",
		"/boot",
		"/lib",
		"/lib64",
		"/sbin",
		"/var",
		"/home",
		"/root",
		"/tmp",
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		base = append(base, home)
	}
	return append(base, extra...)
}
