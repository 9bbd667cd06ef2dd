package safety

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestProtectedPathMatching verifies only the system directories themselves are protected
func TestProtectedPathMatching(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"root slash", "/", true},
		{"etc", "/etc", true},
		{"usr", "/usr", true},
		{"var", "/var", true},
		{"home", "/home", true},
		{"tmp", "/tmp", true},
		{"project under usr", "/usr/local/src/app", false},
		{"project under home", "/home/user/app", false},
		{"project under tmp", "/tmp/build/app", false},
	}

	protected := defaultProtected(nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsProtectedPath(tt.path, protected), tt.path)
		})
	}
}

func TestValidateRoot(t *testing.T) {
	assert.ErrorIs(t, NewValidator("/", nil).ValidateRoot(), ErrProtectedPath)
	assert.ErrorIs(t, NewValidator("/etc", nil).ValidateRoot(), ErrProtectedPath)
	assert.ErrorIs(t, NewValidator("", nil).ValidateRoot(), ErrInvalidPath)
	assert.NoError(t, NewValidator(t.TempDir(), nil).ValidateRoot())

	extra := t.TempDir()
	assert.ErrorIs(t, NewValidator(extra, []string{extra}).ValidateRoot(), ErrProtectedPath)
}

// TestRootEnforcement verifies deletes are restricted to strictly below the root
func TestRootEnforcement(t *testing.T) {
	root := t.TempDir()
	v := NewValidator(root, nil)

	tests := []struct {
		name string
		path string
		want error
	}{
		{"nested dir", filepath.Join(root, "app", "node_modules"), nil},
		{"top-level file", filepath.Join(root, "yarn.lock"), nil},
		{"root itself", root, ErrIsRoot},
		{"sibling with shared prefix", root + "-other", ErrOutsideRoot},
		{"system file", "/etc/passwd", ErrOutsideRoot},
		{"traversal back inside", filepath.Join(root, "a") + "/../b", ErrTraversal},
		{"empty", "", ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateDeleteTarget(tt.path)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDetectTraversal(t *testing.T) {
	assert.True(t, DetectTraversal("a/../b"))
	assert.True(t, DetectTraversal(".."))
	assert.False(t, DetectTraversal("a/..b/c"))
	assert.False(t, DetectTraversal("/abs/path"))
}

// TestSymlinkParentEscape verifies a delete reached through a symlinked directory is refused
func TestSymlinkParentEscape(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "yarn.lock"), []byte("x"), 0o644))

	link := filepath.Join(root, "vendor")
	require.NoError(t, os.Symlink(outside, link))

	v := NewValidator(root, nil)
	assert.ErrorIs(t, v.ValidateDeleteTarget(filepath.Join(link, "yarn.lock")), ErrSymlinkEscape)
}

// TestSymlinkLeafAllowed verifies the link itself may be removed; it is unlinked, not followed
func TestSymlinkLeafAllowed(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()

	link := filepath.Join(root, "node_modules")
	require.NoError(t, os.Symlink(outside, link))

	v := NewValidator(root, nil)
	assert.NoError(t, v.ValidateDeleteTarget(link))
}

func TestMissingParentAllowed(t *testing.T) {
	root := t.TempDir()
	v := NewValidator(root, nil)
	assert.NoError(t, v.ValidateDeleteTarget(filepath.Join(root, "gone", "Thumbs.db")))
}
