package fsops

import "os"

// OSDeleter implements Deleter using real os package calls
type OSDeleter struct{}

func (OSDeleter) Remove(path string) error {
	return os.Remove(path)
}

// RemoveAll removes path and everything beneath it. Unlike os.RemoveAll it
// reports a target that vanished before the call, so callers can tell
// "deleted" from "was never there".
func (OSDeleter) RemoveAll(path string) error {
	if _, err := os.Lstat(path); err != nil {
		return err
	}
	return os.RemoveAll(path)
}
