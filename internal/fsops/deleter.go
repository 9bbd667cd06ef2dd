package fsops

// Deleter abstracts filesystem delete operations
// Enables tests to inject failures and prove dry-run never deletes
type Deleter interface {
	Remove(path string) error
	RemoveAll(path string) error
}
