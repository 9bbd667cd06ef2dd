package fsops

// FakeDeleter implements Deleter for testing
// Records all delete calls; paths listed in Errors fail with the mapped error
// and everything else is left on disk
type FakeDeleter struct {
	Calls  []string
	Errors map[string]error
}

func (f *FakeDeleter) Remove(path string) error {
	f.Calls = append(f.Calls, "rm:"+path)
	return f.Errors[path]
}

func (f *FakeDeleter) RemoveAll(path string) error {
	f.Calls = append(f.Calls, "rmall:"+path)
	return f.Errors[path]
}

// FailingDeleter performs real deletions except for paths listed in Errors
type FailingDeleter struct {
	OSDeleter
	Errors map[string]error
}

func (f FailingDeleter) Remove(path string) error {
	if err, ok := f.Errors[path]; ok {
		return err
	}
	return f.OSDeleter.Remove(path)
}

func (f FailingDeleter) RemoveAll(path string) error {
	if err, ok := f.Errors[path]; ok {
		return err
	}
	return f.OSDeleter.RemoveAll(path)
}
