package main

import (
	"errors"
	"fmt"
	"os"

	"project-sweeper/internal/exitcodes"
)

const appName = "project-sweeper"

// exitError carries the process exit code out of a cobra RunE
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

func exitCodeFor(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitcodes.InvalidConfig
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		// Strict-mode partial failures were already reported line by line
		if !errors.As(err, &ee) || ee.code != exitcodes.PartialFailure {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		}
		os.Exit(exitCodeFor(err))
	}
}
