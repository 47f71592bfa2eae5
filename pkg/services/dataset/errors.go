package dataset

import "fmt"

// LoadError reports a failed load of one source location.
type LoadError struct {
	Location string
	Attempts int
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s after %d attempt(s): %v", e.Location, e.Attempts, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
