package directory

import "fmt"

// FetchError reports a failed directory query. StatusCode is set when the upstream
// answered with a non-2xx status; Err is set for network and decode failures.
type FetchError struct {
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("directory fetch failed: status %d", e.StatusCode)
	}
	return fmt.Sprintf("directory fetch failed: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
