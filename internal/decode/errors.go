package decode

import "fmt"

// OpenError reports that a media locator could not be opened for playback:
// missing file, unsupported container, or no decodable stream. The driver
// performs no further work after returning one.
type OpenError struct {
	Locator string
	Err     error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("opening %s: %v", e.Locator, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }
