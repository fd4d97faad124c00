package erddap

import "fmt"

// TransportError means the server could not be reached or answered with a non-200 status.
type TransportError struct {
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: HTTP status %d: %s", e.URL, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// FormatError means the response could not be decoded into the expected columns and units.
type FormatError struct {
	URL    string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decoding %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("decoding %s: %s", e.URL, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
