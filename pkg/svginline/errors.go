package svginline

import "fmt"

// ResolutionError reports a placeholder that exposes no usable source URL.
// The conversion never starts; the document is untouched.
type ResolutionError struct {
	Placeholder string // short description of the offending element
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("no usable source URL on placeholder %s", e.Placeholder)
}

// FetchError reports a failed retrieval of the SVG markup: a transport
// failure or a non-success HTTP response. The placeholder is left intact.
type FetchError struct {
	URL        string
	StatusCode int // zero when the failure happened below HTTP
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch of %s failed with status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch of %s failed: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// MalformedInputError reports fetched markup with no root svg element.
// The conversion aborts without mutating the document.
type MalformedInputError struct {
	URL string
	Err error // parse failure, nil when the markup simply held no svg
}

func (e *MalformedInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("markup fetched from %s is not parseable: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("markup fetched from %s contains no root svg element", e.URL)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}
