package bugs

import "fmt"

// UnsupportedSourceError reports a URL whose host matches none of the known
// tracker families.
type UnsupportedSourceError struct {
	Host string
}

func (e *UnsupportedSourceError) Error() string {
	return fmt.Sprintf("unsupported host: %s", e.Host)
}

// MalformedURLError reports a URL whose path does not match the shape
// expected by its dispatched source.
type MalformedURLError struct {
	URL    string
	Reason string
}

func (e *MalformedURLError) Error() string {
	return fmt.Sprintf("malformed url %s: %s", e.URL, e.Reason)
}

// TransportError wraps a network-level fault with the offending URL so a
// batch run can report which entry failed.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
