package catalog

import "fmt"

// NetworkError reports a transport-level failure: unreachable host,
// timeout, or a broken connection.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ProtocolError reports a response that arrived but could not be used:
// malformed JSON, a schema mismatch, or a non-success code/state embedded
// in the body.
type ProtocolError struct {
	URL     string
	Message string
	Err     error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol error from %s: %s: %v", e.URL, e.Message, e.Err)
	}
	return fmt.Sprintf("protocol error from %s: %s", e.URL, e.Message)
}

func (e *ProtocolError) Unwrap() error { return e.Err }
