package github

import "fmt"

// TransportError reports a network-level failure: connection errors,
// timeouts, context expiry. API responses with non-2xx statuses are not
// transport errors; they are returned as ordinary Response values.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure on %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError reports an unexpected status from an endpoint whose success
// was required to proceed. Constructed by callers interpreting a Response,
// not by the client itself.
type StatusError struct {
	Resource   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s request returned status %d", e.Resource, e.StatusCode)
}
