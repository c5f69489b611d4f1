package connector

import "fmt"

// ConnectionError reports a failure to establish a connector's native
// connection. The underlying cause is available through Unwrap.
type ConnectionError struct {
	Kind string
	Err  error
}

// NewConnectionError wraps err as a connection failure for the given kind.
func NewConnectionError(kind string, err error) *ConnectionError {
	return &ConnectionError{Kind: kind, Err: err}
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connecting %s: %v", e.Kind, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
