package completion

import (
	"errors"
	"fmt"
)

// ErrNoAPIKey is returned when no API key is configured. The gateway stays
// up; every turn fails with this until the key is added.
var ErrNoAPIKey = errors.New("completion: api key not configured")

// TransportError wraps a network-level failure (connection refused, timeout).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("completion: transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServiceError reports a non-success HTTP response from the API.
type ServiceError struct {
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("completion: service returned HTTP %d: %s", e.StatusCode, e.Body)
}

// ProtocolError reports a response payload missing the expected reply text.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("completion: protocol: %s", e.Reason)
}
