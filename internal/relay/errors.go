package relay

import (
	"errors"
	"fmt"
)

// Sentinel errors for client construction.
var (
	// ErrEmptyEndpoint indicates that the relay endpoint is empty.
	ErrEmptyEndpoint = errors.New("relay endpoint is empty")

	// ErrInvalidEndpoint indicates that the relay endpoint is not a
	// valid absolute URL.
	ErrInvalidEndpoint = errors.New("invalid relay endpoint")

	// ErrEmptyAuthorization indicates that the relay credential is empty.
	ErrEmptyAuthorization = errors.New("relay authorization is empty")

	// ErrInvalidAuthorization indicates that the relay credential is
	// not a valid header value.
	ErrInvalidAuthorization = errors.New("invalid relay authorization")
)

// RelayError represents a relay client error with details.
type RelayError struct {
	Op       string // Operation that failed
	Endpoint string // Relay endpoint if applicable
	Message  string // Human-readable message
	Cause    error  // Underlying error
}

// Error implements the error interface.
func (e *RelayError) Error() string {
	if e.Endpoint != "" {
		if e.Cause != nil {
			return fmt.Sprintf("relay error [%s] endpoint=%s: %s: %v",
				e.Op, e.Endpoint, e.Message, e.Cause)
		}
		return fmt.Sprintf("relay error [%s] endpoint=%s: %s", e.Op, e.Endpoint, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("relay error [%s]: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("relay error [%s]: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *RelayError) Unwrap() error {
	return e.Cause
}

// NewRelayError creates a new RelayError.
func NewRelayError(op, endpoint, message string, cause error) *RelayError {
	return &RelayError{
		Op:       op,
		Endpoint: endpoint,
		Message:  message,
		Cause:    cause,
	}
}

// IsRelayError checks if an error is a RelayError.
func IsRelayError(err error) bool {
	var relayErr *RelayError
	return errors.As(err, &relayErr)
}
