package helpers

import (
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type QuoteChartsError struct {
	Message string
	Cause   error
}

func (e *QuoteChartsError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *QuoteChartsError) Unwrap() error {
	return e.Cause
}

// TransportError reports a dial, read or close failure of the feed connection.
type TransportError struct{ QuoteChartsError }

// MalformedFrameError reports an inbound frame that could not be classified.
// Frame holds a truncated copy of the payload for diagnostics.
type MalformedFrameError struct {
	QuoteChartsError
	Frame string
}

type DatabaseError struct{ QuoteChartsError }

// ErrUnknownRange is returned when a range key is not configured.
var ErrUnknownRange = errors.New("unknown range")

// -----------------------------------------------------------------------------

const maxFrameExcerpt = 120

// NewTransportError wraps a transport failure
func NewTransportError(op string, cause error) *TransportError {
	return &TransportError{QuoteChartsError{Message: fmt.Sprintf("transport %s failed", op), Cause: cause}}
}

// -----------------------------------------------------------------------------

// NewMalformedFrameError wraps a parse failure for the given payload
func NewMalformedFrameError(reason string, frame []byte, cause error) *MalformedFrameError {
	excerpt := string(frame)
	if len(excerpt) > maxFrameExcerpt {
		excerpt = excerpt[:maxFrameExcerpt] + "..."
	}
	return &MalformedFrameError{
		QuoteChartsError: QuoteChartsError{Message: "malformed frame: " + reason, Cause: cause},
		Frame:            excerpt,
	}
}

// -----------------------------------------------------------------------------

// NewDatabaseError wraps an archive failure
func NewDatabaseError(op string, cause error) *DatabaseError {
	return &DatabaseError{QuoteChartsError{Message: fmt.Sprintf("database %s failed", op), Cause: cause}}
}

// -----------------------------------------------------------------------------

// IsMalformedFrame reports whether err is (or wraps) a MalformedFrameError
func IsMalformedFrame(err error) bool {
	var target *MalformedFrameError
	return errors.As(err, &target)
}

// -----------------------------------------------------------------------------

// IsTransport reports whether err is (or wraps) a TransportError
func IsTransport(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}
