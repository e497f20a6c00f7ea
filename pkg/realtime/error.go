package realtime

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the controller.
var (
	// ErrNotOpen is returned by Send when the session is not in the Open state.
	ErrNotOpen = errors.New("realtime: session not open")

	// ErrAlreadyConnected is returned by Connect when a connect has already
	// been started on this controller.
	ErrAlreadyConnected = errors.New("realtime: connect already called")

	// ErrClosed is returned when the session was disposed while an operation
	// was in flight.
	ErrClosed = errors.New("realtime: session closed")
)

// NegotiationError reports a failure of the negotiation round trip with the
// remote service. It is fatal: the controller moves to StateFailed and the
// error is surfaced from Connect. The controller never retries.
type NegotiationError struct {
	// Code identifies the failing step (e.g. "session_creation_failed").
	Code string

	// Message is the human-readable error message.
	Message string

	// HTTPStatus is the HTTP status code, if applicable.
	HTTPStatus int

	// Err is the underlying error, if any.
	Err error
}

func (e *NegotiationError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("realtime: %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("realtime: negotiation failed: %s", e.Message)
}

func (e *NegotiationError) Unwrap() error { return e.Err }

// ChannelError reports a transport or channel failure during connection
// establishment. Fatal, same treatment as NegotiationError.
type ChannelError struct {
	// Op is the failing operation ("create transport", "create offer",
	// "apply answer", "create channel", "await channel open").
	Op string

	// Err is the underlying error.
	Err error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("realtime: %s: %v", e.Op, e.Err)
}

func (e *ChannelError) Unwrap() error { return e.Err }

// EventError is the error object carried by error-tagged wire events.
type EventError struct {
	Type    string `json:"type,omitzero"`
	Code    string `json:"code,omitzero"`
	Message string `json:"message,omitzero"`
	Param   string `json:"param,omitzero"`
	EventID string `json:"event_id,omitzero"`
}

// Error implements the error interface.
func (e *EventError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("realtime: %s: %s", e.Code, e.Message)
	}
	if e.Type != "" {
		return fmt.Sprintf("realtime: %s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("realtime: %s", e.Message)
}

// Wire codes used on error-tagged tool outputs.
const (
	errCodeToolNotFound  = "tool_not_found"
	errCodeToolExecution = "tool_execution_error"
)
