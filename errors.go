package anthropic

import (
	"fmt"
)

// APIError is an error the API reported explicitly, either as a non-2xx
// response or as an error event mid-stream. The error type and message are
// carried verbatim from the wire.
type APIError struct {
	StatusCode int    // 0 when reported mid-stream
	Type       string // e.g. "invalid_request_error", "overloaded_error"
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("anthropic: %s (%d): %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("anthropic: %s: %s", e.Type, e.Message)
}

// ConnectionError wraps a transport-level failure: connection reset,
// timeout, or a stream that ended before message_stop. Fatal to the
// stream; never retried by the engine itself.
type ConnectionError struct {
	Cause error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("anthropic: connection error: %v", e.Cause)
}

func (e *ConnectionError) Unwrap() error { return e.Cause }

// DecodeError reports a frame whose payload could not be decoded into an
// event: unparsable JSON or a missing required field. Decode failures are
// fatal; skipping a frame could desynchronize block indices.
type DecodeError struct {
	Reason string
	Cause  error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("anthropic: decoding event: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("anthropic: decoding event: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// ProtocolError reports an event sequence that violates the streaming
// protocol's ordering or set-once invariants.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("anthropic: protocol error: %s", e.Reason)
}

// AbortReason identifies why a stream was cancelled.
type AbortReason string

const (
	AbortUser           AbortReason = "user_abort"
	AbortTimeout        AbortReason = "timeout"
	AbortConnectionLost AbortReason = "connection_lost"
)

// AbortError is the terminal outcome of a cancelled stream. It is a
// distinct terminal state rather than a failure: buffered-but-unprocessed
// data is discarded and no completed message is produced.
type AbortError struct {
	Reason AbortReason
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("anthropic: stream aborted: %s", e.Reason)
}

// ConfigError reports invalid client configuration.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("anthropic: invalid configuration: %s", e.Reason)
}
