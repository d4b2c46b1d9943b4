package errors

import (
	"fmt"
)

// MalformedChunkError is raised when a streamed event cannot be decoded.
// It aborts the current turn but never crashes the session.
type MalformedChunkError struct {
	*ConvoError
}

// NewMalformedChunkError creates a new malformed chunk error
func NewMalformedChunkError(reason string, cause error) *MalformedChunkError {
	return &MalformedChunkError{
		ConvoError: &ConvoError{
			Message: fmt.Sprintf("Malformed stream chunk: %s", reason),
			Cause:   cause,
			Context: &ErrorContext{
				Operation: "Decoding stream event",
				Component: "Chunk Decoder",
				Recoverable: false,
			},
			ExitCode: ExitStreamError,
		},
	}
}

// Unwrap returns the embedded base error
func (e *MalformedChunkError) Unwrap() error {
	return e.ConvoError
}

// StreamInterruptedError is raised when the stream ends without a terminal
// choice. Content accumulated before the interruption is preserved by the
// caller, so the partial turn is never lost.
type StreamInterruptedError struct {
	*ConvoError
	Partial string // Content accumulated before the interruption
}

// NewStreamInterruptedError creates a new stream interrupted error
func NewStreamInterruptedError(partial string, cause error) *StreamInterruptedError {
	return &StreamInterruptedError{
		ConvoError: &ConvoError{
			Message: "Stream ended before completion",
			Cause:   cause,
			Context: &ErrorContext{
				Operation: "Reading response stream",
				Component: "Streaming Client",
				Details: map[string]interface{}{
					"partial_bytes": len(partial),
				},
				Suggestions: []string{
					"Check your network connection",
					"The partial response has been kept in the conversation",
					"Send the message again to retry",
				},
				Recoverable: true,
			},
			ExitCode: ExitStreamError,
		},
		Partial: partial,
	}
}

// Unwrap returns the embedded base error
func (e *StreamInterruptedError) Unwrap() error {
	return e.ConvoError
}

// MalformedToolCallError is raised when a tool-call slot ends the stream
// without ever receiving a function name. The slot is dropped; the rest of
// the turn survives.
type MalformedToolCallError struct {
	*ConvoError
	SlotIndex int
}

// NewMalformedToolCallError creates a new malformed tool call error
func NewMalformedToolCallError(index int) *MalformedToolCallError {
	return &MalformedToolCallError{
		ConvoError: &ConvoError{
			Message: fmt.Sprintf("Tool call at slot %d never received a function name", index),
			Context: &ErrorContext{
				Operation: "Accumulating tool calls",
				Component: "Delta Accumulator",
				Details: map[string]interface{}{
					"slot_index": index,
				},
				Recoverable: true,
			},
			ExitCode: ExitStreamError,
		},
		SlotIndex: index,
	}
}

// Unwrap returns the embedded base error
func (e *MalformedToolCallError) Unwrap() error {
	return e.ConvoError
}
