package errors

import (
	"fmt"
)

// ToolArgumentError is raised when a tool call's accumulated arguments are
// not valid JSON. It affects only that call; it is reported back to the model
// as a tool result, never as a session failure.
type ToolArgumentError struct {
	*ConvoError
	CallID   string
	ToolName string
}

// NewToolArgumentError creates a new tool argument error
func NewToolArgumentError(callID, toolName string, cause error) *ToolArgumentError {
	return &ToolArgumentError{
		ConvoError: &ConvoError{
			Message: fmt.Sprintf("Tool call '%s' has invalid JSON arguments", toolName),
			Cause:   cause,
			Context: &ErrorContext{
				Operation: "Parsing tool arguments",
				Component: "Turn Classifier",
				Details: map[string]interface{}{
					"call_id": callID,
					"tool":    toolName,
				},
				Recoverable: true,
			},
			ExitCode: ExitToolError,
		},
		CallID:   callID,
		ToolName: toolName,
	}
}

// Unwrap returns the embedded base error
func (e *ToolArgumentError) Unwrap() error {
	return e.ConvoError
}

// ToolExecutionError is raised when an external tool fails while executing.
// Like argument errors it becomes a tool-result payload for the model.
type ToolExecutionError struct {
	*ConvoError
	CallID   string
	ToolName string
}

// NewToolExecutionError creates a new tool execution error
func NewToolExecutionError(callID, toolName string, cause error) *ToolExecutionError {
	return &ToolExecutionError{
		ConvoError: &ConvoError{
			Message: fmt.Sprintf("Tool '%s' failed", toolName),
			Cause:   cause,
			Context: &ErrorContext{
				Operation: "Executing tool",
				Component: "Tool Executor",
				Details: map[string]interface{}{
					"call_id": callID,
					"tool":    toolName,
				},
				Recoverable: true,
			},
			ExitCode: ExitToolError,
		},
		CallID:   callID,
		ToolName: toolName,
	}
}

// Unwrap returns the embedded base error
func (e *ToolExecutionError) Unwrap() error {
	return e.ConvoError
}

// ToolNotFoundError is raised when the model calls a tool that is not registered
type ToolNotFoundError struct {
	*ConvoError
	ToolName string
}

// NewToolNotFoundError creates a new tool not found error
func NewToolNotFoundError(toolName string) *ToolNotFoundError {
	return &ToolNotFoundError{
		ConvoError: &ConvoError{
			Message: fmt.Sprintf("Unknown tool: %s", toolName),
			Context: &ErrorContext{
				Operation: "Looking up tool",
				Component: "Tool Registry",
				Details: map[string]interface{}{
					"tool": toolName,
				},
				Recoverable: true,
			},
			ExitCode: ExitToolError,
		},
		ToolName: toolName,
	}
}

// Unwrap returns the embedded base error
func (e *ToolNotFoundError) Unwrap() error {
	return e.ConvoError
}

// ToolLoopExceededError is raised when the tool execution loop reaches its
// round bound while the model is still requesting tool calls. All messages
// appended so far stay in the conversation.
type ToolLoopExceededError struct {
	*ConvoError
	Rounds int
}

// NewToolLoopExceededError creates a new tool loop exceeded error
func NewToolLoopExceededError(rounds int) *ToolLoopExceededError {
	return &ToolLoopExceededError{
		ConvoError: &ConvoError{
			Message: fmt.Sprintf("Tool loop did not converge after %d rounds", rounds),
			Context: &ErrorContext{
				Operation: "Tool execution loop",
				Component: "Session",
				Details: map[string]interface{}{
					"rounds": rounds,
				},
				Suggestions: []string{
					"Raise max_rounds in your configuration if the task genuinely needs more tool calls",
					"Inspect the conversation so far; every round's messages were kept",
				},
				Recoverable: false,
			},
			ExitCode: ExitToolError,
		},
		Rounds: rounds,
	}
}

// Unwrap returns the embedded base error
func (e *ToolLoopExceededError) Unwrap() error {
	return e.ConvoError
}
