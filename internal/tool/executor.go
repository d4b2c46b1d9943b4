package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/user/convo/internal/errors"
	"github.com/user/convo/internal/logging"
	"github.com/user/convo/internal/stream"
	"github.com/user/convo/internal/workerpool"
)

// Result is the outcome of one tool call, ready to become a tool-role
// message. Content is always set: a failed call carries a structured error
// payload so the model can react, and a cancelled call carries a cancelled
// payload so the conversation never holds a dangling tool call.
type Result struct {
	CallID   string
	ToolName string
	Content  string
	IsError  bool
}

// Executor dispatches the tool calls of one round. Independent calls run
// concurrently through a bounded pool, but results are reassembled in the
// original call order, since message ordering is part of the wire contract.
type Executor struct {
	registry *Registry
	pool     *workerpool.Pool
	logger   *logging.Logger
}

// NewExecutor creates an executor over the given registry. maxParallel
// bounds concurrent tool executions within a round.
func NewExecutor(registry *Registry, maxParallel int, logger *logging.Logger) *Executor {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Executor{
		registry: registry,
		pool:     workerpool.New(maxParallel),
		logger:   logger,
	}
}

// Run executes every invocation of one round and returns one Result per
// invocation, in the same order.
func (e *Executor) Run(ctx context.Context, invocations []stream.ToolInvocation) []Result {
	tasks := make([]workerpool.Task, len(invocations))
	for i, inv := range invocations {
		inv := inv
		tasks[i] = func(ctx context.Context) (interface{}, error) {
			return e.runOne(ctx, inv)
		}
	}

	poolResults := e.pool.Run(ctx, tasks)

	results := make([]Result, len(invocations))
	for i, pr := range poolResults {
		if pr.Error != nil {
			// The task never ran (pool cancelled before acquiring a worker).
			results[i] = errorResult(invocations[i], "cancelled before execution: "+pr.Error.Error())
			continue
		}
		results[i] = pr.Value.(Result)
	}
	return results
}

func (e *Executor) runOne(ctx context.Context, inv stream.ToolInvocation) (Result, error) {
	call := inv.Call

	if inv.ArgErr != nil {
		e.logger.Warn("tool call has invalid arguments",
			logging.String("tool", call.Name),
			logging.String("call_id", call.ID),
			logging.Error(inv.ArgErr))
		return errorResult(inv, "invalid arguments: "+inv.ArgErr.Error()), nil
	}

	t, err := e.registry.Get(call.Name)
	if err != nil {
		e.logger.Warn("unknown tool requested", logging.String("tool", call.Name))
		return errorResult(inv, err.Error()), nil
	}

	value, err := t.Execute(ctx, inv.Args)
	if err != nil {
		if ctx.Err() != nil {
			return errorResult(inv, "cancelled"), nil
		}
		execErr := errors.NewToolExecutionError(call.ID, call.Name, err)
		e.logger.Warn("tool execution failed",
			logging.String("tool", call.Name),
			logging.String("call_id", call.ID),
			logging.Error(err))
		return errorResult(inv, execErr.Error()), nil
	}

	content, err := json.Marshal(value)
	if err != nil {
		return errorResult(inv, fmt.Sprintf("result not serializable: %v", err)), nil
	}

	return Result{
		CallID:   call.ID,
		ToolName: call.Name,
		Content:  string(content),
	}, nil
}

// errorPayload is the structured shape returned to the model for any call
// that could not produce a real result.
type errorPayload struct {
	Error string `json:"error"`
}

func errorResult(inv stream.ToolInvocation, msg string) Result {
	content, _ := json.Marshal(errorPayload{Error: msg})
	return Result{
		CallID:   inv.Call.ID,
		ToolName: inv.Call.Name,
		Content:  string(content),
		IsError:  true,
	}
}
