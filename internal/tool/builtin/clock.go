package builtin

import (
	"context"
	"time"
)

// ClockTool reports the current date and time
type ClockTool struct {
	now func() time.Time
}

// NewClockTool creates a current_time tool
func NewClockTool() *ClockTool {
	return &ClockTool{now: time.Now}
}

func (t *ClockTool) Name() string {
	return "current_time"
}

func (t *ClockTool) Description() string {
	return "Get the current date and time, including the local timezone."
}

func (t *ClockTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func (t *ClockTool) Execute(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	now := t.now()
	zone, offset := now.Zone()
	return map[string]interface{}{
		"rfc3339":      now.Format(time.RFC3339),
		"unix":         now.Unix(),
		"weekday":      now.Weekday().String(),
		"timezone":     zone,
		"utc_offset_s": offset,
	}, nil
}
