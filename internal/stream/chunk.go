package stream

import (
	"encoding/json"

	"github.com/user/convo/internal/chat"
	"github.com/user/convo/internal/errors"
)

// Chunk is one decoded streaming event from a chat-completion response.
// It is ephemeral: folded into an Accumulator and then discarded.
type Chunk struct {
	ID                string      `json:"id"`
	Object            string      `json:"object"`
	Created           int64       `json:"created"`
	Model             string      `json:"model"`
	SystemFingerprint string      `json:"system_fingerprint,omitempty"`
	Choices           []Choice    `json:"choices"`
	Usage             *chat.Usage `json:"usage,omitempty"`
}

// Choice is one completion candidate's slice of a chunk. This system only
// requests a single candidate, so Index is always 0 in practice.
type Choice struct {
	Index        int    `json:"index"`
	Delta        Delta  `json:"delta"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// Delta carries the incremental fields one chunk contributes to the turn
type Delta struct {
	Role             string             `json:"role,omitempty"`
	Content          string             `json:"content,omitempty"`
	ReasoningContent string             `json:"reasoning_content,omitempty"`
	ToolCalls        []ToolCallFragment `json:"tool_calls,omitempty"`
}

// ToolCallFragment is a partial tool call as it streams. Index is the stable
// accumulation key; ID and the function name normally arrive only on the
// fragment that opens the slot. Fragments without an ID are continuations
// for an already-opened slot and must not be discarded.
type ToolCallFragment struct {
	Index    int              `json:"index"`
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type,omitempty"`
	Function FunctionFragment `json:"function"`
}

// FunctionFragment is the function part of a tool-call fragment. Arguments
// is a slice of the slot's running argument string, not standalone JSON.
type FunctionFragment struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// chunkWire mirrors Chunk with pointers so that required fields can be
// distinguished from absent ones at decode time.
type chunkWire struct {
	ID                *string     `json:"id"`
	Object            *string     `json:"object"`
	Created           *int64      `json:"created"`
	Model             *string     `json:"model"`
	SystemFingerprint string      `json:"system_fingerprint"`
	Choices           *[]Choice   `json:"choices"`
	Usage             *chat.Usage `json:"usage"`
}

// DecodeChunk parses one event payload (the substring after the "data:"
// prefix) into a Chunk. The caller must have already filtered the [DONE]
// terminator; it is not a chunk. id, object, created, model and choices are
// required; usage and system_fingerprint are optional. An empty choices
// array is valid (the final usage-only chunk looks like that).
func DecodeChunk(data []byte) (*Chunk, error) {
	var wire chunkWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, errors.NewMalformedChunkError("invalid JSON", err)
	}

	switch {
	case wire.ID == nil:
		return nil, errors.NewMalformedChunkError("missing id", nil)
	case wire.Object == nil:
		return nil, errors.NewMalformedChunkError("missing object", nil)
	case wire.Created == nil:
		return nil, errors.NewMalformedChunkError("missing created", nil)
	case wire.Model == nil:
		return nil, errors.NewMalformedChunkError("missing model", nil)
	case wire.Choices == nil:
		return nil, errors.NewMalformedChunkError("missing choices", nil)
	}

	return &Chunk{
		ID:                *wire.ID,
		Object:            *wire.Object,
		Created:           *wire.Created,
		Model:             *wire.Model,
		SystemFingerprint: wire.SystemFingerprint,
		Choices:           *wire.Choices,
		Usage:             wire.Usage,
	}, nil
}
