package tool

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/user/convo/internal/errors"
)

type fakeTool struct {
	name    string
	result  interface{}
	err     error
	blockOn chan struct{}
}

func (f *fakeTool) Name() string        { return f.name }
func (f *fakeTool) Description() string { return "fake tool " + f.name }
func (f *fakeTool) Parameters() map[string]interface{} {
	return map[string]interface{}{"type": "object"}
}

func (f *fakeTool) Execute(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	if f.blockOn != nil {
		select {
		case <-f.blockOn:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.result, f.err
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeTool{name: "alpha"})

	got, err := r.Get("alpha")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name() != "alpha" {
		t.Errorf("Expected 'alpha', got '%s'", got.Name())
	}
	if r.Len() != 1 {
		t.Errorf("Expected 1 tool, got %d", r.Len())
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get("missing")
	var notFound *apperrors.ToolNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected ToolNotFoundError, got %v", err)
	}
	if notFound.ToolName != "missing" {
		t.Errorf("Expected tool name 'missing', got '%s'", notFound.ToolName)
	}
}

func TestRegistryReplaceSameName(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeTool{name: "x", result: "old"})
	r.Register(&fakeTool{name: "x", result: "new"})

	if r.Len() != 1 {
		t.Errorf("Expected 1 tool after replacement, got %d", r.Len())
	}
	got, _ := r.Get("x")
	value, _ := got.Execute(context.Background(), nil)
	if value != "new" {
		t.Errorf("Expected replacement to win, got %v", value)
	}
}

func TestRegistryDefinitionsSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeTool{name: "zebra"})
	r.Register(&fakeTool{name: "alpha"})
	r.Register(&fakeTool{name: "mango"})

	defs := r.Definitions()
	if len(defs) != 3 {
		t.Fatalf("Expected 3 definitions, got %d", len(defs))
	}
	want := []string{"alpha", "mango", "zebra"}
	for i, d := range defs {
		if d.Name != want[i] {
			t.Errorf("Definition %d: expected '%s', got '%s'", i, want[i], d.Name)
		}
	}
}
