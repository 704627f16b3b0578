// Package llm wraps the hosted text-generation API behind a small gateway
// interface: single-shot completion (optionally with tool declarations) and
// token-streamed completion. Responses are normalized into models.ModelResponse
// immediately so callers never handle raw provider shapes.
package llm

import (
	"context"

	"coachd/internal/models"
)

// ToolDeclaration describes one function the model may invoke.
type ToolDeclaration struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// Request carries everything needed for one generation call. The system
// instruction travels on a dedicated channel, separate from the message list.
type Request struct {
	SystemInstruction string
	Contents          []models.Content
	Temperature       float64
	MaxTokens         int
	Tools             []ToolDeclaration
}

// Stream yields text chunks as they arrive. Recv returns io.EOF when the
// underlying stream ends. Close releases the upstream connection and must be
// called even when the consumer stops early.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// Gateway is the LLM invocation interface consumed by the context manager.
type Gateway interface {
	Complete(ctx context.Context, req Request) (*models.ModelResponse, error)
	StreamComplete(ctx context.Context, req Request) (Stream, error)
}
