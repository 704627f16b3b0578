package services

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"coachd/internal/config"
	"coachd/internal/llm"
	"coachd/internal/models"
)

type fakeGateway struct {
	mu       sync.Mutex
	requests []llm.Request

	completeFn func(req llm.Request) (*models.ModelResponse, error)
	streamFn   func(req llm.Request) (llm.Stream, error)
}

func (g *fakeGateway) Complete(ctx context.Context, req llm.Request) (*models.ModelResponse, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()
	if g.completeFn == nil {
		return &models.ModelResponse{Text: "ok"}, nil
	}
	return g.completeFn(req)
}

func (g *fakeGateway) StreamComplete(ctx context.Context, req llm.Request) (llm.Stream, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()
	if g.streamFn == nil {
		return &fakeStream{}, nil
	}
	return g.streamFn(req)
}

func (g *fakeGateway) requestCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

func (g *fakeGateway) lastRequest() llm.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[len(g.requests)-1]
}

type fakeStream struct {
	chunks []string
	err    error // returned after chunks are exhausted, instead of EOF
	pos    int
	closed bool
}

func (s *fakeStream) Recv() (string, error) {
	if s.pos < len(s.chunks) {
		chunk := s.chunks[s.pos]
		s.pos++
		return chunk, nil
	}
	if s.err != nil {
		return "", s.err
	}
	return "", io.EOF
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

type fakeGoals struct {
	goals []models.Goal
	err   error
}

func (f *fakeGoals) ListActive(ctx context.Context, userID string, limit int) ([]models.Goal, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.goals) > limit {
		return f.goals[:limit], nil
	}
	return f.goals, nil
}

type fakeMemories struct {
	memories []models.Memory
	err      error
}

func (f *fakeMemories) ListRecent(ctx context.Context, userID string, limit int) ([]models.Memory, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.memories) > limit {
		return f.memories[:limit], nil
	}
	return f.memories, nil
}

type fakeSummary struct {
	summary string
}

func (f *fakeSummary) Current() string { return f.summary }

type fakeSubmitter struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeSubmitter) Submit(userID, chatID, userMessage, assistantText string) {
	f.mu.Lock()
	f.calls = append(f.calls, assistantText)
	f.mu.Unlock()
}

func (f *fakeSubmitter) submitted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func testPrompts(t *testing.T) *config.PromptStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "prompts.json")
	data, err := json.Marshal(map[string]string{
		"system_prompt":               "You are a life coach.",
		"conversation_summary_prompt": "Summarize:\n{history_text}",
		"memory_extraction_prompt":    "Extract from {user_message} / {assistant_response}",
		"initial_call_prompt":         "Intake. History:\n{chat_history}",
		"title_generation_prompt":     "Title for: {user_message}",
		"intake_closing_message":      "Thanks, we're all set!",
	})
	if err != nil {
		t.Fatalf("failed to marshal prompts: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write prompts file: %v", err)
	}

	store, err := config.LoadPrompts(path)
	if err != nil {
		t.Fatalf("failed to load prompts: %v", err)
	}
	return store
}

func userTurns(n int) []models.Turn {
	turns := make([]models.Turn, n)
	for i := range turns {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		turns[i] = models.Turn{Role: role, Content: string(rune('a' + i%26))}
	}
	return turns
}
