package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"coachd/internal/llm"
	"coachd/internal/models"
)

func newTestSummaryService(t *testing.T, gateway *fakeGateway, threshold int, ttl time.Duration) *SummaryService {
	t.Helper()
	path := filepath.Join(t.TempDir(), "summary.json")
	return NewSummaryService(gateway, testPrompts(t), threshold, ttl, path)
}

func TestTruncateAndSummarizeBelowThreshold(t *testing.T) {
	gateway := &fakeGateway{}
	svc := newTestSummaryService(t, gateway, 30, time.Minute)

	history := userTurns(30)
	kept, summary, err := svc.TruncateAndSummarize(context.Background(), history)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(kept) != 30 {
		t.Errorf("expected history unchanged, got %d turns", len(kept))
	}
	if summary != "" {
		t.Errorf("expected no summary, got %q", summary)
	}
	if gateway.requestCount() != 0 {
		t.Errorf("expected no LLM calls at threshold, got %d", gateway.requestCount())
	}
}

func TestTruncateAndSummarizeAboveThreshold(t *testing.T) {
	gateway := &fakeGateway{
		completeFn: func(req llm.Request) (*models.ModelResponse, error) {
			return &models.ModelResponse{Text: "  earlier conversation recap  "}, nil
		},
	}
	svc := newTestSummaryService(t, gateway, 30, time.Minute)

	history := userTurns(35)
	kept, summary, err := svc.TruncateAndSummarize(context.Background(), history)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(kept) != 30 {
		t.Fatalf("expected 30 retained turns, got %d", len(kept))
	}
	if kept[0].Role != history[5].Role || kept[0].Content != history[5].Content {
		t.Errorf("expected oldest retained turn to be history[5], got %+v", kept[0])
	}
	if summary != "earlier conversation recap" {
		t.Errorf("expected trimmed summary text, got %q", summary)
	}

	req := gateway.lastRequest()
	if req.Temperature != summaryTemperature || req.MaxTokens != summaryMaxTokens {
		t.Errorf("unexpected sampling params: temp=%v maxTokens=%d", req.Temperature, req.MaxTokens)
	}
	prompt := req.Contents[0].Parts[0].Text
	for i := 0; i < 5; i++ {
		line := fmt.Sprintf("%s: %s", history[i].Role, history[i].Content)
		if !strings.Contains(prompt, line) {
			t.Errorf("summarization prompt missing overflow line %q", line)
		}
	}
	if strings.Contains(prompt, fmt.Sprintf("%s: %s", history[5].Role, history[5].Content)) {
		t.Errorf("summarization prompt should not contain retained turns")
	}
}

func TestTruncateAndSummarizeFailureIsFatal(t *testing.T) {
	gateway := &fakeGateway{
		completeFn: func(req llm.Request) (*models.ModelResponse, error) {
			return nil, errors.New("provider down")
		},
	}
	svc := newTestSummaryService(t, gateway, 5, time.Minute)

	if _, _, err := svc.TruncateAndSummarize(context.Background(), userTurns(10)); err == nil {
		t.Fatal("expected summarization failure to propagate")
	}
	if svc.Current() != "" {
		t.Errorf("failed summarization must not persist a summary")
	}
}

func TestSummaryPersistedAndReloaded(t *testing.T) {
	gateway := &fakeGateway{
		completeFn: func(req llm.Request) (*models.ModelResponse, error) {
			return &models.ModelResponse{Text: "recap"}, nil
		},
	}
	path := filepath.Join(t.TempDir(), "summary.json")
	svc := NewSummaryService(gateway, testPrompts(t), 5, time.Minute, path)

	if _, _, err := svc.TruncateAndSummarize(context.Background(), userTurns(10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("summary side-store not written: %v", err)
	}
	if !strings.Contains(string(data), `"summary": "recap"`) {
		t.Errorf("unexpected side-store contents: %s", data)
	}

	// A fresh service with a cold cache must read the store back.
	fresh := NewSummaryService(gateway, testPrompts(t), 5, time.Minute, path)
	if got := fresh.Current(); got != "recap" {
		t.Errorf("expected reloaded summary %q, got %q", "recap", got)
	}
}

func TestSummaryCacheExpiry(t *testing.T) {
	gateway := &fakeGateway{
		completeFn: func(req llm.Request) (*models.ModelResponse, error) {
			return &models.ModelResponse{Text: "recap"}, nil
		},
	}
	path := filepath.Join(t.TempDir(), "summary.json")
	svc := NewSummaryService(gateway, testPrompts(t), 5, 20*time.Millisecond, path)

	if _, _, err := svc.TruncateAndSummarize(context.Background(), userTurns(10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := svc.Current(); got != "recap" {
		t.Fatalf("expected cached summary, got %q", got)
	}

	// Past the TTL the cached entry is dead; the store is consulted again.
	time.Sleep(30 * time.Millisecond)
	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove side-store: %v", err)
	}
	if got := svc.Current(); got != "" {
		t.Errorf("expired cache entry must not be served, got %q", got)
	}
}
