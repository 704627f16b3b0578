package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"

	"coachd/internal/config"
	"coachd/internal/llm"
	"coachd/internal/models"
)

// summaryCacheKey is the single cache slot for the rolling summary. The
// cache (and the side-store behind it) is process-wide, not per-user:
// concurrent users in one process share the slot. Known limitation, kept
// for contract compatibility; a per-user key is the obvious evolution.
const summaryCacheKey = "conversation_summary"

const (
	summaryTemperature = 0.3
	summaryMaxTokens   = 500
)

// summaryRecord is the durable side-store shape: one JSON record at a fixed
// location, overwritten wholesale on every update.
type summaryRecord struct {
	Summary     string `json:"summary"`
	LastUpdated string `json:"last_updated"`
}

// SummaryService owns the rolling conversation summary: it truncates
// overlong histories, summarizes the overflow via the LLM gateway, persists
// the result (last-writer-wins), and serves the live summary through a TTL
// cache backed by the durable store.
type SummaryService struct {
	gateway   llm.Gateway
	prompts   *config.PromptStore
	threshold int
	storePath string
	cache     *cache.Cache

	mu sync.Mutex // serializes side-store writes
}

// NewSummaryService creates a summary service. threshold is the history
// length above which truncation kicks in; ttl bounds how long a cached
// summary is served without consulting the store.
func NewSummaryService(gateway llm.Gateway, prompts *config.PromptStore, threshold int, ttl time.Duration, storePath string) *SummaryService {
	return &SummaryService{
		gateway:   gateway,
		prompts:   prompts,
		threshold: threshold,
		storePath: storePath,
		cache:     cache.New(ttl, ttl),
	}
}

// TruncateAndSummarize applies the retention contract to a history of N
// turns with threshold T:
//
//	N <= T: no LLM call, history returned unchanged, summary empty.
//	N > T:  turns [0, N-T) are summarized in one gateway call, the summary
//	        replaces any previous one, and the last T turns are returned.
//
// A summarization failure is fatal for the turn: without the summary the
// dropped turns would be silently lost, so the error propagates.
func (s *SummaryService) TruncateAndSummarize(ctx context.Context, history []models.Turn) ([]models.Turn, string, error) {
	n := len(history)
	if n <= s.threshold {
		return history, "", nil
	}

	overflow := history[:n-s.threshold]
	recent := history[n-s.threshold:]

	prompt := config.Render(s.prompts.Get().ConversationSummaryPrompt, map[string]string{
		"history_text": Transcript(overflow),
	})

	resp, err := s.gateway.Complete(ctx, llm.Request{
		Contents: []models.Content{{
			Role:  models.RoleUser,
			Parts: []models.Part{{Text: prompt}},
		}},
		Temperature: summaryTemperature,
		MaxTokens:   summaryMaxTokens,
	})
	if err != nil {
		return nil, "", fmt.Errorf("history summarization failed: %w", err)
	}

	summary := strings.TrimSpace(resp.Text)
	if err := s.save(summary); err != nil {
		return nil, "", err
	}

	log.Printf("💾 [SUMMARY] Summarized %d overflow turns, keeping %d", len(overflow), len(recent))
	return recent, summary, nil
}

// Current returns the live rolling summary, or "" if none exists. Expired
// cache entries are never served; on a miss the durable store is read and
// re-cached.
func (s *SummaryService) Current() string {
	if cached, found := s.cache.Get(summaryCacheKey); found {
		if summary, ok := cached.(string); ok {
			return summary
		}
	}

	summary := s.loadFromStore()
	if summary != "" {
		s.cache.Set(summaryCacheKey, summary, cache.DefaultExpiration)
	}
	return summary
}

func (s *SummaryService) loadFromStore() string {
	data, err := os.ReadFile(s.storePath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("⚠️  [SUMMARY] Failed to read summary store: %v", err)
		}
		return ""
	}

	var record summaryRecord
	if err := json.Unmarshal(data, &record); err != nil {
		log.Printf("⚠️  [SUMMARY] Malformed summary store, ignoring: %v", err)
		return ""
	}
	return record.Summary
}

// save overwrites the side-store and refreshes the cache. Last writer wins;
// there is no merge logic.
func (s *SummaryService) save(summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := summaryRecord{
		Summary:     summary,
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary record: %w", err)
	}

	if err := os.WriteFile(s.storePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to persist summary: %w", err)
	}

	s.cache.Set(summaryCacheKey, summary, cache.DefaultExpiration)
	return nil
}

// Transcript renders history turns as role-prefixed lines joined by
// newlines, the form fed to the summarization prompt.
func Transcript(history []models.Turn) string {
	lines := make([]string, 0, len(history))
	for _, turn := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", turn.Role, turn.Content))
	}
	return strings.Join(lines, "\n")
}
