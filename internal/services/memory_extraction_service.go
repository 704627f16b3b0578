package services

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"coachd/internal/config"
	"coachd/internal/llm"
	"coachd/internal/models"
	"coachd/internal/store"
)

const (
	extractionTemperature = 0.2
	extractionMaxTokens   = 200
	extractionTimeout     = 60 * time.Second
)

// MemoryExtractionService mines durable coaching facts out of completed
// chat exchanges. Extraction runs off the request path: exchanges are
// queued as jobs and drained asynchronously, so a slow or failing provider
// never delays a chat response.
type MemoryExtractionService struct {
	gateway  llm.Gateway
	prompts  *config.PromptStore
	jobs     *store.JobStore
	memories *store.MemoryStore
	profiles *store.ProfileStore
	metrics  *Metrics
}

func NewMemoryExtractionService(gateway llm.Gateway, prompts *config.PromptStore, stores *store.Stores, metrics *Metrics) *MemoryExtractionService {
	return &MemoryExtractionService{
		gateway:  gateway,
		prompts:  prompts,
		jobs:     stores.Jobs,
		memories: stores.Memories,
		profiles: stores.Profiles,
		metrics:  metrics,
	}
}

// Submit queues an exchange for extraction and kicks an async drain so the
// job is usually processed within seconds rather than waiting for the next
// scheduler tick. Queue-full and other enqueue errors are logged, not
// returned: extraction is best-effort from the caller's point of view.
func (s *MemoryExtractionService) Submit(userID, chatID, userMessage, assistantText string) {
	ctx, cancel := context.WithTimeout(context.Background(), extractionTimeout)
	defer cancel()

	if _, err := s.jobs.Enqueue(ctx, userID, chatID, userMessage, assistantText); err != nil {
		log.Printf("⚠️ [MEMORY-EXTRACTION] Failed to enqueue job for user %s: %v", userID, err)
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("⚠️ [MEMORY-EXTRACTION] Recovered from panic in async drain: %v", r)
			}
		}()
		drainCtx, drainCancel := context.WithTimeout(context.Background(), extractionTimeout)
		defer drainCancel()
		if err := s.ProcessPendingJobs(drainCtx); err != nil {
			log.Printf("⚠️ [MEMORY-EXTRACTION] Async drain failed: %v", err)
		}
	}()
}

// ProcessPendingJobs drains the pending queue in enqueue order. Each job is
// marked processing before the LLM call and terminal afterwards; a failed
// job records its error and does not block the rest of the batch.
func (s *MemoryExtractionService) ProcessPendingJobs(ctx context.Context) error {
	jobs, err := s.jobs.ListPending(ctx)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return nil
	}

	log.Printf("🔄 [MEMORY-EXTRACTION] Processing %d pending jobs", len(jobs))
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.jobs.MarkProcessing(ctx, job.ID); err != nil {
			log.Printf("⚠️ [MEMORY-EXTRACTION] Failed to claim job %s: %v", job.ID, err)
			continue
		}

		if err := s.extractAndStore(ctx, job); err != nil {
			log.Printf("⚠️ [MEMORY-EXTRACTION] Job %s failed: %v", job.ID, err)
			s.metrics.extractionJob("failed")
			if markErr := s.jobs.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
				log.Printf("⚠️ [MEMORY-EXTRACTION] Failed to mark job %s failed: %v", job.ID, markErr)
			}
			continue
		}

		s.metrics.extractionJob("completed")
		if err := s.jobs.MarkCompleted(ctx, job.ID); err != nil {
			log.Printf("⚠️ [MEMORY-EXTRACTION] Failed to mark job %s completed: %v", job.ID, err)
		}
	}
	return nil
}

// extractAndStore runs one extraction call and routes the results: entries
// carrying a profile marker update the user's profile, everything else is
// persisted as memories in one batch.
func (s *MemoryExtractionService) extractAndStore(ctx context.Context, job models.ExtractionJob) error {
	prompt := config.Render(s.prompts.Get().MemoryExtractionPrompt, map[string]string{
		"user_message":       job.UserMessage,
		"assistant_response": job.AssistantText,
	})

	resp, err := s.gateway.Complete(ctx, llm.Request{
		Contents: []models.Content{{
			Role:  models.RoleUser,
			Parts: []models.Part{{Text: prompt}},
		}},
		Temperature: extractionTemperature,
		MaxTokens:   extractionMaxTokens,
	})
	if err != nil {
		return err
	}

	entries := ParseMemoryReply(resp.Text)
	if len(entries) == 0 {
		return nil
	}

	memories := make([]string, 0, len(entries))
	for _, entry := range entries {
		if update, ok := ParseProfileFact(entry); ok {
			if err := s.applyProfileFact(ctx, job.UserID, update); err != nil {
				log.Printf("⚠️ [MEMORY-EXTRACTION] Failed to apply profile fact for user %s: %v", job.UserID, err)
			}
			continue
		}
		memories = append(memories, entry)
	}

	if len(memories) > 0 {
		if err := s.memories.CreateBatch(ctx, job.UserID, memories); err != nil {
			return err
		}
		s.metrics.memoriesExtracted(len(memories))
		log.Printf("✅ [MEMORY-EXTRACTION] Stored %d memories for user %s", len(memories), job.UserID)
	}
	return nil
}

func (s *MemoryExtractionService) applyProfileFact(ctx context.Context, userID string, update ProfileUpdate) error {
	profile, err := s.profiles.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	update.Apply(profile)
	return s.profiles.Update(ctx, profile)
}

// ParseMemoryReply interprets the model's extraction reply. An empty reply
// or the literal NONE (any case) means nothing worth keeping. Otherwise the
// substring from the first '[' to the last ']' is parsed as a JSON string
// list, retrying with single quotes swapped for double quotes since models
// frequently emit Python-style lists. Entries are trimmed and empties
// dropped; an unparseable reply yields nothing.
func ParseMemoryReply(content string) []string {
	content = strings.TrimSpace(content)
	if content == "" || strings.EqualFold(content, "NONE") {
		return nil
	}

	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || end <= start {
		return nil
	}
	listText := content[start : end+1]

	var entries []string
	if err := json.Unmarshal([]byte(listText), &entries); err != nil {
		relaxed := strings.ReplaceAll(listText, "'", "\"")
		if err := json.Unmarshal([]byte(relaxed), &entries); err != nil {
			return nil
		}
	}

	cleaned := make([]string, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			cleaned = append(cleaned, entry)
		}
	}
	if len(cleaned) == 0 {
		return nil
	}
	return cleaned
}
