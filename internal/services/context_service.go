package services

import (
	"context"
	"log"
	"strings"

	"coachd/internal/config"
	"coachd/internal/models"
)

const (
	goalContextLimit   = 10
	memoryContextLimit = 15

	goalsHeader    = "=== USER'S CURRENT GOALS ==="
	goalsFooter    = "=== END GOALS ==="
	memoriesHeader = "=== COACH NOTES & INSIGHTS ==="
	memoriesFooter = "=== END COACH NOTES ==="
)

// GoalReader supplies the newest active goals for the goals context block.
type GoalReader interface {
	ListActive(ctx context.Context, userID string, limit int) ([]models.Goal, error)
}

// MemoryReader supplies the newest extracted memories for the notes block.
type MemoryReader interface {
	ListRecent(ctx context.Context, userID string, limit int) ([]models.Memory, error)
}

// SummaryReader exposes the live rolling conversation summary.
type SummaryReader interface {
	Current() string
}

// ContextService assembles the per-request system instruction and the
// provider message list. It is stateless; all inputs come from the stores
// and the prompt store at call time.
type ContextService struct {
	prompts   *config.PromptStore
	goals     GoalReader
	memories  MemoryReader
	summaries SummaryReader
}

func NewContextService(prompts *config.PromptStore, goals GoalReader, memories MemoryReader, summaries SummaryReader) *ContextService {
	return &ContextService{
		prompts:   prompts,
		goals:     goals,
		memories:  memories,
		summaries: summaries,
	}
}

// BuildSystemInstruction composes the system instruction from the base
// persona prompt plus up to three optional blocks: active goals, coach
// notes, and the rolling summary. Empty sources contribute nothing, and a
// store read failure degrades to omitting that block rather than failing
// the chat turn. The same inputs always produce byte-identical output.
func (s *ContextService) BuildSystemInstruction(ctx context.Context, userID string) string {
	sections := []string{s.prompts.Get().SystemPrompt}

	if block := s.goalsBlock(ctx, userID); block != "" {
		sections = append(sections, block)
	}
	if block := s.memoriesBlock(ctx, userID); block != "" {
		sections = append(sections, block)
	}
	if summary := s.summaries.Current(); summary != "" {
		sections = append(sections, "Previous conversation summary: "+summary)
	}

	return strings.Join(sections, "\n\n")
}

func (s *ContextService) goalsBlock(ctx context.Context, userID string) string {
	goals, err := s.goals.ListActive(ctx, userID, goalContextLimit)
	if err != nil {
		log.Printf("⚠️  [CONTEXT] Failed to load goals for user %s: %v", userID, err)
		return ""
	}
	if len(goals) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(goalsHeader)
	for _, goal := range goals {
		b.WriteString("\n• ")
		b.WriteString(goal.Description)
	}
	b.WriteString("\n")
	b.WriteString(goalsFooter)
	return b.String()
}

func (s *ContextService) memoriesBlock(ctx context.Context, userID string) string {
	memories, err := s.memories.ListRecent(ctx, userID, memoryContextLimit)
	if err != nil {
		log.Printf("⚠️  [CONTEXT] Failed to load memories for user %s: %v", userID, err)
		return ""
	}
	if len(memories) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(memoriesHeader)
	for _, memory := range memories {
		b.WriteString("\n• ")
		b.WriteString(memory.Content)
	}
	b.WriteString("\n")
	b.WriteString(memoriesFooter)
	return b.String()
}

// NormalizeRole maps stored roles onto the two roles the provider accepts:
// assistant turns become the model role and everything else, including
// system and unknown roles, becomes the user role.
func NormalizeRole(role string) string {
	switch role {
	case models.RoleAssistant, models.RoleModel:
		return models.RoleModel
	default:
		return models.RoleUser
	}
}

// BuildContents converts a history plus the incoming message into the
// provider content list. Within a turn, attachment parts precede the text
// part; a turn with empty text and no attachments still yields a content
// entry so ordering stays intact. The result always has len(history)+1
// entries, the last being the new user message.
func BuildContents(text string, attachments []models.Attachment, history []models.Turn) []models.Content {
	contents := make([]models.Content, 0, len(history)+1)

	for _, turn := range history {
		contents = append(contents, turnContent(NormalizeRole(turn.Role), turn.Content, turn.Attachments))
	}

	contents = append(contents, turnContent(models.RoleUser, text, attachments))
	return contents
}

func turnContent(role, text string, attachments []models.Attachment) models.Content {
	parts := make([]models.Part, 0, len(attachments)+1)
	for i := range attachments {
		parts = append(parts, models.Part{InlineData: &attachments[i]})
	}
	parts = append(parts, models.Part{Text: text})
	return models.Content{Role: role, Parts: parts}
}
