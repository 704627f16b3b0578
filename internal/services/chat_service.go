package services

import (
	"context"
	"io"
	"log"
	"strings"
	"time"

	"coachd/internal/config"
	"coachd/internal/llm"
	"coachd/internal/models"
)

const (
	titleTemperature = 0.7
	titleMaxTokens   = 20
	titleMaxLength   = 50
)

// ExtractionSubmitter hands a finished exchange to the memory extraction
// pipeline.
type ExtractionSubmitter interface {
	Submit(userID, chatID, userMessage, assistantText string)
}

// ChatService orchestrates one coaching exchange: history retention,
// context assembly, provider streaming, and handing the finished exchange
// to memory extraction.
type ChatService struct {
	gateway     llm.Gateway
	contextSvc  *ContextService
	summaries   *SummaryService
	extraction  ExtractionSubmitter
	prompts     *config.PromptStore
	temperature float64
	maxTokens   int
	metrics     *Metrics
}

func NewChatService(gateway llm.Gateway, contextSvc *ContextService, summaries *SummaryService, extraction ExtractionSubmitter, prompts *config.PromptStore, temperature float64, maxTokens int, metrics *Metrics) *ChatService {
	return &ChatService{
		gateway:     gateway,
		contextSvc:  contextSvc,
		summaries:   summaries,
		extraction:  extraction,
		prompts:     prompts,
		temperature: temperature,
		maxTokens:   maxTokens,
		metrics:     metrics,
	}
}

// StreamChat runs one streamed exchange. Frames are delivered through emit
// in provider order; the terminal frame is always the done sentinel, even
// after an error. An emit failure means the client is gone, so streaming
// stops without a terminal frame. The full assistant reply, if any, is
// submitted for memory extraction after the stream closes.
func (s *ChatService) StreamChat(ctx context.Context, userID, chatID, message string, attachments []models.Attachment, history []models.Turn, emit func(models.StreamFrame) error) {
	s.metrics.chatRequest()
	started := time.Now()

	recent, _, err := s.summaries.TruncateAndSummarize(ctx, history)
	if err != nil {
		log.Printf("⚠️  [CHAT] Summarization failed for chat %s: %v", chatID, err)
		s.metrics.chatError("summarization")
		s.emitError(emit, "Failed to prepare conversation history. Please try again.")
		return
	}

	req := llm.Request{
		SystemInstruction: s.contextSvc.BuildSystemInstruction(ctx, userID),
		Contents:          BuildContents(message, attachments, recent),
		Temperature:       s.temperature,
		MaxTokens:         s.maxTokens,
	}

	stream, err := s.gateway.StreamComplete(ctx, req)
	if err != nil {
		log.Printf("⚠️  [CHAT] Failed to open stream for chat %s: %v", chatID, err)
		s.metrics.chatError("provider")
		s.emitError(emit, "The coach is unavailable right now. Please try again.")
		return
	}
	defer stream.Close()

	var full strings.Builder
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("⚠️  [CHAT] Stream error for chat %s: %v", chatID, err)
			s.metrics.chatError("stream")
			s.emitError(emit, "The response was interrupted. Please try again.")
			return
		}
		if chunk == "" {
			continue
		}

		full.WriteString(chunk)
		s.metrics.streamChunk()
		if err := emit(models.ChunkFrame(chunk)); err != nil {
			log.Printf("👁️  [CHAT] Client disconnected from chat %s mid-stream", chatID)
			return
		}
	}

	if reply := full.String(); reply != "" {
		s.extraction.Submit(userID, chatID, message, reply)
	}

	if err := emit(models.DoneFrame()); err != nil {
		log.Printf("👁️  [CHAT] Client disconnected from chat %s before done frame", chatID)
	}
	s.metrics.chatLatency(time.Since(started).Seconds())
}

// emitError sends an error frame followed by the done sentinel; failures to
// deliver either are ignored since the client may already be gone.
func (s *ChatService) emitError(emit func(models.StreamFrame) error, message string) {
	if err := emit(models.ErrorFrame(message)); err != nil {
		return
	}
	_ = emit(models.DoneFrame())
}

// GenerateTitle produces a short chat title from the first user message.
// When the model fails, returns nothing, or overruns the length cap, a
// deterministic fallback is derived from the message itself.
func (s *ChatService) GenerateTitle(ctx context.Context, message string) string {
	prompt := config.Render(s.prompts.Get().TitleGenerationPrompt, map[string]string{
		"user_message": message,
	})

	resp, err := s.gateway.Complete(ctx, llm.Request{
		Contents: []models.Content{{
			Role:  models.RoleUser,
			Parts: []models.Part{{Text: prompt}},
		}},
		Temperature: titleTemperature,
		MaxTokens:   titleMaxTokens,
	})
	if err != nil {
		log.Printf("⚠️  [CHAT] Title generation failed, using fallback: %v", err)
		return fallbackTitle(message)
	}

	title := strings.TrimSpace(resp.Text)
	title = strings.Trim(title, `"'`)
	if title == "" || len(title) > titleMaxLength {
		return fallbackTitle(message)
	}
	return title
}

// fallbackTitle takes the first five words of the message, truncated to 30
// characters with an ellipsis when the message runs longer.
func fallbackTitle(message string) string {
	words := strings.Fields(message)
	if len(words) > 5 {
		words = words[:5]
	}
	title := strings.Join(words, " ")
	if len(title) > 30 {
		title = title[:30]
	}
	if title != message {
		title += "..."
	}
	if title == "" || title == "..." {
		return "New Conversation"
	}
	return title
}
