package handlers

import (
	"bufio"
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"coachd/internal/logging"
	"coachd/internal/models"
	"coachd/internal/services"
	"coachd/internal/store"
)

const streamTimeout = 5 * time.Minute

// ChatHandler serves chat CRUD and the streaming coach endpoint.
type ChatHandler struct {
	chats    *store.ChatStore
	messages *store.MessageStore
	service  *services.ChatService
}

func NewChatHandler(chats *store.ChatStore, messages *store.MessageStore, service *services.ChatService) *ChatHandler {
	return &ChatHandler{chats: chats, messages: messages, service: service}
}

type streamChatRequest struct {
	ChatID      string              `json:"chat_id"`
	Message     string              `json:"message"`
	Attachments []models.Attachment `json:"attachments,omitempty"`
}

// Stream runs one streamed coaching exchange over SSE. The user message is
// persisted before the provider call (duplicates within a minute are
// skipped) and the assistant reply after the stream finishes.
func (h *ChatHandler) Stream(c *fiber.Ctx) error {
	userID := mustUserID(c)

	var req streamChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Message) == "" && len(req.Attachments) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message is required"})
	}

	chat, err := h.chats.Get(c.Context(), userID, req.ChatID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Chat not found"})
		}
		log.Printf("⚠️  [CHAT] Failed to load chat %s: %v", req.ChatID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load chat"})
	}

	if _, err := h.messages.Save(c.Context(), userID, chat.ID, req.Message, models.SenderUser); err != nil {
		log.Printf("⚠️  [CHAT] Failed to persist user message: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save message"})
	}

	history, err := h.loadHistory(c.Context(), chat.ID)
	if err != nil {
		log.Printf("⚠️  [CHAT] Failed to load history for chat %s: %v", chat.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load history"})
	}
	// The incoming message was just persisted; the service appends it as the
	// final turn itself.
	if n := len(history); n > 0 && history[n-1].Role == models.RoleUser && history[n-1].Content == req.Message {
		history = history[:n-1]
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	service, messages := h.service, h.messages
	logger := logging.WithChat(userID, chat.ID)
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithTimeout(context.Background(), streamTimeout)
		defer cancel()

		var reply strings.Builder
		emit := func(frame models.StreamFrame) error {
			if frame.Chunk != "" {
				reply.WriteString(frame.Chunk)
			}
			if _, err := w.WriteString(frame.EncodeSSE()); err != nil {
				return err
			}
			return w.Flush()
		}

		service.StreamChat(ctx, userID, chat.ID, req.Message, req.Attachments, history, emit)

		if text := reply.String(); text != "" {
			if _, err := messages.Save(ctx, userID, chat.ID, text, models.SenderAssistant); err != nil {
				logger.Warn("failed to persist assistant reply", "error", err)
			}
		}
	}))
	return nil
}

func (h *ChatHandler) loadHistory(ctx context.Context, chatID string) ([]models.Turn, error) {
	msgs, err := h.messages.ListByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	history := make([]models.Turn, 0, len(msgs))
	for _, msg := range msgs {
		role := models.RoleUser
		if msg.Sender == models.SenderAssistant {
			role = models.RoleAssistant
		}
		history = append(history, models.Turn{Role: role, Content: msg.Content})
	}
	return history, nil
}

// Create starts a new chat, defaulting the title when none is given.
func (h *ChatHandler) Create(c *fiber.Ctx) error {
	var req struct {
		Title string `json:"title"`
	}
	// Empty body is fine; the title falls back to a default.
	_ = c.BodyParser(&req)
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "New Conversation"
	}

	chat, err := h.chats.Create(c.Context(), mustUserID(c), title)
	if err != nil {
		log.Printf("⚠️  [CHAT] Failed to create chat: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create chat"})
	}
	return c.Status(fiber.StatusCreated).JSON(chat)
}

// List returns the user's chats, most recently updated first.
func (h *ChatHandler) List(c *fiber.Ctx) error {
	chats, err := h.chats.List(c.Context(), mustUserID(c))
	if err != nil {
		log.Printf("⚠️  [CHAT] Failed to list chats: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list chats"})
	}
	return c.JSON(fiber.Map{"chats": chats})
}

// Messages returns the messages of one chat in chronological order.
func (h *ChatHandler) Messages(c *fiber.Ctx) error {
	userID := mustUserID(c)
	chatID := c.Params("id")

	if _, err := h.chats.Get(c.Context(), userID, chatID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Chat not found"})
		}
		log.Printf("⚠️  [CHAT] Failed to load chat %s: %v", chatID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load chat"})
	}

	msgs, err := h.messages.ListByChat(c.Context(), chatID)
	if err != nil {
		log.Printf("⚠️  [CHAT] Failed to list messages for chat %s: %v", chatID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list messages"})
	}
	return c.JSON(fiber.Map{"messages": msgs})
}

// Rename updates a chat title.
func (h *ChatHandler) Rename(c *fiber.Ctx) error {
	var req struct {
		Title string `json:"title"`
	}
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Title is required"})
	}

	chat, err := h.chats.Rename(c.Context(), mustUserID(c), c.Params("id"), strings.TrimSpace(req.Title))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Chat not found"})
		}
		log.Printf("⚠️  [CHAT] Failed to rename chat: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to rename chat"})
	}
	return c.JSON(chat)
}

// Delete removes a chat and its messages.
func (h *ChatHandler) Delete(c *fiber.Ctx) error {
	if err := h.chats.Delete(c.Context(), mustUserID(c), c.Params("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Chat not found"})
		}
		log.Printf("⚠️  [CHAT] Failed to delete chat: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete chat"})
	}
	return c.JSON(fiber.Map{"success": true})
}

// GenerateTitle produces a short title from the chat's opening message.
func (h *ChatHandler) GenerateTitle(c *fiber.Ctx) error {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message is required"})
	}

	title := h.service.GenerateTitle(c.Context(), req.Message)
	return c.JSON(fiber.Map{"title": title})
}
