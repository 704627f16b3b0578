package handlers

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"coachd/internal/models"
	"coachd/internal/store"
)

// MessageHandler serves the flat per-user message log.
type MessageHandler struct {
	messages *store.MessageStore
}

func NewMessageHandler(messages *store.MessageStore) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// List returns all of the user's messages in chronological order.
func (h *MessageHandler) List(c *fiber.Ctx) error {
	msgs, err := h.messages.ListByUser(c.Context(), mustUserID(c))
	if err != nil {
		log.Printf("⚠️  [MESSAGES] Failed to list messages: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list messages"})
	}
	return c.JSON(fiber.Map{"messages": msgs})
}

type saveMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
	Sender string `json:"sender"`
}

// Save appends a message to the log. An identical message in the same chat
// within the last minute is treated as an accidental resend and skipped.
func (h *MessageHandler) Save(c *fiber.Ctx) error {
	var req saveMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Text is required"})
	}
	if req.Sender != models.SenderUser && req.Sender != models.SenderAssistant {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Sender must be user or assistant"})
	}

	saved, err := h.messages.Save(c.Context(), mustUserID(c), req.ChatID, req.Text, req.Sender)
	if err != nil {
		log.Printf("⚠️  [MESSAGES] Failed to save message: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save message"})
	}
	if !saved {
		return c.JSON(fiber.Map{"success": true, "skipped": true})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true})
}

// Clear deletes the user's entire message log.
func (h *MessageHandler) Clear(c *fiber.Ctx) error {
	deleted, err := h.messages.ClearByUser(c.Context(), mustUserID(c))
	if err != nil {
		log.Printf("⚠️  [MESSAGES] Failed to clear messages: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to clear messages"})
	}
	return c.JSON(fiber.Map{"success": true, "deleted": deleted})
}
