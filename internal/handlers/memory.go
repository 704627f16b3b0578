package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"coachd/internal/store"
)

// MemoryHandler exposes the extracted memories for review and pruning.
// Memories are written only by the extraction pipeline, never via the API.
type MemoryHandler struct {
	memories *store.MemoryStore
}

func NewMemoryHandler(memories *store.MemoryStore) *MemoryHandler {
	return &MemoryHandler{memories: memories}
}

// List returns all of the user's memories, newest first.
func (h *MemoryHandler) List(c *fiber.Ctx) error {
	memories, err := h.memories.List(c.Context(), mustUserID(c))
	if err != nil {
		log.Printf("⚠️  [MEMORIES] Failed to list memories: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list memories"})
	}
	return c.JSON(fiber.Map{"memories": memories})
}

// Delete removes one memory by id.
func (h *MemoryHandler) Delete(c *fiber.Ctx) error {
	if err := h.memories.Delete(c.Context(), mustUserID(c), c.Params("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Memory not found"})
		}
		log.Printf("⚠️  [MEMORIES] Failed to delete memory: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete memory"})
	}
	return c.JSON(fiber.Map{"success": true})
}
