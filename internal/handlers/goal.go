package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"coachd/internal/models"
	"coachd/internal/store"
)

// GoalHandler serves goal CRUD. Active goals feed the coaching context.
type GoalHandler struct {
	goals *store.GoalStore
}

func NewGoalHandler(goals *store.GoalStore) *GoalHandler {
	return &GoalHandler{goals: goals}
}

// List returns all of the user's goals, newest first.
func (h *GoalHandler) List(c *fiber.Ctx) error {
	goals, err := h.goals.List(c.Context(), mustUserID(c))
	if err != nil {
		log.Printf("⚠️  [GOALS] Failed to list goals: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list goals"})
	}
	return c.JSON(fiber.Map{"goals": goals})
}

// Create adds a new goal in Active status.
func (h *GoalHandler) Create(c *fiber.Ctx) error {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Description) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Description is required"})
	}

	goal, err := h.goals.Create(c.Context(), mustUserID(c), strings.TrimSpace(req.Title), strings.TrimSpace(req.Description))
	if err != nil {
		log.Printf("⚠️  [GOALS] Failed to create goal: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create goal"})
	}
	return c.Status(fiber.StatusCreated).JSON(goal)
}

// UpdateStatus moves a goal between Active, Completed, and Archived.
func (h *GoalHandler) UpdateStatus(c *fiber.Ctx) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if !models.ValidGoalStatus(req.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Status must be Active, Completed, or Archived"})
	}

	goal, err := h.goals.UpdateStatus(c.Context(), mustUserID(c), c.Params("id"), req.Status)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Goal not found"})
		}
		log.Printf("⚠️  [GOALS] Failed to update goal status: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update goal"})
	}
	return c.JSON(goal)
}

// Delete removes a goal.
func (h *GoalHandler) Delete(c *fiber.Ctx) error {
	if err := h.goals.Delete(c.Context(), mustUserID(c), c.Params("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Goal not found"})
		}
		log.Printf("⚠️  [GOALS] Failed to delete goal: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete goal"})
	}
	return c.JSON(fiber.Map{"success": true})
}
