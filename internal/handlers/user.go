package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"coachd/internal/models"
	"coachd/internal/services"
	"coachd/internal/store"
)

// UserHandler serves account status and the initial intake call.
type UserHandler struct {
	users    *store.UserStore
	profiles *store.ProfileStore
	intake   *services.IntakeService
}

func NewUserHandler(users *store.UserStore, profiles *store.ProfileStore, intake *services.IntakeService) *UserHandler {
	return &UserHandler{users: users, profiles: profiles, intake: intake}
}

// Status reports whether the user has finished the initial intake call.
func (h *UserHandler) Status(c *fiber.Ctx) error {
	user, err := h.users.GetByID(c.Context(), mustUserID(c))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		log.Printf("⚠️  [USER] Failed to load user: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load user"})
	}
	return c.JSON(fiber.Map{
		"initial_call_completed": user.InitialCallCompleted,
		"email":                  user.Email,
	})
}

// Profile returns the user's intake profile, creating an empty one if none
// exists yet.
func (h *UserHandler) Profile(c *fiber.Ctx) error {
	profile, err := h.profiles.GetOrCreate(c.Context(), mustUserID(c))
	if err != nil {
		log.Printf("⚠️  [USER] Failed to load profile: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load profile"})
	}
	return c.JSON(profile)
}

// InitializeIntake opens the intake conversation with the coach's first
// question. Idempotent: already-completed users get a short notice instead.
func (h *UserHandler) InitializeIntake(c *fiber.Ctx) error {
	userID := mustUserID(c)

	user, err := h.users.GetByID(c.Context(), userID)
	if err != nil {
		log.Printf("⚠️  [INTAKE] Failed to load user: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to start intake"})
	}
	if user.InitialCallCompleted {
		return c.JSON(fiber.Map{
			"message":   "You've already completed your initial call.",
			"completed": true,
		})
	}

	reply, err := h.intake.Respond(c.Context(), userID, "Hello, I'm ready to start.", nil)
	if err != nil {
		log.Printf("⚠️  [INTAKE] Failed to initialize intake for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to start intake"})
	}
	return c.JSON(fiber.Map{"message": reply, "completed": false})
}

type intakeChatRequest struct {
	Message string        `json:"message"`
	History []models.Turn `json:"history,omitempty"`
}

// IntakeChat advances the intake conversation by one user message. The
// response reports completion so the client knows when to switch to
// regular coaching.
func (h *UserHandler) IntakeChat(c *fiber.Ctx) error {
	userID := mustUserID(c)

	var req intakeChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message is required"})
	}

	reply, err := h.intake.Respond(c.Context(), userID, req.Message, req.History)
	if err != nil {
		log.Printf("⚠️  [INTAKE] Intake exchange failed for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Intake call failed, please try again"})
	}

	user, err := h.users.GetByID(c.Context(), userID)
	completed := err == nil && user.InitialCallCompleted

	return c.JSON(fiber.Map{"message": reply, "completed": completed})
}
