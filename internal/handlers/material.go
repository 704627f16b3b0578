package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"coachd/internal/models"
	"coachd/internal/store"
)

// MaterialHandler serves the book/video library and material feedback.
type MaterialHandler struct {
	materials *store.MaterialStore
}

func NewMaterialHandler(materials *store.MaterialStore) *MaterialHandler {
	return &MaterialHandler{materials: materials}
}

// ListBooks returns the user's book library, newest first.
func (h *MaterialHandler) ListBooks(c *fiber.Ctx) error {
	books, err := h.materials.ListBooks(c.Context(), mustUserID(c))
	if err != nil {
		log.Printf("⚠️  [MATERIALS] Failed to list books: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list books"})
	}
	return c.JSON(fiber.Map{"books": books})
}

// CreateBook adds a book recommendation.
func (h *MaterialHandler) CreateBook(c *fiber.Ctx) error {
	var book models.Book
	if err := c.BodyParser(&book); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(book.Title) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Title is required"})
	}
	book.UserID = mustUserID(c)

	created, err := h.materials.CreateBook(c.Context(), &book)
	if err != nil {
		log.Printf("⚠️  [MATERIALS] Failed to create book: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create book"})
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// ListVideos returns the user's video library, newest first.
func (h *MaterialHandler) ListVideos(c *fiber.Ctx) error {
	videos, err := h.materials.ListVideos(c.Context(), mustUserID(c))
	if err != nil {
		log.Printf("⚠️  [MATERIALS] Failed to list videos: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list videos"})
	}
	return c.JSON(fiber.Map{"videos": videos})
}

// CreateVideo adds a video recommendation.
func (h *MaterialHandler) CreateVideo(c *fiber.Ctx) error {
	var video models.Video
	if err := c.BodyParser(&video); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(video.Title) == "" || strings.TrimSpace(video.URL) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Title and url are required"})
	}
	video.UserID = mustUserID(c)

	created, err := h.materials.CreateVideo(c.Context(), &video)
	if err != nil {
		log.Printf("⚠️  [MATERIALS] Failed to create video: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create video"})
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// CreateFeedback records a rating for a book or video.
func (h *MaterialHandler) CreateFeedback(c *fiber.Ctx) error {
	var fb models.MaterialFeedback
	if err := c.BodyParser(&fb); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	fb.UserID = mustUserID(c)

	created, err := h.materials.CreateFeedback(c.Context(), &fb)
	if err != nil {
		if errors.Is(err, store.ErrInvalidFeedback) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		log.Printf("⚠️  [MATERIALS] Failed to save feedback: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save feedback"})
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}
