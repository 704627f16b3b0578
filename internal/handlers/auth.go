package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"coachd/internal/store"
	"coachd/pkg/auth"
)

// AuthHandler serves registration, login, and token refresh.
type AuthHandler struct {
	users *store.UserStore
	jwt   *auth.JWTAuth
}

func NewAuthHandler(users *store.UserStore, jwt *auth.JWTAuth) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account and returns a token pair.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "A valid email is required"})
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if existing, err := h.users.GetByEmail(c.Context(), req.Email); err == nil && existing != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Email already registered"})
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Printf("⚠️  [AUTH] Failed to check existing email: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Registration failed"})
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("⚠️  [AUTH] Failed to hash password: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Registration failed"})
	}

	user, err := h.users.Create(c.Context(), req.Email, hash)
	if err != nil {
		log.Printf("⚠️  [AUTH] Failed to create user: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Registration failed"})
	}

	access, refresh, err := h.jwt.GenerateTokens(user.ID, user.Email)
	if err != nil {
		log.Printf("⚠️  [AUTH] Failed to issue tokens: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Registration failed"})
	}

	log.Printf("✅ [AUTH] Registered user %s", user.ID)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":          user,
		"access_token":  access,
		"refresh_token": refresh,
	})
}

// Login verifies credentials and returns a token pair.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	user, err := h.users.GetByEmail(c.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("⚠️  [AUTH] Login lookup failed: %v", err)
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil || !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}

	access, refresh, err := h.jwt.GenerateTokens(user.ID, user.Email)
	if err != nil {
		log.Printf("⚠️  [AUTH] Failed to issue tokens: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Login failed"})
	}

	return c.JSON(fiber.Map{
		"user":          user,
		"access_token":  access,
		"refresh_token": refresh,
	})
}

// Refresh exchanges a valid refresh token for a fresh token pair.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "refresh_token is required"})
	}

	identity, err := h.jwt.VerifyAccessToken(req.RefreshToken)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired refresh token"})
	}

	// Re-read the user so a deleted account can't keep refreshing.
	user, err := h.users.GetByID(c.Context(), identity.ID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired refresh token"})
	}

	access, refresh, err := h.jwt.GenerateTokens(user.ID, user.Email)
	if err != nil {
		log.Printf("⚠️  [AUTH] Failed to issue tokens: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Token refresh failed"})
	}

	return c.JSON(fiber.Map{
		"access_token":  access,
		"refresh_token": refresh,
	})
}
