package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"coachd/internal/config"
	"coachd/internal/llm"
	"coachd/internal/models"
	"coachd/internal/store"
)

// updateProfileTool is the single tool exposed during intake. The model
// calls it once per fact it learns; value validation happens on our side.
var updateProfileTool = llm.ToolDeclaration{
	Name:        "update_user_profile",
	Description: "Save a fact about the user. Call once per fact as soon as you learn it.",
	Parameters: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"key": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"first_name", "last_name", "birth_date", "memory"},
				"description": "Which profile field to update. Use birth_date with YYYY-MM-DD values.",
			},
			"value": map[string]interface{}{
				"type":        "string",
				"description": "The value to store.",
			},
		},
		"required": []string{"key", "value"},
	},
}

// IntakeService drives the structured initial call: a tool-equipped
// conversation that fills in the user's profile before regular coaching
// begins. Intake is text-only; attachments are ignored at this stage.
type IntakeService struct {
	gateway     llm.Gateway
	prompts     *config.PromptStore
	users       *store.UserStore
	profiles    *store.ProfileStore
	minMemories int
}

func NewIntakeService(gateway llm.Gateway, prompts *config.PromptStore, stores *store.Stores, minMemories int) *IntakeService {
	return &IntakeService{
		gateway:     gateway,
		prompts:     prompts,
		users:       stores.Users,
		profiles:    stores.Profiles,
		minMemories: minMemories,
	}
}

// Respond advances the intake conversation by one exchange. Tool calls in
// the model's reply are applied to the profile, then the model is asked to
// continue with the tool results in view. Once the profile holds a full
// name, a birth date, and enough notes, intake is marked complete and the
// closing message is returned instead of the model's text.
func (s *IntakeService) Respond(ctx context.Context, userID, message string, history []models.Turn) (string, error) {
	prompts := s.prompts.Get()
	instruction := config.Render(prompts.InitialCallPrompt, map[string]string{
		"chat_history": intakeTranscript(history),
	})

	req := llm.Request{
		SystemInstruction: instruction,
		Contents: []models.Content{{
			Role:  models.RoleUser,
			Parts: []models.Part{{Text: message}},
		}},
		Tools: []llm.ToolDeclaration{updateProfileTool},
	}

	resp, err := s.gateway.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("intake completion failed: %w", err)
	}

	if len(resp.ToolCalls) > 0 {
		if err := s.applyToolCalls(ctx, userID, resp.ToolCalls); err != nil {
			return "", err
		}

		// Second round: show the model its own tool calls plus the
		// results so it can produce the conversational reply.
		req.Contents = append(req.Contents,
			models.Content{Role: models.RoleModel, Parts: []models.Part{{Text: resp.Text}}},
			models.Content{Role: models.RoleUser, Parts: []models.Part{{Text: "Tool result: profile updated successfully."}}},
		)
		resp, err = s.gateway.Complete(ctx, req)
		if err != nil {
			return "", fmt.Errorf("intake follow-up completion failed: %w", err)
		}
	}

	done, err := s.checkCompletion(ctx, userID)
	if err != nil {
		log.Printf("⚠️  [INTAKE] Completion check failed for user %s: %v", userID, err)
	} else if done {
		log.Printf("✅ [INTAKE] Initial call completed for user %s", userID)
		return prompts.IntakeClosingMessage, nil
	}

	return resp.Text, nil
}

func (s *IntakeService) applyToolCalls(ctx context.Context, userID string, calls []models.ToolCall) error {
	profile, err := s.profiles.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}

	applied := 0
	for _, call := range calls {
		if call.Name != updateProfileTool.Name {
			log.Printf("⚠️  [INTAKE] Ignoring unknown tool call %q", call.Name)
			continue
		}
		update, ok := ParseProfileUpdate(call.Args["key"], call.Args["value"])
		if !ok {
			log.Printf("⚠️  [INTAKE] Ignoring invalid profile update %q=%q", call.Args["key"], call.Args["value"])
			continue
		}
		update.Apply(profile)
		applied++
	}

	if applied == 0 {
		return nil
	}
	return s.profiles.Update(ctx, profile)
}

// checkCompletion decides whether the profile is filled enough to end
// intake: first name, last name, and birth date set, plus a minimum number
// of collected notes.
func (s *IntakeService) checkCompletion(ctx context.Context, userID string) (bool, error) {
	profile, err := s.profiles.GetOrCreate(ctx, userID)
	if err != nil {
		return false, err
	}
	if !profile.IntakeComplete() || ProfileNoteCount(profile) < s.minMemories {
		return false, nil
	}

	if err := s.users.MarkInitialCallCompleted(ctx, userID); err != nil {
		return false, err
	}
	return true, nil
}

// intakeTranscript renders prior intake turns as User:/Coach: lines for the
// intake prompt.
func intakeTranscript(history []models.Turn) string {
	if len(history) == 0 {
		return "(no prior messages)"
	}
	lines := make([]string, 0, len(history))
	for _, turn := range history {
		speaker := "User"
		if NormalizeRole(turn.Role) == models.RoleModel {
			speaker = "Coach"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", speaker, turn.Content))
	}
	return strings.Join(lines, "\n")
}
