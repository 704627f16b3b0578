package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"coachd/internal/models"
)

func TestBuildSystemInstructionAllBlocks(t *testing.T) {
	svc := NewContextService(
		testPrompts(t),
		&fakeGoals{goals: []models.Goal{
			{Description: "Run a marathon"},
			{Description: "Read more"},
		}},
		&fakeMemories{memories: []models.Memory{
			{Content: "Prefers morning sessions"},
		}},
		&fakeSummary{summary: "user is training for a race"},
	)

	got := svc.BuildSystemInstruction(context.Background(), "u1")

	want := strings.Join([]string{
		"You are a life coach.",
		"=== USER'S CURRENT GOALS ===\n• Run a marathon\n• Read more\n=== END GOALS ===",
		"=== COACH NOTES & INSIGHTS ===\n• Prefers morning sessions\n=== END COACH NOTES ===",
		"Previous conversation summary: user is training for a race",
	}, "\n\n")
	if got != want {
		t.Errorf("instruction mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestBuildSystemInstructionOmitsEmptyBlocks(t *testing.T) {
	svc := NewContextService(testPrompts(t), &fakeGoals{}, &fakeMemories{}, &fakeSummary{})

	got := svc.BuildSystemInstruction(context.Background(), "u1")
	if got != "You are a life coach." {
		t.Errorf("expected bare system prompt, got %q", got)
	}
	if strings.Contains(got, "===") {
		t.Errorf("empty blocks must be omitted entirely, got %q", got)
	}
}

func TestBuildSystemInstructionDegradesOnStoreError(t *testing.T) {
	svc := NewContextService(
		testPrompts(t),
		&fakeGoals{err: errors.New("db locked")},
		&fakeMemories{memories: []models.Memory{{Content: "note"}}},
		&fakeSummary{},
	)

	got := svc.BuildSystemInstruction(context.Background(), "u1")
	if strings.Contains(got, "GOALS") {
		t.Errorf("failed goal read must omit the goals block, got %q", got)
	}
	if !strings.Contains(got, "COACH NOTES") {
		t.Errorf("other blocks must survive a failed read, got %q", got)
	}
}

func TestBuildSystemInstructionDeterministic(t *testing.T) {
	svc := NewContextService(
		testPrompts(t),
		&fakeGoals{goals: []models.Goal{{Description: "Sleep earlier"}}},
		&fakeMemories{memories: []models.Memory{{Content: "night owl"}}},
		&fakeSummary{summary: "recap"},
	)

	first := svc.BuildSystemInstruction(context.Background(), "u1")
	second := svc.BuildSystemInstruction(context.Background(), "u1")
	if first != second {
		t.Errorf("identical state must produce byte-identical output:\n%q\n%q", first, second)
	}
}

func TestNormalizeRole(t *testing.T) {
	cases := map[string]string{
		models.RoleUser:      models.RoleUser,
		models.RoleAssistant: models.RoleModel,
		models.RoleModel:     models.RoleModel,
		models.RoleSystem:    models.RoleUser,
		"tool":               models.RoleUser,
		"":                   models.RoleUser,
	}
	for in, want := range cases {
		if got := NormalizeRole(in); got != want {
			t.Errorf("NormalizeRole(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildContentsLengthInvariant(t *testing.T) {
	history := userTurns(7)
	contents := BuildContents("hello", nil, history)
	if len(contents) != len(history)+1 {
		t.Fatalf("expected %d contents, got %d", len(history)+1, len(contents))
	}

	last := contents[len(contents)-1]
	if last.Role != models.RoleUser {
		t.Errorf("final entry must be the user turn, got role %q", last.Role)
	}
	if last.Parts[len(last.Parts)-1].Text != "hello" {
		t.Errorf("final entry must carry the incoming message")
	}

	// Empty history still yields the single user turn.
	if got := BuildContents("hi", nil, nil); len(got) != 1 {
		t.Errorf("expected 1 content for empty history, got %d", len(got))
	}
}

func TestBuildContentsAttachmentOrdering(t *testing.T) {
	attachments := []models.Attachment{
		{MimeType: "image/png", Data: "aGVsbG8="},
		{MimeType: "image/jpeg", Data: "d29ybGQ="},
	}
	history := []models.Turn{
		{Role: models.RoleAssistant, Content: "sure, send it over"},
	}

	contents := BuildContents("what do you think?", attachments, history)
	if len(contents) != 2 {
		t.Fatalf("expected 2 contents, got %d", len(contents))
	}
	if contents[0].Role != models.RoleModel {
		t.Errorf("assistant history turn must map to model role, got %q", contents[0].Role)
	}

	last := contents[1]
	if len(last.Parts) != 3 {
		t.Fatalf("expected 2 attachment parts + 1 text part, got %d", len(last.Parts))
	}
	if last.Parts[0].InlineData == nil || last.Parts[0].InlineData.MimeType != "image/png" {
		t.Errorf("attachment parts must precede text and keep order")
	}
	if last.Parts[1].InlineData == nil || last.Parts[1].InlineData.MimeType != "image/jpeg" {
		t.Errorf("attachment parts must keep order")
	}
	if last.Parts[2].Text != "what do you think?" {
		t.Errorf("text part must come last")
	}
}

func TestBuildContentsEmptyTextStillEmitsTurn(t *testing.T) {
	contents := BuildContents("", []models.Attachment{{MimeType: "image/png", Data: "eA=="}}, nil)
	if len(contents) != 1 {
		t.Fatalf("expected 1 content, got %d", len(contents))
	}
	parts := contents[0].Parts
	if len(parts) != 2 || parts[0].InlineData == nil || parts[1].Text != "" {
		t.Errorf("attachment-only message must still carry a trailing text part: %+v", parts)
	}
}
