package models

import "testing"

func TestEncodeSSE(t *testing.T) {
	tests := []struct {
		name  string
		frame StreamFrame
		want  string
	}{
		{"chunk", ChunkFrame("hello"), "data: {\"chunk\":\"hello\"}\n\n"},
		{"chunk with newline", ChunkFrame("a\nb"), "data: {\"chunk\":\"a\\nb\"}\n\n"},
		{"error", ErrorFrame("provider down"), "data: {\"error\":\"provider down\"}\n\n"},
		{"done", DoneFrame(), "data: [DONE]\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.frame.EncodeSSE(); got != tt.want {
				t.Errorf("EncodeSSE() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidGoalStatus(t *testing.T) {
	for _, status := range []string{GoalStatusActive, GoalStatusCompleted, GoalStatusArchived} {
		if !ValidGoalStatus(status) {
			t.Errorf("ValidGoalStatus(%q) = false", status)
		}
	}
	for _, status := range []string{"", "active", "Done", "archived"} {
		if ValidGoalStatus(status) {
			t.Errorf("ValidGoalStatus(%q) = true", status)
		}
	}
}
