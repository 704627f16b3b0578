package services

import (
	"testing"
	"time"

	"coachd/internal/models"
)

func TestParseProfileUpdate(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		value  string
		wantOK bool
		field  ProfileField
	}{
		{"first name", "first_name", "Ada", true, FieldFirstName},
		{"last name", "last_name", "Lovelace", true, FieldLastName},
		{"valid birth date", "birth_date", "1990-12-10", true, FieldBirthDate},
		{"memory", "memory", "loves puzzles", true, FieldMemory},
		{"trims whitespace", "first_name", "  Ada  ", true, FieldFirstName},
		{"invalid date", "birth_date", "not-a-date", false, ""},
		{"partial date", "birth_date", "1990-12", false, ""},
		{"unknown key", "favorite_color", "blue", false, ""},
		{"empty value", "first_name", "   ", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			update, ok := ParseProfileUpdate(tt.key, tt.value)
			if ok != tt.wantOK {
				t.Fatalf("ParseProfileUpdate(%q, %q) ok = %v, want %v", tt.key, tt.value, ok, tt.wantOK)
			}
			if ok && update.Field != tt.field {
				t.Errorf("field = %q, want %q", update.Field, tt.field)
			}
		})
	}
}

func TestParseProfileUpdateBirthDateValue(t *testing.T) {
	update, ok := ParseProfileUpdate("birth_date", "1985-06-15")
	if !ok {
		t.Fatal("expected valid birth date to parse")
	}
	want := time.Date(1985, time.June, 15, 0, 0, 0, 0, time.UTC)
	if !update.Date.Equal(want) {
		t.Errorf("parsed date = %v, want %v", update.Date, want)
	}
}

func TestParseProfileFactRouting(t *testing.T) {
	tests := []struct {
		entry  string
		wantOK bool
		field  ProfileField
	}{
		{"FIRST_NAME: Ada", true, FieldFirstName},
		{"LAST_NAME: Lovelace", true, FieldLastName},
		{"BIRTH_DATE: 1990-12-10", true, FieldBirthDate},
		{"MEMORY: wants to change careers", true, FieldMemory},
		{"BIRTH_DATE: unknown", false, ""},
		{"Took up rock climbing recently", false, ""},
		{"first_name: lowercase marker", false, ""},
	}

	for _, tt := range tests {
		update, ok := ParseProfileFact(tt.entry)
		if ok != tt.wantOK {
			t.Errorf("ParseProfileFact(%q) ok = %v, want %v", tt.entry, ok, tt.wantOK)
			continue
		}
		if ok && update.Field != tt.field {
			t.Errorf("ParseProfileFact(%q) field = %q, want %q", tt.entry, update.Field, tt.field)
		}
	}
}

func TestApplyProfileUpdate(t *testing.T) {
	profile := &models.UserProfile{Memories: "[]"}

	for _, entry := range []string{"FIRST_NAME: Ada", "LAST_NAME: Lovelace", "BIRTH_DATE: 1990-12-10"} {
		update, ok := ParseProfileFact(entry)
		if !ok {
			t.Fatalf("expected %q to parse", entry)
		}
		update.Apply(profile)
	}

	if profile.FirstName != "Ada" || profile.LastName != "Lovelace" {
		t.Errorf("names not applied: %+v", profile)
	}
	if profile.BirthDate == nil || profile.BirthDate.Year() != 1990 {
		t.Errorf("birth date not applied: %v", profile.BirthDate)
	}
	if !profile.IntakeComplete() {
		t.Errorf("profile with all required fields must be intake-complete")
	}
}

func TestApplyMemoryAppends(t *testing.T) {
	profile := &models.UserProfile{Memories: `["existing note"]`}

	update, _ := ParseProfileUpdate("memory", "new note")
	update.Apply(profile)

	if got := ProfileNoteCount(profile); got != 2 {
		t.Fatalf("expected 2 notes, got %d (blob: %s)", got, profile.Memories)
	}
}

func TestApplyMemoryResetsCorruptBlob(t *testing.T) {
	profile := &models.UserProfile{Memories: "{not json"}

	update, _ := ParseProfileUpdate("memory", "fresh start")
	update.Apply(profile)

	if got := ProfileNoteCount(profile); got != 1 {
		t.Errorf("corrupt blob must be replaced by a fresh array, got %d notes (blob: %s)", got, profile.Memories)
	}
}
