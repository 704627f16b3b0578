package services

import (
	"encoding/json"
	"strings"
	"time"

	"coachd/internal/models"
)

// ProfileField identifies which profile attribute an update targets.
type ProfileField string

const (
	FieldFirstName ProfileField = "first_name"
	FieldLastName  ProfileField = "last_name"
	FieldBirthDate ProfileField = "birth_date"
	FieldMemory    ProfileField = "memory"
)

const birthDateLayout = "2006-01-02"

// ProfileUpdate is one validated change to a user profile, produced either
// by the intake tool call path or by marker-prefixed extraction entries.
type ProfileUpdate struct {
	Field ProfileField
	Text  string
	Date  time.Time
}

// ParseProfileUpdate validates a raw key/value pair from a tool call. It
// returns false for unknown keys, empty values, and birth dates that do not
// parse as YYYY-MM-DD; invalid input never partially applies.
func ParseProfileUpdate(key, value string) (ProfileUpdate, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return ProfileUpdate{}, false
	}

	switch ProfileField(key) {
	case FieldFirstName, FieldLastName, FieldMemory:
		return ProfileUpdate{Field: ProfileField(key), Text: value}, true
	case FieldBirthDate:
		date, err := time.Parse(birthDateLayout, value)
		if err != nil {
			return ProfileUpdate{}, false
		}
		return ProfileUpdate{Field: FieldBirthDate, Text: value, Date: date}, true
	default:
		return ProfileUpdate{}, false
	}
}

// profileMarkers maps extraction-entry prefixes to profile fields. Entries
// without one of these markers are ordinary memories.
var profileMarkers = []struct {
	prefix string
	field  ProfileField
}{
	{"FIRST_NAME: ", FieldFirstName},
	{"LAST_NAME: ", FieldLastName},
	{"BIRTH_DATE: ", FieldBirthDate},
	{"MEMORY: ", FieldMemory},
}

// ParseProfileFact checks an extraction entry for a profile marker prefix
// and converts it to a validated update. It returns false when the entry
// carries no marker or the marked value fails validation.
func ParseProfileFact(entry string) (ProfileUpdate, bool) {
	for _, marker := range profileMarkers {
		if strings.HasPrefix(entry, marker.prefix) {
			return ParseProfileUpdate(string(marker.field), strings.TrimPrefix(entry, marker.prefix))
		}
	}
	return ProfileUpdate{}, false
}

// Apply writes the update onto the profile in memory. Memory updates append
// to the profile's notes array; a corrupt notes blob is replaced with a
// fresh array rather than failing the update.
func (u ProfileUpdate) Apply(p *models.UserProfile) {
	switch u.Field {
	case FieldFirstName:
		p.FirstName = u.Text
	case FieldLastName:
		p.LastName = u.Text
	case FieldBirthDate:
		date := u.Date
		p.BirthDate = &date
	case FieldMemory:
		notes := decodeProfileNotes(p.Memories)
		notes = append(notes, u.Text)
		encoded, err := json.Marshal(notes)
		if err != nil {
			return
		}
		p.Memories = string(encoded)
	}
}

// ProfileNoteCount reports how many intake notes the profile has collected.
func ProfileNoteCount(p *models.UserProfile) int {
	return len(decodeProfileNotes(p.Memories))
}

func decodeProfileNotes(blob string) []string {
	if strings.TrimSpace(blob) == "" {
		return []string{}
	}
	var notes []string
	if err := json.Unmarshal([]byte(blob), &notes); err != nil {
		return []string{}
	}
	return notes
}
