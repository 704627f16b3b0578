package services

import (
	"reflect"
	"testing"
)

func TestParseMemoryReply(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"empty", "", nil},
		{"whitespace only", "   \n\t  ", nil},
		{"none uppercase", "NONE", nil},
		{"none lowercase", "none", nil},
		{"none mixed case", "None", nil},
		{"plain json list", `["works in finance", "has two kids"]`, []string{"works in finance", "has two kids"}},
		{"list with chatter around it", "Here you go:\n[\"enjoys hiking\"]\nHope that helps!", []string{"enjoys hiking"}},
		{"python style single quotes", `['wants a promotion', 'fears public speaking']`, []string{"wants a promotion", "fears public speaking"}},
		{"entries trimmed and empties dropped", `["  spaced out  ", "", "   "]`, []string{"spaced out"}},
		{"no brackets", "just some prose about the user", nil},
		{"unbalanced brackets", "]oops[", nil},
		{"malformed list", `[not, valid, json]`, nil},
		{"list of all empties", `["", "  "]`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseMemoryReply(tt.content)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseMemoryReply(%q) = %#v, want %#v", tt.content, got, tt.want)
			}
		})
	}
}
