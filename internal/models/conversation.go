package models

// Turn roles as received from the client
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleModel     = "model"
)

// Attachment is a binary payload carried by a conversation turn. Data is the
// base64-encoded content as received on the wire; it is passed through to the
// provider untouched.
type Attachment struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// Turn is one entry of a conversation history as exchanged with the client.
// Histories are ordered, insertion-order significant, and unbounded.
type Turn struct {
	Role        string       `json:"role"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Part is a single content item within a provider message: either text or an
// inline binary attachment, never both.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *Attachment `json:"inline_data,omitempty"`
}

// Content is one provider-facing message: a normalized role plus ordered
// parts. Turns carrying attachments emit attachment parts first, then text.
type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// ToolCall is a structured function invocation emitted by the model instead
// of (or alongside) free text.
type ToolCall struct {
	Name string            `json:"name"`
	Args map[string]string `json:"args"`
}

// ModelResponse is the normalized form of a provider completion: plain text,
// zero or more tool calls, or both. Produced by a single normalization step
// immediately after the gateway call so callers never touch raw provider
// shapes.
type ModelResponse struct {
	Text      string     `json:"text"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}
