package models

import (
	"encoding/json"
	"fmt"
)

// DoneSentinel terminates every chat stream, after either the final chunk or
// an error frame. Clients treat it as end-of-stream.
const DoneSentinel = "[DONE]"

// StreamFrame is one event on the chat output stream. Exactly one of Chunk,
// Error, or Done is meaningful per frame.
type StreamFrame struct {
	Chunk string `json:"chunk,omitempty"`
	Error string `json:"error,omitempty"`
	Done  bool   `json:"-"`
}

// ChunkFrame wraps a text chunk for the wire.
func ChunkFrame(text string) StreamFrame { return StreamFrame{Chunk: text} }

// ErrorFrame wraps an upstream failure message for the wire.
func ErrorFrame(message string) StreamFrame { return StreamFrame{Error: message} }

// DoneFrame is the terminating sentinel frame.
func DoneFrame() StreamFrame { return StreamFrame{Done: true} }

// EncodeSSE renders the frame as a server-sent-event data line.
func (f StreamFrame) EncodeSSE() string {
	if f.Done {
		return fmt.Sprintf("data: %s\n\n", DoneSentinel)
	}
	payload, err := json.Marshal(f)
	if err != nil {
		// Frames only carry strings; marshal cannot realistically fail, but
		// the stream must never emit a malformed line.
		payload = []byte(`{"error":"frame encoding failed"}`)
	}
	return fmt.Sprintf("data: %s\n\n", payload)
}
