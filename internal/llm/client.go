package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"coachd/internal/models"
)

// Client talks to an OpenAI-compatible chat completions endpoint. It is
// constructed once at startup and passed by reference to every consumer; it
// holds no per-request state.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a gateway client. requestsPerSecond throttles outbound
// calls across all callers sharing this client.
func NewClient(baseURL, apiKey, model string, requestsPerSecond float64) *Client {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 2
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), int(requestsPerSecond)+1),
	}
}

// chatMessage is the wire shape of one provider message. Content is either a
// plain string or a list of typed content items when attachments are present.
type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type contentItem struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Tools       []toolWrapper `json:"tools,omitempty"`
}

type toolWrapper struct {
	Type     string          `json:"type"`
	Function ToolDeclaration `json:"function"`
}

// buildMessages maps normalized contents onto provider messages. The system
// instruction becomes the leading system message; model role maps to
// assistant; everything else is sent as user.
func (c *Client) buildMessages(req Request) []chatMessage {
	messages := make([]chatMessage, 0, len(req.Contents)+1)
	if req.SystemInstruction != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemInstruction})
	}

	for _, content := range req.Contents {
		role := "user"
		if content.Role == models.RoleModel {
			role = "assistant"
		}

		hasAttachment := false
		for _, part := range content.Parts {
			if part.InlineData != nil {
				hasAttachment = true
				break
			}
		}

		if !hasAttachment {
			var text strings.Builder
			for _, part := range content.Parts {
				text.WriteString(part.Text)
			}
			messages = append(messages, chatMessage{Role: role, Content: text.String()})
			continue
		}

		items := make([]contentItem, 0, len(content.Parts))
		for _, part := range content.Parts {
			if part.InlineData != nil {
				items = append(items, contentItem{
					Type: "image_url",
					ImageURL: &imageURL{
						URL: fmt.Sprintf("data:%s;base64,%s", part.InlineData.MimeType, part.InlineData.Data),
					},
				})
				continue
			}
			items = append(items, contentItem{Type: "text", Text: part.Text})
		}
		messages = append(messages, chatMessage{Role: role, Content: items})
	}

	return messages
}

func (c *Client) do(ctx context.Context, req Request, stream bool) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	body := chatRequest{
		Model:       c.model,
		Messages:    c.buildMessages(req),
		Stream:      stream,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	for _, tool := range req.Tools {
		body.Tools = append(body.Tools, toolWrapper{Type: "function", Function: tool})
	}

	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return resp, nil
}

// Complete performs a single-shot completion and normalizes the reply.
func (c *Client) Complete(ctx context.Context, req Request) (*models.ModelResponse, error) {
	resp, err := c.do(ctx, req, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var apiResponse struct {
		Choices []struct {
			Message struct {
				Content   string `json:"content"`
				ToolCalls []struct {
					Function struct {
						Name      string `json:"name"`
						Arguments string `json:"arguments"`
					} `json:"function"`
				} `json:"tool_calls"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(apiResponse.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	message := apiResponse.Choices[0].Message
	normalized := &models.ModelResponse{Text: message.Content}

	for _, tc := range message.ToolCalls {
		normalized.ToolCalls = append(normalized.ToolCalls, models.ToolCall{
			Name: tc.Function.Name,
			Args: parseToolArguments(tc.Function.Arguments),
		})
	}

	return normalized, nil
}

// parseToolArguments decodes a tool-call argument blob into a string map.
// Non-string values are stringified; malformed blobs yield an empty map
// rather than an error.
func parseToolArguments(raw string) map[string]string {
	args := map[string]string{}
	if raw == "" {
		return args
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return args
	}
	for key, value := range decoded {
		if s, ok := value.(string); ok {
			args[key] = s
			continue
		}
		args[key] = fmt.Sprintf("%v", value)
	}
	return args
}

// StreamComplete performs a streamed completion. The caller must Close the
// returned stream even when abandoning it early.
func (c *Client) StreamComplete(ctx context.Context, req Request) (Stream, error) {
	resp, err := c.do(ctx, req, true)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(resp.Body)
	// Increase buffer to 1MB for large SSE chunks (default is 64KB)
	const maxCapacity = 1024 * 1024
	scanner.Buffer(make([]byte, maxCapacity), maxCapacity)

	return &sseStream{body: resp.Body, scanner: scanner}, nil
}

// sseStream parses provider SSE lines into text chunks
type sseStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

func (s *sseStream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}

	for s.scanner.Scan() {
		line := s.scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")
		if data == models.DoneSentinel {
			s.done = true
			return "", io.EOF
		}

		var chunk struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if content := chunk.Choices[0].Delta.Content; content != "" {
			return content, nil
		}
	}

	s.done = true
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *sseStream) Close() error {
	return s.body.Close()
}
