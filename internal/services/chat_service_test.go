package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"coachd/internal/llm"
	"coachd/internal/models"
)

func newTestChatService(t *testing.T, gateway *fakeGateway, submitter *fakeSubmitter) *ChatService {
	t.Helper()
	prompts := testPrompts(t)
	summaries := newTestSummaryService(t, gateway, 30, time.Minute)
	contextSvc := NewContextService(prompts, &fakeGoals{}, &fakeMemories{}, summaries)
	return NewChatService(gateway, contextSvc, summaries, submitter, prompts, 0.7, 2048, nil)
}

func collectFrames(svc *ChatService, history []models.Turn, message string) []models.StreamFrame {
	var frames []models.StreamFrame
	svc.StreamChat(context.Background(), "u1", "c1", message, nil, history, func(frame models.StreamFrame) error {
		frames = append(frames, frame)
		return nil
	})
	return frames
}

func TestStreamChatDeliversChunksThenDone(t *testing.T) {
	gateway := &fakeGateway{
		streamFn: func(req llm.Request) (llm.Stream, error) {
			return &fakeStream{chunks: []string{"Hel", "lo ", "there"}}, nil
		},
	}
	submitter := &fakeSubmitter{}
	svc := newTestChatService(t, gateway, submitter)

	frames := collectFrames(svc, userTurns(4), "how are you?")

	if len(frames) != 4 {
		t.Fatalf("expected 3 chunk frames + done, got %d frames", len(frames))
	}
	for i, want := range []string{"Hel", "lo ", "there"} {
		if frames[i].Chunk != want {
			t.Errorf("frame %d chunk = %q, want %q", i, frames[i].Chunk, want)
		}
	}
	if !frames[3].Done {
		t.Errorf("stream must terminate with the done sentinel")
	}

	if got := submitter.submitted(); len(got) != 1 || got[0] != "Hello there" {
		t.Errorf("expected full reply submitted for extraction, got %#v", got)
	}
}

func TestStreamChatContentsInvariant(t *testing.T) {
	gateway := &fakeGateway{
		streamFn: func(req llm.Request) (llm.Stream, error) {
			return &fakeStream{chunks: []string{"ok"}}, nil
		},
	}
	svc := newTestChatService(t, gateway, &fakeSubmitter{})

	history := userTurns(6)
	collectFrames(svc, history, "ping")

	req := gateway.lastRequest()
	if len(req.Contents) != len(history)+1 {
		t.Errorf("expected %d contents, got %d", len(history)+1, len(req.Contents))
	}
	if req.SystemInstruction == "" {
		t.Errorf("system instruction must be set")
	}
}

func TestStreamChatProviderErrorEmitsErrorFrame(t *testing.T) {
	gateway := &fakeGateway{
		streamFn: func(req llm.Request) (llm.Stream, error) {
			return nil, errors.New("connection refused")
		},
	}
	submitter := &fakeSubmitter{}
	svc := newTestChatService(t, gateway, submitter)

	frames := collectFrames(svc, nil, "hello")

	if len(frames) != 2 {
		t.Fatalf("expected error frame + done, got %d frames", len(frames))
	}
	if frames[0].Error == "" {
		t.Errorf("first frame must carry the error")
	}
	if !frames[1].Done {
		t.Errorf("error streams must still terminate with done")
	}
	if len(submitter.submitted()) != 0 {
		t.Errorf("failed exchanges must not reach extraction")
	}
}

func TestStreamChatMidStreamError(t *testing.T) {
	gateway := &fakeGateway{
		streamFn: func(req llm.Request) (llm.Stream, error) {
			return &fakeStream{chunks: []string{"partial "}, err: errors.New("reset by peer")}, nil
		},
	}
	submitter := &fakeSubmitter{}
	svc := newTestChatService(t, gateway, submitter)

	frames := collectFrames(svc, nil, "hello")

	if frames[0].Chunk != "partial " {
		t.Errorf("chunks before the failure must be delivered")
	}
	last := frames[len(frames)-1]
	if !last.Done {
		t.Errorf("interrupted streams must still terminate with done")
	}
	if frames[len(frames)-2].Error == "" {
		t.Errorf("interruption must surface as an error frame")
	}
	if len(submitter.submitted()) != 0 {
		t.Errorf("interrupted exchanges must not reach extraction")
	}
}

func TestStreamChatClientDisconnect(t *testing.T) {
	stream := &fakeStream{chunks: []string{"a", "b", "c"}}
	gateway := &fakeGateway{
		streamFn: func(req llm.Request) (llm.Stream, error) { return stream, nil },
	}
	svc := newTestChatService(t, gateway, &fakeSubmitter{})

	emitted := 0
	svc.StreamChat(context.Background(), "u1", "c1", "hi", nil, nil, func(frame models.StreamFrame) error {
		emitted++
		return errors.New("broken pipe")
	})

	if emitted != 1 {
		t.Errorf("emission must stop after the first failed write, got %d", emitted)
	}
	if !stream.closed {
		t.Errorf("gateway stream must be closed on disconnect")
	}
}

func TestStreamChatSummarizationFailure(t *testing.T) {
	gateway := &fakeGateway{
		completeFn: func(req llm.Request) (*models.ModelResponse, error) {
			return nil, errors.New("provider down")
		},
	}
	svc := newTestChatService(t, gateway, &fakeSubmitter{})

	frames := collectFrames(svc, userTurns(35), "hello")

	if len(frames) != 2 || frames[0].Error == "" || !frames[1].Done {
		t.Fatalf("summarization failure must yield error + done, got %#v", frames)
	}
}

func TestGenerateTitle(t *testing.T) {
	gateway := &fakeGateway{
		completeFn: func(req llm.Request) (*models.ModelResponse, error) {
			return &models.ModelResponse{Text: `"Career Change Plans"`}, nil
		},
	}
	svc := newTestChatService(t, gateway, &fakeSubmitter{})

	if got := svc.GenerateTitle(context.Background(), "I want to switch careers"); got != "Career Change Plans" {
		t.Errorf("wrapping quotes must be stripped, got %q", got)
	}

	req := gateway.lastRequest()
	if req.MaxTokens != titleMaxTokens || req.Temperature != titleTemperature {
		t.Errorf("unexpected title sampling params: temp=%v maxTokens=%d", req.Temperature, req.MaxTokens)
	}
}

func TestGenerateTitleFallback(t *testing.T) {
	gateway := &fakeGateway{
		completeFn: func(req llm.Request) (*models.ModelResponse, error) {
			return nil, errors.New("provider down")
		},
	}
	svc := newTestChatService(t, gateway, &fakeSubmitter{})

	message := "I have been thinking a lot about what I want from my career lately"
	got := svc.GenerateTitle(context.Background(), message)
	if got != "I have been thinking a..." {
		t.Errorf("fallback title = %q", got)
	}
}

func TestGenerateTitleFallbackOnOverlongResult(t *testing.T) {
	gateway := &fakeGateway{
		completeFn: func(req llm.Request) (*models.ModelResponse, error) {
			return &models.ModelResponse{Text: "This title is way too long to ever be shown in a sidebar listing"}, nil
		},
	}
	svc := newTestChatService(t, gateway, &fakeSubmitter{})

	got := svc.GenerateTitle(context.Background(), "short message")
	if got != "short message" {
		t.Errorf("overlong model title must fall back to the message, got %q", got)
	}
}
