package planner

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

type fakeCompleter struct {
	req  openai.ChatCompletionRequest
	resp openai.ChatCompletionResponse
	err  error
}

func (f *fakeCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.req = req
	return f.resp, f.err
}

func TestOpenAIChat_Request(t *testing.T) {
	fc := &fakeCompleter{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: `{"lunes":{}}`}}},
	}}
	c := NewOpenAIChat(fc, "")

	out, err := c.CompleteJSON(context.Background(), ChatRequest{System: "sys", User: "usr"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"lunes":{}}` {
		t.Errorf("reply = %q", out)
	}

	if fc.req.Model != openai.GPT4o {
		t.Errorf("model = %q, want %q", fc.req.Model, openai.GPT4o)
	}
	if math.Abs(float64(fc.req.Temperature)-0.7) > 1e-6 {
		t.Errorf("temperature = %v, want 0.7", fc.req.Temperature)
	}
	if fc.req.MaxTokens != MaxTokens {
		t.Errorf("max tokens = %d, want %d", fc.req.MaxTokens, MaxTokens)
	}
	if fc.req.ResponseFormat == nil || fc.req.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONObject {
		t.Errorf("response format should be json_object, got %+v", fc.req.ResponseFormat)
	}
	if len(fc.req.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(fc.req.Messages))
	}
	if fc.req.Messages[0].Role != openai.ChatMessageRoleSystem || fc.req.Messages[1].Content != "usr" {
		t.Errorf("unexpected messages: %+v", fc.req.Messages)
	}
}

func TestOpenAIChat_TokenCap(t *testing.T) {
	fc := &fakeCompleter{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "{}"}}},
	}}
	if _, err := NewOpenAIChat(fc, "").CompleteJSON(context.Background(), ChatRequest{User: "u", MaxTokens: MonthlyMaxTokens}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fc.req.MaxTokens != 2500 {
		t.Errorf("max tokens = %d, want 2500", fc.req.MaxTokens)
	}
}

func TestOpenAIChat_Errors(t *testing.T) {
	_, err := NewOpenAIChat(&fakeCompleter{err: errors.New("boom")}, "gpt-4o-mini").CompleteJSON(context.Background(), ChatRequest{System: "s", User: "u"})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected boom error, got %v", err)
	}

	_, err = NewOpenAIChat(&fakeCompleter{}, "").CompleteJSON(context.Background(), ChatRequest{System: "s", User: "u"})
	if err == nil || !strings.Contains(err.Error(), "no choices") {
		t.Errorf("expected no choices error, got %v", err)
	}
}
