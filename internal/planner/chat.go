package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// Chat sampling settings of the planners.
const (
	Temperature = 0.7
	MaxTokens   = 2000

	MonthlyMaxTokens  = 2500
	StrategyMaxTokens = 4000
)

// ChatRequest is one system + user exchange.
type ChatRequest struct {
	System string
	User   string
	// MaxTokens caps the reply; zero means MaxTokens.
	MaxTokens int
}

func (r ChatRequest) maxTokens() int {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}
	return MaxTokens
}

// ChatClient sends one exchange and returns the reply text.
// Implementations must request JSON output from the model.
type ChatClient interface {
	CompleteJSON(ctx context.Context, req ChatRequest) (string, error)
}

// ChatCompleter is the part of *openai.Client used by OpenAIChat.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIChat is a ChatClient backed by the OpenAI chat completions API.
type OpenAIChat struct {
	client ChatCompleter
	model  string
}

// NewOpenAIChat creates an OpenAIChat. An empty model uses gpt-4o.
func NewOpenAIChat(client ChatCompleter, model string) *OpenAIChat {
	if model == "" {
		model = openai.GPT4o
	}
	return &OpenAIChat{client: client, model: model}
}

// CompleteJSON implements ChatClient.
func (c *OpenAIChat) CompleteJSON(ctx context.Context, req ChatRequest) (string, error) {
	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		Temperature:    Temperature,
		MaxTokens:      req.maxTokens(),
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		log.Error().Err(err).Str("model", c.model).Dur("duration", time.Since(start)).Msg("Chat completion failed")
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	log.Debug().
		Str("model", c.model).
		Int("total_tokens", resp.Usage.TotalTokens).
		Dur("duration", time.Since(start)).
		Msg("Chat completion received")
	return resp.Choices[0].Message.Content, nil
}

// GeminiChat is a ChatClient backed by Gemini GenerateContent.
type GeminiChat struct {
	client *genai.Client
	model  string
}

// NewGeminiChat creates a GeminiChat for a text model such as
// gemini-2.5-flash.
func NewGeminiChat(client *genai.Client, model string) *GeminiChat {
	return &GeminiChat{client: client, model: model}
}

// CompleteJSON implements ChatClient.
func (c *GeminiChat) CompleteJSON(ctx context.Context, req ChatRequest) (string, error) {
	temp := float32(Temperature)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: req.System}}},
		Temperature:       &temp,
		MaxOutputTokens:   int32(req.maxTokens()),
		ResponseMIMEType:  "application/json",
	}
	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: req.User}}}}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		log.Error().Err(err).Str("model", c.model).Dur("duration", time.Since(start)).Msg("Gemini planner call failed")
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("received empty response from Gemini API")
	}
	return resp.Text(), nil
}
