package imagegen

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// GeminiGenerator produces images with a Gemini image model. Reference
// images are sent as inline parts ahead of the text prompt.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

var (
	_ Generator     = (*GeminiGenerator)(nil)
	_ FormatChecker = (*GeminiGenerator)(nil)
)

// NewGeminiGenerator creates a genai client for the Gemini API backend.
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return NewGeminiGeneratorWithClient(client, model), nil
}

// NewGeminiGeneratorWithClient wraps an existing genai client.
func NewGeminiGeneratorWithClient(client *genai.Client, model string) *GeminiGenerator {
	if model == "" {
		model = ModelGemini25FlashImage
	}
	return &GeminiGenerator{client: client, model: model}
}

// Name implements Generator.
func (g *GeminiGenerator) Name() string {
	return ProviderGemini
}

// SupportsFormat implements FormatChecker. Gemini always answers with PNG
// inline data, which can be re-encoded to png or jpeg but never to webp.
func (g *GeminiGenerator) SupportsFormat(format string) bool {
	return format != "webp"
}

// Client returns the underlying genai client.
func (g *GeminiGenerator) Client() *genai.Client {
	return g.client
}

// Generate implements Generator.
func (g *GeminiGenerator) Generate(ctx context.Context, p Params) (*Image, error) {
	return g.call(ctx, p, nil)
}

// Edit implements Generator.
func (g *GeminiGenerator) Edit(ctx context.Context, p Params, refs []Reference) (*Image, error) {
	if len(refs) == 0 {
		return nil, fmt.Errorf("image edit requires at least one reference image")
	}
	return g.call(ctx, p, refs)
}

func (g *GeminiGenerator) call(ctx context.Context, p Params, refs []Reference) (*Image, error) {
	parts := geminiParts(p, refs)
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityText), string(genai.ModalityImage)},
	}
	if ratio := aspectRatio(p.Size); ratio != "" {
		config.ImageConfig = &genai.ImageConfig{AspectRatio: ratio}
	}

	log.Debug().
		Int("index", TaskIndex(ctx)).
		Str("model", g.model).
		Int("reference_count", len(refs)).
		Int("prompt_length", len(p.Prompt)).
		Msg("Starting Gemini image call")

	start := time.Now()
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	duration := time.Since(start)
	if err != nil {
		log.Error().Err(err).Dur("duration", duration).Msg("Gemini image call failed")
		return nil, fmt.Errorf("gemini image call failed: %w", err)
	}

	img, err := imageFromGemini(resp)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Dur("duration", duration).
		Str("mime_type", img.MIMEType).
		Msg("Gemini image call complete")
	return img, nil
}

func geminiParts(p Params, refs []Reference) []*genai.Part {
	parts := make([]*genai.Part, 0, len(refs)+1)
	for _, ref := range refs {
		parts = append(parts, genai.NewPartFromBytes(ref.Data, ref.MIMEType))
	}

	prompt := p.Prompt
	if p.Quality == "high" {
		prompt += "\n\nRender with maximum detail and quality."
	}
	parts = append(parts, genai.NewPartFromText(prompt))
	return parts
}

// imageFromGemini returns the first inline image of the response.
func imageFromGemini(resp *genai.GenerateContentResponse) (*Image, error) {
	if resp == nil {
		return nil, ErrEmptyResponse
	}

	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil {
				continue
			}
			if part.InlineData != nil && strings.HasPrefix(part.InlineData.MIMEType, "image/") && len(part.InlineData.Data) > 0 {
				return &Image{
					B64JSON:  base64.StdEncoding.EncodeToString(part.InlineData.Data),
					MIMEType: part.InlineData.MIMEType,
				}, nil
			}
			text.WriteString(part.Text)
		}
	}

	if text.Len() > 0 {
		return nil, fmt.Errorf("%w: model replied with text: %s", ErrEmptyResponse, truncateString(text.String(), 200))
	}
	return nil, ErrEmptyResponse
}

// aspectRatio maps a WxH size to the closest ratio Gemini accepts.
func aspectRatio(size string) string {
	switch size {
	case "256x256", "512x512", "1024x1024":
		return "1:1"
	case "1536x1024":
		return "3:2"
	case "1024x1536":
		return "2:3"
	case "1792x1024":
		return "16:9"
	case "1024x1792":
		return "9:16"
	default:
		return ""
	}
}
