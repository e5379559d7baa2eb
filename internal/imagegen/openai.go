package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIOptions configures an OpenAIGenerator.
type OpenAIOptions struct {
	APIKey  string
	BaseURL string
	Model   string
	// OutputCompression (0-100) applies to jpeg and webp output; 0 leaves
	// the API default.
	OutputCompression int
	HTTPClient        *http.Client
}

// OpenAIGenerator calls the OpenAI Images API. Generation goes through
// go-openai; edits are sent as a multipart request because they carry
// several reference images under image[].
type OpenAIGenerator struct {
	client            *openai.Client
	httpClient        *http.Client
	apiKey            string
	baseURL           string
	model             string
	outputCompression int
}

var _ Generator = (*OpenAIGenerator)(nil)

// NewOpenAIGenerator creates a generator. The client is built once and shared
// by all concurrent calls.
func NewOpenAIGenerator(opts OpenAIOptions) *OpenAIGenerator {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		// Image generation can take well over a minute at high quality.
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	cfg.HTTPClient = httpClient

	model := opts.Model
	if model == "" {
		model = ModelGPTImage1
	}

	return &OpenAIGenerator{
		client:            openai.NewClientWithConfig(cfg),
		httpClient:        httpClient,
		apiKey:            opts.APIKey,
		baseURL:           cfg.BaseURL,
		model:             model,
		outputCompression: opts.OutputCompression,
	}
}

// Name implements Generator.
func (g *OpenAIGenerator) Name() string {
	return ProviderOpenAI
}

// Generate implements Generator using the images/generations endpoint.
func (g *OpenAIGenerator) Generate(ctx context.Context, p Params) (*Image, error) {
	req := openai.ImageRequest{
		Prompt:       p.Prompt,
		Model:        g.model,
		N:            1,
		Quality:      p.Quality,
		Size:         p.Size,
		OutputFormat: p.OutputFormat,
	}
	if g.compresses(p.OutputFormat) {
		req.OutputCompression = g.outputCompression
	}

	log.Debug().
		Int("index", TaskIndex(ctx)).
		Str("model", g.model).
		Str("quality", p.Quality).
		Str("size", p.Size).
		Str("format", p.OutputFormat).
		Int("prompt_length", len(p.Prompt)).
		Msg("Starting OpenAI image generation")

	start := time.Now()
	resp, err := g.client.CreateImage(ctx, req)
	duration := time.Since(start)
	if err != nil {
		log.Error().Err(err).Dur("duration", duration).Msg("OpenAI image generation failed")
		return nil, fmt.Errorf("image generation failed: %w", err)
	}

	log.Debug().
		Dur("duration", duration).
		Int("total_tokens", resp.Usage.TotalTokens).
		Msg("OpenAI image generation complete")

	return imageFromData(resp.Data, p.OutputFormat)
}

// Edit implements Generator using the images/edits endpoint with every
// reference image attached.
func (g *OpenAIGenerator) Edit(ctx context.Context, p Params, refs []Reference) (*Image, error) {
	if len(refs) == 0 {
		return nil, fmt.Errorf("image edit requires at least one reference image")
	}

	body, contentType, err := g.editBody(p, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to build edit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/images/edits", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create edit request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", contentType)

	log.Debug().
		Int("index", TaskIndex(ctx)).
		Str("model", g.model).
		Int("reference_count", len(refs)).
		Int("body_bytes", body.Len()).
		Msg("Starting OpenAI image edit")

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		log.Error().Err(err).Dur("duration", duration).Msg("OpenAI image edit request failed")
		return nil, fmt.Errorf("image edit failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read edit response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := decodeAPIError(resp.StatusCode, respBody)
		log.Error().Err(apiErr).Int("status", resp.StatusCode).Dur("duration", duration).Msg("OpenAI image edit rejected")
		return nil, fmt.Errorf("image edit failed: %w", apiErr)
	}

	var out openai.ImageResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("failed to parse edit response: %w", err)
	}

	log.Debug().Dur("duration", duration).Msg("OpenAI image edit complete")

	return imageFromData(out.Data, p.OutputFormat)
}

func (g *OpenAIGenerator) compresses(format string) bool {
	return g.outputCompression > 0 && (format == "jpeg" || format == "webp")
}

func (g *OpenAIGenerator) editBody(p Params, refs []Reference) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	fields := [][2]string{
		{"model", g.model},
		{"prompt", p.Prompt},
		{"n", "1"},
		{"quality", p.Quality},
		{"size", p.Size},
		{"output_format", p.OutputFormat},
	}
	if g.compresses(p.OutputFormat) {
		fields = append(fields, [2]string{"output_compression", fmt.Sprint(g.outputCompression)})
	}
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	for _, ref := range refs {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image[]"; filename=%q`, ref.Name))
		h.Set("Content-Type", ref.MIMEType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, ref.Reader()); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return body, w.FormDataContentType(), nil
}

func decodeAPIError(status int, body []byte) error {
	var errResp openai.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != nil {
		errResp.Error.HTTPStatusCode = status
		return errResp.Error
	}
	return fmt.Errorf("status %d: %s", status, truncateString(string(body), 200))
}

func imageFromData(data []openai.ImageResponseDataInner, format string) (*Image, error) {
	for _, d := range data {
		if d.B64JSON != "" {
			return &Image{
				B64JSON:       d.B64JSON,
				MIMEType:      mimeForFormat(format),
				RevisedPrompt: d.RevisedPrompt,
			}, nil
		}
	}
	return nil, ErrEmptyResponse
}

func mimeForFormat(format string) string {
	switch format {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	default:
		return "image/png"
	}
}

// truncateString shortens a string to maxLen characters, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
