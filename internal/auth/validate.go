package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// ValidationError represents a specific type of API key failure.
type ValidationError struct {
	Type    ValidationErrorType
	Message string
	Err     error
}

// ValidationErrorType categorizes validation failures.
type ValidationErrorType int

const (
	// ErrTypeNoKey indicates no API key was found.
	ErrTypeNoKey ValidationErrorType = iota
	// ErrTypeInvalidKey indicates the API key is invalid or revoked.
	ErrTypeInvalidKey
	// ErrTypeNetworkError indicates a network connectivity issue.
	ErrTypeNetworkError
	// ErrTypeQuotaExceeded indicates the API quota has been exceeded.
	ErrTypeQuotaExceeded
	// ErrTypeUnknown indicates an unknown error occurred.
	ErrTypeUnknown
)

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ModelLister is the go-openai call used to check a key.
type ModelLister interface {
	ListModels(ctx context.Context) (openai.ModelsList, error)
}

// ValidateOpenAIKey verifies the key by listing models, which costs no tokens.
func ValidateOpenAIKey(ctx context.Context, client ModelLister) error {
	start := time.Now()
	_, err := client.ListModels(ctx)
	if err != nil {
		return ClassifyError(err)
	}
	log.Debug().Dur("duration", time.Since(start)).Msg("OpenAI API key validated")
	return nil
}

// ValidateGeminiKey verifies the key by fetching the image model's metadata.
func ValidateGeminiKey(ctx context.Context, client *genai.Client, model string) error {
	start := time.Now()
	if _, err := client.Models.Get(ctx, model, nil); err != nil {
		return ClassifyError(err)
	}
	log.Debug().Dur("duration", time.Since(start)).Msg("Gemini API key validated")
	return nil
}

// ClassifyError maps a provider error to a ValidationError.
func ClassifyError(err error) *ValidationError {
	if err == nil {
		return nil
	}

	var oaErr *openai.APIError
	if errors.As(err, &oaErr) {
		return classifyStatus(oaErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, err)
	}
	var gErr *genai.APIError
	if errors.As(err, &gErr) {
		return classifyStatus(gErr.Code, err)
	}

	errLower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errLower, "api key not valid") ||
		strings.Contains(errLower, "invalid api key") ||
		strings.Contains(errLower, "incorrect api key") ||
		strings.Contains(errLower, "permission denied"):
		return &ValidationError{Type: ErrTypeInvalidKey, Message: "API key is invalid or has been revoked", Err: err}

	case strings.Contains(errLower, "quota") ||
		strings.Contains(errLower, "resource exhausted") ||
		strings.Contains(errLower, "rate limit"):
		return &ValidationError{Type: ErrTypeQuotaExceeded, Message: "API quota exceeded or rate limited", Err: err}

	case strings.Contains(errLower, "connection") ||
		strings.Contains(errLower, "network") ||
		strings.Contains(errLower, "timeout") ||
		strings.Contains(errLower, "dial") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "unreachable"):
		return &ValidationError{Type: ErrTypeNetworkError, Message: "Network error - check your internet connection", Err: err}

	default:
		return &ValidationError{Type: ErrTypeUnknown, Message: "Failed to validate API key", Err: err}
	}
}

func classifyStatus(code int, err error) *ValidationError {
	log.Error().Err(err).Int("code", code).Msg("API key check failed")
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return &ValidationError{Type: ErrTypeInvalidKey, Message: "API key is invalid, expired, or lacks permissions", Err: err}
	case code == http.StatusBadRequest:
		return &ValidationError{Type: ErrTypeInvalidKey, Message: "Bad request - API key may be malformed", Err: err}
	case code == http.StatusTooManyRequests:
		return &ValidationError{Type: ErrTypeQuotaExceeded, Message: "API rate limit exceeded - try again later", Err: err}
	case code >= 500:
		return &ValidationError{Type: ErrTypeNetworkError, Message: "Provider server error - try again later", Err: err}
	default:
		return &ValidationError{Type: ErrTypeUnknown, Message: "Failed to validate API key", Err: err}
	}
}
