// Package imagegen wraps the remote image generation APIs behind a single
// Generator interface. Each call issues exactly one remote request; errors
// are returned to the caller untouched by any retry logic.
package imagegen

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the remote API answers without an image.
var ErrEmptyResponse = errors.New("remote API returned no image data")

// Params are the per-call generation options shared by generate and edit.
type Params struct {
	Prompt       string
	Quality      string
	Size         string
	OutputFormat string
}

// Image is a generated image as returned by the remote API.
type Image struct {
	// B64JSON is the standard base64 encoding of the image bytes.
	B64JSON       string
	MIMEType      string
	RevisedPrompt string
}

// Generator is the remote call collaborator used by the batch service.
type Generator interface {
	// Generate creates an image from the prompt alone.
	Generate(ctx context.Context, p Params) (*Image, error)
	// Edit creates an image from the prompt and all reference images together.
	// refs is shared between concurrent calls and must not be modified.
	Edit(ctx context.Context, p Params, refs []Reference) (*Image, error)
	// Name identifies the provider in logs and metrics.
	Name() string
}

// FormatChecker is implemented by generators whose payload format is fixed
// by the provider instead of Params.OutputFormat.
type FormatChecker interface {
	// SupportsFormat reports whether a returned image can be stored as format.
	SupportsFormat(format string) bool
}

type taskIndexKey struct{}

// WithTaskIndex tags ctx with the batch task index the call belongs to.
func WithTaskIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, taskIndexKey{}, index)
}

// TaskIndex returns the task index stored by WithTaskIndex, or -1.
func TaskIndex(ctx context.Context) int {
	if v, ok := ctx.Value(taskIndexKey{}).(int); ok {
		return v
	}
	return -1
}
