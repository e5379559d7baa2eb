// Package batch fans a single prompt out into N concurrent image generation
// calls, waits for every call to settle, and folds the per-task outcomes into
// a BatchReport. Individual failures never abort the batch; only request
// validation can reject it, and that happens before any remote call.
package batch

import (
	"errors"
	"fmt"
	"strings"
)

// MaxCount is the largest batch a single request may ask for.
const MaxCount = 10

// Defaults applied by Request.Normalize.
const (
	DefaultQuality        = "medium"
	DefaultSize           = "1024x1024"
	DefaultOutputFormat   = "png"
	DefaultFilenamePrefix = "generated_image"
)

var validQualities = map[string]bool{
	"low":    true,
	"medium": true,
	"high":   true,
	"auto":   true,
}

var validSizes = map[string]bool{
	"auto":      true,
	"256x256":   true,
	"512x512":   true,
	"1024x1024": true,
	"1536x1024": true,
	"1024x1536": true,
	"1792x1024": true,
	"1024x1792": true,
}

var validFormats = map[string]bool{
	"png":  true,
	"jpeg": true,
	"webp": true,
}

// ErrInvalidArgument is matched by every *InvalidArgumentError.
var ErrInvalidArgument = errors.New("invalid argument")

// InvalidArgumentError rejects a request before any work is dispatched.
type InvalidArgumentError struct {
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return e.Reason
}

func (e *InvalidArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

func invalidf(format string, args ...any) error {
	return &InvalidArgumentError{Reason: fmt.Sprintf(format, args...)}
}

// Request describes one batch. An empty ReferenceImages selects plain
// generation; otherwise every task edits the same reference set.
type Request struct {
	Prompt          string   `json:"prompt"`
	Count           int      `json:"count"`
	Quality         string   `json:"quality,omitempty"`
	Size            string   `json:"size,omitempty"`
	OutputFormat    string   `json:"output_format,omitempty"`
	ReferenceImages []string `json:"reference_images,omitempty"`
	SaveDirectory   string   `json:"save_directory,omitempty"`
	FilenamePrefix  string   `json:"filename_prefix,omitempty"`
}

// Normalize fills empty optional fields with their defaults and lower-cases
// the enum fields.
func (r *Request) Normalize() {
	r.Quality = strings.ToLower(strings.TrimSpace(r.Quality))
	r.Size = strings.ToLower(strings.TrimSpace(r.Size))
	r.OutputFormat = strings.ToLower(strings.TrimSpace(r.OutputFormat))
	if r.Quality == "" {
		r.Quality = DefaultQuality
	}
	if r.Size == "" {
		r.Size = DefaultSize
	}
	if r.OutputFormat == "" {
		r.OutputFormat = DefaultOutputFormat
	}
	if r.OutputFormat == "jpg" {
		r.OutputFormat = "jpeg"
	}
}

// Validate checks the count bounds first, then the remaining fields.
func (r *Request) Validate() error {
	if r.Count <= 0 {
		return invalidf("count must be greater than 0")
	}
	if r.Count > MaxCount {
		return invalidf("count cannot exceed %d images per batch", MaxCount)
	}
	if strings.TrimSpace(r.Prompt) == "" {
		return invalidf("prompt is required")
	}
	if !validQualities[r.Quality] {
		return invalidf("unsupported quality %q", r.Quality)
	}
	if !validSizes[r.Size] {
		return invalidf("unsupported size %q", r.Size)
	}
	if !validFormats[r.OutputFormat] {
		return invalidf("unsupported output format %q", r.OutputFormat)
	}
	return nil
}

// Mode reports "edit" when reference images are present, "generate" otherwise.
func (r *Request) Mode() string {
	if len(r.ReferenceImages) > 0 {
		return "edit"
	}
	return "generate"
}
