package planner

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/fpang/creatia/internal/batch"
)

// BatchRunner runs one image batch. *batch.Service implements it.
type BatchRunner interface {
	Generate(ctx context.Context, req batch.Request) (*batch.Report, error)
}

// ImageOptions are the batch settings shared by every day of a plan.
type ImageOptions struct {
	CountPerDay   int
	Quality       string
	Size          string
	OutputFormat  string
	SaveDirectory string
}

// DayImages is the outcome of one planned day.
type DayImages struct {
	Day         string        `json:"day"`
	Description string        `json:"description"`
	Report      *batch.Report `json:"results,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// GenerateImages runs one batch per planned day, in week order. Days without
// a description are skipped. A rejected day is recorded and the remaining
// days still run; only context cancellation stops the loop.
func GenerateImages(ctx context.Context, runner BatchRunner, plan WeeklyPlan, opts ImageOptions) ([]DayImages, error) {
	results := []DayImages{}
	for _, e := range plan.Ordered() {
		if e.Description == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return results, err
		}

		req := batch.Request{
			Prompt:          e.Description,
			Count:           opts.CountPerDay,
			Quality:         opts.Quality,
			Size:            opts.Size,
			OutputFormat:    opts.OutputFormat,
			ReferenceImages: e.ReferenceImages,
			SaveDirectory:   opts.SaveDirectory,
			FilenamePrefix:  "weekly_" + e.Day,
		}

		day := DayImages{Day: e.Day, Description: e.Description}
		report, err := runner.Generate(ctx, req)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return results, err
			}
			log.Warn().Err(err).Str("day", e.Day).Msg("Weekly plan day rejected")
			day.Error = err.Error()
		} else {
			day.Report = report
			log.Info().Str("day", e.Day).Str("summary", report.Summary()).Msg("Weekly plan day generated")
		}
		results = append(results, day)
	}
	return results, nil
}
