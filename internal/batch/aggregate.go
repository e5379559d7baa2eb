package batch

import (
	"context"
	"fmt"
	"sort"

	"github.com/fpang/creatia/internal/imagegen"
)

// ImageSink persists one generated image and returns where it was written.
type ImageSink interface {
	Persist(ctx context.Context, index int, img *imagegen.Image) (string, error)
}

// Aggregate folds settled outcomes into a Report. A nil sink means nothing is
// written to disk and successes are reported without an image path.
// Outcomes are processed in index order regardless of input order.
func Aggregate(ctx context.Context, outcomes []Outcome, sink ImageSink) *Report {
	ordered := make([]Outcome, len(outcomes))
	copy(ordered, outcomes)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	report := &Report{
		Successful:     []ImageResult{},
		Failed:         []FailedResult{},
		TotalRequested: len(ordered),
	}

	for _, o := range ordered {
		if !o.OK() {
			err := o.Err
			if err == nil {
				err = fmt.Errorf("remote call returned no image")
			}
			report.Failed = append(report.Failed, FailedResult{
				Index:  o.Index,
				Error:  err.Error(),
				Status: StatusFailed,
			})
			continue
		}

		if sink == nil {
			report.Successful = append(report.Successful, ImageResult{Index: o.Index, Status: StatusSuccess})
			continue
		}

		path, err := sink.Persist(ctx, o.Index, o.Image)
		if err != nil {
			report.Successful = append(report.Successful, ImageResult{
				Index:  o.Index,
				Error:  fmt.Sprintf("Failed to save image: %v", err),
				Status: StatusSaveFailed,
			})
			continue
		}
		report.Successful = append(report.Successful, ImageResult{
			Index:     o.Index,
			ImagePath: path,
			Status:    StatusSuccess,
		})
	}

	report.TotalSuccessful = len(report.Successful)
	report.TotalFailed = len(report.Failed)
	return report
}

func summaryf(successful, failed int) string {
	return fmt.Sprintf("%d successful, %d failed", successful, failed)
}
