package cli

import (
	"fmt"
	"time"

	"github.com/fpang/creatia/internal/batch"
)

// FormatDurationShort formats a duration in a short format (M:SS or H:MM:SS).
func FormatDurationShort(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// FormatBatchSummary renders the one-line summary printed after a batch.
func FormatBatchSummary(r *batch.Report, elapsed time.Duration) string {
	saveFailed := 0
	for _, s := range r.Successful {
		if s.Status == batch.StatusSaveFailed {
			saveFailed++
		}
	}
	line := fmt.Sprintf("%d/%d images generated in %s", r.TotalSuccessful, r.TotalRequested, FormatDurationShort(elapsed))
	if saveFailed > 0 {
		line += fmt.Sprintf(" (%d not saved)", saveFailed)
	}
	return line
}
