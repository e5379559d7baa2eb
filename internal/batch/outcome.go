package batch

import "github.com/fpang/creatia/internal/imagegen"

// Task status values as they appear in a Report.
const (
	StatusSuccess    = "success"
	StatusFailed     = "failed"
	StatusSaveFailed = "save_failed"
)

// Outcome is the settled result of one task: exactly one of Image and Err
// is set.
type Outcome struct {
	Index int
	Image *imagegen.Image
	Err   error
}

// Succeeded builds a success outcome.
func Succeeded(index int, img *imagegen.Image) Outcome {
	return Outcome{Index: index, Image: img}
}

// Failed builds a failure outcome.
func Failed(index int, err error) Outcome {
	return Outcome{Index: index, Err: err}
}

// OK reports whether the remote call produced an image.
func (o Outcome) OK() bool {
	return o.Err == nil && o.Image != nil
}

// ImageResult is an entry of Report.Successful.
type ImageResult struct {
	Index     int    `json:"index" dynamodbav:"index"`
	ImagePath string `json:"image_path,omitempty" dynamodbav:"image_path,omitempty"`
	Error     string `json:"error,omitempty" dynamodbav:"error,omitempty"`
	Status    string `json:"status" dynamodbav:"status"`
}

// FailedResult is an entry of Report.Failed.
type FailedResult struct {
	Index  int    `json:"index" dynamodbav:"index"`
	Error  string `json:"error" dynamodbav:"error"`
	Status string `json:"status" dynamodbav:"status"`
}

// Report is the structured result of a batch. Totals are derived from the
// list lengths, so TotalSuccessful+TotalFailed always equals TotalRequested.
type Report struct {
	Successful      []ImageResult  `json:"successful" dynamodbav:"successful"`
	Failed          []FailedResult `json:"failed" dynamodbav:"failed"`
	TotalRequested  int            `json:"total_requested" dynamodbav:"total_requested"`
	TotalSuccessful int            `json:"total_successful" dynamodbav:"total_successful"`
	TotalFailed     int            `json:"total_failed" dynamodbav:"total_failed"`
}

// Summary is the human-readable one-liner returned alongside a report.
func (r *Report) Summary() string {
	return summaryf(r.TotalSuccessful, r.TotalFailed)
}
