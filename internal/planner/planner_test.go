package planner

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/fpang/creatia/internal/batch"
)

// fakeChat replays replies in order and records every request.
type fakeChat struct {
	replies  []string
	err      error
	requests []ChatRequest
}

func (f *fakeChat) CompleteJSON(ctx context.Context, req ChatRequest) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", errors.New("no reply queued")
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return reply, nil
}

func (f *fakeChat) last() ChatRequest {
	return f.requests[len(f.requests)-1]
}

func TestWeekly_ParsesFencedReply(t *testing.T) {
	chat := &fakeChat{replies: []string{"Here you go:\n```json\n" + `{
  "lunes": {"reference_images": ["res/templates/a.png", "made/up.png"], "description": "Kickoff poster"},
  "martes": {"reference_images": [], "description": "Speaker spotlight"},
  "someday": {"reference_images": [], "description": "ignored"}
}` + "\n```"}}

	p := New(chat)
	plan, err := p.Weekly(context.Background(), "Launch week for AI Weekend", []string{"res/templates/a.png"}, "Bold, friendly")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(plan) != 2 {
		t.Errorf("expected 2 days, got %d", len(plan))
	}
	if got := plan["lunes"].ReferenceImages; !reflect.DeepEqual(got, []string{"res/templates/a.png"}) {
		t.Errorf("lunes references = %v", got)
	}
	if got := plan["martes"].Description; got != "Speaker spotlight" {
		t.Errorf("martes description = %q", got)
	}
	if _, ok := plan["someday"]; ok {
		t.Error("unknown day should be dropped")
	}

	req := chat.last()
	for _, want := range []string{"Launch week for AI Weekend", "- res/templates/a.png", "Bold, friendly"} {
		if !strings.Contains(req.User, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	for _, d := range Days {
		if !strings.Contains(req.User, `"`+d+`"`) {
			t.Errorf("prompt missing day %q", d)
		}
	}
	if req.System == "" {
		t.Error("system prompt should be set")
	}
	if req.MaxTokens != 0 {
		t.Errorf("weekly plan should use the default token cap, got %d", req.MaxTokens)
	}
}

func TestWeekly_Errors(t *testing.T) {
	ctx := context.Background()

	if _, err := New(&fakeChat{}).Weekly(ctx, "  ", nil, ""); err == nil {
		t.Error("expected error for blank plan")
	}

	_, err := New(&fakeChat{err: errors.New("quota exceeded")}).Weekly(ctx, "plan", nil, "")
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("expected chat error to surface, got %v", err)
	}

	if _, err := New(&fakeChat{replies: []string{"sorry, no"}}).Weekly(ctx, "plan", nil, ""); err == nil {
		t.Error("expected error for non-JSON reply")
	}

	_, err = New(&fakeChat{replies: []string{`{"holiday": {"description": "x"}}`}}).Weekly(ctx, "plan", nil, "")
	if !errors.Is(err, ErrEmptyPlan) {
		t.Errorf("expected ErrEmptyPlan, got %v", err)
	}
}

func TestOrdered(t *testing.T) {
	plan := WeeklyPlan{
		"domingo": {Description: "rest"},
		"lunes":   {Description: "start"},
		"jueves":  {Description: "mid"},
	}
	var days []string
	for _, e := range plan.Ordered() {
		days = append(days, e.Day)
	}
	if want := []string{"lunes", "jueves", "domingo"}; !reflect.DeepEqual(days, want) {
		t.Errorf("Ordered() days = %v, want %v", days, want)
	}
}

type fakeRunner struct {
	requests []batch.Request
	failOn   string
}

func (f *fakeRunner) Generate(ctx context.Context, req batch.Request) (*batch.Report, error) {
	f.requests = append(f.requests, req)
	if f.failOn != "" && strings.Contains(req.Prompt, f.failOn) {
		return nil, &batch.InvalidArgumentError{Reason: "count must be greater than 0"}
	}
	return &batch.Report{TotalRequested: req.Count, TotalSuccessful: req.Count}, nil
}

func TestGenerateImages(t *testing.T) {
	plan := WeeklyPlan{
		"martes":  {Description: "broken day"},
		"lunes":   {Description: "poster", ReferenceImages: []string{"a.png"}},
		"viernes": {Description: ""},
	}
	runner := &fakeRunner{failOn: "broken"}

	results, err := GenerateImages(context.Background(), runner, plan, ImageOptions{CountPerDay: 2, OutputFormat: "png"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 day results, got %d", len(results))
	}

	if results[0].Day != "lunes" || results[0].Report == nil || results[0].Report.TotalSuccessful != 2 {
		t.Errorf("unexpected first day result: %+v", results[0])
	}
	if results[1].Day != "martes" || results[1].Report != nil || results[1].Error == "" {
		t.Errorf("second day should carry an error, got %+v", results[1])
	}

	if len(runner.requests) != 2 {
		t.Fatalf("expected 2 batch calls, got %d", len(runner.requests))
	}
	first := runner.requests[0]
	if !reflect.DeepEqual(first.ReferenceImages, []string{"a.png"}) {
		t.Errorf("references = %v", first.ReferenceImages)
	}
	if first.FilenamePrefix != "weekly_lunes" {
		t.Errorf("prefix = %q, want weekly_lunes", first.FilenamePrefix)
	}
	if first.Count != 2 {
		t.Errorf("count = %d, want 2", first.Count)
	}
}

func TestGenerateImages_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &fakeRunner{}
	results, err := GenerateImages(ctx, runner, WeeklyPlan{"lunes": {Description: "x"}}, ImageOptions{CountPerDay: 1})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(results) != 0 || len(runner.requests) != 0 {
		t.Errorf("nothing should run after cancel, got %d results and %d calls", len(results), len(runner.requests))
	}
}
