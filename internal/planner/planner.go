// Package planner turns a high-level weekly idea into a day-by-day social
// media plan, using a chat model and the resource catalog.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fpang/creatia/internal/assets"
	"github.com/fpang/creatia/internal/jsonutil"
)

// Days are the plan keys, Monday first.
var Days = []string{"lunes", "martes", "miercoles", "jueves", "viernes", "sabado", "domingo"}

// ErrEmptyPlan is returned when the model reply contains no usable day.
var ErrEmptyPlan = errors.New("weekly plan has no days")

// DayPlan is the content planned for one day.
type DayPlan struct {
	ReferenceImages []string `json:"reference_images"`
	Description     string   `json:"description"`
}

// WeeklyPlan maps day keys to their plan.
type WeeklyPlan map[string]DayPlan

// Entry is one day of a plan, for ordered iteration.
type Entry struct {
	Day string
	DayPlan
}

// Ordered returns the plan's known days in week order, skipping days the
// model left out.
func (p WeeklyPlan) Ordered() []Entry {
	out := make([]Entry, 0, len(Days))
	for _, d := range Days {
		if dp, ok := p[d]; ok {
			out = append(out, Entry{Day: d, DayPlan: dp})
		}
	}
	return out
}

// Planner generates weekly plans.
type Planner struct {
	chat ChatClient
}

// New creates a Planner using chat.
func New(chat ChatClient) *Planner {
	return &Planner{chat: chat}
}

// Weekly builds a plan for highLevel. resources are the reference image
// paths the model may pick from; brandContext is optional.
func (p *Planner) Weekly(ctx context.Context, highLevel string, resources []string, brandContext string) (WeeklyPlan, error) {
	if strings.TrimSpace(highLevel) == "" {
		return nil, fmt.Errorf("high level plan must not be empty")
	}

	prompt := assets.RenderWeeklyPlannerPrompt(assets.WeeklyPlannerData{
		HighLevel:    highLevel,
		BrandContext: brandContext,
		Resources:    resources,
		Days:         Days,
	})

	log.Info().
		Int("resources", len(resources)).
		Bool("brand_context", brandContext != "").
		Msg("Generating weekly plan")

	reply, err := p.chat.CompleteJSON(ctx, ChatRequest{System: assets.WeeklyPlannerSystemPrompt, User: prompt})
	if err != nil {
		return nil, fmt.Errorf("failed to generate weekly plan: %w", err)
	}

	plan, err := jsonutil.ParseJSON[WeeklyPlan](reply)
	if err != nil {
		return nil, fmt.Errorf("failed to parse weekly plan: %w", err)
	}

	normalize(plan, resources)
	if len(plan.Ordered()) == 0 {
		return nil, ErrEmptyPlan
	}
	return plan, nil
}

// normalize drops unknown day keys and reference images the model invented.
func normalize(plan WeeklyPlan, resources []string) {
	allowed := make(map[string]bool, len(resources))
	for _, r := range resources {
		allowed[r] = true
	}
	known := make(map[string]bool, len(Days))
	for _, d := range Days {
		known[d] = true
	}

	for day, dp := range plan {
		if !known[day] {
			log.Warn().Str("day", day).Msg("Dropping unknown day from weekly plan")
			delete(plan, day)
			continue
		}
		refs := make([]string, 0, len(dp.ReferenceImages))
		for _, r := range dp.ReferenceImages {
			if allowed[r] {
				refs = append(refs, r)
			} else {
				log.Warn().Str("day", day).Str("path", r).Msg("Dropping unlisted reference image")
			}
		}
		dp.ReferenceImages = refs
		plan[day] = dp
	}
}
