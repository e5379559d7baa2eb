package planner

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fpang/creatia/internal/assets"
	"github.com/fpang/creatia/internal/jsonutil"
)

// Weeks are the monthly plan keys, in order.
var Weeks = []string{"semana_1", "semana_2", "semana_3", "semana_4"}

// ErrEmptyMonth is returned when the model reply contains no usable week.
var ErrEmptyMonth = errors.New("monthly plan has no weeks")

// WeekPlan is the brief for one week of a month.
type WeekPlan struct {
	WeekNumber          int    `json:"week_number"`
	PlanningDescription string `json:"planning_description"`
}

// MonthlyPlan maps week keys to their brief.
type MonthlyPlan map[string]WeekPlan

// WeekEntry is one week of a monthly plan, for ordered iteration.
type WeekEntry struct {
	Key string
	WeekPlan
}

// Ordered returns the plan's weeks in month order.
func (p MonthlyPlan) Ordered() []WeekEntry {
	out := make([]WeekEntry, 0, len(Weeks))
	for _, k := range Weeks {
		if wp, ok := p[k]; ok {
			out = append(out, WeekEntry{Key: k, WeekPlan: wp})
		}
	}
	return out
}

// Monthly splits a monthly strategy into four weekly briefs. brandContext
// and monthName are optional.
func (p *Planner) Monthly(ctx context.Context, strategy, brandContext, monthName string) (MonthlyPlan, error) {
	if strings.TrimSpace(strategy) == "" {
		return nil, fmt.Errorf("monthly strategy must not be empty")
	}

	prompt := assets.RenderMonthlyPlannerPrompt(assets.MonthlyPlannerData{
		Strategy:     strategy,
		BrandContext: brandContext,
		MonthName:    monthName,
		Weeks:        Weeks,
	})

	log.Info().Str("month", monthName).Bool("brand_context", brandContext != "").Msg("Generating monthly plan")

	reply, err := p.chat.CompleteJSON(ctx, ChatRequest{
		System:    assets.MonthlyPlannerSystemPrompt,
		User:      prompt,
		MaxTokens: MonthlyMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate monthly plan: %w", err)
	}

	plan, err := jsonutil.ParseJSON[MonthlyPlan](reply)
	if err != nil {
		return nil, fmt.Errorf("failed to parse monthly plan: %w", err)
	}

	for key, wp := range plan {
		n, known := weekNumber(key)
		if !known || strings.TrimSpace(wp.PlanningDescription) == "" {
			log.Warn().Str("week", key).Msg("Dropping unusable week from monthly plan")
			delete(plan, key)
			continue
		}
		wp.WeekNumber = n
		plan[key] = wp
	}
	if len(plan) == 0 {
		return nil, ErrEmptyMonth
	}
	return plan, nil
}

func weekNumber(key string) (int, bool) {
	for _, k := range Weeks {
		if k == key {
			n, err := strconv.Atoi(strings.TrimPrefix(key, "semana_"))
			return n, err == nil
		}
	}
	return 0, false
}

// WeekDetail is a weekly brief expanded into daily posts.
type WeekDetail struct {
	WeekNumber          int        `json:"week_number"`
	PlanningDescription string     `json:"planning_description"`
	DailyPosts          WeeklyPlan `json:"daily_posts"`
}

// ExpandMonth runs Weekly for every week of month, in order. The first
// failing week aborts the expansion.
func (p *Planner) ExpandMonth(ctx context.Context, month MonthlyPlan, resources []string, brandContext string) (map[string]WeekDetail, error) {
	out := make(map[string]WeekDetail, len(month))
	for _, week := range month.Ordered() {
		log.Info().Str("week", week.Key).Msg("Expanding week into daily posts")
		daily, err := p.Weekly(ctx, week.PlanningDescription, resources, brandContext)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", week.Key, err)
		}
		out[week.Key] = WeekDetail{
			WeekNumber:          week.WeekNumber,
			PlanningDescription: week.PlanningDescription,
			DailyPosts:          daily,
		}
	}
	return out, nil
}
