package main

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fpang/creatia/internal/filehandler"
	"github.com/fpang/creatia/internal/planner"
)

type monthlyPlanRequest struct {
	MonthlyStrategy string   `json:"monthly_strategy"`
	BrandContext    string   `json:"brand_context"`
	MonthName       string   `json:"month_name"`
	ResourcesPaths  []string `json:"resources_paths"`
}

type monthlyPlanResponse struct {
	Success           bool                          `json:"success"`
	MonthlyPlan       planner.MonthlyPlan           `json:"monthly_plan,omitempty"`
	WeeklySocialPlans map[string]planner.WeekDetail `json:"weekly_social_plans,omitempty"`
	Error             string                        `json:"error,omitempty"`
}

type strategistRequest struct {
	planner.StrategyRequest
	ImageResources []string `json:"image_resources"`
}

type weekSummary struct {
	WeekNumber          int    `json:"week_number"`
	PlanningDescription string `json:"planning_description"`
	TotalDays           int    `json:"total_days"`
	HasPosts            bool   `json:"has_posts"`
}

type fullStrategyResponse struct {
	planner.Strategy
	WeeklyPlans          []weekSummary                 `json:"weekly_plans"`
	CompleteMonthlyPosts map[string]planner.WeeklyPlan `json:"complete_monthly_posts"`
}

// POST /monthly-planner/generate
//
// Like the weekly planner, failures come back with success=false.
func (s *server) handleMonthlyPlan(w http.ResponseWriter, r *http.Request) {
	var req monthlyPlanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.MonthlyStrategy) == "" {
		httpError(w, http.StatusBadRequest, "monthly_strategy is required")
		return
	}

	plan, err := s.planner.Monthly(r.Context(), req.MonthlyStrategy, req.BrandContext, req.MonthName)
	if err != nil {
		log.Error().Err(err).Msg("Monthly plan generation failed")
		respondJSON(w, http.StatusOK, monthlyPlanResponse{Error: "Error generating the monthly plan: " + err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, monthlyPlanResponse{Success: true, MonthlyPlan: plan})
}

// POST /monthly-planner/generate-full
//
// Splits the strategy into weeks, then expands every week into daily posts.
func (s *server) handleMonthlyPlanFull(w http.ResponseWriter, r *http.Request) {
	var req monthlyPlanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.MonthlyStrategy) == "" {
		httpError(w, http.StatusBadRequest, "monthly_strategy is required")
		return
	}

	fail := func(err error) {
		log.Error().Err(err).Msg("Full monthly plan generation failed")
		respondJSON(w, http.StatusOK, monthlyPlanResponse{Error: "Error generating the full monthly plan: " + err.Error()})
	}

	month, err := s.planner.Monthly(r.Context(), req.MonthlyStrategy, req.BrandContext, req.MonthName)
	if err != nil {
		fail(err)
		return
	}
	valid, _ := filehandler.Validate(req.ResourcesPaths)
	weeks, err := s.planner.ExpandMonth(r.Context(), month, valid, req.BrandContext)
	if err != nil {
		fail(err)
		return
	}
	respondJSON(w, http.StatusOK, monthlyPlanResponse{
		Success:           true,
		MonthlyPlan:       month,
		WeeklySocialPlans: weeks,
	})
}

// POST /strategist/generate
func (s *server) handleStrategy(w http.ResponseWriter, r *http.Request) {
	var req planner.StrategyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.CompanyInfo) == "" {
		httpError(w, http.StatusBadRequest, "company_info is required")
		return
	}

	strategy, err := s.planner.Strategy(r.Context(), req)
	if err != nil {
		log.Error().Err(err).Msg("Strategy generation failed")
		httpError(w, http.StatusInternalServerError, "Error generating strategy: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, strategy)
}

// POST /strategist/generate-full
//
// Runs strategist, monthly planner and weekly planner in sequence.
func (s *server) handleStrategyFull(w http.ResponseWriter, r *http.Request) {
	var req strategistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.CompanyInfo) == "" {
		httpError(w, http.StatusBadRequest, "company_info is required")
		return
	}

	fail := func(err error) {
		log.Error().Err(err).Msg("Full strategy generation failed")
		httpError(w, http.StatusInternalServerError, "Error generating full strategy: "+err.Error())
	}

	strategy, err := s.planner.Strategy(r.Context(), req.StrategyRequest)
	if err != nil {
		fail(err)
		return
	}
	month, err := s.planner.Monthly(r.Context(), strategy.MonthlyStrategy, strategy.BrandContext, req.MonthName)
	if err != nil {
		fail(err)
		return
	}
	valid, _ := filehandler.Validate(req.ImageResources)
	weeks, err := s.planner.ExpandMonth(r.Context(), month, valid, strategy.BrandContext)
	if err != nil {
		fail(err)
		return
	}

	resp := fullStrategyResponse{
		Strategy:             *strategy,
		WeeklyPlans:          make([]weekSummary, 0, len(weeks)),
		CompleteMonthlyPosts: make(map[string]planner.WeeklyPlan, len(weeks)),
	}
	for _, week := range month.Ordered() {
		detail := weeks[week.Key]
		days := len(detail.DailyPosts.Ordered())
		resp.WeeklyPlans = append(resp.WeeklyPlans, weekSummary{
			WeekNumber:          detail.WeekNumber,
			PlanningDescription: detail.PlanningDescription,
			TotalDays:           days,
			HasPosts:            days > 0,
		})
		resp.CompleteMonthlyPosts["week_"+strings.TrimPrefix(week.Key, "semana_")] = detail.DailyPosts
	}
	respondJSON(w, http.StatusOK, resp)
}

// POST /strategist/validate-info
func (s *server) handleValidateCompanyInfo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CompanyInfo string `json:"company_info"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, planner.ValidateCompanyInfo(req.CompanyInfo))
}
