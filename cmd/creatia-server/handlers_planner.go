package main

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fpang/creatia/internal/filehandler"
	"github.com/fpang/creatia/internal/planner"
)

type weeklyPlanRequest struct {
	HighLevelPlanning string   `json:"high_level_planning"`
	ResourcesPaths    []string `json:"resources_paths"`
	BrandContext      string   `json:"brand_context"`
}

type weeklyPlanResponse struct {
	Success    bool               `json:"success"`
	WeeklyPlan planner.WeeklyPlan `json:"weekly_plan,omitempty"`
	Error      string             `json:"error,omitempty"`
}

type weeklyImagesRequest struct {
	WeeklyPlan    planner.WeeklyPlan `json:"weekly_plan"`
	CountPerDay   int                `json:"count_per_day"`
	Quality       string             `json:"quality"`
	Size          string             `json:"size"`
	OutputFormat  string             `json:"output_format"`
	SaveDirectory string             `json:"save_directory"`
}

// POST /weekly-planner/generate
//
// Failures are reported in the body with success=false, matching the
// response shape clients already parse.
func (s *server) handleWeeklyPlan(w http.ResponseWriter, r *http.Request) {
	var req weeklyPlanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.HighLevelPlanning) == "" {
		httpError(w, http.StatusBadRequest, "high_level_planning is required")
		return
	}

	valid, _ := filehandler.Validate(req.ResourcesPaths)
	if len(valid) == 0 {
		respondJSON(w, http.StatusOK, weeklyPlanResponse{
			Success: false,
			Error:   "No valid resources found in the provided paths",
		})
		return
	}

	plan, err := s.planner.Weekly(r.Context(), req.HighLevelPlanning, valid, req.BrandContext)
	if err != nil {
		log.Error().Err(err).Msg("Weekly plan generation failed")
		respondJSON(w, http.StatusOK, weeklyPlanResponse{
			Success: false,
			Error:   "Error generating the weekly plan: " + err.Error(),
		})
		return
	}
	respondJSON(w, http.StatusOK, weeklyPlanResponse{Success: true, WeeklyPlan: plan})
}

// POST /weekly-planner/validate-resources
//
// The body is a bare JSON array of paths.
func (s *server) handleValidateResources(w http.ResponseWriter, r *http.Request) {
	var paths []string
	if err := decodeJSON(w, r, &paths); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	valid, invalid := filehandler.Validate(paths)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":           true,
		"valid_resources":   valid,
		"invalid_resources": invalid,
		"total_valid":       len(valid),
		"total_invalid":     len(invalid),
	})
}

// POST /weekly-planner/generate-images
func (s *server) handleWeeklyPlanImages(w http.ResponseWriter, r *http.Request) {
	req := weeklyImagesRequest{CountPerDay: 1}
	if err := decodeJSON(w, r, &req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.WeeklyPlan) == 0 {
		httpError(w, http.StatusBadRequest, "weekly_plan is required")
		return
	}

	days, err := planner.GenerateImages(r.Context(), s.batches, req.WeeklyPlan, planner.ImageOptions{
		CountPerDay:   req.CountPerDay,
		Quality:       req.Quality,
		Size:          req.Size,
		OutputFormat:  req.OutputFormat,
		SaveDirectory: req.SaveDirectory,
	})
	if err != nil {
		log.Warn().Err(err).Int("completedDays", len(days)).Msg("Weekly image generation interrupted")
		httpError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	successful, failed := 0, 0
	for _, d := range days {
		if d.Report != nil {
			successful += d.Report.TotalSuccessful
			failed += d.Report.TotalFailed
		}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"days":             days,
		"total_successful": successful,
		"total_failed":     failed,
	})
}
