package main

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fpang/creatia/internal/batch"
	"github.com/fpang/creatia/internal/filehandler"
	"github.com/fpang/creatia/internal/planner"
	"github.com/fpang/creatia/internal/s3util"
	"github.com/fpang/creatia/internal/store"
)

// batchRunner is the part of *batch.Service used by the handlers.
type batchRunner interface {
	Generate(ctx context.Context, req batch.Request) (*batch.Report, error)
	Provider() string
}

// server holds the dependencies of the HTTP handlers.
type server struct {
	batches batchRunner
	reports store.ReportStore
	catalog *filehandler.Catalog
	planner *planner.Planner
	// s3 fetches s3:// reference images; nil disables them.
	s3 s3util.GetObjectAPI
}

func (s *server) routes(origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(withLogging)
	r.Use(middleware.Recoverer)
	r.Use(withCORS(origins))

	r.Get("/", handleRoot)
	r.Get("/health", handleHealth)

	r.Route("/images", func(r chi.Router) {
		r.Post("/generate-batch", s.handleGenerateBatch)
		r.Post("/generate-ai-weekend-batch", s.handleGenerateAIWeekendBatch)
		r.Get("/batch-status/{batchID}", s.handleBatchStatus)
	})

	r.Route("/resources", func(r chi.Router) {
		r.Get("/", s.handleResources)
		r.Get("/{category}", s.handleResourceCategory)
	})

	r.Route("/weekly-planner", func(r chi.Router) {
		r.Post("/generate", s.handleWeeklyPlan)
		r.Post("/validate-resources", s.handleValidateResources)
		r.Post("/generate-images", s.handleWeeklyPlanImages)
	})

	r.Route("/monthly-planner", func(r chi.Router) {
		r.Post("/generate", s.handleMonthlyPlan)
		r.Post("/generate-full", s.handleMonthlyPlanFull)
	})

	r.Route("/strategist", func(r chi.Router) {
		r.Post("/generate", s.handleStrategy)
		r.Post("/generate-full", s.handleStrategyFull)
		r.Post("/validate-info", s.handleValidateCompanyInfo)
	})

	return r
}

// GET /
func handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "Welcome to Creatia API"})
}

// GET /health
func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
