package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/creatia/internal/assets"
	"github.com/fpang/creatia/internal/batch"
	"github.com/fpang/creatia/internal/jobs"
	"github.com/fpang/creatia/internal/s3util"
	"github.com/fpang/creatia/internal/store"
)

// defaultCount is the batch size when a request omits count.
const defaultCount = 3

type batchResponse struct {
	Message    string        `json:"message"`
	BatchID    string        `json:"batch_id,omitempty"`
	PromptUsed string        `json:"prompt_used,omitempty"`
	Results    *batch.Report `json:"results"`
}

type aiWeekendRequest struct {
	UserInput       string   `json:"user_input"`
	Count           int      `json:"count"`
	Quality         string   `json:"quality"`
	Size            string   `json:"size"`
	OutputFormat    string   `json:"output_format"`
	ReferenceImages []string `json:"reference_images"`
	SaveDirectory   string   `json:"save_directory"`
	FilenamePrefix  string   `json:"filename_prefix"`
}

// POST /images/generate-batch
func (s *server) handleGenerateBatch(w http.ResponseWriter, r *http.Request) {
	req := batch.Request{Count: defaultCount}
	if err := decodeJSON(w, r, &req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, id, err := s.runBatch(r.Context(), req)
	if err != nil {
		batchError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, batchResponse{
		Message: "Batch generation completed: " + report.Summary(),
		BatchID: id,
		Results: report,
	})
}

// POST /images/generate-ai-weekend-batch
func (s *server) handleGenerateAIWeekendBatch(w http.ResponseWriter, r *http.Request) {
	in := aiWeekendRequest{Count: defaultCount, FilenamePrefix: "ai_weekend"}
	if err := decodeJSON(w, r, &in); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(in.UserInput) == "" {
		httpError(w, http.StatusBadRequest, "user_input is required")
		return
	}

	prompt := assets.BrandPrompt(in.UserInput)
	report, id, err := s.runBatch(r.Context(), batch.Request{
		Prompt:          prompt,
		Count:           in.Count,
		Quality:         in.Quality,
		Size:            in.Size,
		OutputFormat:    in.OutputFormat,
		ReferenceImages: in.ReferenceImages,
		SaveDirectory:   in.SaveDirectory,
		FilenamePrefix:  in.FilenamePrefix,
	})
	if err != nil {
		batchError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, batchResponse{
		Message:    "AI Weekend batch generation completed: " + report.Summary(),
		BatchID:    id,
		PromptUsed: prompt,
		Results:    report,
	})
}

// GET /images/batch-status/{batchID}
func (s *server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := jobs.IDParam(r, "batchID", jobs.BatchPrefix)
	if !ok {
		httpError(w, http.StatusNotFound, "Batch not found")
		return
	}

	stored, err := s.reports.Get(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("batchId", id).Msg("Failed to read batch report")
		httpError(w, http.StatusInternalServerError, "failed to read batch report")
		return
	}
	if stored == nil {
		httpError(w, http.StatusNotFound, "Batch not found")
		return
	}

	respondJSON(w, http.StatusOK, struct {
		*store.StoredBatch
		Status string `json:"status"`
	}{stored, "completed"})
}

// runBatch runs req, stores the report and returns it with its batch ID.
// A failure to store is logged and leaves the ID empty.
func (s *server) runBatch(ctx context.Context, req batch.Request) (*batch.Report, string, error) {
	refs, cleanup, err := s.localizeRefs(ctx, req.ReferenceImages)
	if err != nil {
		return nil, "", &batch.InvalidArgumentError{Reason: err.Error()}
	}
	defer cleanup()
	req.ReferenceImages = refs

	report, err := s.batches.Generate(ctx, req)
	if err != nil {
		return nil, "", err
	}

	id := jobs.GenerateID(jobs.BatchPrefix)
	sb := &store.StoredBatch{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Provider:  s.batches.Provider(),
		Mode:      req.Mode(),
		Prompt:    req.Prompt,
		Report:    report,
	}
	// The report is already computed; storing it must not depend on the
	// client staying connected.
	if err := s.reports.Put(context.WithoutCancel(ctx), sb); err != nil {
		log.Warn().Err(err).Str("batchId", id).Msg("Failed to store batch report")
		return report, "", nil
	}
	return report, id, nil
}

// localizeRefs downloads s3:// reference images to a temporary directory.
// cleanup removes that directory and is always safe to call.
func (s *server) localizeRefs(ctx context.Context, refs []string) ([]string, func(), error) {
	noop := func() {}
	remote := false
	for _, p := range refs {
		if _, _, ok := s3util.ParseURI(p); ok {
			remote = true
			break
		}
	}
	if !remote {
		return refs, noop, nil
	}
	if s.s3 == nil {
		return nil, noop, fmt.Errorf("s3 reference images are not enabled on this server")
	}

	dir, err := os.MkdirTemp("", "creatia-refs-")
	if err != nil {
		return nil, noop, fmt.Errorf("failed to create temp dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	local, err := s3util.LocalizeReferences(ctx, s.s3, refs, dir)
	if err != nil {
		cleanup()
		return nil, noop, err
	}
	return local, cleanup, nil
}
