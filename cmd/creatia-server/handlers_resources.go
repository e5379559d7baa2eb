package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/fpang/creatia/internal/filehandler"
)

// GET /resources
func (s *server) handleResources(w http.ResponseWriter, r *http.Request) {
	all, err := s.catalog.All()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list resources")
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	images, err := s.catalog.AllImages()
	if err != nil {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := make(map[string]interface{}, len(all)+1)
	for cat, files := range all {
		resp[cat] = files
	}
	resp["all_images"] = images
	respondJSON(w, http.StatusOK, resp)
}

// GET /resources/{category}?details=true
func (s *server) handleResourceCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	if !filehandler.ValidCategory(category) {
		httpError(w, http.StatusNotFound, "Unknown resource category: "+category)
		return
	}

	files, err := s.catalog.List(category)
	if err != nil {
		log.Error().Err(err).Str("category", category).Msg("Failed to list resources")
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if r.URL.Query().Get("details") == "true" {
		respondJSON(w, http.StatusOK, map[string]interface{}{category: filehandler.InspectAll(files)})
		return
	}
	respondJSON(w, http.StatusOK, map[string][]string{category: files})
}
