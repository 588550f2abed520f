package web

// handlers_import.go contains the CSV import pipeline endpoints: analyze,
// execute, and the audit history.

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/logidesk/backoffice/internal/core"
	"github.com/logidesk/backoffice/internal/logging"
)

// analyzeResponse pairs the preview with the session handle that executes it.
type analyzeResponse struct {
	AnalysisID string               `json:"analysisId"`
	Analysis   *core.ImportAnalysis `json:"analysis"`
}

// handleImportAnalyze accepts a multipart CSV upload, reconciles it against
// the store, and returns the preview without writing anything.
func (s *Server) handleImportAnalyze(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		respondError(w, r, fmt.Errorf("file too large or invalid form"), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, fmt.Errorf("no file provided"), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, r, fmt.Errorf("read upload: %w", err), http.StatusBadRequest)
		return
	}

	logger := logging.WithFields(r.Context(), "file", header.Filename)
	analysisID, analysis, err := s.service.AnalyzeCSV(r.Context(), header.Filename, data, nil)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	logger.Info("import analyzed",
		"analysis_id", analysisID,
		"total", analysis.Summary.Total,
		"to_create", analysis.Summary.ToCreate,
		"to_update", analysis.Summary.ToUpdate,
		"to_skip", analysis.Summary.ToSkip,
	)

	respondJSON(w, http.StatusOK, analyzeResponse{
		AnalysisID: analysisID,
		Analysis:   analysis,
	})
}

// executeRequest identifies who is committing the analyzed import.
type executeRequest struct {
	ImportedBy string `json:"imported_by"`
}

// handleImportExecute commits a previously analyzed import session.
// The session is consumed whether or not the commit fully succeeds.
func (s *Server) handleImportExecute(w http.ResponseWriter, r *http.Request) {
	analysisID := chi.URLParam(r, "analysisID")

	var req executeRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, r, fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
			return
		}
	}

	result, err := s.service.ExecuteSession(r.Context(), analysisID, req.ImportedBy, nil)
	if err != nil {
		respondError(w, r, err, http.StatusNotFound)
		return
	}

	// Partial failures still return the full result; the success flag and
	// the errors list tell the client what happened.
	respondJSON(w, http.StatusOK, result)
}

// handleImportLogs serves one page of the import audit history, newest first.
func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	page := parseIntParam(r, "page", 1)
	pageSize := parseIntParam(r, "pageSize", 10)

	logs, err := s.service.ListImportLogs(r.Context(), page, pageSize)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, logs)
}
