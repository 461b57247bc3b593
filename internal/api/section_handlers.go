package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/math-practice/internal/models"
	"github.com/terra-clan/math-practice/internal/practice"
	"github.com/terra-clan/math-practice/internal/sections"
)

// Section file handlers

type sectionFileResult struct {
	Filename string                 `json:"filename"`
	Reload   *practice.ReloadResult `json:"reload"`
}

func (s *Server) handleListSectionFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.manager.ListSectionFiles(r.Context())
	if err != nil {
		slog.Error("failed to list section files", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to read section files")
		return
	}

	respondJSON(w, http.StatusOK, files)
}

func (s *Server) handleUploadSectionFile(w http.ResponseWriter, r *http.Request) {
	var req models.UploadSectionRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	result, err := s.manager.UploadSectionFile(r.Context(), req.Filename, []byte(req.Content))
	if err != nil {
		respondSectionError(w, err, req.Filename, "failed to upload section file")
		return
	}

	respondJSON(w, http.StatusCreated, sectionFileResult{Filename: req.Filename, Reload: result})
}

func (s *Server) handleDeleteSectionFile(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	result, err := s.manager.DeleteSectionFile(r.Context(), filename)
	if err != nil {
		respondSectionError(w, err, filename, "failed to delete section file")
		return
	}

	respondJSON(w, http.StatusOK, sectionFileResult{Filename: filename, Reload: result})
}

func respondSectionError(w http.ResponseWriter, err error, filename, message string) {
	switch {
	case errors.Is(err, sections.ErrFileNotFound):
		respondError(w, http.StatusNotFound, "not_found", "file not found")
	case errors.Is(err, sections.ErrInvalidFileName):
		respondError(w, http.StatusBadRequest, "invalid_filename", err.Error())
	case errors.Is(err, sections.ErrUnsupportedExtension):
		respondError(w, http.StatusBadRequest, "unsupported_extension", err.Error())
	case errors.Is(err, sections.ErrInvalidContent):
		respondError(w, http.StatusBadRequest, "invalid_content", err.Error())
	default:
		slog.Error(message, "error", err, "file", filename)
		respondError(w, http.StatusInternalServerError, "internal_error", message)
	}
}
