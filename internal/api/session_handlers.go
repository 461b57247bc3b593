package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/terra-clan/math-practice/internal/models"
	"github.com/terra-clan/math-practice/internal/storage"
)

// Study session handlers

func (s *Server) handleGetCurrentSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.manager.CurrentSession(r.Context())
	if err != nil {
		slog.Error("failed to get current session", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get current session")
		return
	}

	if session == nil {
		respondJSON(w, http.StatusOK, nil)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if r.ContentLength != 0 && !decodeRequest(w, r, &req) {
		return
	}

	session, err := s.manager.CreateSession(r.Context(), req)
	if err != nil {
		slog.Error("failed to create session", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to create session")
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}

	var patch models.SessionPatch
	if !decodeRequest(w, r, &patch) {
		return
	}

	session, err := s.manager.UpdateSession(r.Context(), id, patch)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		slog.Error("failed to update session", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update session")
		return
	}

	respondJSON(w, http.StatusOK, session)
}
