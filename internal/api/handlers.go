package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/math-practice/internal/models"
	"github.com/terra-clan/math-practice/internal/practice"
	"github.com/terra-clan/math-practice/internal/validation"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// decodeRequest reads a JSON body into dst and validates it.
// It writes the error response and returns false on failure.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}

	if err := validation.Struct(dst); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return false
	}

	return true
}

// intParam parses a numeric URL parameter
func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	value, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", name+" must be an integer")
		return 0, false
	}
	return value, true
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Ping(r.Context()); err != nil {
		slog.Warn("store not ready", "error", err)
		respondError(w, http.StatusServiceUnavailable, "not_ready", "service not ready")
		return
	}

	checks := map[string]string{"store": "ok"}
	ready := true
	for name, err := range s.registry.HealthCheckAll(r.Context()) {
		if err != nil {
			slog.Warn("dependency not ready", "service", name, "error", err)
			checks[name] = err.Error()
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	if !ready {
		respondError(w, http.StatusServiceUnavailable, "not_ready", "dependency not ready")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ready",
		"checks":     checks,
		"lastReload": s.manager.LastReload(),
	})
}

// Exercise handlers

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	exercises, err := s.manager.Exercises(r.Context())
	if err != nil {
		slog.Error("failed to list exercises", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list exercises")
		return
	}

	respondJSON(w, http.StatusOK, exercises)
}

func (s *Server) handleListSectionExercises(w http.ResponseWriter, r *http.Request) {
	sectionID, ok := intParam(w, r, "sectionId")
	if !ok {
		return
	}

	exercises, err := s.manager.SectionExercises(r.Context(), sectionID)
	if err != nil {
		slog.Error("failed to list section exercises", "error", err, "section_id", sectionID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list exercises")
		return
	}

	respondJSON(w, http.StatusOK, exercises)
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}

	ex, err := s.manager.Exercise(r.Context(), id)
	if err != nil {
		if errors.Is(err, practice.ErrExerciseNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "exercise not found")
			return
		}
		slog.Error("failed to get exercise", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get exercise")
		return
	}

	respondJSON(w, http.StatusOK, ex)
}

// Response handlers

func (s *Server) handleSaveResponse(w http.ResponseWriter, r *http.Request) {
	var req models.SaveResponseRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	resp, err := s.manager.SaveResponse(r.Context(), req)
	if err != nil {
		slog.Error("failed to save response", "error", err, "exercise_id", req.ExerciseID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to save response")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetResponse(w http.ResponseWriter, r *http.Request) {
	exerciseID, ok := intParam(w, r, "exerciseId")
	if !ok {
		return
	}

	resp, err := s.manager.Response(r.Context(), exerciseID)
	if err != nil {
		slog.Error("failed to get response", "error", err, "exercise_id", exerciseID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get response")
		return
	}

	// data is omitted when there is no response yet
	if resp == nil {
		respondJSON(w, http.StatusOK, nil)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Settings handlers

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.manager.Settings(r.Context())
	if err != nil {
		slog.Error("failed to get settings", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get settings")
		return
	}

	respondJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch models.SettingsPatch
	if !decodeRequest(w, r, &patch) {
		return
	}

	settings, err := s.manager.UpdateSettings(r.Context(), patch)
	if err != nil {
		slog.Error("failed to update settings", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update settings")
		return
	}

	respondJSON(w, http.StatusOK, settings)
}

// Domain handlers

func (s *Server) handleGetDomains(w http.ResponseWriter, r *http.Request) {
	domains, err := s.manager.Domains(r.Context())
	if err != nil {
		slog.Error("failed to classify sections", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to classify sections")
		return
	}

	respondJSON(w, http.StatusOK, domains)
}
