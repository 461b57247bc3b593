package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/terra-clan/math-practice/internal/llm"
	"github.com/terra-clan/math-practice/internal/models"
)

// AI feedback handlers

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req models.SolveRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	answer, err := s.manager.Solve(r.Context(), req)
	if err != nil {
		respondAIError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"response": answer})
}

func (s *Server) handleSectionFeedback(w http.ResponseWriter, r *http.Request) {
	var req models.FeedbackRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	answer, err := s.manager.SectionFeedback(r.Context(), req)
	if err != nil {
		respondAIError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"feedback": answer})
}

// respondAIError reports upstream failures with their message unchanged
func respondAIError(w http.ResponseWriter, err error) {
	if errors.Is(err, llm.ErrMissingAPIKey) {
		respondError(w, http.StatusBadRequest, "missing_api_key", "API key is required")
		return
	}

	slog.Error("ai request failed", "error", err)
	respondError(w, http.StatusBadGateway, "ai_error", err.Error())
}
