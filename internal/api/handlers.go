package api

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/sells-group/compliance-cli/internal/gap"
	"github.com/sells-group/compliance-cli/internal/model"
	"github.com/sells-group/compliance-cli/internal/report"
	"github.com/sells-group/compliance-cli/internal/scoring"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeScoringError maps scoring failures onto HTTP statuses.
func writeScoringError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case scoring.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case scoring.IsInvalidWeights(err):
		writeError(w, http.StatusInternalServerError, err.Error())
	case r.Context().Err() != nil:
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		zap.L().Error("api: scoring failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) questionScore(w http.ResponseWriter, r *http.Request) {
	qs, err := s.scorer.ComputeQuestionScore(r.Context(), chi.URLParam(r, "answerID"))
	if err != nil {
		writeScoringError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, qs)
}

func (s *server) sectionScore(w http.ResponseWriter, r *http.Request) {
	ss, err := s.scorer.ComputeSectionScore(r.Context(),
		chi.URLParam(r, "sectionID"), chi.URLParam(r, "assessmentID"))
	if err != nil {
		writeScoringError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ss)
}

func (s *server) overallScore(w http.ResponseWriter, r *http.Request) {
	overall, err := s.overall(r.Context(), chi.URLParam(r, "assessmentID"), r.URL.Query().Get("cached") == "true")
	if err != nil {
		writeScoringError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overall)
}

func (s *server) gaps(w http.ResponseWriter, r *http.Request) {
	threshold := s.opts.GapThreshold
	if v := r.URL.Query().Get("threshold"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(t) || t < 0 || t > 5 {
			writeError(w, http.StatusBadRequest, "threshold must be a number between 0 and 5")
			return
		}
		threshold = t
	}

	id := chi.URLParam(r, "assessmentID")
	overall, err := s.overall(r.Context(), id, r.URL.Query().Get("cached") == "true")
	if err != nil {
		writeScoringError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report.NewGapReport(id, threshold, gap.Identify(overall, threshold)))
}

// overall serves a stored score when cached is set and a cache is
// configured, computing it on a cache miss.
func (s *server) overall(ctx context.Context, assessmentID string, cached bool) (*model.OverallScore, error) {
	if cached && s.opts.Cache != nil {
		o, err := s.opts.Cache.GetOverallScore(ctx, assessmentID)
		if err == nil {
			return o, nil
		}
		if !scoring.IsNotFound(err) {
			return nil, err
		}
	}
	return s.scorer.ComputeOverallScore(ctx, assessmentID)
}

type classifyRequest struct {
	Score          *float64 `json:"score"`
	IsFoundational bool     `json:"is_foundational"`
	SectionWeight  float64  `json:"section_weight"`
}

func (s *server) classify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Score == nil {
		writeError(w, http.StatusBadRequest, "score is required")
		return
	}

	in := gap.Input{
		Score:          *req.Score,
		IsFoundational: req.IsFoundational,
		SectionWeight:  req.SectionWeight,
	}
	if err := in.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report.Classification{
		Input:          in,
		Classification: gap.Classify(in),
	})
}
