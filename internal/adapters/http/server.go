package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"prospect/internal/domain"
	"prospect/internal/ports"
	"prospect/internal/services/analysis"
)

type Server struct {
	search   ports.SearchService
	analysis ports.AnalysisService
	statuses StatusUpdater
	validate *validator.Validate
	logger   *log.Logger
}

// StatusUpdater flips the user-set triage flag.
type StatusUpdater interface {
	SetChecked(ctx context.Context, id string, checked bool) (domain.Business, error)
}

func New(search ports.SearchService, analysisSvc ports.AnalysisService, statuses StatusUpdater, logger *log.Logger) *Server {
	return &Server{
		search:   search,
		analysis: analysisSvc,
		statuses: statuses,
		validate: validator.New(),
		logger:   logger,
	}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Route("/api", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Post("/analyse", s.handleAnalyse)
		r.Patch("/status", s.handleStatus)
		r.Get("/businesses/{id}", s.handleBusiness)
	})
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := domain.SearchParams{
		Location: q.Get("location"),
		Category: q.Get("category"),
		Keywords: q.Get("keywords"),
		Limit:    intQuery(q.Get("limit"), 20),
	}
	if err := s.validate.Struct(params); err != nil {
		s.writeError(w, http.StatusBadRequest, "location is required")
		return
	}

	businesses, err := s.search.Search(r.Context(), params)
	if err != nil {
		s.logger.Printf("search: %v", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"businesses": businesses})
}

type analyseRequest struct {
	BusinessID string `json:"business_id" validate:"required"`
}

func (s *Server) handleAnalyse(w http.ResponseWriter, r *http.Request) {
	var req analyseRequest
	if !s.decode(w, r, &req) {
		return
	}

	breakdown, err := s.analysis.Analyze(r.Context(), req.BusinessID)
	switch {
	case errors.Is(err, analysis.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "business not found")
		return
	case errors.Is(err, analysis.ErrNoWebsite):
		s.writeError(w, http.StatusBadRequest, "business has no website")
		return
	case err != nil:
		s.logger.Printf("analyse %s: %v", req.BusinessID, err)
		s.writeError(w, http.StatusInternalServerError, "failed to analyze website")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"final_score": breakdown.FinalScore,
		"breakdown":   breakdown,
	})
}

type statusRequest struct {
	BusinessID string `json:"business_id" validate:"required"`
	Checked    *bool  `json:"checked" validate:"required"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !s.decode(w, r, &req) {
		return
	}

	business, err := s.statuses.SetChecked(r.Context(), req.BusinessID, *req.Checked)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "business not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "checked": business.Checked})
}

func (s *Server) handleBusiness(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	view, err := s.analysis.View(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "business not found")
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// decode unmarshals and validates a JSON body, writing the 400 itself when
// the payload is unusable.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "missing required fields")
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Printf("write response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func intQuery(raw string, def int) int {
	if raw == "" {
		return def
	}
	out, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return out
}
