// Package handler exposes the analysis pipeline over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arjunverma/scoresight/internal/analysis"
	"github.com/arjunverma/scoresight/internal/llm"
	"github.com/arjunverma/scoresight/internal/loader"
	"github.com/arjunverma/scoresight/internal/model"
	"github.com/arjunverma/scoresight/internal/report"
	"github.com/arjunverma/scoresight/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store *store.Store
	llm   *llm.Client
}

// New creates a new Handler. The llm client may be nil; report generation
// then embeds a service-unavailable warning.
func New(s *store.Store, l *llm.Client) *Handler {
	return &Handler{store: s, llm: l}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/analyze", h.handleAnalyze)
	r.Post("/report", h.handleReport)
	r.Get("/reports", h.handleListReports)
	r.Get("/healthz", h.handleHealthz)
}

// analyzeBody parses a submission request body into an analysis result.
func analyzeBody(r *http.Request) (*model.AnalysisResult, error) {
	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, 16<<20))
	if err != nil {
		return nil, err
	}
	rec, err := loader.Load(body)
	if err != nil {
		return nil, err
	}
	return analysis.Analyze(rec)
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	res, err := analyzeBody(r)
	if err != nil {
		status := http.StatusBadRequest
		if !errors.Is(err, loader.ErrEmptyOrInvalidShape) && !isClientError(err) {
			status = http.StatusInternalServerError
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("encode analysis response", "error", err)
	}
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	res, err := analyzeBody(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	feedback := "Error: AI feedback was skipped for this report."
	if r.URL.Query().Get("feedback") != "0" {
		feedback = h.llm.GenerateFeedback(r.Context(), llm.BuildContext(res), res.StudentName)
		if llm.IsErrorFeedback(feedback) {
			slog.Warn("feedback generation failed", "student", res.StudentName, "detail", feedback)
		}
	}

	w.Header().Set("Content-Type", "application/pdf")
	if err := report.Generate(res, feedback, w); err != nil {
		slog.Error("render report", "error", err)
		http.Error(w, "failed to render report", http.StatusInternalServerError)
	}
}

func (h *Handler) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.store.ListReports()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if reports == nil {
		reports = []model.ReportRecord{}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(reports); err != nil {
		slog.Error("encode reports response", "error", err)
	}
}

func (h *Handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func isClientError(err error) bool {
	if errors.Is(err, analysis.ErrNoInputData) {
		return true
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.As(err, &maxErr)
}
