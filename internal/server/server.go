// Package server exposes the orchestrator over HTTP with the French field
// names of the editing front end.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/valpere/editeur/internal/errs"
	"github.com/valpere/editeur/internal/metrics"
	"github.com/valpere/editeur/internal/orchestrator"
)

const maxBodyBytes = 1 << 20

type Server struct {
	orch *orchestrator.Orchestrator
	log  *zap.Logger
}

func New(orch *orchestrator.Orchestrator, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{orch: orch, log: log}
}

// Handler returns the routed API with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /segmenter", s.handleSegment)
	mux.HandleFunc("POST /classifier", s.handleClassify)
	mux.HandleFunc("POST /harmoniser", s.handleHarmonize)
	mux.HandleFunc("POST /suggest", s.handleSuggest)
	mux.HandleFunc("POST /traduire", s.handleTranslate)
	mux.HandleFunc("POST /evaluer", s.handleEvaluate)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", metrics.Handler())
	return s.logRequests(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.log.Info("request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

// decode reads a JSON body of at most maxBodyBytes into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Detail string `json:"detail"`
	Kind   string `json:"kind,omitempty"`
}

// writeError maps client errors to 400 and everything else to 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	kind := ""
	switch {
	case errors.Is(err, errs.ErrEmptyInput):
		status, kind = http.StatusBadRequest, "empty_input"
	case errors.Is(err, errs.ErrInvalidLanguage):
		status, kind = http.StatusBadRequest, "invalid_language"
	case errors.Is(err, errs.ErrTranslationFailed):
		kind = "translation_failed"
	}
	if status >= 500 {
		s.log.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Detail: err.Error(), Kind: kind})
}

func badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error(), Kind: "bad_request"})
}
