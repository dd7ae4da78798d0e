package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/vbonduro/mealmate/internal/domain"
	"github.com/vbonduro/mealmate/internal/flow"
	"github.com/vbonduro/mealmate/internal/photostore"
	"github.com/vbonduro/mealmate/internal/service"
)

type Server struct {
	service    *service.MealService
	photoStore photostore.PhotoStore
	mux        *http.ServeMux
	logger     *slog.Logger
}

func NewServer(svc *service.MealService, ps photostore.PhotoStore, logger *slog.Logger) *Server {
	s := &Server{
		service:    svc,
		photoStore: ps,
		mux:        http.NewServeMux(),
		logger:     logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /scans", s.handleCreateScan)
	s.mux.HandleFunc("GET /scans/{id}", s.handleGetScan)
	s.mux.HandleFunc("DELETE /scans/{id}", s.handleDeleteScan)
	s.mux.HandleFunc("POST /scans/{id}/image", s.handleRescan)
	s.mux.HandleFunc("POST /scans/{id}/more", s.handleMoreRecipes)
	s.mux.HandleFunc("PUT /scans/{id}/sort", s.handleSetSort)
	s.mux.HandleFunc("GET /scans/{id}/recipes/{rid}", s.handleOpenRecipe)
	s.mux.HandleFunc("GET /recipes/{id}", s.handleGetRecipe)
	s.mux.HandleFunc("GET /starred", s.handleListStarred)
	s.mux.HandleFunc("POST /starred/{id}", s.handleToggleStar)
	s.mux.HandleFunc("GET /profile", s.handleGetProfile)
	s.mux.HandleFunc("PUT /profile", s.handleUpdateProfile)
	s.mux.HandleFunc("GET /photos/{key}", s.handleGetPhoto)
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; img-src 'self'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps an operation error to the HTTP status reported for it.
func statusFor(err error) int {
	var (
		notFound   *domain.NotFoundError
		validation *domain.ValidationError
		config     *domain.ConfigurationError
		apiErr     *domain.ExternalAPIError
		parseErr   *domain.ParseError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, service.ErrSessionNotFound), errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, flow.ErrSuperseded), errors.Is(err, flow.ErrNoIngredients):
		return http.StatusConflict
	case errors.As(err, &config):
		return http.StatusServiceUnavailable
	case errors.As(err, &apiErr), errors.As(err, &parseErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
