// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	json "github.com/goccy/go-json"

	"github.com/okian/cardcognition/internal/adapters/http/swagger"
	"github.com/okian/cardcognition/internal/adapters/repository"
	service "github.com/okian/cardcognition/internal/app"
	"github.com/okian/cardcognition/internal/domain/model"
	"github.com/okian/cardcognition/internal/domain/registry"
	"github.com/okian/cardcognition/internal/domain/types"
	"github.com/okian/cardcognition/pkg/logger"
)

const (
	defaultMaxCommanderNameLen = 31
	defaultRequestTimeout      = 60 * time.Second
	defaultMaxBodyBytes        = 1 << 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Score(ctx context.Context, req service.ScoreRequest) (types.ScoringResult, error)

	Card(ctx context.Context, name string) (types.CardView, error)
	CommanderInfo(ctx context.Context, name string) (types.CommanderInfo, error)
	Suggestions(ctx context.Context, name string, offset, limit int) ([]types.Suggestion, error)
	Reductions(ctx context.Context, name string, limit int) ([]types.Suggestion, error)
	DBInfo(ctx context.Context) (types.DBInfo, error)
	RandomCommander(ctx context.Context) (model.Commander, error)

	InvalidateModel(ctx context.Context, name string) bool
	InvalidateModels(ctx context.Context) int
}

// ReadinessFunc reports whether downstream collaborators are reachable.
type ReadinessFunc func(ctx context.Context) error

// Server wires HTTP routes for the scoring API.
type Server struct {
	deps   Dependencies
	router chi.Router

	allowedOrigins      []string
	requestTimeout      time.Duration
	maxCommanderNameLen int
	maxBodyBytes        int64
	ready               ReadinessFunc

	logger logger.Logger
}

// NewServer creates a new API server with all routes registered.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:                deps,
		requestTimeout:      defaultRequestTimeout,
		maxCommanderNameLen: defaultMaxCommanderNameLen,
		maxBodyBytes:        defaultMaxBodyBytes,
		logger:              logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRouter()
	return s
}

// Router returns the configured router.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)

	if len(s.allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.allowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", metricsHandler())
	swagger.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.requestTimeout))

		r.Get("/", s.handleIndex)
		r.Get("/dbinfo", s.handleDBInfo)
		r.Get("/random-commander", s.handleRandomCommander)
		r.Get("/cards/{name}", s.handleCard)

		r.Post("/analyze/{commander}", s.handleAnalyze)

		r.Route("/{commander}", func(r chi.Router) {
			r.Get("/info", s.handleCommanderInfo)
			r.Get("/suggestions/{count}", s.handleSuggestions)
			r.Get("/suggestions/range/{start}/{end}", s.handleSuggestionRange)
			r.Get("/reductions/{count}", s.handleReductions)
		})

		r.Route("/admin/models", func(r chi.Router) {
			r.Post("/invalidate", s.handleInvalidateAll)
			r.Post("/{commander}/invalidate", s.handleInvalidate)
		})
	})

	s.router = r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps err to a status code and error code.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.Error(err),
		)
	}
	writeError(w, status, code, err)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrCommanderNotFound):
		return http.StatusNotFound, "commander_not_found"
	case errors.Is(err, service.ErrCardNotFound):
		return http.StatusNotFound, "card_not_found"
	case errors.Is(err, registry.ErrModelNotFound):
		return http.StatusNotFound, "model_not_found"
	case errors.Is(err, ErrNoResults):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, registry.ErrSchemaMismatch):
		return http.StatusConflict, "schema_mismatch"
	case errors.Is(err, ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType, "unsupported_media_type"
	case errors.Is(err, service.ErrTooManyCards),
		errors.Is(err, service.ErrEmptyRequest),
		errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, ErrNameTooLong),
		errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrLookupUnavailable),
		errors.Is(err, service.ErrServiceUnavailable),
		errors.Is(err, ErrNotReady):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// pathParam returns the decoded path parameter key.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// commanderParam returns the commander path parameter, rejecting names
// longer than any known commander.
func (s *Server) commanderParam(r *http.Request, op string) (string, error) {
	name := pathParam(r, "commander")
	if name == "" {
		return "", NewKind(op, ErrBadRequest)
	}
	if s.maxCommanderNameLen > 0 && len([]rune(name)) > s.maxCommanderNameLen {
		return "", NewKind(op, ErrNameTooLong)
	}
	return name, nil
}
