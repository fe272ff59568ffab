// Package api exposes the HTTP interface for the knowledge service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hmatsu/knowledge-keeper/internal/auth"
	"github.com/hmatsu/knowledge-keeper/internal/knowledge"
	"github.com/hmatsu/knowledge-keeper/internal/metrics"
	"github.com/hmatsu/knowledge-keeper/internal/usecase"
)

// UseCases groups the operations the HTTP layer dispatches to.
type UseCases struct {
	ExtractAndSave  *usecase.ExtractAndSave
	ListKnowledge   *usecase.ListKnowledge
	DeleteKnowledge *usecase.DeleteKnowledge
	SearchKnowledge *usecase.SearchKnowledge
}

// UseCaseFactory builds the use-case set for one request, wired to a
// request-scoped logger.
type UseCaseFactory func(logger *zap.Logger) UseCases

// Server wires HTTP handlers to the use cases.
type Server struct {
	router   chi.Router
	verifier *auth.Verifier
	build    UseCaseFactory
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(verifier *auth.Verifier, build UseCaseFactory, requestTimeout time.Duration, logger *zap.Logger) *Server {
	s := &Server{
		verifier: verifier,
		build:    build,
		logger:   logger,
	}
	metrics.Init()

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(requestTimeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Route("/knowledge", func(r chi.Router) {
			r.Post("/", s.createItem)
			r.Get("/", s.listItems)
			r.Delete("/{item_id}", s.deleteItem)
			r.Post("/search", s.search)
		})
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// scope builds the request's use cases with a logger carrying the request id
// and the caller identity.
func (s *Server) scope(r *http.Request) UseCases {
	session := sessionFrom(r.Context())
	logger := s.logger.With(
		zap.String("request_id", RequestID(r.Context())),
		zap.String("user_id", session.UserID),
	)
	return s.build(logger)
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(s.logger, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(s.logger, w, http.StatusOK, map[string]string{"status": "ready"})
}

type createItemRequest struct {
	URL string `json:"url"`
}

type searchRequest struct {
	Query string `json:"query"`
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())

	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := validateURL(req.URL); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := s.scope(r).ExtractAndSave.Execute(r.Context(), req.URL, session.UserID)
	if err != nil {
		if errors.Is(err, knowledge.ErrFetchFailed) {
			metrics.ObserveFetchFailure()
		}
		s.writeDomainError(w, err)
		return
	}
	metrics.ObserveItemSaved()
	writeJSON(s.logger, w, http.StatusCreated, view)
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())

	views, err := s.scope(r).ListKnowledge.Execute(r.Context(), session.UserID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(s.logger, w, http.StatusOK, views)
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())

	itemID := chi.URLParam(r, "item_id")
	if _, err := uuid.Parse(itemID); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := s.scope(r).DeleteKnowledge.Execute(r.Context(), itemID, session.UserID); err != nil {
		s.writeDomainError(w, err)
		return
	}
	metrics.ObserveItemDeleted()
	writeJSON(s.logger, w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		s.writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	result, err := s.scope(r).SearchKnowledge.Execute(r.Context(), req.Query)
	if err != nil {
		metrics.ObserveSearch("error")
		s.writeDomainError(w, err)
		return
	}
	metrics.ObserveSearch("ok")
	writeJSON(s.logger, w, http.StatusOK, result)
}

func validateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return errors.New("url is not valid")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("url must be absolute with an http or https scheme")
	}
	return nil
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, knowledge.ErrDuplicateURL):
		s.writeError(w, http.StatusConflict, "url already saved")
	case errors.Is(err, knowledge.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "item not found")
	case errors.Is(err, knowledge.ErrFetchFailed):
		s.writeError(w, http.StatusBadGateway, "failed to fetch content")
	default:
		s.logger.Error("request failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(s.logger, w, status, map[string]string{"error": msg})
}

func writeJSON(logger *zap.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("write JSON failed", zap.Error(err))
	}
}
