// Package http exposes replays and stored results over HTTP
package http

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wrale/isoreplay/api/types/v1alpha1"
	"github.com/wrale/isoreplay/internal/isoreplay/history"
	"github.com/wrale/isoreplay/internal/isoreplay/interleaving"
	"github.com/wrale/isoreplay/internal/isoreplay/loader"
	"github.com/wrale/isoreplay/internal/isoreplay/replay"
	"github.com/wrale/isoreplay/internal/isoreplay/store"
)

// Replayer runs validated test cases
type Replayer interface {
	RunBatch(ctx context.Context, cases []*interleaving.TestCase) ([]history.History, error)
}

// Resetter empties the tables replays run against
type Resetter interface {
	Reset(ctx context.Context) error
}

// Handler serves the replay API
type Handler struct {
	replayer Replayer
	store    store.Store
	resetter Resetter
	logger   zerolog.Logger
	replayMW []func(http.Handler) http.Handler

	// replays share the tables under test, so only one runs at a time
	replayMu sync.Mutex
}

// Option configures a Handler
type Option func(*Handler)

// WithReplayMiddleware wraps the replay endpoint, e.g. with a rate limiter
func WithReplayMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.replayMW = append(h.replayMW, mw...)
	}
}

// WithResetter enables DELETE /api/v1alpha1/tables
func WithResetter(rs Resetter) Option {
	return func(h *Handler) {
		h.resetter = rs
	}
}

// NewHandler creates a handler. st may be nil, disabling the results endpoints
// and the save parameter.
func NewHandler(replayer Replayer, st store.Store, logger zerolog.Logger, opts ...Option) *Handler {
	h := &Handler{
		replayer: replayer,
		store:    st,
		logger:   logger.With().Str("component", "replay-http").Logger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router returns a router with every endpoint mounted under /api/v1alpha1
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(requestIDHeaderMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(logMiddleware(h.logger))

	r.Get("/healthz", healthz)
	h.RegisterRoutes(r)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.respondError(w, r, ErrNotFound("resource not found"))
	})
	return r
}

// RegisterRoutes mounts all API endpoints on the provided router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1alpha1", func(r chi.Router) {
		r.With(h.replayMW...).Post("/replays", h.handleReplay)
		r.Get("/results", h.handleListResults)
		r.Get("/results/{name}", h.handleGetResult)
		r.Delete("/tables", h.handleResetTables)
	})
}

// handleReplay replays every test case of the posted file. With ?save=NAME
// the histories are stored as well.
func (h *Handler) handleReplay(w http.ResponseWriter, r *http.Request) {
	file, err := loader.Decode(r.Body, loader.FormatJSON)
	if err != nil {
		h.respondError(w, r, ErrInvalidRequest("invalid request body"))
		return
	}

	cases, err := loader.Build(file)
	if err != nil {
		h.respondError(w, r, ErrInvalidRequest(err.Error()))
		return
	}

	save := r.URL.Query().Get("save")
	if save != "" {
		if h.store == nil {
			h.respondError(w, r, ErrUnavailable("result store not configured"))
			return
		}
		if err := store.ValidateName(save); err != nil {
			h.respondError(w, r, ErrInvalidRequest(err.Error()))
			return
		}
	}

	runID := uuid.NewString()
	logger := h.logger.With().Str("run", runID).Logger()

	h.replayMu.Lock()
	histories, err := h.replayer.RunBatch(r.Context(), cases)
	h.replayMu.Unlock()

	// Unreplayable cases still carry a history; report them alongside
	var batchErr *replay.BatchError
	var caseErrors []string
	switch {
	case errors.As(err, &batchErr):
		logger.Warn().Err(err).Int("unreplayable", len(batchErr.Cases)).Msg("replay incomplete")
		for _, ce := range batchErr.Cases {
			caseErrors = append(caseErrors, ce.Error())
		}
	case err != nil:
		logger.Error().Err(err).Msg("replay failed")
		h.respondError(w, r, err)
		return
	}

	if save != "" {
		if err := h.store.Save(r.Context(), save, histories); err != nil {
			logger.Error().Err(err).Str("name", save).Msg("failed to save results")
			h.respondError(w, r, err)
			return
		}
	}

	resp := v1alpha1.ReplayResponse{
		RunID:     runID,
		Histories: make([][]v1alpha1.TestResult, len(histories)),
		Errors:    caseErrors,
	}
	for i, hist := range histories {
		resp.Histories[i] = hist.Wire()
	}

	logger.Info().Int("cases", len(cases)).Msg("replay served")
	render.JSON(w, r, resp)
}

func (h *Handler) handleListResults(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.respondError(w, r, ErrUnavailable("result store not configured"))
		return
	}

	names, err := h.store.List(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	items := make([]interface{}, len(names))
	for i, n := range names {
		items[i] = n
	}
	render.JSON(w, r, v1alpha1.ListResponse{Items: items, TotalCount: len(items)})
}

func (h *Handler) handleGetResult(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.respondError(w, r, ErrUnavailable("result store not configured"))
		return
	}

	data, err := h.store.Load(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to write response")
	}
}

// handleResetTables empties the tables between replays
func (h *Handler) handleResetTables(w http.ResponseWriter, r *http.Request) {
	if h.resetter == nil {
		h.respondError(w, r, ErrUnavailable("table reset not configured"))
		return
	}

	h.replayMu.Lock()
	err := h.resetter.Reset(r.Context())
	h.replayMu.Unlock()
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.logger.Info().Msg("tables reset")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	he := toHTTPError(err)
	if he.code >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	if rerr := render.Render(w, r, he); rerr != nil {
		h.logger.Error().Err(rerr).Msg("error rendering error response")
	}
}
