// Package server serves the built taxonomy tree over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lherron/taxomobile/internal/build"
	"github.com/lherron/taxomobile/internal/taxon"
	"go.uber.org/zap"
)

// ErrNotReady is returned while no tree has been built yet.
var ErrNotReady = errors.New("tree not built yet")

// Server is the HTTP API server for taxomobile.
type Server struct {
	router  chi.Router
	builder *build.Builder
	log     *zap.Logger
	token   string

	mu      sync.RWMutex
	current *build.Result
	lastErr error

	// reloadMu serializes rebuilds; readers only take mu.
	reloadMu sync.Mutex
}

// New creates and configures the HTTP server. An empty token disables auth.
func New(builder *build.Builder, log *zap.Logger, token string) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		builder: builder,
		log:     log,
		token:   token,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.token != "" {
			r.Use(AuthMiddleware(s.token, s.log))
		}

		r.Get("/v1/tree", s.handleTree)
		r.Get("/v1/tree/*", s.handleSubtree)
		r.Get("/v1/nodes/{nodeID}", s.handleNode)
		r.Get("/v1/stats", s.handleStats)
		r.Post("/v1/reload", s.handleReload)
	})

	s.router = r
}

// Reload builds a fresh tree and publishes it. Readers keep the previous
// tree until the swap; a failed build leaves it in place.
func (s *Server) Reload(ctx context.Context) (*build.Result, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	res, err := s.builder.Build(ctx)
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		s.log.Error("rebuild failed, keeping previous tree", zap.Error(err), zap.Bool("malformed", taxon.IsMalformed(err)))
		return nil, err
	}

	s.mu.Lock()
	s.current = res
	s.lastErr = nil
	s.mu.Unlock()
	return res, nil
}

// Current returns the published build, or ErrNotReady.
func (s *Server) Current() (*build.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		if s.lastErr != nil {
			return nil, errors.Join(ErrNotReady, s.lastErr)
		}
		return nil, ErrNotReady
	}
	return s.current, nil
}
