// Package server exposes a knowledge graph source over a JSON REST API and
// serves the Cytoscape viewer.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/matsen/pdbkg/internal/directory"
	"github.com/matsen/pdbkg/internal/neighborhood"
	"github.com/matsen/pdbkg/internal/source"
)

// DefaultSearchLimit caps /api/search results when no limit is given.
const DefaultSearchLimit = 50

// ShutdownTimeout bounds how long Run waits for in-flight requests.
const ShutdownTimeout = 10 * time.Second

// Session limits. An idle session expires after DefaultSessionTTL; beyond
// DefaultMaxSessions the least recently used session is dropped.
const (
	DefaultSessionTTL  = 30 * time.Minute
	DefaultMaxSessions = 1000
)

// Server routes REST requests to a source.Source.
type Server struct {
	src     source.Source
	backend string
	maxHops int
	logger  *slog.Logger
	dir     *directory.Directory
	builder *neighborhood.Builder
	engine  *gin.Engine

	sessionTTL  time.Duration
	maxSessions int
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for request and error logging.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxHops sets the default path bound for neighborhood and path requests.
func WithMaxHops(n int) Option {
	return func(s *Server) {
		s.maxHops = source.NormalizeHops(n)
	}
}

// WithBackendName sets the backend name reported by /health.
func WithBackendName(name string) Option {
	return func(s *Server) {
		s.backend = name
	}
}

// WithSessionLimits overrides the idle expiry and the session cap. A
// non-positive value keeps the default.
func WithSessionLimits(ttl time.Duration, maxSessions int) Option {
	return func(s *Server) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
		if maxSessions > 0 {
			s.maxSessions = maxSessions
		}
	}
}

// New creates a server backed by src. Node details fetched by any request
// are cached in a directory shared by every session.
func New(src source.Source, opts ...Option) *Server {
	s := &Server{
		src:      src,
		maxHops:  source.DefaultMaxHops,
		logger:   slog.New(slog.DiscardHandler),
		dir:      directory.New(),
		sessions: make(map[string]*sessionEntry),

		sessionTTL:  DefaultSessionTTL,
		maxSessions: DefaultMaxSessions,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.builder = s.newBuilder(s.maxHops)
	s.engine = s.routes()
	return s
}

func (s *Server) newBuilder(maxHops int) *neighborhood.Builder {
	return neighborhood.New(s.src, s.dir,
		neighborhood.WithMaxHops(maxHops),
		neighborhood.WithLogger(s.logger),
	)
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))

	r.GET("/health", s.handleHealth)
	r.GET("/viz", s.handleViz)

	api := r.Group("/api")
	api.GET("/nodes/:id", s.handleNode)
	api.GET("/nodes/:id/neighbors", s.handleNeighbors)
	api.GET("/nodes/:id/annotated", s.handleAnnotated)
	api.GET("/path", s.handlePath)
	api.GET("/search", s.handleSearch)
	api.POST("/neighborhood", s.handleNeighborhood)

	api.POST("/sessions", s.handleCreateSession)
	api.GET("/sessions/:sid", s.handleGetSession)
	api.PUT("/sessions/:sid/selection", s.handleSelection)
	api.DELETE("/sessions/:sid", s.handleDeleteSession)

	return r
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "backend", s.backend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
