package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/r3d91ll/fuzzylink/pkg/config"
	"github.com/r3d91ll/fuzzylink/pkg/embedding"
	lerrors "github.com/r3d91ll/fuzzylink/pkg/errors"
	"github.com/r3d91ll/fuzzylink/pkg/linkograph"
)

// Options wires the analysis pipeline into the server.
type Options struct {
	Analysis linkograph.Config

	// Provider backs /api/embed-analyze. Nil disables it.
	Provider  embedding.Provider
	Embedding embedding.Options

	Version string
	Logger  *slog.Logger
}

// Server is the HTTP API server.
type Server struct {
	config  config.ServerConfig
	hub     *Hub
	handler http.Handler
	logger  *slog.Logger

	// mu protects server state
	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	running    bool
}

// NewServer builds the router, middleware chain and event hub.
func NewServer(cfg config.ServerConfig, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "api")

	hub := NewHub(logger)
	handlers := &Handlers{
		analysis:  opts.Analysis,
		provider:  opts.Provider,
		embedOpts: opts.Embedding,
		events:    hub,
		hub:       hub,
		version:   opts.Version,
		logger:    logger,
	}

	router := NewRouter()
	handlers.Register(router)
	router.GET("/ws", NewWebSocketHandler(hub, cfg.AllowedOrigins).ServeHTTP)

	return &Server{
		config: cfg,
		hub:    hub,
		logger: logger,
		handler: Chain(router,
			RecoveryMiddleware(logger),
			RequestIDMiddleware,
			LoggingMiddleware(logger),
			CORSMiddleware(cfg.AllowedOrigins),
			ContentTypeMiddleware,
		),
	}
}

// Handler returns the full middleware chain, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Hub returns the event hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start binds the configured address and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return lerrors.InternalError(lerrors.ErrInternal, "server is already running")
	}

	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return lerrors.WrapIO(err, lerrors.ErrInternal, "failed to bind server address").
			WithContext("addr", s.config.Addr).
			WithSuggestion("Change server.addr in the config file")
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	s.running = true

	go s.hub.Run()
	go func() {
		s.logger.Info("server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server stopped", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Addr
}

// IsRunning returns true between Start and Shutdown.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Shutdown stops accepting requests, waits for in-flight ones and closes
// websocket clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	s.logger.Info("server shutting down")

	s.hub.Stop()
	return s.httpServer.Shutdown(ctx)
}

// ListenAndServe starts the server and blocks until ctx is done, then shuts
// down gracefully using shutdownCtx.
func (s *Server) ListenAndServe(ctx context.Context, shutdownCtx func() (context.Context, context.CancelFunc)) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()

	sctx, cancel := shutdownCtx()
	defer cancel()
	return s.Shutdown(sctx)
}
