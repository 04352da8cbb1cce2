package server

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/dispatch/core/logger"
)

// Defaults applied by New when no option overrides them. Read and write
// timeouts bound a single request exchange; the idle timeout bounds
// keep-alive reuse between exchanges.
const (
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1 << 20
)

// Server fronts a dispatch tree with net/http. Connection-level concerns
// live here rather than in the router: timeouts, header limits, TLS, and
// the graceful drain on shutdown. Safe for concurrent use.
type Server struct {
	mu             sync.RWMutex
	addr           string
	httpServer     *http.Server
	logger         *slog.Logger
	shutdown       time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration
	maxHeaderBytes int
	tlsConfig      *tls.Config
	running        bool
}

// New builds a Server listening on addr once started. Unset knobs fall back
// to the package defaults; logs go nowhere unless WithLogger is given.
func New(addr string, opts ...Option) *Server {
	s := &Server{
		addr:           addr,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		shutdown:       DefaultShutdownTimeout,
		readTimeout:    DefaultReadTimeout,
		writeTimeout:   DefaultWriteTimeout,
		idleTimeout:    DefaultIdleTimeout,
		maxHeaderBytes: DefaultMaxHeaderBytes,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start binds the listener and serves h until ctx is canceled or the
// listener fails, returning ctx.Err() in the former case. Cancellation by
// itself does not drain in-flight requests; pair Start with Stop, or use
// Run which coordinates the two.
func (s *Server) Start(ctx context.Context, h http.Handler) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrServerAlreadyRunning
	}
	s.running = true

	s.httpServer = &http.Server{
		Addr:           s.addr,
		Handler:        h,
		ReadTimeout:    s.readTimeout,
		WriteTimeout:   s.writeTimeout,
		IdleTimeout:    s.idleTimeout,
		MaxHeaderBytes: s.maxHeaderBytes,
		TLSConfig:      s.tlsConfig,
	}

	// Snapshot under the lock; the serving goroutine must not touch fields
	// an Option could be mutating.
	serveTLS := s.tlsConfig != nil
	httpServer := s.httpServer
	s.mu.Unlock()

	failed := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "http server listening",
			logger.Component("server"), slog.String("addr", s.addr), slog.Bool("tls", serveTLS))

		var err error
		if serveTLS {
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
	}()

	select {
	case err := <-failed:
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop drains in-flight requests for up to the shutdown timeout, then
// closes the listener. Stopping a server that never started is a no-op.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.httpServer == nil {
		return nil
	}

	s.logger.Info("http server draining",
		logger.Component("server"), logger.Duration(s.shutdown))

	drainCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()

	err := s.httpServer.Shutdown(drainCtx)
	s.running = false

	if err != nil {
		s.logger.Error("http server shutdown failed",
			logger.Component("server"), logger.Error(err))
		return err
	}

	s.logger.Info("http server stopped", logger.Component("server"))
	return nil
}

// Run returns a closure suitable for errgroup.Group.Go: it starts the
// server, waits for ctx to cancel, and drains before returning. Going down
// on cancellation is the normal path and reports no error; only listener
// failures do.
func (s *Server) Run(ctx context.Context, h http.Handler) func() error {
	return func() error {
		started := make(chan error, 1)
		go func() {
			started <- s.Start(ctx, h)
		}()

		select {
		case <-ctx.Done():
			if err := s.Stop(); err != nil {
				s.logger.Error("drain on cancellation failed",
					logger.Component("server"), logger.Error(err))
			}
			<-started
			return nil
		case err := <-started:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// Run serves h on addr with default settings until ctx cancels, draining
// gracefully before returning.
func Run(ctx context.Context, addr string, h http.Handler) error {
	return New(addr).Run(ctx, h)()
}
