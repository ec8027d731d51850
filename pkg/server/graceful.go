// Package server runs the HTTP endpoints of a long-lived gridtrace process.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dd0wney/cluso-gridtrace/pkg/logging"
)

// DefaultShutdownTimeout bounds how long in-flight requests may take to drain
const DefaultShutdownTimeout = 10 * time.Second

// ReloadFunc reloads configuration when the process receives SIGHUP
type ReloadFunc func() error

// GracefulServer wraps an HTTP server with signal handling and graceful
// shutdown
type GracefulServer struct {
	server          *http.Server
	logger          logging.Logger
	shutdownTimeout time.Duration

	ready        chan struct{}
	shutdownCh   chan struct{}
	shutdownOnce sync.Once

	mu       sync.RWMutex
	addr     string
	reloadFn ReloadFunc
}

// NewGracefulServer creates a server for handler on addr. Use ":0" to pick a
// free port and read it back with Addr once Ready is closed.
func NewGracefulServer(addr string, handler http.Handler, logger logging.Logger) *GracefulServer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &GracefulServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
		logger:          logger.With(logging.Component("http")),
		shutdownTimeout: DefaultShutdownTimeout,
		ready:           make(chan struct{}),
		shutdownCh:      make(chan struct{}),
	}
}

// Run serves until ctx is cancelled or the process receives SIGINT or
// SIGTERM, then shuts down gracefully. SIGHUP triggers a reload.
func (gs *GracefulServer) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", gs.server.Addr)
	if err != nil {
		return err
	}
	gs.mu.Lock()
	gs.addr = listener.Addr().String()
	gs.mu.Unlock()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- gs.server.Serve(listener)
	}()

	gs.logger.Info("http server started", logging.String("addr", gs.Addr()))
	close(gs.ready)

	for {
		select {
		case err := <-serveErr:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			return gs.Shutdown(gs.shutdownTimeout)
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				gs.logger.Info("received SIGHUP, reloading configuration")
				_ = gs.Reload()
				continue
			}
			gs.logger.Info("received signal, shutting down", logging.String("signal", sig.String()))
			return gs.Shutdown(gs.shutdownTimeout)
		}
	}
}

// Ready is closed once the server is listening
func (gs *GracefulServer) Ready() <-chan struct{} {
	return gs.ready
}

// Addr returns the address the server is listening on
func (gs *GracefulServer) Addr() string {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.addr
}

// Shutdown stops accepting connections and waits for in-flight requests
func (gs *GracefulServer) Shutdown(timeout time.Duration) error {
	var err error
	gs.shutdownOnce.Do(func() {
		close(gs.shutdownCh)

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		timer := logging.StartTimer(gs.logger, "http server shutdown")
		if err = gs.server.Shutdown(ctx); err != nil {
			timer.EndError(err)
			return
		}
		timer.End()
	})
	return err
}

// IsShuttingDown returns true if shutdown has been initiated
func (gs *GracefulServer) IsShuttingDown() bool {
	select {
	case <-gs.shutdownCh:
		return true
	default:
		return false
	}
}

// SetReloadFunc sets the function called on SIGHUP
func (gs *GracefulServer) SetReloadFunc(fn ReloadFunc) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.reloadFn = fn
}

// Reload calls the reload function, if any
func (gs *GracefulServer) Reload() error {
	gs.mu.RLock()
	fn := gs.reloadFn
	gs.mu.RUnlock()

	if fn == nil {
		gs.logger.Warn("reload requested but no reload function configured")
		return nil
	}
	if err := fn(); err != nil {
		gs.logger.Error("configuration reload failed", logging.Error(err))
		return err
	}
	gs.logger.Info("configuration reloaded")
	return nil
}
