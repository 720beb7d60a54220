// Package server exposes the task operations over HTTP with gin.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// serviceName names the server in trace spans.
const serviceName = "task-tracker"

// readHeaderTimeout limits how long the server waits for request headers.
const readHeaderTimeout = 5 * time.Second

// Options tunes the router and server lifecycle.
type Options struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// NewRouter builds the gin engine serving the task API.
func NewRouter(tasks TaskService, opts Options) *gin.Engine {
	r := gin.New()
	// Redirects are written before middleware runs and would lack CORS
	// headers, so the trailing-slash paths are registered explicitly.
	r.RedirectTrailingSlash = false
	r.Use(gin.Logger(), gin.Recovery(), otelgin.Middleware(serviceName), requestID(), cors())
	if opts.RequestTimeout > 0 {
		r.Use(timeout(opts.RequestTimeout))
	}

	h := &handlers{tasks: tasks}
	r.GET("/healthz", h.health)
	for _, path := range []string{"/tasks", "/tasks/"} {
		r.GET(path, h.listTasks)
		r.POST(path, h.createTask)
	}
	r.GET("/tasks/:id", h.getTask)
	r.PUT("/tasks/:id", h.updateTask)
	r.DELETE("/tasks/:id", h.deleteTask)
	return r
}

// Server hosts the task API on a listener.
type Server struct {
	listener        net.Listener
	httpServer      *http.Server
	shutdownTimeout time.Duration
}

// New listens on addr and prepares the HTTP server.
func New(addr string, tasks TaskService, opts Options) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 5 * time.Second
	}
	return &Server{
		listener: listener,
		httpServer: &http.Server{
			Handler:           NewRouter(tasks, opts),
			ReadHeaderTimeout: readHeaderTimeout,
		},
		shutdownTimeout: shutdownTimeout,
	}, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Serve handles requests until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}

	log.Printf("task server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case err := <-serveErr:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	}
}
