// Package httpapi serves the chat pipeline over HTTP with gin.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/ragchat/internal/logger"
)

const shutdownTimeout = 10 * time.Second

// Server is the HTTP front end of the answer pipeline.
type Server struct {
	ports  *Ports
	engine *gin.Engine
}

// NewServer validates ports and registers the routes.
func NewServer(ports *Ports) (*Server, error) {
	if ports == nil {
		return nil, ErrMissingAnswerService
	}
	if err := ports.Validate(); err != nil {
		return nil, err
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	s := &Server{ports: ports, engine: engine}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.engine.POST("/chat", s.handleChat)
	s.engine.GET("/history/:session_id", s.handleHistory)
	s.engine.GET("/index", s.handleIndex)
	s.engine.GET("/healthz", s.handleHealth)
}

// Mount serves h under path and every path below it. It is used to expose
// the MCP transport next to the chat API.
func (s *Server) Mount(path string, h http.Handler) {
	wrapped := gin.WrapH(h)
	s.engine.Any(path, wrapped)
	s.engine.Any(path+"/*rest", wrapped)
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on addr until ctx is cancelled, then drains in-flight
// requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown: %v", err)
		}
	}()

	logger.Info("HTTP API listening on %s", addr)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		<-done
		return nil
	}
	return err
}

// requestLogger logs each request through the process logger.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
