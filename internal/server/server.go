// Package server exposes the scoring pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bookingscore/internal/app"
	"bookingscore/internal/logger"
	"bookingscore/internal/metrics"
	"bookingscore/internal/normalizer"
)

const shutdownTimeout = 10 * time.Second

// Server serves predictions for one loaded schema and model.
type Server struct {
	engine    *gin.Engine
	processor *normalizer.Processor
	metrics   *metrics.Metrics
	log       *logger.Logger
	addr      string
	maxUpload int64
	timeout   time.Duration
}

// New builds the router for a loaded application.
func New(a *app.App) *Server {
	s := &Server{
		engine:    gin.New(),
		processor: a.Processor,
		metrics:   a.Metrics,
		log:       a.Log,
		addr:      a.Config.Server.Addr,
		maxUpload: a.Config.Server.MaxUploadBytes(),
		timeout:   a.Config.Server.ReadTimeout(),
	}

	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.routes()

	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.health)
	s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	v1 := s.engine.Group("/v1")
	v1.GET("/schema", s.schema)
	v1.POST("/predictions", s.bodyLimit(), s.predictRecords)
	v1.POST("/predictions/upload", s.bodyLimit(), s.predictUpload)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := s.httpServer()

	errCh := make(chan error, 1)

	go func() {
		s.log.Info("http server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// httpServer configures the listener. Connection-level errors from net/http
// go through the service logger.
func (s *Server) httpServer() *http.Server {
	return &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadTimeout:       s.timeout,
		ReadHeaderTimeout: s.timeout,
		ErrorLog:          slog.NewLogLogger(s.log.Slog().Handler(), slog.LevelError),
	}
}

// bodyLimit rejects bodies above the configured upload size.
func (s *Server) bodyLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > s.maxUpload {
			abortWithError(c, http.StatusRequestEntityTooLarge, "too_large", "request body exceeds configured size limit")

			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		s.log.Info("request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status_code", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}
