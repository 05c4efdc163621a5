// Package server exposes quiz generation over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhisek/quizforge/internal/library"
	"github.com/abhisek/quizforge/internal/quizgen"
	"github.com/abhisek/quizforge/internal/store"
)

// Generator produces quizzes. *quizgen.Service satisfies it.
type Generator interface {
	Generate(ctx context.Context, req quizgen.GenerationRequest) (*quizgen.Quiz, error)
}

// Library stores generated quizzes. *library.Library satisfies it.
type Library interface {
	Save(ctx context.Context, q *quizgen.Quiz) error
	Get(ctx context.Context, id string) (*quizgen.Quiz, error)
	List(ctx context.Context, opts store.QuizListOpts) ([]library.Summary, error)
	Delete(ctx context.Context, id string) error
}

// Options configures a Server.
type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// AutoSave stores every generated quiz in the library.
	AutoSave bool
}

// Server routes HTTP requests to the generator and the library.
type Server struct {
	gen    Generator
	lib    Library
	logger *zap.Logger
	opts   Options
	engine *gin.Engine
}

// New builds a Server. lib may be nil, in which case the quiz listing
// endpoints answer 404 and nothing is saved.
func New(gen Generator, lib Library, logger *zap.Logger, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{gen: gen, lib: lib, logger: logger, opts: opts}
	s.engine = s.routes()
	return s
}

// Handler returns the HTTP handler for the API.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), s.accessLog())

	r.GET("/health", func(c *gin.Context) {
		success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	v1.POST("/quizzes", s.createQuiz)
	v1.GET("/quizzes", s.listQuizzes)
	v1.GET("/quizzes/:id", s.getQuiz)
	v1.DELETE("/quizzes/:id", s.deleteQuiz)

	r.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, ErrorBody{Code: ErrNotFound, Message: "route not found"})
	})
	return r
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(contextKeyRequestID)),
		)
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", s.opts.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen on %s: %w", s.opts.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := s.opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
