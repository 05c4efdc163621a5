package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhisek/quizforge/internal/quizgen"
	"github.com/abhisek/quizforge/internal/store"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// POST /v1/quizzes
func (s *Server) createQuiz(c *gin.Context) {
	var in quizgen.RequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrorBody{Code: ErrInvalidPayload, Message: err.Error()})
		return
	}

	req, err := quizgen.BuildRequest(in)
	if err != nil {
		s.failGeneration(c, err)
		return
	}

	quiz, err := s.gen.Generate(c.Request.Context(), req)
	if err != nil {
		s.failGeneration(c, err)
		return
	}

	if s.opts.AutoSave && s.lib != nil {
		// Saved even when the client disconnected after generation.
		if err := s.lib.Save(context.WithoutCancel(c.Request.Context()), quiz); err != nil {
			s.logger.Warn("failed to save quiz", zap.String("quiz_id", quiz.ID), zap.Error(err))
		}
	}
	success(c, http.StatusCreated, quiz)
}

// GET /v1/quizzes
func (s *Server) listQuizzes(c *gin.Context) {
	if s.lib == nil {
		fail(c, http.StatusNotFound, ErrorBody{Code: ErrNotFound, Message: "quiz library disabled"})
		return
	}

	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			fail(c, http.StatusBadRequest, ErrorBody{Code: ErrInvalidPayload, Message: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxListLimit)
	}

	quizzes, err := s.lib.List(c.Request.Context(), store.QuizListOpts{Limit: limit, Topic: c.Query("topic")})
	if err != nil {
		s.logger.Error("list quizzes", zap.Error(err))
		fail(c, http.StatusInternalServerError, ErrorBody{Code: ErrInternal, Message: "failed to list quizzes"})
		return
	}
	success(c, http.StatusOK, gin.H{"quizzes": quizzes})
}

// GET /v1/quizzes/:id
func (s *Server) getQuiz(c *gin.Context) {
	if s.lib == nil {
		fail(c, http.StatusNotFound, ErrorBody{Code: ErrNotFound, Message: "quiz library disabled"})
		return
	}

	quiz, err := s.lib.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		fail(c, http.StatusNotFound, ErrorBody{Code: ErrNotFound, Message: "quiz not found"})
		return
	}
	if err != nil {
		s.logger.Error("get quiz", zap.String("quiz_id", c.Param("id")), zap.Error(err))
		fail(c, http.StatusInternalServerError, ErrorBody{Code: ErrInternal, Message: "failed to load quiz"})
		return
	}
	success(c, http.StatusOK, quiz)
}

// DELETE /v1/quizzes/:id
func (s *Server) deleteQuiz(c *gin.Context) {
	if s.lib == nil {
		fail(c, http.StatusNotFound, ErrorBody{Code: ErrNotFound, Message: "quiz library disabled"})
		return
	}

	err := s.lib.Delete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		fail(c, http.StatusNotFound, ErrorBody{Code: ErrNotFound, Message: "quiz not found"})
		return
	}
	if err != nil {
		s.logger.Error("delete quiz", zap.String("quiz_id", c.Param("id")), zap.Error(err))
		fail(c, http.StatusInternalServerError, ErrorBody{Code: ErrInternal, Message: "failed to delete quiz"})
		return
	}
	c.Status(http.StatusNoContent)
}

// failGeneration maps a generation failure onto a status code.
func (s *Server) failGeneration(c *gin.Context, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.logger.Info("generation abandoned by client", zap.Error(err))
		fail(c, http.StatusServiceUnavailable, ErrorBody{Code: ErrCancelled, Message: "request cancelled"})
		return
	}

	var ge *quizgen.GenerationError
	if !errors.As(err, &ge) {
		s.logger.Error("generation failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, ErrorBody{Code: ErrInternal, Message: "internal error"})
		return
	}

	body := ErrorBody{Message: ge.Message, Attempts: len(ge.Attempts)}
	status := http.StatusInternalServerError
	switch ge.Kind {
	case quizgen.ErrInvalidRequest:
		status, body.Code = http.StatusBadRequest, ErrInvalidRequest
	case quizgen.ErrBackend:
		status, body.Code = http.StatusBadGateway, ErrBackend
		if ge.Backend == quizgen.BackendRateLimited || ge.Backend == quizgen.BackendServiceUnavailable {
			status, body.Code = http.StatusServiceUnavailable, ErrBackendBusy
		}
	case quizgen.ErrParse:
		status, body.Code = http.StatusBadGateway, ErrParse
	case quizgen.ErrGenerationFailed:
		status, body.Code = http.StatusUnprocessableEntity, ErrGenerationFailed
	default:
		body.Code = ErrInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Warn("generation failed", zap.String("kind", string(ge.Kind)), zap.Error(err))
	}
	fail(c, status, body)
}
