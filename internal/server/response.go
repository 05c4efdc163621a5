package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/abhisek/quizforge/internal/llm"
)

// ErrCode identifies an API error for clients.
type ErrCode string

const (
	ErrInvalidPayload   ErrCode = "INVALID_PAYLOAD"
	ErrInvalidRequest   ErrCode = "INVALID_REQUEST"
	ErrBackend          ErrCode = "BACKEND_ERROR"
	ErrBackendBusy      ErrCode = "BACKEND_UNAVAILABLE"
	ErrParse            ErrCode = "PARSE_ERROR"
	ErrGenerationFailed ErrCode = "GENERATION_FAILED"
	ErrCancelled        ErrCode = "CANCELLED"
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrInternal         ErrCode = "INTERNAL_ERROR"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Data     any        `json:"data"`
	Error    *ErrorBody `json:"error,omitempty"`
	Metadata Metadata   `json:"metadata"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    ErrCode `json:"code"`
	Message string  `json:"message"`

	// Attempts is set for generation failures.
	Attempts int `json:"attempts,omitempty"`
}

// Metadata carries request tracing details.
type Metadata struct {
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

const contextKeyRequestID = "request_id"

func success(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Data: data, Metadata: buildMetadata(c)})
}

func fail(c *gin.Context, status int, body ErrorBody) {
	c.JSON(status, Response{Error: &body, Metadata: buildMetadata(c)})
}

// requestID tags every request with an id, reusing X-Request-ID when the
// client sends one. The id also rides the request context so recorded LLM
// events can be traced back to the API call.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(contextKeyRequestID, id)
		c.Header("X-Request-ID", id)
		c.Request = c.Request.WithContext(llm.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func buildMetadata(c *gin.Context) Metadata {
	id := c.GetString(contextKeyRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	return Metadata{
		RequestID: id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
