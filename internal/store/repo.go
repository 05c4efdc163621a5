package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit     int       // max results (0 = unlimited)
	After     int64     // sequence > After
	Before    int64     // sequence < Before
	From      time.Time // timestamp >= From
	To        time.Time // timestamp <= To
	Purpose   string    // exact purpose match, empty for all
	RequestID string    // exact request id match, empty for all
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	RequestID    string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string

	// RequestBody and ResponseBody are only filled when body capture is on.
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsageStats aggregates LLM usage per grouping key.
type LLMUsageStats struct {
	Purpose      string
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events, newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)

	// GetLLMEvent returns one event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error)

	// LLMUsageByPurpose aggregates usage per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)

	// LLMUsageByModel aggregates usage per model.
	LLMUsageByModel(ctx context.Context) ([]LLMUsageStats, error)
}

// QuizRecord is a stored quiz. Data holds the full quiz document; the other
// fields are denormalized for listing.
type QuizRecord struct {
	ID            string
	Sequence      int64
	CreatedAt     time.Time
	Topic         string
	Difficulty    string
	QuestionCount int
	IsPartial     bool
	Attempts      int
	Data          json.RawMessage
}

// QuizListOpts filters quiz listings.
type QuizListOpts struct {
	Limit int
	Topic string // exact topic match, empty for all
}

// QuizRepo persists generated quizzes.
type QuizRepo interface {
	// Save stores a quiz. Saving an existing id fails.
	Save(ctx context.Context, rec QuizRecord) error

	// Get returns a quiz by id, or ErrNotFound.
	Get(ctx context.Context, id string) (*QuizRecord, error)

	// List returns quizzes newest first, without their Data.
	List(ctx context.Context, opts QuizListOpts) ([]QuizRecord, error)

	// Delete removes a quiz, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
}
