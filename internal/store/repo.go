package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// PurposeUsage aggregates LLM usage for one purpose label.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates LLM usage for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// SubmissionEventData records one pass through the upload/evaluation
// pipeline, successful or not.
type SubmissionEventData struct {
	AttemptID string
	Category  string
	LessonID  int
	Sign      string
	// Stage is empty on success, otherwise "upload" or "evaluate".
	Stage     string
	Reason    string
	Score     float64
	Passed    bool
	MediaURL  string
	LatencyMs int64
}

// SubmissionEvent is a stored submission event.
type SubmissionEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	SubmissionEventData
}

// AttemptEventData records one learner step in the lesson flow.
type AttemptEventData struct {
	Category string
	LessonID int
	Kind     string // lesson, multiple-choice, practical
	Action   string // complete, answer, pass, skip
	Score    int
	Passed   bool
}

// AttemptEvent is a stored attempt event.
type AttemptEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	AttemptEventData
}

// EventRepo provides append and query access to domain events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
	// QueryLLMEvents returns LLM events, newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)
	// GetLLMEvent returns one LLM event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)
	// LLMUsageByPurpose aggregates token usage per purpose label.
	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)
	// LLMUsageByModel aggregates token usage per model.
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)

	// AppendSubmission records a pipeline submission outcome.
	AppendSubmission(ctx context.Context, data SubmissionEventData) error
	// QuerySubmissions returns submission events, newest first. An empty
	// category matches all.
	QuerySubmissions(ctx context.Context, category string, opts QueryOpts) ([]SubmissionEvent, error)

	// AppendAttempt records a lesson flow step.
	AppendAttempt(ctx context.Context, data AttemptEventData) error
	// QueryAttempts returns attempt events, newest first. An empty category
	// matches all.
	QueryAttempts(ctx context.Context, category string, opts QueryOpts) ([]AttemptEvent, error)
}

// KVRepo stores opaque documents under string keys.
type KVRepo interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Put inserts or replaces the value for key.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
