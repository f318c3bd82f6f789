package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a feedback record does not exist.
var ErrNotFound = errors.New("store: not found")

// ResultWriter persists graded submissions.
type ResultWriter interface {
	SaveResult(ctx context.Context, rec *Record) error
}

// ResultReader reads back stored feedback runs.
type ResultReader interface {
	GetResult(ctx context.Context, id string) (*Record, error)
	ListResults(ctx context.Context, filter Filter) ([]*Record, error)
}

// Store defines persistence for pipeline results.
type Store interface {
	ResultWriter
	ResultReader
	Close() error
}

// Record stores one completed pipeline run.
type Record struct {
	ID             string
	CreatedAt      time.Time
	QuizTitles     []string
	Score          int
	Total          int
	Verdict        string
	FeedbackSource string
	Feedback       string
	Analysis       string
	Results        []QuestionRecord // JSON serialized
}

// QuestionRecord stores one per-question outcome. UserAnswer and
// CorrectIndex are nil for "no answer" and "unknown".
type QuestionRecord struct {
	QuestionID   int  `json:"question_id"`
	QuizIndex    int  `json:"quiz_index"`
	UserAnswer   *int `json:"user_answer"`
	CorrectIndex *int `json:"correct_answer_index"`
	Correct      bool `json:"is_correct"`
}

// Filter narrows history listings.
type Filter struct {
	Title   string
	Verdict string
	Since   time.Time
	Until   time.Time
	Limit   int
}
