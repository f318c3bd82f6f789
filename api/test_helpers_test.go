package api

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/voinici/quiz-feedback/internal/config"
	"github.com/voinici/quiz-feedback/internal/llm"
	"github.com/voinici/quiz-feedback/internal/store"
)

type fakeStore struct {
	SaveResultFunc  func(ctx context.Context, rec *store.Record) error
	GetResultFunc   func(ctx context.Context, id string) (*store.Record, error)
	ListResultsFunc func(ctx context.Context, filter store.Filter) ([]*store.Record, error)
	CloseFunc       func() error
}

func (s *fakeStore) SaveResult(ctx context.Context, rec *store.Record) error {
	if s.SaveResultFunc != nil {
		return s.SaveResultFunc(ctx, rec)
	}
	rec.ID = "rec-1"
	return nil
}

func (s *fakeStore) GetResult(ctx context.Context, id string) (*store.Record, error) {
	if s.GetResultFunc != nil {
		return s.GetResultFunc(ctx, id)
	}
	return nil, store.ErrNotFound
}

func (s *fakeStore) ListResults(ctx context.Context, filter store.Filter) ([]*store.Record, error) {
	if s.ListResultsFunc != nil {
		return s.ListResultsFunc(ctx, filter)
	}
	return nil, nil
}

func (s *fakeStore) Close() error {
	if s.CloseFunc != nil {
		return s.CloseFunc()
	}
	return nil
}

type fakeProvider struct {
	CompleteFunc func(ctx context.Context, req *llm.Request) (*llm.Response, error)
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if p.CompleteFunc != nil {
		return p.CompleteFunc(ctx, req)
	}
	return &llm.Response{Text: "Good work, keep practicing!"}, nil
}

// setupResources writes grading resources into a temp dir and returns a
// config pointing at them.
func setupResources(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	quizzesDir := filepath.Join(dir, "quizzes")
	if err := os.MkdirAll(quizzesDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	keys := []byte("Collisions and Momentum:\n  1: 1\n  2: 2\n")
	if err := os.WriteFile(filepath.Join(dir, "answer_keys.yaml"), keys, 0o644); err != nil {
		t.Fatalf("WriteFile keys: %v", err)
	}

	topicsBody := []byte("Collisions and Momentum:\n  1: conservation of momentum\n  2: elastic collisions\n")
	if err := os.WriteFile(filepath.Join(dir, "topics.yaml"), topicsBody, 0o644); err != nil {
		t.Fatalf("WriteFile topics: %v", err)
	}

	template := []byte("title: Collisions and Momentum\nquestions:\n  - id: 1\n  - id: 2\n")
	if err := os.WriteFile(filepath.Join(quizzesDir, "collisions.yaml"), template, 0o644); err != nil {
		t.Fatalf("WriteFile template: %v", err)
	}

	return &config.Config{
		Resources: config.ResourcesConfig{
			AnswerKeys: filepath.Join(dir, "answer_keys.yaml"),
			Topics:     filepath.Join(dir, "topics.yaml"),
			QuizzesDir: quizzesDir,
		},
		Feedback: config.FeedbackConfig{
			Timeout:   time.Second,
			MaxTokens: 64,
			Language:  "English",
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, st store.Store, provider llm.Provider) *Server {
	t.Helper()

	gin.SetMode(gin.TestMode)
	t.Setenv("QUIZ_FEEDBACK_API_KEY", "")
	t.Setenv("QUIZ_FEEDBACK_DISABLE_AUTH", "true")

	if cfg == nil {
		cfg = setupResources(t)
	}
	s, err := NewServer(cfg, st, provider)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}
