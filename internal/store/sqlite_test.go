package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/voinici/quiz-feedback/internal/config"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func intptr(v int) *int { return &v }

func sampleRecord(verdict string, at time.Time) *Record {
	return &Record{
		CreatedAt:      at,
		QuizTitles:     []string{"Collisions and Momentum"},
		Score:          4,
		Total:          5,
		Verdict:        verdict,
		FeedbackSource: "deterministic",
		Feedback:       "Score: 4/5.",
		Analysis:       "Quiz: Collisions and Momentum",
		Results: []QuestionRecord{
			{QuestionID: 1, QuizIndex: 1, UserAnswer: intptr(1), CorrectIndex: intptr(1), Correct: true},
			{QuestionID: 5, QuizIndex: 1, UserAnswer: intptr(0), CorrectIndex: intptr(1)},
		},
	}
}

func TestSaveAndGetResult(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()

	rec := sampleRecord("APPROVED", time.Time{})
	if err := st.SaveResult(ctx, rec); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	if rec.ID == "" {
		t.Fatalf("SaveResult did not assign an id")
	}
	if rec.CreatedAt.IsZero() {
		t.Fatalf("SaveResult did not assign a timestamp")
	}

	got, err := st.GetResult(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if got.Score != 4 || got.Total != 5 || got.Verdict != "APPROVED" {
		t.Fatalf("got %#v", got)
	}
	if len(got.QuizTitles) != 1 || got.QuizTitles[0] != "Collisions and Momentum" {
		t.Fatalf("titles: got %v", got.QuizTitles)
	}
	if len(got.Results) != 2 {
		t.Fatalf("results: got %d", len(got.Results))
	}
	if got.Results[1].UserAnswer == nil || *got.Results[1].UserAnswer != 0 || got.Results[1].Correct {
		t.Fatalf("results[1]: got %#v", got.Results[1])
	}
}

func TestGetResultNotFound(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)

	if _, err := st.GetResult(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v", err)
	}
	if _, err := st.GetResult(context.Background(), "  "); err == nil {
		t.Fatalf("empty id: expected error")
	}
}

func TestSaveResultValidation(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()

	if err := st.SaveResult(ctx, nil); err == nil {
		t.Fatalf("nil record: expected error")
	}
	if err := st.SaveResult(ctx, &Record{Score: 6, Total: 5}); err == nil {
		t.Fatalf("score > total: expected error")
	}
	if err := st.SaveResult(ctx, &Record{Score: -1, Total: 5}); err == nil {
		t.Fatalf("negative score: expected error")
	}
}

func TestListResults(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	recs := []*Record{
		sampleRecord("APPROVED", base),
		sampleRecord("WARNING", base.Add(time.Minute)),
		sampleRecord("BLOCKED", base.Add(2*time.Minute)),
	}
	recs[2].QuizTitles = []string{"Energy and Work"}
	for _, rec := range recs {
		if err := st.SaveResult(ctx, rec); err != nil {
			t.Fatalf("SaveResult: %v", err)
		}
	}

	{
		got, err := st.ListResults(ctx, Filter{})
		if err != nil {
			t.Fatalf("ListResults: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("got %d records", len(got))
		}
		// Newest first.
		if got[0].Verdict != "BLOCKED" || got[2].Verdict != "APPROVED" {
			t.Fatalf("order: got %s..%s", got[0].Verdict, got[2].Verdict)
		}
	}
	{
		got, err := st.ListResults(ctx, Filter{Verdict: "warning"})
		if err != nil {
			t.Fatalf("ListResults: %v", err)
		}
		if len(got) != 1 || got[0].Verdict != "WARNING" {
			t.Fatalf("verdict filter: got %#v", got)
		}
	}
	{
		got, err := st.ListResults(ctx, Filter{Title: "Energy"})
		if err != nil {
			t.Fatalf("ListResults: %v", err)
		}
		if len(got) != 1 || got[0].QuizTitles[0] != "Energy and Work" {
			t.Fatalf("title filter: got %#v", got)
		}
	}
	{
		got, err := st.ListResults(ctx, Filter{Since: base.Add(30 * time.Second), Until: base.Add(90 * time.Second)})
		if err != nil {
			t.Fatalf("ListResults: %v", err)
		}
		if len(got) != 1 || got[0].Verdict != "WARNING" {
			t.Fatalf("time filter: got %#v", got)
		}
	}
	{
		got, err := st.ListResults(ctx, Filter{Limit: 2})
		if err != nil {
			t.Fatalf("ListResults: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("limit: got %d records", len(got))
		}
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	{
		cfg := &config.Config{Storage: config.StorageConfig{Type: "memory"}}
		st, err := Open(cfg)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		_ = st.Close()
	}
	{
		cfg := &config.Config{Storage: config.StorageConfig{
			Type: "sqlite",
			Path: filepath.Join(t.TempDir(), "nested", "runs.db"),
		}}
		st, err := Open(cfg)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		_ = st.Close()
	}
	{
		cfg := &config.Config{Storage: config.StorageConfig{Type: "postgres"}}
		if _, err := Open(cfg); err == nil {
			t.Fatalf("unsupported type: expected error")
		}
	}
	{
		if _, err := Open(nil); err == nil {
			t.Fatalf("nil config: expected error")
		}
	}
}
