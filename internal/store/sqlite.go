package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const defaultListLimit = 50

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB

	insertResultStmt *sql.Stmt
	getResultStmt    *sql.Stmt
}

// NewSQLiteStore opens or creates a SQLite store at the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store: empty sqlite path")
	}
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("store: create sqlite dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping sqlite: %w", err)
	}

	if err := initSQLiteSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	st := &SQLiteStore{db: db}
	if err := st.prepareStatements(); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func initSQLiteSchema(db *sql.DB) error {
	stmts := []string{
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS feedback_runs (
			id TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			quiz_titles TEXT NOT NULL,
			score INTEGER NOT NULL,
			total INTEGER NOT NULL,
			verdict TEXT NOT NULL,
			feedback_source TEXT NOT NULL,
			feedback TEXT NOT NULL,
			analysis TEXT NOT NULL,
			question_results BLOB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_runs_created_at ON feedback_runs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_runs_verdict ON feedback_runs(verdict)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("store: init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) prepareStatements() error {
	if s == nil || s.db == nil {
		return errors.New("store: nil sqlite store")
	}

	ctx := context.Background()

	insert, err := s.db.PrepareContext(ctx, `
		INSERT INTO feedback_runs (
			id, created_at, quiz_titles, score, total, verdict, feedback_source,
			feedback, analysis, question_results
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("store: prepare insert result: %w", err)
	}
	s.insertResultStmt = insert

	get, err := s.db.PrepareContext(ctx, `
		SELECT id, created_at, quiz_titles, score, total, verdict, feedback_source,
			feedback, analysis, question_results
		FROM feedback_runs WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("store: prepare get result: %w", err)
	}
	s.getResultStmt = get

	return nil
}

// Close releases database resources.
func (s *SQLiteStore) Close() error {
	if s == nil {
		return nil
	}
	for _, stmt := range []*sql.Stmt{s.insertResultStmt, s.getResultStmt} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveResult persists one pipeline run. A missing ID is assigned and a
// missing timestamp defaults to now; both are written back to rec.
func (s *SQLiteStore) SaveResult(ctx context.Context, rec *Record) error {
	if s == nil {
		return errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return errors.New("store: nil context")
	}
	if rec == nil {
		return errors.New("store: nil record")
	}

	if strings.TrimSpace(rec.ID) == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Total < 0 || rec.Score < 0 || rec.Score > rec.Total {
		return fmt.Errorf("store: invalid score %d/%d", rec.Score, rec.Total)
	}

	titlesJSON, err := json.Marshal(rec.QuizTitles)
	if err != nil {
		return fmt.Errorf("store: marshal quiz titles: %w", err)
	}
	resultsJSON, err := json.Marshal(rec.Results)
	if err != nil {
		return fmt.Errorf("store: marshal question results: %w", err)
	}

	_, err = s.insertResultStmt.ExecContext(
		ctx,
		rec.ID,
		rec.CreatedAt.UTC().UnixMilli(),
		string(titlesJSON),
		rec.Score,
		rec.Total,
		rec.Verdict,
		rec.FeedbackSource,
		rec.Feedback,
		rec.Analysis,
		resultsJSON,
	)
	if err != nil {
		return fmt.Errorf("store: insert result: %w", err)
	}
	return nil
}

// GetResult loads one record by id.
func (s *SQLiteStore) GetResult(ctx context.Context, id string) (*Record, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("store: empty record id")
	}

	row := s.getResultStmt.QueryRowContext(ctx, id)
	rec, err := scanRecord(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get result: %w", err)
	}
	return rec, nil
}

// ListResults returns records matching the filter, newest first.
func (s *SQLiteStore) ListResults(ctx context.Context, filter Filter) ([]*Record, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}

	query := strings.Builder{}
	query.WriteString(`
		SELECT id, created_at, quiz_titles, score, total, verdict, feedback_source,
			feedback, analysis, question_results
		FROM feedback_runs
	`)

	var conds []string
	var args []any
	if v := strings.TrimSpace(filter.Title); v != "" {
		conds = append(conds, "quiz_titles LIKE ?")
		args = append(args, "%"+v+"%")
	}
	if v := strings.TrimSpace(filter.Verdict); v != "" {
		conds = append(conds, "verdict = ?")
		args = append(args, strings.ToUpper(v))
	}
	if !filter.Since.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, filter.Since.UTC().UnixMilli())
	}
	if !filter.Until.IsZero() {
		conds = append(conds, "created_at <= ?")
		args = append(args, filter.Until.UTC().UnixMilli())
	}
	if len(conds) > 0 {
		query.WriteString(" WHERE ")
		query.WriteString(strings.Join(conds, " AND "))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query.WriteString(" ORDER BY created_at DESC LIMIT ?")
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("store: list results: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("store: scan result: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list results: %w", err)
	}
	return out, nil
}

func scanRecord(scan func(dest ...any) error) (*Record, error) {
	var (
		id          string
		createdAtMS int64
		titlesJSON  string
		score       int
		total       int
		verdict     string
		source      string
		feedback    string
		analysis    string
		resultsJSON []byte
	)
	if err := scan(&id, &createdAtMS, &titlesJSON, &score, &total, &verdict, &source, &feedback, &analysis, &resultsJSON); err != nil {
		return nil, err
	}

	var titles []string
	if err := json.Unmarshal([]byte(titlesJSON), &titles); err != nil {
		return nil, fmt.Errorf("decode quiz titles: %w", err)
	}
	var results []QuestionRecord
	if err := json.Unmarshal(resultsJSON, &results); err != nil {
		return nil, fmt.Errorf("decode question results: %w", err)
	}

	return &Record{
		ID:             id,
		CreatedAt:      time.UnixMilli(createdAtMS).UTC(),
		QuizTitles:     titles,
		Score:          score,
		Total:          total,
		Verdict:        verdict,
		FeedbackSource: source,
		Feedback:       feedback,
		Analysis:       analysis,
		Results:        results,
	}, nil
}
