// Package journal records update runs in a SQLite database so operators can
// inspect what a launcher-driven update did after the fact. The journal is an
// optional aid: failures here are warnings and never change the update
// outcome.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Journal persists one row per update run.
type Journal struct {
	db *sql.DB
}

// Run is a single recorded update run.
type Run struct {
	ID           string
	RepoPath     string
	StartedAt    time.Time
	FinishedAt   time.Time
	PreHead      string
	PostHead     string
	BackupBranch string
	Tag          string
	Outcome      string
	Error        string
}

// Open opens (or creates) a journal database at dbPath.
// Use ":memory:" for an in-memory database.
func Open(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}
	j := &Journal{db: db}
	if err := j.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize journal schema: %w", err)
	}
	return j, nil
}

func (j *Journal) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		repo_path TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER,
		pre_head TEXT,
		post_head TEXT,
		backup_branch TEXT,
		tag TEXT,
		outcome TEXT,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Begin inserts a new run row and returns its id.
func (j *Journal) Begin(ctx context.Context, repoPath string) (string, error) {
	id := uuid.NewString()
	_, err := j.db.ExecContext(ctx,
		"INSERT INTO runs (id, repo_path, started_at) VALUES (?, ?, ?)",
		id, repoPath, time.Now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// Finish completes a run row with its final state.
func (j *Journal) Finish(ctx context.Context, run Run) error {
	_, err := j.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, pre_head = ?, post_head = ?,
		 backup_branch = ?, tag = ?, outcome = ?, error = ? WHERE id = ?`,
		time.Now().Unix(), run.PreHead, run.PostHead,
		run.BackupBranch, run.Tag, run.Outcome, run.Error, run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

// Recent returns the most recent runs, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, repo_path, started_at, COALESCE(finished_at, 0),
		 COALESCE(pre_head, ''), COALESCE(post_head, ''),
		 COALESCE(backup_branch, ''), COALESCE(tag, ''),
		 COALESCE(outcome, ''), COALESCE(error, '')
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished int64
		if err := rows.Scan(&r.ID, &r.RepoPath, &started, &finished,
			&r.PreHead, &r.PostHead, &r.BackupBranch, &r.Tag, &r.Outcome, &r.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.Unix(started, 0)
		if finished > 0 {
			r.FinishedAt = time.Unix(finished, 0)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}
