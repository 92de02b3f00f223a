package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteLog implements Log using SQLite.
type SQLiteLog struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteLog opens (and creates if needed) the pass log.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func NewSQLiteLog(dbPath string) (*SQLiteLog, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	l := &SQLiteLog{db: db}
	if err := l.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return l, nil
}

func (l *SQLiteLog) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS passes (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		pass_id TEXT NOT NULL,
		collection TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ns INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		stage TEXT,
		added INTEGER NOT NULL,
		removed INTEGER NOT NULL,
		modified INTEGER NOT NULL,
		artifacts INTEGER NOT NULL,
		render_failures INTEGER NOT NULL,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_passes_collection ON passes(collection);
	`
	_, err := l.db.Exec(schema)
	return err
}

// Record implements Log.
func (l *SQLiteLog) Record(ctx context.Context, p Pass) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO passes (pass_id, collection, started_at, duration_ns, outcome, stage, added, removed, modified, artifacts, render_failures, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Collection, p.StartedAt.UnixNano(), int64(p.Duration), string(p.Outcome), p.Stage,
		p.Added, p.Removed, p.Modified, p.Artifacts, p.RenderFailures, p.Error,
	)
	if err != nil {
		return fmt.Errorf("insert pass: %w", err)
	}
	return nil
}

// Recent implements Log.
func (l *SQLiteLog) Recent(ctx context.Context, collection string, limit int) ([]Pass, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	const cols = `pass_id, collection, started_at, duration_ns, outcome, stage, added, removed, modified, artifacts, render_failures, error`
	var (
		rows *sql.Rows
		err  error
	)
	if collection == "" {
		rows, err = l.db.QueryContext(ctx, "SELECT "+cols+" FROM passes ORDER BY seq DESC LIMIT ?", limit)
	} else {
		rows, err = l.db.QueryContext(ctx, "SELECT "+cols+" FROM passes WHERE collection = ? ORDER BY seq DESC LIMIT ?", collection, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query passes: %w", err)
	}
	defer rows.Close()

	var passes []Pass
	for rows.Next() {
		var (
			p          Pass
			startedAt  int64
			durationNS int64
			outcome    string
			stage, msg sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Collection, &startedAt, &durationNS, &outcome, &stage,
			&p.Added, &p.Removed, &p.Modified, &p.Artifacts, &p.RenderFailures, &msg); err != nil {
			return nil, fmt.Errorf("scan pass: %w", err)
		}
		p.StartedAt = time.Unix(0, startedAt).UTC()
		p.Duration = time.Duration(durationNS)
		p.Outcome = Outcome(outcome)
		p.Stage = stage.String
		p.Error = msg.String
		passes = append(passes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return passes, nil
}

// Close closes the database.
func (l *SQLiteLog) Close() error {
	return l.db.Close()
}
