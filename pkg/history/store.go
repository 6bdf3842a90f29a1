// Package history persists finished chat turns to SQLite so recent
// conversations can be listed through the API.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Turn is one persisted chat exchange.
type Turn struct {
	ID        int64     `json:"id"`
	TurnID    string    `json:"turnId"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Events    int       `json:"events"`
	Failed    bool      `json:"failed"`
	Duration  int64     `json:"durationMs"`
	CreatedAt time.Time `json:"createdAt"`
}

const schema = `
CREATE TABLE IF NOT EXISTS turns (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	turn_id TEXT NOT NULL UNIQUE,
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	events INTEGER NOT NULL DEFAULT 0,
	failed INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_turns_created_at ON turns(created_at DESC);
`

// Store is a SQLite-backed turn store.
type Store struct {
	db *sql.DB
}

// Open creates (or reuses) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record persists one finished turn.
func (s *Store) Record(ctx context.Context, t Turn) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO turns (turn_id, question, answer, events, failed, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.TurnID, t.Question, t.Answer, t.Events, boolToInt(t.Failed), t.Duration,
	)
	if err != nil {
		return fmt.Errorf("record turn: %w", err)
	}
	return nil
}

// Recent returns up to limit turns, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, turn_id, question, answer, events, failed, duration_ms, created_at
		FROM turns ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var failed int
		if err := rows.Scan(&t.ID, &t.TurnID, &t.Question, &t.Answer, &t.Events, &failed, &t.Duration, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.Failed = failed != 0
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Get looks up one turn by its id.
func (s *Store) Get(ctx context.Context, turnID string) (*Turn, error) {
	var t Turn
	var failed int
	err := s.db.QueryRowContext(ctx, `
		SELECT id, turn_id, question, answer, events, failed, duration_ms, created_at
		FROM turns WHERE turn_id = ?`, turnID).Scan(
		&t.ID, &t.TurnID, &t.Question, &t.Answer, &t.Events, &failed, &t.Duration, &t.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get turn: %w", err)
	}
	t.Failed = failed != 0
	return &t, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
