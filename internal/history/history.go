// Package history keeps the words looked up during review sessions in a
// SQLite database.
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

// Entry is one resolved word lookup
type Entry struct {
	ID          int64
	SessionID   string
	SegmentID   string
	Word        string
	Language    string
	Translation string
	CreatedAt   time.Time
}

// DefaultPath returns ~/.local/state/cliprecall/history.db
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "history.db"
	}
	return filepath.Join(home, ".local", "state", "cliprecall", "history.db")
}

// Store is the SQLite lookup history
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the history database at path
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// A single connection serialises writes from concurrent lookups
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS lookups (
			id integer PRIMARY KEY AUTOINCREMENT,
			session_id text NOT NULL,
			segment_id text NOT NULL,
			word text NOT NULL,
			language text NOT NULL,
			translation text NOT NULL,
			created_at integer NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS ix_lookups_word ON lookups (word, language)`,
		`CREATE INDEX IF NOT EXISTS ix_lookups_created ON lookups (created_at)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

// Record appends a lookup to the history
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lookups (session_id, segment_id, word, language, translation, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.SegmentID, e.Word, e.Language, e.Translation, e.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record lookup: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, segment_id, word, language, translation, created_at
		 FROM lookups ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	return scanEntries(rows)
}

// Words returns the latest entry per word and language, oldest first
func (s *Store) Words(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT l.id, l.session_id, l.segment_id, l.word, l.language, l.translation, l.created_at
		 FROM lookups l
		 JOIN (SELECT MAX(id) AS id FROM lookups GROUP BY lower(word), language) latest
		   ON l.id = latest.id
		 ORDER BY l.created_at, l.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query words: %w", err)
	}
	return scanEntries(rows)
}

// Count returns the number of recorded lookups
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lookups`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count lookups: %w", err)
	}
	return n, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created int64
		if err := rows.Scan(&e.ID, &e.SessionID, &e.SegmentID, &e.Word, &e.Language, &e.Translation, &created); err != nil {
			return nil, fmt.Errorf("failed to scan lookup: %w", err)
		}
		e.CreatedAt = time.UnixMilli(created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
