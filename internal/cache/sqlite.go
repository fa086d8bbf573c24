package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const transcriptsSchema = `
CREATE TABLE IF NOT EXISTS transcripts (
	video_id   TEXT NOT NULL,
	language   TEXT NOT NULL,
	served_language TEXT NOT NULL DEFAULT '',
	title      TEXT NOT NULL DEFAULT '',
	transcript TEXT NOT NULL,
	strategy   TEXT NOT NULL DEFAULT '',
	fetched_at TIMESTAMP NOT NULL,
	PRIMARY KEY (video_id, language)
)`

// SQLite is a Cache backed by a local SQLite file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(transcriptsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create transcripts table: %w", err)
	}
	if err := addServedLanguage(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

// addServedLanguage upgrades cache files created before the column existed.
func addServedLanguage(db *sql.DB) error {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('transcripts') WHERE name = 'served_language'`).Scan(&n)
	if err != nil {
		return fmt.Errorf("inspect transcripts table: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := db.Exec(`ALTER TABLE transcripts ADD COLUMN served_language TEXT NOT NULL DEFAULT ''`); err != nil {
		return fmt.Errorf("add served_language column: %w", err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, videoID, language string) (*Entry, error) {
	var e Entry
	err := s.db.QueryRowContext(ctx,
		`SELECT video_id, language, served_language, title, transcript, strategy, fetched_at
		 FROM transcripts WHERE video_id = ? AND language = ?`,
		videoID, language,
	).Scan(&e.VideoID, &e.Language, &e.ServedLanguage, &e.Title, &e.Transcript, &e.Strategy, &e.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("read cached transcript: %w", err)
	}
	return &e, nil
}

func (s *SQLite) Put(ctx context.Context, e Entry) error {
	if e.FetchedAt.IsZero() {
		e.FetchedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO transcripts (video_id, language, served_language, title, transcript, strategy, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.VideoID, e.Language, e.ServedLanguage, e.Title, e.Transcript, e.Strategy, e.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("cache transcript: %w", err)
	}
	return nil
}

func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transcripts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cached transcripts: %w", err)
	}
	return n, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
