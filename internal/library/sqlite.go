package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS summaries (
	id           TEXT PRIMARY KEY,
	seq          INTEGER NOT NULL,
	title        TEXT NOT NULL,
	thumbnail    TEXT NOT NULL DEFAULT '',
	channel_name TEXT NOT NULL DEFAULT '',
	channel_url  TEXT NOT NULL DEFAULT '',
	duration     TEXT NOT NULL DEFAULT '',
	view_count   INTEGER NOT NULL DEFAULT 0,
	summary      TEXT NOT NULL,
	transcript   TEXT NOT NULL,
	video_url    TEXT NOT NULL,
	created_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS summaries_seq_idx ON summaries (seq);`

const summaryColumns = `id, title, thumbnail, channel_name, channel_url, duration, view_count, summary, transcript, video_url, created_at`

// SQLite is a Store in a local SQLite file.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create library directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open library db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create summaries table: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Add(ctx context.Context, sum Summary) error {
	if err := validate(&sum); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM summaries`).Scan(&seq); err != nil {
		return fmt.Errorf("next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO summaries (seq, `+summaryColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seq, sum.ID, sum.Title, sum.Thumbnail, sum.ChannelName, sum.ChannelURL, sum.Duration,
		sum.ViewCount, sum.Summary, sum.Transcript, sum.VideoURL, sum.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return tx.Commit()
}

func (s *SQLite) Get(ctx context.Context, id string) (*Summary, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+summaryColumns+` FROM summaries WHERE id = ?`, id)
	sum, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read summary: %w", err)
	}
	return sum, nil
}

func (s *SQLite) List(ctx context.Context, opts ListOptions) ([]Summary, error) {
	query := `SELECT ` + summaryColumns + ` FROM summaries`
	var args []any
	if opts.Query != "" {
		query += ` WHERE instr(lower(title), lower(?)) > 0`
		args = append(args, opts.Query)
	}
	query += ` ORDER BY ` + sqliteOrder(opts.Sort)
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, *sum)
	}
	return out, rows.Err()
}

func sqliteOrder(s Sort) string {
	switch s {
	case SortNewest:
		return `created_at DESC, seq DESC`
	case SortOldest:
		return `created_at ASC, seq ASC`
	case SortTitle:
		return `title COLLATE NOCASE ASC, seq DESC`
	}
	return `seq DESC`
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM summaries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete summary: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM summaries`); err != nil {
		return fmt.Errorf("clear summaries: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner) (*Summary, error) {
	var s Summary
	err := row.Scan(&s.ID, &s.Title, &s.Thumbnail, &s.ChannelName, &s.ChannelURL, &s.Duration,
		&s.ViewCount, &s.Summary, &s.Transcript, &s.VideoURL, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
