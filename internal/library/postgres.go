package library

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE SEQUENCE IF NOT EXISTS summaries_seq;
CREATE TABLE IF NOT EXISTS summaries (
	id           TEXT PRIMARY KEY,
	seq          BIGINT NOT NULL DEFAULT nextval('summaries_seq'),
	title        TEXT NOT NULL,
	thumbnail    TEXT NOT NULL DEFAULT '',
	channel_name TEXT NOT NULL DEFAULT '',
	channel_url  TEXT NOT NULL DEFAULT '',
	duration     TEXT NOT NULL DEFAULT '',
	view_count   BIGINT NOT NULL DEFAULT 0,
	summary      TEXT NOT NULL,
	transcript   TEXT NOT NULL,
	video_url    TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS summaries_seq_idx ON summaries (seq);`

// Postgres is a Store for server deployments sharing one database.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to databaseURL and ensures the schema exists.
func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create summaries table: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Add(ctx context.Context, sum Summary) error {
	if err := validate(&sum); err != nil {
		return err
	}

	_, err := p.pool.Exec(ctx,
		`INSERT INTO summaries (`+summaryColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO UPDATE SET
			seq = nextval('summaries_seq'),
			title = EXCLUDED.title,
			thumbnail = EXCLUDED.thumbnail,
			channel_name = EXCLUDED.channel_name,
			channel_url = EXCLUDED.channel_url,
			duration = EXCLUDED.duration,
			view_count = EXCLUDED.view_count,
			summary = EXCLUDED.summary,
			transcript = EXCLUDED.transcript,
			video_url = EXCLUDED.video_url,
			created_at = EXCLUDED.created_at`,
		sum.ID, sum.Title, sum.Thumbnail, sum.ChannelName, sum.ChannelURL, sum.Duration,
		sum.ViewCount, sum.Summary, sum.Transcript, sum.VideoURL, sum.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, id string) (*Summary, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+summaryColumns+` FROM summaries WHERE id = $1`, id)
	sum, err := scanSummary(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read summary: %w", err)
	}
	return sum, nil
}

func (p *Postgres) List(ctx context.Context, opts ListOptions) ([]Summary, error) {
	query := `SELECT ` + summaryColumns + ` FROM summaries`
	var args []any
	if opts.Query != "" {
		args = append(args, opts.Query)
		query += ` WHERE strpos(lower(title), lower($1)) > 0`
	}
	query += ` ORDER BY ` + postgresOrder(opts.Sort)
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := p.pool.Query(ctx, query, args...)
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

func postgresOrder(s Sort) string {
	switch s {
	case SortNewest:
		return `created_at DESC, seq DESC`
	case SortOldest:
		return `created_at ASC, seq ASC`
	case SortTitle:
		return `lower(title) ASC, seq DESC`
	}
	return `seq DESC`
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM summaries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete summary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) Clear(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM summaries`); err != nil {
		return fmt.Errorf("clear summaries: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
