// Package storage provides the durable duplicate tracker and newsletter
// persistence behind the ports.SentStore and ports.NewsletterStore
// contracts. Two backends exist: Postgres and a flat JSON state file.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/clindevdep/RSS/internal/domain"
	"github.com/clindevdep/RSS/internal/fingerprint"
	"github.com/clindevdep/RSS/internal/ports"
)

// PostgresStore persists sent records and newsletters into Postgres.
type PostgresStore struct {
	db      *sql.DB
	engine  *fingerprint.Engine
	builder sq.StatementBuilderType
	now     func() time.Time
}

var _ ports.SentStore = (*PostgresStore)(nil)
var _ ports.NewsletterStore = (*PostgresStore)(nil)

// NewPostgresStore wires a sql.DB implementation.
func NewPostgresStore(db *sql.DB, engine *fingerprint.Engine) *PostgresStore {
	return &PostgresStore{
		db:      db,
		engine:  engine,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		now:     time.Now,
	}
}

// EnsureSchema creates the tables if they do not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sent_records (
			fingerprint   TEXT PRIMARY KEY,
			kind          TEXT NOT NULL,
			article_url   TEXT NOT NULL,
			sent_at       TIMESTAMPTZ NOT NULL,
			newsletter_id TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sent_records_sent_at ON sent_records (sent_at)`,
		`CREATE TABLE IF NOT EXISTS newsletters (
			id            TEXT PRIMARY KEY,
			date          TIMESTAMPTZ NOT NULL,
			content       TEXT NOT NULL,
			article_urls  TEXT[] NOT NULL,
			surprise_urls TEXT[] NOT NULL,
			settings      JSONB NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// IsDuplicate reports whether any fingerprint of the article is already
// recorded as sent.
func (s *PostgresStore) IsDuplicate(ctx context.Context, article domain.Article) (bool, error) {
	values := fingerprint.Values(s.engine.Fingerprints(article))
	if len(values) == 0 {
		return false, nil
	}

	query, args, err := s.builder.
		Select("1").
		From("sent_records").
		Where(sq.Expr("fingerprint = ANY(?)", pq.Array(values))).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build duplicate query: %w", err)
	}

	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query duplicate: %w", err)
	}
	return true, nil
}

// FilterNew partitions a batch into unseen and already-sent articles using
// a single fingerprint lookup, preserving input order within each side.
// Articles repeating inside the batch count as duplicates past their first
// occurrence.
func (s *PostgresStore) FilterNew(ctx context.Context, articles []domain.Article) ([]domain.Article, []domain.Article, error) {
	if len(articles) == 0 {
		return nil, nil, nil
	}

	all := make([]string, 0, len(articles)*2)
	perArticle := make([][]string, len(articles))
	for i, article := range articles {
		values := fingerprint.Values(s.engine.Fingerprints(article))
		perArticle[i] = values
		all = append(all, values...)
	}

	known, err := s.knownFingerprints(ctx, all)
	if err != nil {
		return nil, nil, err
	}

	fresh, duplicates := partitionBatch(articles, perArticle, known)
	return fresh, duplicates, nil
}

func (s *PostgresStore) knownFingerprints(ctx context.Context, values []string) (map[string]bool, error) {
	known := make(map[string]bool)
	if len(values) == 0 {
		return known, nil
	}

	query, args, err := s.builder.
		Select("fingerprint").
		From("sent_records").
		Where(sq.Expr("fingerprint = ANY(?)", pq.Array(values))).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build fingerprint query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query fingerprints: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("scan fingerprint: %w", err)
		}
		known[value] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return known, nil
}

// RecordSent inserts one record per fingerprint inside a single
// transaction: either the whole batch is tracked or none of it is.
func (s *PostgresStore) RecordSent(ctx context.Context, articles []domain.Article, newsletterID string) error {
	if len(articles) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record batch: %w", err)
	}
	defer tx.Rollback()

	sentAt := s.now().UTC()
	insert := s.builder.
		Insert("sent_records").
		Columns("fingerprint", "kind", "article_url", "sent_at", "newsletter_id").
		Suffix("ON CONFLICT (fingerprint) DO NOTHING")

	rows := 0
	for _, article := range articles {
		for _, print := range s.engine.Fingerprints(article) {
			insert = insert.Values(print.Value, print.Kind, article.URL, sentAt, nullable(newsletterID))
			rows++
		}
	}
	if rows == 0 {
		return nil
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("build record batch: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert sent records: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record batch: %w", err)
	}
	return nil
}

// Stats returns an observability snapshot of the tracker.
func (s *PostgresStore) Stats(ctx context.Context) (domain.TrackerStats, error) {
	query, args, err := s.builder.
		Select("COUNT(DISTINCT article_url)", "MIN(sent_at)", "MAX(sent_at)").
		From("sent_records").
		ToSql()
	if err != nil {
		return domain.TrackerStats{}, fmt.Errorf("build stats query: %w", err)
	}

	var stats domain.TrackerStats
	var oldest, newest sql.NullTime
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&stats.TotalTracked, &oldest, &newest); err != nil {
		return domain.TrackerStats{}, fmt.Errorf("query stats: %w", err)
	}
	if oldest.Valid {
		stats.OldestRecord = oldest.Time
	}
	if newest.Valid {
		stats.NewestRecord = newest.Time
	}
	return stats, nil
}

// Cleanup deletes records older than the retention horizon and returns how
// many tracked articles were removed.
func (s *PostgresStore) Cleanup(ctx context.Context, daysToKeep int) (int, error) {
	if daysToKeep <= 0 {
		return 0, fmt.Errorf("retention horizon must be positive, got %d", daysToKeep)
	}
	cutoff := s.now().UTC().AddDate(0, 0, -daysToKeep)

	query, args, err := s.builder.
		Delete("sent_records").
		Where(sq.Lt{"sent_at": cutoff}).
		Suffix("RETURNING article_url").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build cleanup query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete old records: %w", err)
	}
	defer rows.Close()

	removed := map[string]bool{}
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return 0, fmt.Errorf("scan removed record: %w", err)
		}
		removed[url] = true
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("rows iteration: %w", err)
	}
	return len(removed), nil
}

// SaveNewsletter stores the immutable record of one successful run.
func (s *PostgresStore) SaveNewsletter(ctx context.Context, newsletter domain.Newsletter) error {
	settings, err := json.Marshal(newsletter.Settings)
	if err != nil {
		return fmt.Errorf("marshal generation settings: %w", err)
	}

	query, args, err := s.builder.
		Insert("newsletters").
		Columns("id", "date", "content", "article_urls", "surprise_urls", "settings").
		Values(
			newsletter.ID,
			newsletter.Date,
			newsletter.Content,
			pq.Array(newsletter.ArticleURLs),
			pq.Array(newsletter.SurpriseURLs),
			settings,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build newsletter insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert newsletter: %w", err)
	}
	return nil
}

func nullable(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
