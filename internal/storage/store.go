// Package storage persists the sent-article history in a local SQLite file.
// Rows are only ever inserted or upserted; the dedupe window is enforced at
// query time, so the store grows until an operator cleans it up externally.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite" // SQLite driver

	"KeywordDigest/internal/domain"
	"KeywordDigest/internal/ports"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store is the SQLite-backed sent-history repository.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ ports.SentHistory = (*Store)(nil)

// NewStore opens (or creates) the database file at path.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Init applies pending schema migrations.
func (s *Store) Init(ctx context.Context) error {
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite migrate driver: %w", err)
	}

	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// LoadRecent returns the URLs and titles of every article sent at or after
// now minus windowDays. Timestamps are stored as RFC 3339 UTC strings, so the
// window comparison is a plain lexical one and the boundary is inclusive.
func (s *Store) LoadRecent(ctx context.Context, windowDays int) (map[string]struct{}, []string, error) {
	cutoff := s.now().UTC().AddDate(0, 0, -windowDays).Format(time.RFC3339)

	query, args, err := sq.Select("url", "title").
		From("sent_articles").
		Where(sq.GtOrEq{"sent_at_utc": cutoff}).
		ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("build recent query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("query sent history: %w", err)
	}

	urls := map[string]struct{}{}
	var titles []string
	for rows.Next() {
		var record domain.SentRecord
		if err := rows.Scan(&record.URL, &record.Title); err != nil {
			_ = rows.Close()
			return nil, nil, fmt.Errorf("scan sent record: %w", err)
		}
		if record.URL != "" {
			urls[record.URL] = struct{}{}
		}
		if record.Title != "" {
			titles = append(titles, record.Title)
		}
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}
	if closeErr := rows.Close(); closeErr != nil {
		return nil, nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return urls, titles, nil
}

// Save upserts one row per article keyed by URL; a conflicting URL gets its
// title and timestamp overwritten, sliding the article back inside future
// dedupe windows. Empty input is a no-op.
func (s *Store) Save(ctx context.Context, sentAt time.Time, articles []domain.SummarizedArticle) error {
	if len(articles) == 0 {
		return nil
	}

	stamp := sentAt.UTC().Format(time.RFC3339)

	builder := sq.Insert("sent_articles").
		Columns("url", "title", "sent_at_utc").
		Suffix(`ON CONFLICT(url) DO UPDATE SET
            title = excluded.title,
            sent_at_utc = excluded.sent_at_utc`)
	for _, article := range articles {
		builder = builder.Values(article.URL, article.Title, stamp)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("upsert sent articles: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}

	return nil
}
