package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver

	"SmartFeeds/internal/domain"
	"SmartFeeds/internal/ports"
)

const (
	itemsTable   = "accepted_items"
	digestsTable = "digests"
)

var itemColumns = []string{"title", "url", "source_id", "relevance_note", "summary", "captured_at"}

// SQLStore persists daily records and digests into SQLite or Postgres.
type SQLStore struct {
	db     *sql.DB
	driver string
	sb     sq.StatementBuilderType
	locks  *dayLocks
}

var (
	_ ports.RecordStore = (*SQLStore)(nil)
	_ ports.DigestStore = (*SQLStore)(nil)
)

// OpenSQLStore opens the database for driver ("sqlite" or "postgres") and
// creates the tables when missing.
func OpenSQLStore(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	switch driver {
	case "sqlite":
		dsn = sqliteDSN(dsn)
	case "postgres":
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	store := NewSQLStore(db, driver)
	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLStore wires an already opened sql.DB. Callers own the schema.
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	var placeholder sq.PlaceholderFormat = sq.Question
	if driver == "postgres" {
		placeholder = sq.Dollar
	}
	return &SQLStore{
		db:     db,
		driver: driver,
		sb:     sq.StatementBuilder.PlaceholderFormat(placeholder),
		locks:  newDayLocks(),
	}
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func sqliteDSN(path string) string {
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func (s *SQLStore) migrate(ctx context.Context) error {
	seq := "seq INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.driver == "postgres" {
		seq = "seq BIGSERIAL PRIMARY KEY"
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + itemsTable + ` (
			` + seq + `,
			day_key TEXT NOT NULL,
			url_key TEXT NOT NULL,
			url TEXT NOT NULL,
			title TEXT NOT NULL,
			source_id TEXT NOT NULL,
			relevance_note TEXT NOT NULL,
			summary TEXT NOT NULL,
			captured_at TEXT NOT NULL,
			UNIQUE (day_key, url_key)
		)`,
		`CREATE TABLE IF NOT EXISTS ` + digestsTable + ` (
			day_key TEXT PRIMARY KEY,
			body TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Append inserts the item unless (day, normalized url) already exists.
func (s *SQLStore) Append(ctx context.Context, day domain.DayKey, item domain.AcceptedItem) (bool, error) {
	if !day.Valid() {
		return false, invalidDay(day)
	}
	if item.Key() == "" {
		return false, &domain.ConfigError{Field: "url", Err: errors.New("accepted item without url")}
	}

	item.URL = domain.CleanURL(item.URL)

	unlock := s.locks.lock(day)
	defer unlock()

	query, args, err := s.sb.Insert(itemsTable).
		SetMap(map[string]any{
			"day_key":        day.String(),
			"url_key":        item.Key(),
			"title":          item.Title,
			"url":            item.URL,
			"source_id":      item.SourceID,
			"relevance_note": item.RelevanceNote,
			"summary":        item.Summary,
			"captured_at":    item.CapturedAt.UTC().Format(time.RFC3339Nano),
		}).
		Suffix("ON CONFLICT (day_key, url_key) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, &domain.PersistenceError{Op: "append", Day: day, Err: fmt.Errorf("insert item: %w", err)}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, &domain.PersistenceError{Op: "append", Day: day, Err: fmt.Errorf("rows affected: %w", err)}
	}
	return n == 1, nil
}

// Read returns the day's items in insertion order.
func (s *SQLStore) Read(ctx context.Context, day domain.DayKey) (domain.DailyRecord, error) {
	if !day.Valid() {
		return domain.DailyRecord{}, invalidDay(day)
	}

	query, args, err := s.sb.Select(itemColumns...).
		From(itemsTable).
		Where(sq.Eq{"day_key": day.String()}).
		OrderBy("seq").
		ToSql()
	if err != nil {
		return domain.DailyRecord{}, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.DailyRecord{}, &domain.PersistenceError{Op: "read", Day: day, Err: fmt.Errorf("query items: %w", err)}
	}

	record := domain.DailyRecord{Day: day, Items: []domain.AcceptedItem{}}
	for rows.Next() {
		var (
			item     domain.AcceptedItem
			captured string
		)
		if err := rows.Scan(&item.Title, &item.URL, &item.SourceID, &item.RelevanceNote, &item.Summary, &captured); err != nil {
			_ = rows.Close()
			return domain.DailyRecord{}, &domain.PersistenceError{Op: "read", Day: day, Err: fmt.Errorf("scan item: %w", err)}
		}
		if ts, err := time.Parse(time.RFC3339Nano, captured); err == nil {
			item.CapturedAt = ts
		}
		item.DayKey = day
		record.Items = append(record.Items, item)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return domain.DailyRecord{}, &domain.PersistenceError{Op: "read", Day: day, Err: fmt.Errorf("rows iteration: %w", rowsErr)}
	}

	if closeErr := rows.Close(); closeErr != nil {
		return domain.DailyRecord{}, &domain.PersistenceError{Op: "read", Day: day, Err: fmt.Errorf("close rows: %w", closeErr)}
	}

	return record, nil
}

// Save upserts the day's digest.
func (s *SQLStore) Save(ctx context.Context, digest domain.Digest) error {
	if !digest.Day.Valid() {
		return invalidDay(digest.Day)
	}

	query, args, err := s.sb.Insert(digestsTable).
		Columns("day_key", "body", "updated_at").
		Values(digest.Day.String(), digest.Body, time.Now().UTC().Format(time.RFC3339Nano)).
		Suffix("ON CONFLICT (day_key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return &domain.PersistenceError{Op: "save digest", Day: digest.Day, Err: fmt.Errorf("upsert digest: %w", err)}
	}
	return nil
}

// Load returns the saved digest or domain.ErrDigestNotFound.
func (s *SQLStore) Load(ctx context.Context, day domain.DayKey) (domain.Digest, error) {
	if !day.Valid() {
		return domain.Digest{}, invalidDay(day)
	}

	query, args, err := s.sb.Select("body").
		From(digestsTable).
		Where(sq.Eq{"day_key": day.String()}).
		ToSql()
	if err != nil {
		return domain.Digest{}, fmt.Errorf("build select: %w", err)
	}

	var body string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Digest{}, domain.ErrDigestNotFound
	}
	if err != nil {
		return domain.Digest{}, &domain.PersistenceError{Op: "load digest", Day: day, Err: err}
	}
	return domain.Digest{Day: day, Body: body}, nil
}
