// Package sqlite provides a SQLite-backed babik.Store. Records live in one
// table: ordinary fields as a JSON object, the attrs blob as the codec's
// string, and the discriminator in its own indexed column.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	j "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/reoring/babik"
	"github.com/reoring/babik/codec"
	"github.com/reoring/babik/store/sqlite/migrations"
)

// Store persists records in SQLite. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
	now    func() time.Time
}

var _ babik.Store = (*Store)(nil)

type Option func(*Store)

// WithLogger sets the logger used for migrations and write diagnostics.
func WithLogger(l zerolog.Logger) Option { return func(s *Store) { s.logger = l } }

// WithClock overrides the time source for created_at/updated_at.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// Open opens (or creates) the database at path and applies embedded
// migrations.
func Open(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite: storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open db: %w", err)
	}
	s := &Store{db: db, logger: zerolog.Nop(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping db: %w", err)
	}
	if err := s.applyMigrations(ctx, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: run migrations: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Commit upserts raw, assigning a UUID when raw.ID is empty.
func (s *Store) Commit(ctx context.Context, raw babik.RawRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := raw.ID
	if id == "" {
		id = uuid.NewString()
	}
	fields, err := j.Marshal(fieldsJSON(raw.Fields))
	if err != nil {
		return "", fmt.Errorf("sqlite: encode fields of %q: %w", id, err)
	}
	attrs := raw.Attrs
	if attrs == "" {
		attrs = "{}"
	}
	now := s.now().UTC().UnixMilli()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (id, discriminator, fields, attrs, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   discriminator = excluded.discriminator,
		   fields = excluded.fields,
		   attrs = excluded.attrs,
		   updated_at = excluded.updated_at`,
		id, raw.Discriminator, string(fields), attrs, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("sqlite: commit record %q: %w", id, err)
	}
	s.logger.Debug().Str("id", id).Str("discriminator", raw.Discriminator).Msg("record committed")
	return id, nil
}

// Load reads one record including its attrs blob.
func (s *Store) Load(ctx context.Context, id string) (babik.RawRecord, error) {
	return s.load(ctx, id, false)
}

// LoadDeferred reads one record without its attrs blob. Shape attributes
// of the materialized record report babik.ErrNotLoaded until LoadAttrs is
// used to fill the blob in.
func (s *Store) LoadDeferred(ctx context.Context, id string) (babik.RawRecord, error) {
	return s.load(ctx, id, true)
}

// LoadAttrs reads only the attrs blob of id.
func (s *Store) LoadAttrs(ctx context.Context, id string) (string, error) {
	var attrs string
	err := s.db.QueryRowContext(ctx, `SELECT attrs FROM records WHERE id = ?`, id).Scan(&attrs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("sqlite: record %q: %w", id, babik.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("sqlite: load attrs of %q: %w", id, err)
	}
	return attrs, nil
}

func (s *Store) load(ctx context.Context, id string, deferAttrs bool) (babik.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return babik.RawRecord{}, err
	}
	query := `SELECT id, discriminator, fields, attrs FROM records WHERE id = ?`
	if deferAttrs {
		query = `SELECT id, discriminator, fields, '' FROM records WHERE id = ?`
	}
	raw, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return babik.RawRecord{}, fmt.Errorf("sqlite: record %q: %w", id, babik.ErrNotFound)
	}
	if err != nil {
		return babik.RawRecord{}, fmt.Errorf("sqlite: load record %q: %w", id, err)
	}
	raw.AttrsDeferred = deferAttrs
	return raw, nil
}

// List returns the records with the given discriminator, oldest first.
// An empty disc lists every record.
func (s *Store) List(ctx context.Context, disc string) ([]babik.RawRecord, error) {
	query := `SELECT id, discriminator, fields, attrs FROM records ORDER BY created_at, id`
	var args []any
	if disc != "" {
		query = `SELECT id, discriminator, fields, attrs FROM records WHERE discriminator = ? ORDER BY created_at, id`
		args = append(args, disc)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list records: %w", err)
	}
	defer rows.Close()
	var out []babik.RawRecord
	for rows.Next() {
		raw, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: list records: %w", err)
		}
		out = append(out, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list records: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (babik.RawRecord, error) {
	var raw babik.RawRecord
	var fields string
	if err := row.Scan(&raw.ID, &raw.Discriminator, &fields, &raw.Attrs); err != nil {
		return babik.RawRecord{}, err
	}
	dec := j.NewDecoder(strings.NewReader(fields))
	dec.UseNumber()
	raw.Fields = map[string]any{}
	if err := dec.Decode(&raw.Fields); err != nil {
		return babik.RawRecord{}, fmt.Errorf("decode fields of %q: %w", raw.ID, err)
	}
	return raw, nil
}

// fieldsJSON prepares ordinary values for the fields column. Decimals are
// written as exact number literals so their scale survives a reload.
func fieldsJSON(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if d, ok := v.(decimal.Decimal); ok {
			v = j.Number(codec.DecimalLiteral(d))
		}
		out[k] = v
	}
	return out
}
