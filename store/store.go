// Package store persists whole topology documents in SQLite. Documents
// are stored as opaque JSON next to a few summary columns for listing;
// saving is last-write-wins.
package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"github.com/signalsfoundry/satnet-designer/core"
	"github.com/signalsfoundry/satnet-designer/internal/logging"
)

// timeLayout is fixed-width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var (
	// ErrNotFound is returned for an unknown record id.
	ErrNotFound = errors.New("topology not found")
	// ErrInvalidID is returned for an id that is not a ULID.
	ErrInvalidID = errors.New("invalid topology id")
)

// Record is a stored document.
type Record struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Document  core.Document `json:"document"`
}

// Summary describes a stored document without decoding it.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ModelID   string    `json:"modelId"`
	Nodes     int       `json:"nodes"`
	Edges     int       `json:"edges"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store is a SQLite-backed document store. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	log logging.Logger
	now func() time.Time

	entropyMu sync.Mutex
	entropy   io.Reader
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now for record timestamps and ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(log logging.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// Open opens or creates the database at path and migrates the schema.
// Use ":memory:" for a throwaway store.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// :memory: databases are per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS topologies (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			model_id TEXT NOT NULL,
			nodes INTEGER NOT NULL,
			edges INTEGER NOT NULL,
			document TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS topologies_updated_at ON topologies(updated_at);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &Store{
		db:      db,
		log:     logging.Noop(),
		now:     time.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) newID(t time.Time) (ulid.ULID, error) {
	s.entropyMu.Lock()
	defer s.entropyMu.Unlock()
	return ulid.New(ulid.Timestamp(t), s.entropy)
}

// Create stores doc under a new id.
func (s *Store) Create(ctx context.Context, name string, doc core.Document) (Record, error) {
	data, err := core.Export(doc)
	if err != nil {
		return Record{}, fmt.Errorf("encode document: %w", err)
	}
	now := s.now().UTC()
	id, err := s.newID(now)
	if err != nil {
		return Record{}, fmt.Errorf("generate id: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO topologies (id, name, model_id, nodes, edges, document, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), name, doc.Model.Model.ID, len(doc.Nodes), len(doc.Edges), string(data),
		now.Format(timeLayout), now.Format(timeLayout),
	)
	if err != nil {
		return Record{}, fmt.Errorf("insert topology: %w", err)
	}
	s.log.Info(ctx, "topology saved",
		logging.String("id", id.String()),
		logging.String("name", name),
		logging.Int("nodes", len(doc.Nodes)),
	)
	return s.Get(ctx, id.String())
}

// Update replaces the document stored under id. A nil name keeps the
// current name.
func (s *Store) Update(ctx context.Context, id string, doc core.Document, name *string) (Record, error) {
	if _, err := ulid.ParseStrict(id); err != nil {
		return Record{}, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	data, err := core.Export(doc)
	if err != nil {
		return Record{}, fmt.Errorf("encode document: %w", err)
	}
	now := s.now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE topologies SET
			name = COALESCE(?, name),
			model_id = ?,
			nodes = ?,
			edges = ?,
			document = ?,
			updated_at = ?
		 WHERE id = ?`,
		name, doc.Model.Model.ID, len(doc.Nodes), len(doc.Edges), string(data), now.Format(timeLayout), id,
	)
	if err != nil {
		return Record{}, fmt.Errorf("update topology: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.log.Debug(ctx, "topology updated", logging.String("id", id))
	return s.Get(ctx, id)
}

// Get loads the record stored under id.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	if _, err := ulid.ParseStrict(id); err != nil {
		return Record{}, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	var (
		rec              Record
		data             string
		created, updated string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, document, created_at, updated_at FROM topologies WHERE id = ?", id,
	).Scan(&rec.ID, &rec.Name, &data, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("query topology: %w", err)
	}
	if rec.Document, err = core.Import([]byte(data)); err != nil {
		return Record{}, fmt.Errorf("decode topology %s: %w", id, err)
	}
	if rec.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return Record{}, fmt.Errorf("parse created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return Record{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return rec, nil
}

// List returns every stored document, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, model_id, nodes, edges, created_at, updated_at
		 FROM topologies ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query topologies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Summary
	for rows.Next() {
		var (
			sum              Summary
			created, updated string
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.ModelID, &sum.Nodes, &sum.Edges, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan topology row: %w", err)
		}
		if sum.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		if sum.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete removes the record stored under id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM topologies WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete topology: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
