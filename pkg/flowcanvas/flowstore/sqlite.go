package flowstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists flows to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	opts options

	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (or creates) a flow database.
// The path should be a file path (e.g., "./flows.db") or ":memory:" for testing.
func NewSQLiteStore(path string, opts ...Option) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes
	// writers the way SQLite wants anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS flows (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			owner TEXT NOT NULL,
			dag BLOB NOT NULL,
			version INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_flows_updated_at
		ON flows(updated_at)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{opts: newOptions(opts), db: db}, nil
}

// Create implements Store.
func (s *SQLiteStore) Create(ctx context.Context, token, name string, dag json.RawMessage) (Record, error) {
	const op = "create flow"
	owner, err := s.opts.authorize(op, token)
	if err != nil {
		return Record{}, err
	}
	if err := validateWrite(op, name, dag); err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Record{}, ErrStoreClosed
	}

	now := s.opts.now().UTC()
	rec := Record{
		ID:        uuid.NewString(),
		Name:      name,
		Owner:     owner,
		Dag:       cloneRaw(dag),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO flows (id, name, owner, dag, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Name, rec.Owner, []byte(rec.Dag), rec.Version, formatTime(now), formatTime(now))
	if err != nil {
		return Record{}, fmt.Errorf("insert flow: %w", err)
	}
	return rec, nil
}

// Update implements Store.
func (s *SQLiteStore) Update(ctx context.Context, token, id, name string, dag json.RawMessage) (Record, error) {
	const op = "update flow"
	owner, err := s.opts.authorize(op, token)
	if err != nil {
		return Record{}, err
	}
	if err := validateWrite(op, name, dag); err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Record{}, ErrStoreClosed
	}

	rec, err := s.get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, notFound(op)
	}
	if err != nil {
		return Record{}, err
	}
	if rec.Owner != owner {
		return Record{}, forbidden(op)
	}

	rec.Name = name
	rec.Dag = cloneRaw(dag)
	rec.Version++
	rec.UpdatedAt = s.opts.now().UTC()
	_, err = s.db.ExecContext(ctx, `
		UPDATE flows SET name = ?, dag = ?, version = ?, updated_at = ?
		WHERE id = ?
	`, rec.Name, []byte(rec.Dag), rec.Version, formatTime(rec.UpdatedAt), id)
	if err != nil {
		return Record{}, fmt.Errorf("update flow: %w", err)
	}
	return rec, nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Record{}, ErrStoreClosed
	}

	rec, err := s.get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, notFound("get flow")
	}
	return rec, err
}

func (s *SQLiteStore) get(ctx context.Context, id string) (Record, error) {
	var (
		rec              Record
		dag              []byte
		created, updated string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, owner, dag, version, created_at, updated_at
		FROM flows WHERE id = ?
	`, id).Scan(&rec.ID, &rec.Name, &rec.Owner, &dag, &rec.Version, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("load flow: %w", err)
	}
	rec.Dag = json.RawMessage(dag)
	rec.CreatedAt = parseTime(created)
	rec.UpdatedAt = parseTime(updated)
	return rec, nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, owner, version, updated_at, LENGTH(dag)
		FROM flows
		ORDER BY updated_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list flows: %w", err)
	}
	defer rows.Close()

	infos := []Info{}
	for rows.Next() {
		var info Info
		var updated string
		if err := rows.Scan(&info.ID, &info.Name, &info.Owner, &info.Version, &updated, &info.Size); err != nil {
			return nil, fmt.Errorf("scan flow info: %w", err)
		}
		info.UpdatedAt = parseTime(updated)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate flows: %w", err)
	}
	return infos, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, token, id string) error {
	const op = "delete flow"
	owner, err := s.opts.authorize(op, token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	var current string
	err = s.db.QueryRowContext(ctx, `SELECT owner FROM flows WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load flow owner: %w", err)
	}
	if current != owner {
		return forbidden(op)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM flows WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete flow: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Fixed width keeps lexical order equal to time order in ORDER BY.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}
