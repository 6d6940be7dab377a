// Package store caches parse results in SQLite, keyed by the archive content
// and the options that produced them.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/brunobiangulo/slidedeck/parser"
)

var (
	// ErrCacheMiss is returned by Get when no result is stored for a key.
	ErrCacheMiss = errors.New("slidedeck: cache miss")

	// ErrStoreClosed is returned when operating on a closed store.
	ErrStoreClosed = errors.New("slidedeck: store is closed")
)

// Key identifies a cached result.
type Key struct {
	ContentHash string
	OptionsHash string
}

// String is the primary key of the row.
func (k Key) String() string { return k.ContentHash + ":" + k.OptionsHash }

// KeyFor hashes an archive and the options it is parsed with. Concurrency
// does not change the result and is left out of the hash.
func KeyFor(data []byte, opts parser.Options) Key {
	opts.Concurrency = 0
	optJSON, _ := json.Marshal(opts)
	c := sha256.Sum256(data)
	o := sha256.Sum256(optJSON)
	return Key{ContentHash: hex.EncodeToString(c[:]), OptionsHash: hex.EncodeToString(o[:])}
}

// Entry describes a cached result without its payload.
type Entry struct {
	Key         string    `json:"key"`
	ContentHash string    `json:"content_hash"`
	OptionsHash string    `json:"options_hash"`
	Title       string    `json:"title"`
	SlideCount  int       `json:"slide_count"`
	TotalSlides int       `json:"total_slides"`
	SizeBytes   int64     `json:"size_bytes"`
	HitCount    int64     `json:"hit_count"`
	CreatedAt   time.Time `json:"created_at"`
	AccessedAt  time.Time `json:"accessed_at"`
}

// Stats summarises the cache.
type Stats struct {
	Entries    int   `json:"entries"`
	TotalBytes int64 `json:"total_bytes"`
	Hits       int64 `json:"hits"`
}

// Store wraps the SQLite database holding cached parse results.
type Store struct {
	db  *sql.DB
	now func() time.Time

	mu     sync.RWMutex
	closed bool
}

// New opens (or creates) a SQLite database at the given path and applies
// the schema and any pending migrations.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	// Connection pool settings for SQLite.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db, now: func() time.Time { return time.Now().UTC() }}

	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection. Calling Close twice is
// not an error; every other method fails with ErrStoreClosed afterwards.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// DB returns the underlying *sql.DB for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// acquire holds the read lock for the duration of an operation so Close
// waits for in-flight queries.
func (s *Store) acquire() (release func(), err error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, ErrStoreClosed
	}
	return s.mu.RUnlock, nil
}

// Get returns the cached result for key and records the hit.
func (s *Store) Get(ctx context.Context, key Key) (*parser.Result, error) {
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	var payload []byte
	err = s.db.QueryRowContext(ctx, "SELECT result FROM parse_results WHERE cache_key = ?", key.String()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("reading cached result: %w", err)
	}

	var res parser.Result
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, fmt.Errorf("decoding cached result: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		UPDATE parse_results SET hit_count = hit_count + 1, accessed_at = ?
		WHERE cache_key = ?
	`, s.now(), key.String()); err != nil {
		return nil, fmt.Errorf("recording cache hit: %w", err)
	}
	return &res, nil
}

// Put stores res under key, replacing any previous entry.
func (s *Store) Put(ctx context.Context, key Key, res *parser.Result) error {
	if res == nil {
		return errors.New("store: nil result")
	}
	release, err := s.acquire()
	if err != nil {
		return err
	}
	defer release()

	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	now := s.now()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO parse_results (cache_key, content_hash, options_hash, title, slide_count,
			total_slides, result, size_bytes, hit_count, created_at, accessed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			title = excluded.title,
			slide_count = excluded.slide_count,
			total_slides = excluded.total_slides,
			result = excluded.result,
			size_bytes = excluded.size_bytes,
			accessed_at = excluded.accessed_at
	`, key.String(), key.ContentHash, key.OptionsHash, res.Metadata.Title, len(res.Slides),
		res.Metadata.TotalSlides, payload, len(payload), now, now)
	if err != nil {
		return fmt.Errorf("storing result: %w", err)
	}
	return nil
}

// Delete removes one entry. Deleting a missing key returns ErrCacheMiss.
func (s *Store) Delete(ctx context.Context, key string) error {
	release, err := s.acquire()
	if err != nil {
		return err
	}
	defer release()

	res, err := s.db.ExecContext(ctx, "DELETE FROM parse_results WHERE cache_key = ?", key)
	if err != nil {
		return fmt.Errorf("deleting cache entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCacheMiss
	}
	return nil
}

// List returns every entry, most recently used first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := s.db.QueryContext(ctx, `
		SELECT cache_key, content_hash, options_hash, title, slide_count, total_slides,
			size_bytes, hit_count, created_at, accessed_at
		FROM parse_results ORDER BY accessed_at DESC, cache_key
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var title sql.NullString
		if err := rows.Scan(&e.Key, &e.ContentHash, &e.OptionsHash, &title, &e.SlideCount,
			&e.TotalSlides, &e.SizeBytes, &e.HitCount, &e.CreatedAt, &e.AccessedAt); err != nil {
			return nil, err
		}
		e.Title = title.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes entries not accessed since before and returns how many were
// removed.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	release, err := s.acquire()
	if err != nil {
		return 0, err
	}
	defer release()

	res, err := s.db.ExecContext(ctx, "DELETE FROM parse_results WHERE accessed_at < ?", before.UTC())
	if err != nil {
		return 0, fmt.Errorf("pruning cache: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns entry count, payload size and total hits.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	st := &Stats{}
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(size_bytes), 0), COALESCE(SUM(hit_count), 0) FROM parse_results
	`).Scan(&st.Entries, &st.TotalBytes, &st.Hits)
	if err != nil {
		return nil, fmt.Errorf("reading cache stats: %w", err)
	}
	return st, nil
}

// --- helpers ---

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
