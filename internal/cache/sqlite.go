package cache

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// Defaults for the SQLite store, overridable through Options.
const (
	DefaultCapacityBytes = 100 * 1024 * 1024
	DefaultMaxEntries    = 10000
	DefaultEvictionBatch = 100
)

// Options configures a SQLiteStore.
type Options struct {
	Path          string
	CapacityBytes int64
	MaxEntries    int
	EvictionBatch int
	Logger        *slog.Logger
}

// SQLiteStore implements Store on a single SQLite database. It exclusively
// owns all persisted entry state; concurrent use from one process is safe,
// with get/set atomicity provided by transactions.
type SQLiteStore struct {
	db       *sql.DB
	capacity int64
	maxRows  int
	batch    int
	logger   *slog.Logger
	entropy  *rand.Rand
}

// Open opens or creates the cache database at the given path.
func Open(opts Options) (*SQLiteStore, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("cache path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", opts.Path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	s := &SQLiteStore{
		db:       db,
		capacity: opts.CapacityBytes,
		maxRows:  opts.MaxEntries,
		batch:    opts.EvictionBatch,
		logger:   opts.Logger,
		entropy:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if s.capacity <= 0 {
		s.capacity = DefaultCapacityBytes
	}
	if s.maxRows <= 0 {
		s.maxRows = DefaultMaxEntries
	}
	if s.batch <= 0 {
		s.batch = DefaultEvictionBatch
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cache (
		key           TEXT PRIMARY KEY,
		value         TEXT NOT NULL,
		size          INTEGER NOT NULL,
		last_accessed INTEGER NOT NULL,
		created_at    INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_cache_last_accessed ON cache(last_accessed);

	CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		root        TEXT NOT NULL,
		started_at  INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		files_seen  INTEGER NOT NULL,
		cache_hits  INTEGER NOT NULL,
		scanned     INTEGER NOT NULL,
		errors      INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// Get looks up an exact key. On a hit the entry's last_accessed is updated in
// the same transaction. Any storage failure is logged and reported as a miss.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Warn("cache get begin", "key", key, "error", err)
		return nil, false
	}
	defer tx.Rollback()

	var value string
	err = tx.QueryRowContext(ctx, `SELECT value FROM cache WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		s.logger.Warn("cache get", "key", key, "error", err)
		return nil, false
	}

	now := time.Now().UnixNano()
	if _, err := tx.ExecContext(ctx, `UPDATE cache SET last_accessed = ? WHERE key = ?`, now, key); err != nil {
		s.logger.Warn("cache touch", "key", key, "error", err)
		return nil, false
	}
	if err := tx.Commit(); err != nil {
		s.logger.Warn("cache get commit", "key", key, "error", err)
		return nil, false
	}
	return []byte(value), true
}

// Set upserts an entry, running eviction first when the projected total would
// exceed capacity. Upsert and eviction commit as one transaction, so a crash
// in between cannot corrupt prior entries.
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) bool {
	size := int64(len(value))
	now := time.Now().UnixNano()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Warn("cache set begin", "key", key, "error", err)
		return false
	}
	defer tx.Rollback()

	if err := s.evict(ctx, tx, size); err != nil {
		s.logger.Warn("cache evict", "key", key, "error", err)
		return false
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cache (key, value, size, last_accessed, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			size = excluded.size,
			last_accessed = excluded.last_accessed`,
		key, string(value), size, now, now)
	if err != nil {
		s.logger.Warn("cache set", "key", key, "error", err)
		return false
	}

	if err := s.trimRows(ctx, tx); err != nil {
		s.logger.Warn("cache trim", "key", key, "error", err)
		return false
	}

	if err := tx.Commit(); err != nil {
		s.logger.Warn("cache set commit", "key", key, "error", err)
		return false
	}
	return true
}

// evict deletes batches of the least-recently-accessed entries until the
// incoming entry fits under capacity. It terminates when the store is empty
// even if the entry alone exceeds capacity.
func (s *SQLiteStore) evict(ctx context.Context, tx *sql.Tx, incoming int64) error {
	for {
		var total int64
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(SUM(size), 0) FROM cache`).Scan(&total); err != nil {
			return err
		}
		if total+incoming <= s.capacity {
			return nil
		}
		res, err := tx.ExecContext(ctx, `
			DELETE FROM cache WHERE key IN (
				SELECT key FROM cache ORDER BY last_accessed ASC, created_at ASC LIMIT ?
			)`, s.batch)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
}

// trimRows is the secondary eviction pass for stores that accumulate many
// tiny entries: oldest-first batches until the row count fits.
func (s *SQLiteStore) trimRows(ctx context.Context, tx *sql.Tx) error {
	for {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache`).Scan(&count); err != nil {
			return err
		}
		if count <= s.maxRows {
			return nil
		}
		res, err := tx.ExecContext(ctx, `
			DELETE FROM cache WHERE key IN (
				SELECT key FROM cache ORDER BY last_accessed ASC, created_at ASC LIMIT ?
			)`, s.batch)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
}

// Clear removes every cache entry. Run history is kept.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache`)
	return err
}

// RecordRun appends one traversal to the run log and returns its ID.
func (s *SQLiteStore) RecordRun(ctx context.Context, run RunStats) (string, error) {
	id := s.newID()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, root, started_at, finished_at, files_seen, cache_hits, scanned, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, run.Root, run.StartedAt.UnixNano(), run.FinishedAt.UnixNano(),
		run.FilesSeen, run.CacheHits, run.Scanned, run.Errors)
	if err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	return id, nil
}

// Stats reports entry totals and the most recent run.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	var oldest sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(size), 0), MIN(last_accessed) FROM cache`).
		Scan(&st.Entries, &st.TotalBytes, &oldest)
	if err != nil {
		return Stats{}, fmt.Errorf("cache stats: %w", err)
	}
	if oldest.Valid {
		t := time.Unix(0, oldest.Int64)
		st.OldestAccess = &t
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&st.Runs); err != nil {
		return Stats{}, fmt.Errorf("run stats: %w", err)
	}
	if st.Runs > 0 {
		var run RunStats
		var started, finished int64
		err := s.db.QueryRowContext(ctx, `
			SELECT id, root, started_at, finished_at, files_seen, cache_hits, scanned, errors
			FROM runs ORDER BY started_at DESC LIMIT 1`).
			Scan(&run.ID, &run.Root, &started, &finished,
				&run.FilesSeen, &run.CacheHits, &run.Scanned, &run.Errors)
		if err != nil {
			return Stats{}, fmt.Errorf("last run: %w", err)
		}
		run.StartedAt = time.Unix(0, started)
		run.FinishedAt = time.Unix(0, finished)
		st.LastRun = &run
	}
	return st, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
