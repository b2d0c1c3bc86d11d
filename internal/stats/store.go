package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

// Store persists stats snapshots in SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DefaultDBPath returns <stateDir>/stats.db
func DefaultDBPath(stateDir string) string {
	return filepath.Join(stateDir, "stats.db")
}

func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS weekly_stats (
		id                   INTEGER PRIMARY KEY CHECK (id = 1),
		total_active_seconds INTEGER NOT NULL DEFAULT 0,
		micro_done           INTEGER NOT NULL DEFAULT 0,
		rest_done            INTEGER NOT NULL DEFAULT 0,
		daily_limit_hits     INTEGER NOT NULL DEFAULT 0,
		skipped              INTEGER NOT NULL DEFAULT 0,
		day_bucket           INTEGER NOT NULL,
		week_epoch           INTEGER NOT NULL,
		reset_offset_seconds INTEGER NOT NULL DEFAULT 0,
		updated_at           TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS daily_stats (
		day_bucket       INTEGER PRIMARY KEY,
		day              TEXT NOT NULL,
		active_seconds   INTEGER NOT NULL DEFAULT 0,
		micro_done       INTEGER NOT NULL DEFAULT 0,
		rest_done        INTEGER NOT NULL DEFAULT 0,
		daily_limit_hits INTEGER NOT NULL DEFAULT 0,
		skipped          INTEGER NOT NULL DEFAULT 0
	);
	`
	_, err := s.db.Exec(ddl)
	return err
}

// Load reads the persisted snapshot. The bool is false on a fresh database.
func (s *Store) Load(ctx context.Context) (Snapshot, bool, error) {
	var (
		snap   Snapshot
		offset int64
	)
	w := &snap.Weekly
	err := s.db.QueryRowContext(ctx, `
		SELECT total_active_seconds, micro_done, rest_done, daily_limit_hits, skipped,
		       day_bucket, week_epoch, reset_offset_seconds
		FROM weekly_stats WHERE id = 1`,
	).Scan(&w.TotalActiveSeconds, &w.MicroDone, &w.RestDone, &w.DailyLimitHits, &w.Skipped,
		&w.DayBucket, &w.WeekEpoch, &offset)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("query weekly stats: %w", err)
	}
	snap.ResetOffset = time.Duration(offset) * time.Second

	rows, err := s.db.QueryContext(ctx, `
		SELECT day_bucket, day, active_seconds, micro_done, rest_done, daily_limit_hits, skipped
		FROM daily_stats ORDER BY day_bucket`)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("query daily stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d DailyStats
		if err := rows.Scan(&d.DayBucket, &d.Day, &d.ActiveSeconds, &d.MicroDone, &d.RestDone, &d.DailyLimitHits, &d.Skipped); err != nil {
			return Snapshot{}, false, fmt.Errorf("scan daily stats: %w", err)
		}
		snap.Days = append(snap.Days, d)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

// Save replaces the stored snapshot in a single transaction.
func (s *Store) Save(ctx context.Context, snap Snapshot) error {
	return WithTx(ctx, s.db, func(tx *sql.Tx) error {
		w := snap.Weekly
		_, err := tx.ExecContext(ctx, `
			INSERT INTO weekly_stats (id, total_active_seconds, micro_done, rest_done, daily_limit_hits, skipped,
			                          day_bucket, week_epoch, reset_offset_seconds, updated_at)
			VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				total_active_seconds = excluded.total_active_seconds,
				micro_done           = excluded.micro_done,
				rest_done            = excluded.rest_done,
				daily_limit_hits     = excluded.daily_limit_hits,
				skipped              = excluded.skipped,
				day_bucket           = excluded.day_bucket,
				week_epoch           = excluded.week_epoch,
				reset_offset_seconds = excluded.reset_offset_seconds,
				updated_at           = excluded.updated_at`,
			w.TotalActiveSeconds, w.MicroDone, w.RestDone, w.DailyLimitHits, w.Skipped,
			w.DayBucket, w.WeekEpoch, int64(snap.ResetOffset/time.Second),
			time.Now().UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("upsert weekly stats: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM daily_stats`); err != nil {
			return fmt.Errorf("clear daily stats: %w", err)
		}
		for _, d := range snap.Days {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO daily_stats (day_bucket, day, active_seconds, micro_done, rest_done, daily_limit_hits, skipped)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				d.DayBucket, d.Day, d.ActiveSeconds, d.MicroDone, d.RestDone, d.DailyLimitHits, d.Skipped,
			)
			if err != nil {
				return fmt.Errorf("insert daily stats %s: %w", d.Day, err)
			}
		}
		return nil
	})
}

// WithTx runs fn inside a SQL transaction.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}
