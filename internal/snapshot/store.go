package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrEmpty reports that no snapshot has been saved yet.
var ErrEmpty = errors.New("snapshot: no titles stored")

// Snapshot is the result of one successful title refresh.
type Snapshot struct {
	Titles      []string
	RefreshedAt time.Time
}

// Store persists the latest title snapshot in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open creates or opens the snapshot database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("snapshot path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure snapshot directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Save replaces the stored snapshot with snap in a single transaction.
func (s *Store) Save(ctx context.Context, snap Snapshot) error {
	if len(snap.Titles) == 0 {
		return errors.New("snapshot: refusing to save empty title list")
	}
	ctx = ensureContext(ctx)
	refreshedAt := snap.RefreshedAt.UTC().Format(time.RFC3339Nano)

	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin snapshot tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, "DELETE FROM title_snapshots"); err != nil {
			return fmt.Errorf("clear snapshot: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, "INSERT INTO title_snapshots (refreshed_at, position, title) VALUES (?, ?, ?)")
		if err != nil {
			return fmt.Errorf("prepare snapshot insert: %w", err)
		}
		defer stmt.Close()
		for i, title := range snap.Titles {
			if _, err := stmt.ExecContext(ctx, refreshedAt, i, title); err != nil {
				return fmt.Errorf("insert snapshot title %d: %w", i, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit snapshot: %w", err)
		}
		return nil
	})
}

// Load returns the stored snapshot in its original order, or ErrEmpty.
func (s *Store) Load(ctx context.Context) (Snapshot, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT refreshed_at, title FROM title_snapshots ORDER BY position ASC")
	if err != nil {
		return Snapshot{}, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	var (
		snap        Snapshot
		refreshedAt string
	)
	for rows.Next() {
		var title string
		if err := rows.Scan(&refreshedAt, &title); err != nil {
			return Snapshot{}, fmt.Errorf("scan snapshot row: %w", err)
		}
		snap.Titles = append(snap.Titles, title)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	if len(snap.Titles) == 0 {
		return Snapshot{}, ErrEmpty
	}
	parsed, err := time.Parse(time.RFC3339Nano, refreshedAt)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parse snapshot timestamp %q: %w", refreshedAt, err)
	}
	snap.RefreshedAt = parsed
	return snap, nil
}

// Clear removes the stored snapshot.
func (s *Store) Clear(ctx context.Context) error {
	return s.execWithoutResultRetry(ctx, "DELETE FROM title_snapshots")
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithoutResultRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}
