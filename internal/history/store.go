// Package history keeps an audit trail of successful generations in SQLite.
//
// Generation never reads it. The history command uses it to show when the
// README's content last changed and which targets' tables changed with it.
package history

import (
	"context"
	"crypto/sha256"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/benchdoc/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes
const schemaVersion = 1

// TargetRun is one target's formatter output within a run
type TargetRun struct {
	Name     string
	Digest   string
	Size     int
	Duration time.Duration
}

// Run is a recorded generation
type Run struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Digest    string
	Size      int
	Targets   []TargetRun

	// Previous is the digest of the run before this one, empty for the first run
	Previous string

	// ChangedTargets names targets whose table differs from the previous run,
	// including targets that were added
	ChangedTargets []string
}

// Changed reports whether the document differs from the previous run
func (r *Run) Changed() bool {
	return r.Previous != "" && r.Previous != r.Digest
}

// Store manages the SQLite run history database
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore creates a new Store instance and initializes the database
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection: pragmas are per connection and an in-memory
	// database exists only on the connection that created it
	db.SetMaxOpenConns(1)

	// busy_timeout first so the others wait on a concurrent writer
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

// execWithRetry executes a statement with exponential backoff on lock errors
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

func (s *Store) initSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	var version int
	if err := tx.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, schemaVersion)
	}
	if version < schemaVersion {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version=%d", schemaVersion)); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
	}

	return tx.Commit()
}

// Path returns the database path
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Record stores a successful generation and its per-target tables
func (s *Store) Record(ctx context.Context, result *models.GenerationResult) error {
	if result == nil {
		return fmt.Errorf("record run: result is nil")
	}
	if _, err := uuid.Parse(result.RunID); err != nil {
		return fmt.Errorf("record run: invalid run id %q: %w", result.RunID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, duration_ns, digest, size_bytes) VALUES (?, ?, ?, ?, ?)`,
		result.RunID,
		result.StartedAt.UTC().Format(time.RFC3339Nano),
		int64(result.Duration),
		result.Digest,
		len(result.Document),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	for i, table := range result.Tables {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO run_targets (run_seq, position, target, digest, size_bytes, duration_ns) VALUES (?, ?, ?, ?, ?, ?)`,
			seq, i, table.Target.Name, digest([]byte(table.Text)), len(table.Text), int64(table.Duration),
		)
		if err != nil {
			return fmt.Errorf("insert target %s: %w", table.Target.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

type runRow struct {
	seq int64
	run Run
}

// Recent returns up to limit runs, newest first, each compared with the run
// recorded before it. A limit of 0 or less returns every run.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT seq, run_id, started_at, duration_ns, digest, size_bytes FROM runs ORDER BY seq DESC`
	var args []interface{}
	if limit > 0 {
		// One extra row is the baseline for the oldest returned run
		query += ` LIMIT ?`
		args = append(args, limit+1)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var loaded []runRow
	for rows.Next() {
		var row runRow
		var startedAt string
		var duration int64
		if err := rows.Scan(&row.seq, &row.run.ID, &startedAt, &duration, &row.run.Digest, &row.run.Size); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		row.run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parse start time of run %s: %w", row.run.ID, err)
		}
		row.run.Duration = time.Duration(duration)
		loaded = append(loaded, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	rows.Close()

	for i := range loaded {
		targets, err := s.targets(ctx, loaded[i].seq)
		if err != nil {
			return nil, err
		}
		loaded[i].run.Targets = targets
	}

	runs := make([]*Run, 0, len(loaded))
	for i := range loaded {
		if limit > 0 && i == limit {
			break
		}
		run := loaded[i].run
		if i+1 < len(loaded) {
			prev := loaded[i+1].run
			run.Previous = prev.Digest
			run.ChangedTargets = changedTargets(prev.Targets, run.Targets)
		}
		runs = append(runs, &run)
	}
	return runs, nil
}

// Latest returns the most recent run, or nil when nothing has been recorded
func (s *Store) Latest(ctx context.Context) (*Run, error) {
	runs, err := s.Recent(ctx, 1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return runs[0], nil
}

func (s *Store) targets(ctx context.Context, seq int64) ([]TargetRun, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT target, digest, size_bytes, duration_ns FROM run_targets WHERE run_seq = ? ORDER BY position`, seq)
	if err != nil {
		return nil, fmt.Errorf("query run targets: %w", err)
	}
	defer rows.Close()

	var targets []TargetRun
	for rows.Next() {
		var t TargetRun
		var duration int64
		if err := rows.Scan(&t.Name, &t.Digest, &t.Size, &duration); err != nil {
			return nil, fmt.Errorf("scan run target: %w", err)
		}
		t.Duration = time.Duration(duration)
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

func changedTargets(prev, cur []TargetRun) []string {
	before := make(map[string]string, len(prev))
	for _, t := range prev {
		before[t.Name] = t.Digest
	}
	var changed []string
	for _, t := range cur {
		if d, ok := before[t.Name]; !ok || d != t.Digest {
			changed = append(changed, t.Name)
		}
	}
	return changed
}

// Prune deletes all but the newest keep runs and returns how many were removed.
// A keep of 0 or less keeps everything.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	const stale = `SELECT seq FROM runs ORDER BY seq DESC LIMIT -1 OFFSET ?`
	if _, err := tx.ExecContext(ctx, `DELETE FROM run_targets WHERE run_seq IN (`+stale+`)`, keep); err != nil {
		return 0, fmt.Errorf("prune run targets: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE seq IN (`+stale+`)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prune: %w", err)
	}
	return n, nil
}
