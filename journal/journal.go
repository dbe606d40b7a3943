// Package journal persists batch runs and their per-document outcomes
// to a local SQLite database. The journal is the system of record for
// what a run did: the report server and the CSV export both read from
// it, and a dry run writes the same rows a real run would.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ArdentEmpiricist/TR-PDF-Rename/dbopen"
)

// Class buckets an outcome for the run counters. Every outcome is
// exactly one of these.
type Class string

const (
	ClassRenamed Class = "renamed"
	ClassSkipped Class = "skipped"
	ClassFailed  Class = "failed"
)

// ErrNoRun is returned when a run id does not exist.
var ErrNoRun = errors.New("journal: run not found")

// stampLayout is RFC 3339 with a fixed-width fraction, so stored stamps
// order lexicographically the way they order chronologically.
const stampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one batch invocation.
type Run struct {
	ID         string
	Root       string
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time // zero until FinishRun
	Total      int
	Renamed    int
	Skipped    int
	Failed     int
}

// Outcome is the journal entry for one document.
type Outcome struct {
	RunID   string
	Path    string
	NewName string
	Status  string
	Class   Class
	DocType string
	ISIN    string
	Asset   string
	Detail  string
	At      time.Time
}

// Journal wraps the outcome database. All methods are safe for
// concurrent use; writes retry on SQLITE_BUSY through the dbopen layer.
type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal database at path. Extra
// dbopen options are applied after the journal's own.
func Open(path string, opts ...dbopen.Option) (*Journal, error) {
	db, err := dbopen.Open(path,
		append([]dbopen.Option{dbopen.WithMkdirAll(), dbopen.WithSchema(Schema)}, opts...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}
	return &Journal{db: db}, nil
}

// New wraps an already opened database. The schema must have been
// applied by the caller.
func New(db *sql.DB) *Journal { return &Journal{db: db} }

func (j *Journal) Close() error { return j.db.Close() }

// DB exposes the underlying handle for read-only consumers.
func (j *Journal) DB() *sql.DB { return j.db }

// StartRun records the beginning of a batch run.
func (j *Journal) StartRun(ctx context.Context, id, root string, dryRun bool) error {
	_, err := dbopen.Exec(ctx, j.db,
		`INSERT INTO runs (id, root, dry_run, started_at) VALUES (?, ?, ?, ?)`,
		id, root, boolInt(dryRun), time.Now().UTC().Format(stampLayout))
	if err != nil {
		return fmt.Errorf("journal: start run: %w", err)
	}
	return nil
}

// FinishRun stamps the run's end time.
func (j *Journal) FinishRun(ctx context.Context, id string) error {
	res, err := dbopen.Exec(ctx, j.db,
		`UPDATE runs SET finished_at = ? WHERE id = ?`,
		time.Now().UTC().Format(stampLayout), id)
	if err != nil {
		return fmt.Errorf("journal: finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNoRun, id)
	}
	return nil
}

// Record writes one outcome and bumps the run counters in the same
// transaction, so the counters can never drift from the rows.
func (j *Journal) Record(ctx context.Context, o Outcome) error {
	col, err := classColumn(o.Class)
	if err != nil {
		return err
	}
	at := o.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	err = dbopen.RunTx(ctx, j.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE runs SET total = total + 1, `+col+` = `+col+` + 1 WHERE id = ?`, o.RunID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: %s", ErrNoRun, o.RunID)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO outcomes (run_id, path, new_name, status, class, doc_type, isin, asset, detail, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.RunID, o.Path, o.NewName, o.Status, string(o.Class), o.DocType, o.ISIN, o.Asset, o.Detail,
			at.UTC().Format(stampLayout))
		return err
	})
	if err != nil {
		return fmt.Errorf("journal: record outcome: %w", err)
	}
	return nil
}

// classColumn maps a class to its counter column. The column name is
// interpolated into SQL, so only whitelisted values pass.
func classColumn(c Class) (string, error) {
	switch c {
	case ClassRenamed:
		return "renamed", nil
	case ClassSkipped:
		return "skipped", nil
	case ClassFailed:
		return "failed", nil
	}
	return "", fmt.Errorf("journal: unknown outcome class %q", c)
}

// Runs returns the most recent runs, newest first.
func (j *Journal) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, root, dry_run, started_at, finished_at, total, renamed, skipped, failed
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r                 Run
			dry               int
			started, finished string
		)
		if err := rows.Scan(&r.ID, &r.Root, &dry, &started, &finished,
			&r.Total, &r.Renamed, &r.Skipped, &r.Failed); err != nil {
			return nil, fmt.Errorf("journal: scan run: %w", err)
		}
		r.DryRun = dry != 0
		r.StartedAt = parseStamp(started)
		r.FinishedAt = parseStamp(finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRun returns one run by id.
func (j *Journal) GetRun(ctx context.Context, id string) (Run, error) {
	var (
		r                 Run
		dry               int
		started, finished string
	)
	err := j.db.QueryRowContext(ctx,
		`SELECT id, root, dry_run, started_at, finished_at, total, renamed, skipped, failed
		 FROM runs WHERE id = ?`, id).
		Scan(&r.ID, &r.Root, &dry, &started, &finished, &r.Total, &r.Renamed, &r.Skipped, &r.Failed)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNoRun, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("journal: get run: %w", err)
	}
	r.DryRun = dry != 0
	r.StartedAt = parseStamp(started)
	r.FinishedAt = parseStamp(finished)
	return r, nil
}

// Outcomes returns every outcome of a run in insertion order.
func (j *Journal) Outcomes(ctx context.Context, runID string) ([]Outcome, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT run_id, path, new_name, status, class, doc_type, isin, asset, detail, created_at
		 FROM outcomes WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("journal: list outcomes: %w", err)
	}
	defer rows.Close()

	var out []Outcome
	for rows.Next() {
		var (
			o     Outcome
			class string
			at    string
		)
		if err := rows.Scan(&o.RunID, &o.Path, &o.NewName, &o.Status, &class,
			&o.DocType, &o.ISIN, &o.Asset, &o.Detail, &at); err != nil {
			return nil, fmt.Errorf("journal: scan outcome: %w", err)
		}
		o.Class = Class(class)
		o.At = parseStamp(at)
		out = append(out, o)
	}
	return out, rows.Err()
}

// Stats returns the per-status outcome counts for a run.
func (j *Journal) Stats(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM outcomes WHERE run_id = ? GROUP BY status`, runID)
	if err != nil {
		return nil, fmt.Errorf("journal: stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("journal: scan stats: %w", err)
		}
		stats[status] = n
	}
	return stats, rows.Err()
}

func parseStamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
