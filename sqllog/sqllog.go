// Package sqllog provides transparent statement logging for
// modernc.org/sqlite.
//
// It registers a "sqlite-log" driver that wraps the standard "sqlite"
// driver, timing every Exec and Query at the database/sql/driver level.
// No application code changes are needed beyond switching the driver
// name:
//
//	import _ "github.com/ArdentEmpiricist/TR-PDF-Rename/sqllog"
//
//	db, _ := sql.Open("sqlite-log", "journal.db")
//
// or through dbopen:
//
//	db, _ := dbopen.Open("journal.db", dbopen.WithStatementLog())
//
// Statements log at debug level, warn past 100ms, error on failure.
package sqllog

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	sqlite "modernc.org/sqlite"
)

var logger atomic.Pointer[slog.Logger]

// SetLogger routes statement logs to l. Nil restores slog.Default().
func SetLogger(l *slog.Logger) { logger.Store(l) }

func log() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

func init() {
	sql.Register("sqlite-log", &loggingDriver{Driver: &sqlite.Driver{}})
}

// loggingDriver wraps the modernc.org/sqlite driver. Hiding the
// connection's optional fast-path interfaces makes database/sql route
// everything through Prepare, so every statement passes the timer.
type loggingDriver struct {
	driver.Driver
}

func (d *loggingDriver) Open(name string) (driver.Conn, error) {
	conn, err := d.Driver.Open(name)
	if err != nil {
		return nil, err
	}
	return &loggingConn{Conn: conn}, nil
}

type loggingConn struct {
	driver.Conn
}

func (c *loggingConn) Prepare(query string) (driver.Stmt, error) {
	stmt, err := c.Conn.Prepare(query)
	if err != nil {
		return nil, err
	}
	return &loggingStmt{Stmt: stmt, query: query}, nil
}

func (c *loggingConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if pc, ok := c.Conn.(driver.ConnPrepareContext); ok {
		stmt, err := pc.PrepareContext(ctx, query)
		if err != nil {
			return nil, err
		}
		return &loggingStmt{Stmt: stmt, query: query}, nil
	}
	return c.Prepare(query)
}

func (c *loggingConn) Begin() (driver.Tx, error) {
	return c.Conn.Begin()
}

type loggingStmt struct {
	driver.Stmt
	query string
}

func (s *loggingStmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	start := time.Now()
	var result driver.Result
	var err error
	if ec, ok := s.Stmt.(driver.StmtExecContext); ok {
		result, err = ec.ExecContext(ctx, args)
	} else {
		result, err = s.Stmt.Exec(namedToValues(args))
	}
	s.record(ctx, "Exec", time.Since(start), err)
	return result, err
}

func (s *loggingStmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	start := time.Now()
	var rows driver.Rows
	var err error
	if qc, ok := s.Stmt.(driver.StmtQueryContext); ok {
		rows, err = qc.QueryContext(ctx, args)
	} else {
		rows, err = s.Stmt.Query(namedToValues(args))
	}
	s.record(ctx, "Query", time.Since(start), err)
	return rows, err
}

func (s *loggingStmt) Exec(args []driver.Value) (driver.Result, error) {
	start := time.Now()
	result, err := s.Stmt.Exec(args)
	s.record(context.Background(), "Exec", time.Since(start), err)
	return result, err
}

func (s *loggingStmt) Query(args []driver.Value) (driver.Rows, error) {
	start := time.Now()
	rows, err := s.Stmt.Query(args)
	s.record(context.Background(), "Query", time.Since(start), err)
	return rows, err
}

func (s *loggingStmt) record(ctx context.Context, op string, d time.Duration, err error) {
	// Fast successful PRAGMAs are connection-setup noise; slow or
	// failed ones still log.
	if err == nil && d < 10*time.Millisecond && strings.HasPrefix(s.query, "PRAGMA ") {
		return
	}

	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelError
	} else if d > 100*time.Millisecond {
		level = slog.LevelWarn
	}

	attrs := []slog.Attr{
		slog.String("component", "sql"),
		slog.String("op", op),
		slog.String("query", s.query),
		slog.Duration("duration", d),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	log().LogAttrs(ctx, level, "SQL", attrs...)
}

func namedToValues(named []driver.NamedValue) []driver.Value {
	vals := make([]driver.Value, len(named))
	for i, nv := range named {
		vals[i] = nv.Value
	}
	return vals
}
