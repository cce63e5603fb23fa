// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"

	"github.com/xataio/qbench/internal/connstr"
)

const savepointName = "qbench_step"

// Session is an exclusive connection to a target database used to run one
// revision. Implementations are not safe for concurrent use.
type Session interface {
	// ExecScript runs arbitrary statements. Multi-statement scripts are sent
	// as-is; no SQL splitting or parsing is performed.
	ExecScript(ctx context.Context, script string) error
	// ExecTimedQuery runs one query, drains and discards its result rows and
	// returns the wall-clock time from submission until the row stream is
	// exhausted.
	ExecTimedQuery(ctx context.Context, query string) (time.Duration, error)
	Close() error
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLSession is a Session backed by a single pinned database/sql connection.
type SQLSession struct {
	db     *sql.DB
	conn   *sql.Conn
	tx     *sql.Tx
	engine connstr.Engine
}

// Open connects to the database described by desc and pins one connection
// for the lifetime of the session.
func Open(ctx context.Context, desc connstr.Descriptor, opts ...Option) (*SQLSession, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	dsn := desc.DSN
	if desc.Engine == connstr.EnginePostgres && o.searchPath != "" {
		var err error
		if dsn, err = withSearchPath(dsn, o.searchPath); err != nil {
			return nil, ConnectionError{Engine: desc.Engine, Err: err}
		}
	}

	sqlDB, err := sql.Open(desc.DriverName(), dsn)
	if err != nil {
		return nil, ConnectionError{Engine: desc.Engine, Err: err}
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		sqlDB.Close()
		return nil, ConnectionError{Engine: desc.Engine, Err: err}
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		sqlDB.Close()
		return nil, ConnectionError{Engine: desc.Engine, Err: err}
	}

	s := &SQLSession{db: sqlDB, conn: conn, engine: desc.Engine}

	if o.rollback {
		// database/sql rolls a transaction back when its context is done;
		// the transaction must live until Close, not until the run deadline.
		tx, err := conn.BeginTx(context.WithoutCancel(ctx), nil)
		if err != nil {
			s.Close()
			return nil, ConnectionError{Engine: desc.Engine, Err: fmt.Errorf("unable to begin transaction: %w", err)}
		}
		s.tx = tx
	}

	return s, nil
}

// Engine returns the engine the session is connected to.
func (s *SQLSession) Engine() connstr.Engine {
	return s.engine
}

// ExecScript implements Session.
func (s *SQLSession) ExecScript(ctx context.Context, script string) error {
	return s.step(ctx, func(q querier) error {
		_, err := q.ExecContext(ctx, script)
		return err
	})
}

// ExecTimedQuery implements Session.
func (s *SQLSession) ExecTimedQuery(ctx context.Context, query string) (time.Duration, error) {
	var elapsed time.Duration

	err := s.step(ctx, func(q querier) error {
		start := time.Now()

		rows, err := q.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		for rows.Next() {
		}
		err = rows.Err()
		closeErr := rows.Close()

		elapsed = time.Since(start)

		if err != nil {
			return err
		}
		return closeErr
	})

	return elapsed, err
}

// ServerVersion returns the version string reported by the database server.
func (s *SQLSession) ServerVersion(ctx context.Context) (string, error) {
	var query string
	switch s.engine {
	case connstr.EnginePostgres:
		query = "SHOW server_version"
	case connstr.EngineMySQL:
		query = "SELECT VERSION()"
	default:
		query = "SELECT sqlite_version()"
	}

	var version string
	if err := s.querier().QueryRowContext(ctx, query).Scan(&version); err != nil {
		return "", fmt.Errorf("unable to retrieve server version: %w", err)
	}
	return version, nil
}

// Close rolls back the session transaction, if any, and releases the
// connection.
func (s *SQLSession) Close() error {
	var errs error
	if s.tx != nil {
		if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			errs = errors.Join(errs, err)
		}
		s.tx = nil
	}
	if s.conn != nil {
		errs = errors.Join(errs, s.conn.Close())
		s.conn = nil
	}
	if s.db != nil {
		errs = errors.Join(errs, s.db.Close())
		s.db = nil
	}
	return errs
}

func (s *SQLSession) querier() querier {
	if s.tx != nil {
		return s.tx
	}
	return s.conn
}

// step runs fn directly on the connection or, inside a rollback
// transaction, under a savepoint so that a failing statement does not abort
// the rest of the transaction. Savepoint handling happens outside fn and is
// therefore never part of a timed measurement.
func (s *SQLSession) step(ctx context.Context, fn func(querier) error) error {
	if s.tx == nil {
		return fn(s.conn)
	}

	if _, err := s.tx.ExecContext(ctx, "SAVEPOINT "+savepointName); err != nil {
		return fmt.Errorf("unable to create savepoint: %w", err)
	}

	// ctx may carry a per-query deadline that has already expired when fn
	// returns; the savepoint must be resolved regardless.
	cleanupCtx := context.WithoutCancel(ctx)

	if err := fn(s.tx); err != nil {
		// DDL on some engines commits implicitly and drops the savepoint, so
		// a failed rollback here is not reported over the original error.
		s.tx.ExecContext(cleanupCtx, "ROLLBACK TO SAVEPOINT "+savepointName)
		return err
	}

	s.tx.ExecContext(cleanupCtx, "RELEASE SAVEPOINT "+savepointName)
	return nil
}

func withSearchPath(dsn, schema string) (string, error) {
	if strings.Contains(dsn, "://") {
		return connstr.AppendSearchPathOption(dsn, schema)
	}
	return dsn + " search_path=" + schema, nil
}
