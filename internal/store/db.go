// Package store is the data-store collaborator shared by the repositories:
// a database/sql handle bound to one dialect, with placeholder rebinding,
// query accounting and a transactional scope.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) String() string {
	if d == SQLite {
		return "sqlite"
	}
	return "postgres"
}

// DBTX is satisfied by both DB and the querier handed out by InTx.
// SQL uses ? placeholders regardless of dialect.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Options struct {
	Driver string // "pgx" or "sqlite"
	DSN    string
	Logger zerolog.Logger
	LogSQL bool
}

type DB struct {
	sql     *sql.DB
	dialect Dialect
	log     zerolog.Logger
	logSQL  bool
	queries atomic.Int64
}

// Open connects, applies connection settings for the dialect and makes sure
// the schema exists.
func Open(ctx context.Context, opts Options) (*DB, error) {
	var dialect Dialect
	switch opts.Driver {
	case "pgx":
		dialect = Postgres
	case "sqlite":
		dialect = SQLite
	default:
		return nil, fmt.Errorf("store: unknown driver %q", opts.Driver)
	}

	sqlDB, err := sql.Open(opts.Driver, opts.DSN)
	if err != nil {
		return nil, &Error{Op: "open", Err: err}
	}

	if dialect == SQLite {
		// an in-memory database lives and dies with its single connection
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		if _, err := sqlDB.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
			_ = sqlDB.Close()
			return nil, &Error{Op: "enable foreign keys", Err: err}
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, &Error{Op: "ping", Err: err}
	}

	db := &DB{sql: sqlDB, dialect: dialect, log: opts.Logger, logSQL: opts.LogSQL}
	if err := db.ensureSchema(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) Dialect() Dialect { return d.dialect }

func (d *DB) Ping(ctx context.Context) error { return d.sql.PingContext(ctx) }

// Queries reports how many statements were sent to the store since the last
// ResetQueries.
func (d *DB) Queries() int64 { return d.queries.Load() }

func (d *DB) ResetQueries() { d.queries.Store(0) }

func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.sql.ExecContext(ctx, d.prepare(query, args), args...)
}

func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.sql.QueryContext(ctx, d.prepare(query, args), args...)
}

func (d *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return d.sql.QueryRowContext(ctx, d.prepare(query, args), args...)
}

// InTx runs fn inside one transaction. fn's error (or panic) rolls back;
// otherwise the transaction commits.
func (d *DB) InTx(ctx context.Context, fn func(q DBTX) error) (err error) {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return &Error{Op: "begin", Err: err}
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&txQuerier{tx: tx, db: d}); err != nil {
		return err
	}
	if cerr := tx.Commit(); cerr != nil {
		return &Error{Op: "commit", Err: cerr}
	}
	return nil
}

func (d *DB) prepare(query string, args []any) string {
	d.queries.Add(1)
	if d.logSQL {
		d.log.Debug().Str("sql", compact(query)).Int("args", len(args)).Msg("[sql]")
	}
	if d.dialect == Postgres {
		return Rebind(query)
	}
	return query
}

type txQuerier struct {
	tx *sql.Tx
	db *DB
}

func (t *txQuerier) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, t.db.prepare(query, args), args...)
}

func (t *txQuerier) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, t.db.prepare(query, args), args...)
}

func (t *txQuerier) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, t.db.prepare(query, args), args...)
}

// Rebind turns ? placeholders into $1..$n. Quoted literals are left alone.
func Rebind(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Placeholders returns "?, ?, ..." with n markers, for IN lists.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func compact(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
