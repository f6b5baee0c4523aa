package driver

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// pgConn common surface of *pgxpool.Pool and pgx.Tx
type pgConn interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// PGWrapper ITransactionalDB over a pgx pool
type PGWrapper struct {
	db *pgxpool.Pool
}

// PGWrapperTx transaction wrapper
type PGWrapperTx struct {
	tx pgx.Tx
}

// PGExecResult adapts a command tag to sql.Result
type PGExecResult struct {
	ct pgconn.CommandTag
}

// PGQueryResult adapts pgx.Rows to ISQLRows
type PGQueryResult struct {
	rows pgx.Rows
}

// NewPostgreSQLConn Returns a postgreSQL connection pool
func NewPostgreSQLConn(dsn string, cfg *DBConfig) (ITransactionalDB, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = cfg.MaxConn
	pool, err := pgxpool.ConnectConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, err
	}
	return &PGWrapper{pool}, nil
}

func (pr PGExecResult) LastInsertId() (int64, error) { return 0, nil }
func (pr PGExecResult) RowsAffected() (int64, error) { return pr.ct.RowsAffected(), nil }

func (pr PGQueryResult) Next() bool                     { return pr.rows.Next() }
func (pr PGQueryResult) Scan(dest ...interface{}) error { return pr.rows.Scan(dest...) }

func (pr PGQueryResult) Close() error {
	pr.rows.Close()
	return nil
}

func pgExec(ctx context.Context, c pgConn, query string, args []interface{}) (sql.Result, error) {
	query = pgsqlAdapter(query)
	start := time.Now()
	ct, err := c.Exec(ctx, query, args...)
	observe(ctx, "Exec", query, args, start, err)
	if err != nil {
		return nil, err
	}
	return PGExecResult{ct}, nil
}

func pgQuery(ctx context.Context, c pgConn, query string, args []interface{}) (ISQLRows, error) {
	query = pgsqlAdapter(query)
	start := time.Now()
	rows, err := c.Query(ctx, query, args...)
	observe(ctx, "Query", query, args, start, err)
	if err != nil {
		return nil, err
	}
	return PGQueryResult{rows}, nil
}

func (pw *PGWrapper) BeginTx(ctx context.Context, opts *TxOptions) (ITransactionalDB, error) {
	start := time.Now()
	tx, err := pw.db.BeginTx(ctx, pgTxOptionAdapter(opts))
	observe(ctx, "BeginTx", "", nil, start, err)
	if err != nil {
		return nil, err
	}
	return &PGWrapperTx{tx}, nil
}

func pgTxOptionAdapter(opts *TxOptions) pgx.TxOptions {
	if opts == nil {
		return pgx.TxOptions{}
	}
	txOpts := pgx.TxOptions{
		IsoLevel:   pgx.TxIsoLevel(strings.ToLower(opts.Isolation.String())),
		AccessMode: pgx.ReadWrite,
	}
	if opts.ReadOnly {
		txOpts.AccessMode = pgx.ReadOnly
	}
	return txOpts
}

func (pw *PGWrapper) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return pgExec(ctx, pw.db, query, args)
}

func (pw *PGWrapper) QueryContext(ctx context.Context, query string, args ...interface{}) (ISQLRows, error) {
	return pgQuery(ctx, pw.db, query, args)
}

func (pw *PGWrapper) Commit(ctx context.Context) error   { return nil }
func (pw *PGWrapper) Rollback(ctx context.Context) error { return nil }

// Close close the whole pool
func (pw *PGWrapper) Close(ctx context.Context) error {
	pw.db.Close()
	return nil
}

// Ping implement ITransactionalDB
func (pw *PGWrapper) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	conn, err := pw.db.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	return conn.Conn().Ping(ctx)
}

func (pwt *PGWrapperTx) BeginTx(ctx context.Context, opts *TxOptions) (ITransactionalDB, error) {
	panic("create transaction inside a transaction")
}

func (pwt *PGWrapperTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return pgExec(ctx, pwt.tx, query, args)
}

func (pwt *PGWrapperTx) QueryContext(ctx context.Context, query string, args ...interface{}) (ISQLRows, error) {
	return pgQuery(ctx, pwt.tx, query, args)
}

func (pwt *PGWrapperTx) Commit(ctx context.Context) error {
	start := time.Now()
	err := pwt.tx.Commit(ctx)
	observe(ctx, "Commit", "", nil, start, err)
	return err
}

func (pwt *PGWrapperTx) Rollback(ctx context.Context) error {
	start := time.Now()
	err := pwt.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	observe(ctx, "Rollback", "", nil, start, err)
	return err
}

func (pwt *PGWrapperTx) Close(ctx context.Context) error { return nil }
func (pwt *PGWrapperTx) Ping() error                     { return nil }

func pgsqlAdapter(query string) string {
	return whitespaceRun.ReplaceAllString(query, " ")
}
