package driver

import (
	"context"
	"database/sql"
	"strings"
	"time"

	// mysql driver
	_ "github.com/go-sql-driver/mysql"
)

// sqlConn common surface of *sql.DB and *sql.Tx
type sqlConn interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// SQLWrapper ITransactionalDB over database/sql, queries are written in postgres dialect and rewritten for mysql
type SQLWrapper struct {
	db *sql.DB
}

// SQLWrapperTx transaction wrapper
type SQLWrapperTx struct {
	tx *sql.Tx
}

// NewMySQLConn Returns a MySQL connection pool
func NewMySQLConn(dsn string, cfg *DBConfig) (ITransactionalDB, error) {
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(int(cfg.MaxConn))
	return &SQLWrapper{conn}, nil
}

func mysqlExec(ctx context.Context, c sqlConn, query string, args []interface{}) (sql.Result, error) {
	query = mysqlAdapter(query)
	start := time.Now()
	res, err := c.ExecContext(ctx, query, args...)
	observe(ctx, "Exec", query, args, start, err)
	return res, err
}

func mysqlQuery(ctx context.Context, c sqlConn, query string, args []interface{}) (ISQLRows, error) {
	query = mysqlAdapter(query)
	start := time.Now()
	rows, err := c.QueryContext(ctx, query, args...)
	observe(ctx, "Query", query, args, start, err)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// BeginTx start a new transaction context
func (mw *SQLWrapper) BeginTx(ctx context.Context, opts *TxOptions) (ITransactionalDB, error) {
	start := time.Now()
	tx, err := mw.db.BeginTx(ctx, mysqlTxOptionAdapter(opts))
	observe(ctx, "BeginTx", "", nil, start, err)
	if err != nil {
		return nil, err
	}
	return &SQLWrapperTx{tx}, nil
}

func mysqlTxOptionAdapter(opts *TxOptions) *sql.TxOptions {
	if opts == nil {
		return nil
	}
	return &sql.TxOptions{
		Isolation: opts.Isolation,
		ReadOnly:  opts.ReadOnly,
	}
}

func (mw *SQLWrapper) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return mysqlExec(ctx, mw.db, query, args)
}

func (mw *SQLWrapper) QueryContext(ctx context.Context, query string, args ...interface{}) (ISQLRows, error) {
	return mysqlQuery(ctx, mw.db, query, args)
}

func (mw *SQLWrapper) Commit(ctx context.Context) error   { return nil }
func (mw *SQLWrapper) Rollback(ctx context.Context) error { return nil }

func (mw *SQLWrapper) Close(ctx context.Context) error {
	return mw.db.Close()
}

// Ping implement ITransactionalDB
func (mw *SQLWrapper) Ping() error {
	return mw.db.Ping()
}

func (mwt *SQLWrapperTx) BeginTx(ctx context.Context, opts *TxOptions) (ITransactionalDB, error) {
	panic("create transaction inside a transaction")
}

func (mwt *SQLWrapperTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return mysqlExec(ctx, mwt.tx, query, args)
}

func (mwt *SQLWrapperTx) QueryContext(ctx context.Context, query string, args ...interface{}) (ISQLRows, error) {
	return mysqlQuery(ctx, mwt.tx, query, args)
}

func (mwt *SQLWrapperTx) Commit(ctx context.Context) error {
	start := time.Now()
	err := mwt.tx.Commit()
	observe(ctx, "Commit", "", nil, start, err)
	return err
}

func (mwt *SQLWrapperTx) Rollback(ctx context.Context) error {
	start := time.Now()
	err := mwt.tx.Rollback()
	if err == sql.ErrTxDone {
		// already committed
		return nil
	}
	observe(ctx, "Rollback", "", nil, start, err)
	return err
}

func (mwt *SQLWrapperTx) Close(ctx context.Context) error { return nil }
func (mwt *SQLWrapperTx) Ping() error                     { return nil }

// mysqlAdapter rewrites quoted identifiers and $n placeholders
func mysqlAdapter(query string) string {
	query = strings.Replace(query, "\"", "`", -1)
	query = dollarPlaceholder.ReplaceAllString(query, "?")
	return whitespaceRun.ReplaceAllString(query, " ")
}
