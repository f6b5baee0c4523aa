package driver

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/pot-code/course-gateway/internal/infrastructure/logging"
	"go.uber.org/zap"
)

// TxOptions transaction options understood by both the mysql and the postgres wrapper
type TxOptions struct {
	Isolation sql.IsolationLevel
	ReadOnly  bool
}

// ISQLRows rows of a query, satisfied by *sql.Rows and the pgx adapter
type ISQLRows interface {
	Next() bool
	Scan(dest ...interface{}) (err error)
	Close() error
}

// ITransactionalDB the SQL surface the progress store is written against.
// Queries use the postgres dialect, the mysql wrapper rewrites them.
type ITransactionalDB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (ISQLRows, error)
	BeginTx(ctx context.Context, opts *TxOptions) (ITransactionalDB, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Close(ctx context.Context) error
	Ping() error
}

// DBConfig connection options for GetDBConnection
type DBConfig struct {
	Driver   string // mysql or postgres
	Host     string
	MaxConn  int32 // pool size
	Password string
	Port     int
	Protocol string // mysql only, eg.tcp
	Query    string // appended to the DSN after '?'
	Schema   string
	User     string
}

var (
	whitespaceRun     = regexp.MustCompile(`[\n\t\s]+`)
	dollarPlaceholder = regexp.MustCompile(`\$[0-9]+`)
)

// dsn user:password@host:port/schema, the mysql form wraps the address in the protocol
func (cfg *DBConfig) dsn() string {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	if cfg.Protocol != "" {
		addr = fmt.Sprintf("%s(%s)", cfg.Protocol, addr)
	}
	dsn := fmt.Sprintf("%s:%s@%s/%s", cfg.User, cfg.Password, addr, cfg.Schema)
	if cfg.Query == "" {
		return dsn
	}
	return dsn + "?" + cfg.Query
}

// GetDBConnection open a pool for cfg.Driver
func GetDBConnection(cfg *DBConfig) (ITransactionalDB, error) {
	switch cfg.Driver {
	case "mysql":
		return NewMySQLConn(cfg.dsn(), cfg)
	case "postgres":
		return NewPostgreSQLConn("postgres://"+cfg.dsn(), cfg)
	}
	return nil, fmt.Errorf("Unsupported driver: %s", cfg.Driver)
}

// observe logs one driver round trip against the request logger
func observe(ctx context.Context, method, query string, args []interface{}, start time.Time, err error) {
	logger := logging.ExtractLoggerFromContext(ctx)
	fields := []zap.Field{zap.String("db.method", method)}
	if query != "" {
		fields = append(fields, zap.String("db.sql", query), zap.Any("db.args", loggableArgs(args)))
	}
	if err != nil {
		// the caller gave up, nothing went wrong on the server
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return
		}
		logger.Error(err.Error(), fields...)
		return
	}
	logger.Debug("", append(fields, zap.Duration("db.time", time.Since(start)))...)
}

const maxLoggedArg = 64

// loggableArgs hex encode blobs and cut long values to maxLoggedArg bytes
func loggableArgs(args []interface{}) []interface{} {
	out := make([]interface{}, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case []byte:
			if len(v) > maxLoggedArg {
				a = fmt.Sprintf("%x (truncated %d bytes)", v[:maxLoggedArg], len(v)-maxLoggedArg)
			} else {
				a = hex.EncodeToString(v)
			}
		case string:
			if len(v) > maxLoggedArg {
				a = fmt.Sprintf("%s (truncated %d bytes)", v[:maxLoggedArg], len(v)-maxLoggedArg)
			}
		}
		out[i] = a
	}
	return out
}
