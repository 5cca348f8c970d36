package sqlconn

import (
	"context"
	"database/sql"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/hatlonely/sqlorm/async"
	"github.com/hatlonely/sqlorm/log"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

type SQLOptions struct {
	Driver   string `cfg:"driver" def:"sqlite3" validate:"oneof=sqlite3 sqlite mysql mariadb"`
	DSN      string `cfg:"dsn"`
	Host     string `cfg:"host" def:"localhost"`
	Port     string `cfg:"port" def:"3306"`
	Database string `cfg:"database"`
	Username string `cfg:"username"`
	Password string `cfg:"password"`
	Charset  string `cfg:"charset" def:"utf8mb4"`
	MaxConns int    `cfg:"maxConns" def:"10" validate:"gte=0"`
	MaxIdle  int    `cfg:"maxIdle" def:"5" validate:"gte=0"`
	// 异步操作的最大并发，0 表示不限制
	Workers int `cfg:"workers" validate:"gte=0"`
}

// SQL 基于 database/sql 连接池的 Connection 实现
type SQL struct {
	db       *sql.DB
	dialect  Dialect
	executor async.Executor
	logger   log.Logger
}

var _ Connection = (*SQL)(nil)

func NewSQLWithOptions(options *SQLOptions) (*SQL, error) {
	if options == nil {
		return nil, errors.New("options cannot be nil")
	}

	dialect, err := DialectFor(options.Driver)
	if err != nil {
		return nil, err
	}

	dsn, err := buildDSN(options)
	if err != nil {
		return nil, err
	}

	// mariadb 与 mysql 共用驱动
	driverName := DriverSQLite3
	if dialect != SQLite {
		driverName = DriverMySQL
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "sql.Open failed. driver: [%s]", options.Driver)
	}

	maxConns := options.MaxConns
	// 每个连接各自持有一个内存库，只能用单连接
	if dialect == SQLite && (options.Database == ":memory:" || options.DSN == ":memory:") {
		maxConns = 1
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(options.MaxIdle)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "db.Ping failed")
	}

	return &SQL{
		db:       db,
		dialect:  dialect,
		executor: async.NewExecutorWithOptions(&async.ExecutorOptions{Workers: options.Workers}),
		logger:   log.Default(),
	}, nil
}

// NewSQLWithDB 用已有的 *sql.DB 构造连接，多用于测试
func NewSQLWithDB(db *sql.DB, dialect Dialect) *SQL {
	return &SQL{
		db:       db,
		dialect:  dialect,
		executor: async.Unbounded(),
		logger:   log.Default(),
	}
}

func buildDSN(options *SQLOptions) (string, error) {
	if options.DSN != "" {
		return options.DSN, nil
	}
	switch options.Driver {
	case DriverMySQL, DriverMariaDB:
		conf := mysql.NewConfig()
		conf.User = options.Username
		conf.Passwd = options.Password
		conf.Net = "tcp"
		conf.Addr = net.JoinHostPort(options.Host, options.Port)
		conf.DBName = options.Database
		conf.ParseTime = true
		conf.Loc = time.Local
		if options.Charset != "" {
			conf.Params = map[string]string{"charset": options.Charset}
		}
		return conf.FormatDSN(), nil
	case DriverSQLite3, "sqlite":
		if options.Database == "" {
			return "", errors.New("database is required for sqlite3")
		}
		return options.Database, nil
	}
	return "", errors.Errorf("unsupported driver: %s", options.Driver)
}

func (s *SQL) SetLogger(logger log.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

func (s *SQL) SetExecutor(executor async.Executor) {
	if executor != nil {
		s.executor = executor
	}
}

func (s *SQL) Executor() async.Executor {
	return s.executor
}

func (s *SQL) Dialect() Dialect {
	return s.dialect
}

func (s *SQL) DB() *sql.DB {
	return s.db
}

func (s *SQL) Close() error {
	return s.db.Close()
}

func (s *SQL) ExecuteStatement(ctx context.Context, query string) error {
	return s.observe(ctx, query, nil, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx, query)
		return err
	})
}

func (s *SQL) ExecuteQuery(ctx context.Context, query string, args ...any) ([]*Record, error) {
	var records []*Record
	err := s.observe(ctx, query, args, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		columns, err := rows.Columns()
		if err != nil {
			return err
		}
		for rows.Next() {
			values := make([]any, len(columns))
			dest := make([]any, len(columns))
			for i := range values {
				dest[i] = &values[i]
			}
			if err := rows.Scan(dest...); err != nil {
				return err
			}
			records = append(records, NewRecord(columns, values))
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *SQL) ExecuteUpdate(ctx context.Context, query string, args ...any) (int64, error) {
	var affected int64
	err := s.observe(ctx, query, args, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	return affected, err
}

func (s *SQL) ExecuteAndReturnGeneratedKey(ctx context.Context, query string, args ...any) (any, bool, error) {
	var key any
	var ok bool
	err := s.observe(ctx, query, args, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		// 驱动不支持或者没有生成主键
		if err != nil || id == 0 {
			return nil
		}
		key, ok = id, true
		return nil
	})
	return key, ok, err
}

// GeneratedKey 异步插入的结果
type GeneratedKey struct {
	Value any
	OK    bool
}

func (s *SQL) ExecuteStatementAsync(ctx context.Context, query string) *async.Future[struct{}] {
	return async.Submit(s.executor, func() (struct{}, error) {
		return struct{}{}, s.ExecuteStatement(ctx, query)
	})
}

func (s *SQL) ExecuteQueryAsync(ctx context.Context, query string, args ...any) *async.Future[[]*Record] {
	return async.Submit(s.executor, func() ([]*Record, error) {
		return s.ExecuteQuery(ctx, query, args...)
	})
}

func (s *SQL) ExecuteUpdateAsync(ctx context.Context, query string, args ...any) *async.Future[int64] {
	return async.Submit(s.executor, func() (int64, error) {
		return s.ExecuteUpdate(ctx, query, args...)
	})
}

func (s *SQL) ExecuteAndReturnGeneratedKeyAsync(ctx context.Context, query string, args ...any) *async.Future[GeneratedKey] {
	return async.Submit(s.executor, func() (GeneratedKey, error) {
		key, ok, err := s.ExecuteAndReturnGeneratedKey(ctx, query, args...)
		return GeneratedKey{Value: key, OK: ok}, err
	})
}
