package orm

import (
	"github.com/hatlonely/sqlorm/cfg"
	"github.com/hatlonely/sqlorm/log"
	"github.com/hatlonely/sqlorm/sqlconn"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

type Options struct {
	Database sqlconn.SQLOptions `cfg:"database"`
	Logger   log.Options        `cfg:"logger"`
	Registry RegistryOptions    `cfg:"registry"`
	// 是否把语句指标注册到 prometheus 默认 registry
	EnableMetrics bool `cfg:"enableMetrics"`
}

// DB 连接与表注册中心的组合
type DB struct {
	*Registry
	conn   *sqlconn.SQL
	logger log.Logger
}

func NewWithOptions(options *Options) (*DB, error) {
	if options == nil {
		return nil, errors.New("options cannot be nil")
	}

	logger, err := log.NewLogWithOptions(&options.Logger)
	if err != nil {
		return nil, errors.WithMessage(err, "log.NewLogWithOptions failed")
	}

	if options.EnableMetrics {
		if err := sqlconn.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
			return nil, errors.WithMessage(err, "sqlconn.RegisterMetrics failed")
		}
	}

	conn, err := sqlconn.NewSQLWithOptions(&options.Database)
	if err != nil {
		return nil, errors.WithMessage(err, "sqlconn.NewSQLWithOptions failed")
	}
	conn.SetLogger(logger)

	registry, err := NewRegistryWithOptions(&options.Registry)
	if err != nil {
		_ = conn.Close()
		return nil, errors.WithMessage(err, "NewRegistryWithOptions failed")
	}
	registry.SetLogger(logger)

	return &DB{Registry: registry, conn: conn, logger: logger}, nil
}

// NewFromConfig 从配置文件创建，支持 yaml/json/toml/ini
func NewFromConfig(filename string) (*DB, error) {
	var options Options
	if err := cfg.Load(filename, &options); err != nil {
		return nil, errors.WithMessage(err, "cfg.Load failed")
	}
	return NewWithOptions(&options)
}

func (db *DB) Conn() *sqlconn.SQL {
	return db.conn
}

func (db *DB) Logger() log.Logger {
	return db.logger
}

func (db *DB) Close() error {
	return db.conn.Close()
}
