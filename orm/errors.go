package orm

import (
	"fmt"

	"github.com/hatlonely/sqlorm/sqlconn"
	"github.com/pkg/errors"
)

var (
	// ErrMissingPrimaryKey 实体上没有可用的主键值
	ErrMissingPrimaryKey = errors.New("entity has no primary key value")
	// ErrNoPrimaryKey 表没有定义主键
	ErrNoPrimaryKey = errors.New("table has no primary key")
	// ErrRowNotFound 外键引用的行不存在
	ErrRowNotFound = errors.New("referenced row not found")
	// ErrUnresolvedForeignKey 外键目标无法确定
	ErrUnresolvedForeignKey = errors.New("foreign key target cannot be resolved")
)

// ConfigurationError 映射元数据或调用方式有误，对本次调用是致命的
type ConfigurationError struct {
	Table string
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error on %s: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("configuration error on %s.%s: %v", e.Table, e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }
func (e *ConfigurationError) Cause() error  { return e.Err }

// CodecError 字段值与外部表示之间的转换失败
type CodecError struct {
	Table string
	Field string
	Err   error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("codec error on %s.%s: %v", e.Table, e.Field, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }
func (e *CodecError) Cause() error  { return e.Err }

// StatementError 存储层执行失败，携带 SQL 原文
type StatementError = sqlconn.StatementError

func IsConfigurationError(err error) bool {
	var e *ConfigurationError
	return errors.As(err, &e)
}

func IsCodecError(err error) bool {
	var e *CodecError
	return errors.As(err, &e)
}

func IsStatementError(err error) bool {
	return sqlconn.IsStatementError(err)
}

func configError(table, field string, err error) error {
	return &ConfigurationError{Table: table, Field: field, Err: err}
}

func codecError(table, field string, err error) error {
	return &CodecError{Table: table, Field: field, Err: err}
}
