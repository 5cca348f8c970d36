package sqlconn

import (
	"fmt"

	"github.com/pkg/errors"
)

// StatementError 存储层执行失败，携带失败的 SQL 便于诊断
type StatementError struct {
	SQL  string
	Args []any
	Err  error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("statement failed: %v [sql: %s]", e.Err, e.SQL)
}

func (e *StatementError) Unwrap() error {
	return e.Err
}

func (e *StatementError) Cause() error {
	return e.Err
}

func newStatementError(query string, args []any, err error) error {
	return &StatementError{SQL: query, Args: args, Err: err}
}

// IsStatementError 判断错误链中是否有 StatementError
func IsStatementError(err error) bool {
	var e *StatementError
	return errors.As(err, &e)
}
