package filter

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Term 精确匹配
type Term struct {
	Column string
	Value  any
}

func Eq(column string, value any) *Term {
	return &Term{Column: column, Value: value}
}

func (q *Term) ToSQL() (string, []any, error) {
	if err := checkColumn(q.Column); err != nil {
		return "", nil, err
	}
	if q.Value == nil {
		return q.Column + " IS NULL", nil, nil
	}
	return q.Column + " = ?", []any{q.Value}, nil
}

// In 匹配任意一个值
type In struct {
	Column string
	Values []any
}

func (q *In) ToSQL() (string, []any, error) {
	if err := checkColumn(q.Column); err != nil {
		return "", nil, err
	}
	if len(q.Values) == 0 {
		return "", nil, errors.Errorf("in filter on %s requires at least one value", q.Column)
	}
	return q.Column + " IN (" + strings.TrimSuffix(strings.Repeat("?, ", len(q.Values)), ", ") + ")", q.Values, nil
}

// Match 包含匹配
type Match struct {
	Column string
	Value  any
}

func (q *Match) ToSQL() (string, []any, error) {
	if err := checkColumn(q.Column); err != nil {
		return "", nil, err
	}
	return q.Column + " LIKE ?", []any{"%" + fmt.Sprint(q.Value) + "%"}, nil
}

// Prefix 前缀匹配
type Prefix struct {
	Column string
	Value  string
}

func (q *Prefix) ToSQL() (string, []any, error) {
	if err := checkColumn(q.Column); err != nil {
		return "", nil, err
	}
	return q.Column + " LIKE ?", []any{q.Value + "%"}, nil
}

// Wildcard 通配符匹配，* 匹配任意个字符，? 匹配单个字符
type Wildcard struct {
	Column string
	Value  string
}

func (q *Wildcard) ToSQL() (string, []any, error) {
	if err := checkColumn(q.Column); err != nil {
		return "", nil, err
	}
	pattern := strings.NewReplacer("*", "%", "?", "_").Replace(q.Value)
	return q.Column + " LIKE ?", []any{pattern}, nil
}

// Regexp 正则匹配，sqlite 需要驱动注册 REGEXP 函数
type Regexp struct {
	Column string
	Value  string
}

func (q *Regexp) ToSQL() (string, []any, error) {
	if err := checkColumn(q.Column); err != nil {
		return "", nil, err
	}
	return q.Column + " REGEXP ?", []any{q.Value}, nil
}

// Exists 列非空
type Exists struct {
	Column string
}

func (q *Exists) ToSQL() (string, []any, error) {
	if err := checkColumn(q.Column); err != nil {
		return "", nil, err
	}
	return q.Column + " IS NOT NULL", nil, nil
}
