// Package filter 以结构化的方式构造 WHERE 条件，生成的条件与参数可以直接交给 SelectWhere / DeleteWhere
package filter

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Filter 条件节点
// 没有任何条件时返回空串，调用方据此决定是查询全部还是拒绝执行
type Filter interface {
	ToSQL() (string, []any, error)
}

var columnPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// checkColumn 列名会拼接进语句，只允许标识符
func checkColumn(column string) error {
	if !columnPattern.MatchString(column) {
		return errors.Errorf("invalid column name: %q", column)
	}
	return nil
}

// Bool 布尔组合，各部分之间为 AND
type Bool struct {
	Must    []Filter
	Should  []Filter
	MustNot []Filter
	// Should 中至少满足的条件个数，为空或者为 1 时使用 OR
	MinShouldMatch *int
}

func And(filters ...Filter) *Bool {
	return &Bool{Must: filters}
}

func Or(filters ...Filter) *Bool {
	return &Bool{Should: filters}
}

func Not(filters ...Filter) *Bool {
	return &Bool{MustNot: filters}
}

func (q *Bool) ToSQL() (string, []any, error) {
	var conditions []string
	var args []any

	must, mustArgs, err := collect(q.Must)
	if err != nil {
		return "", nil, err
	}
	if len(must) > 0 {
		conditions = append(conditions, "("+strings.Join(must, " AND ")+")")
		args = append(args, mustArgs...)
	}

	should, shouldArgs, err := collect(q.Should)
	if err != nil {
		return "", nil, err
	}
	if len(should) > 0 {
		if q.MinShouldMatch != nil && *q.MinShouldMatch != 1 {
			cases := make([]string, len(should))
			for i, condition := range should {
				cases[i] = "CASE WHEN (" + condition + ") THEN 1 ELSE 0 END"
			}
			conditions = append(conditions, "("+strings.Join(cases, " + ")+") >= ?")
			shouldArgs = append(shouldArgs, *q.MinShouldMatch)
		} else {
			conditions = append(conditions, "("+strings.Join(should, " OR ")+")")
		}
		args = append(args, shouldArgs...)
	}

	mustNot, mustNotArgs, err := collect(q.MustNot)
	if err != nil {
		return "", nil, err
	}
	if len(mustNot) > 0 {
		for i, condition := range mustNot {
			mustNot[i] = "NOT (" + condition + ")"
		}
		conditions = append(conditions, "("+strings.Join(mustNot, " AND ")+")")
		args = append(args, mustNotArgs...)
	}

	return strings.Join(conditions, " AND "), args, nil
}

// collect 依次生成子条件，跳过空条件
func collect(filters []Filter) ([]string, []any, error) {
	var conditions []string
	var args []any
	for _, f := range filters {
		if f == nil {
			continue
		}
		sql, fargs, err := f.ToSQL()
		if err != nil {
			return nil, nil, err
		}
		if sql == "" {
			continue
		}
		conditions = append(conditions, sql)
		args = append(args, fargs...)
	}
	return conditions, args, nil
}
