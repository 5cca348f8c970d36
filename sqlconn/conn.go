package sqlconn

import (
	"context"
	"strings"

	"github.com/hatlonely/sqlorm/async"
)

// Connection 存储连接协作者
// 每条语句独立获取、使用并释放一个物理连接
type Connection interface {
	// ExecuteStatement 执行不带参数的语句，如 CREATE / DROP
	ExecuteStatement(ctx context.Context, query string) error
	// ExecuteQuery 执行查询，结果在释放连接前全部读出
	ExecuteQuery(ctx context.Context, query string, args ...any) ([]*Record, error)
	// ExecuteUpdate 执行更新，返回影响行数
	ExecuteUpdate(ctx context.Context, query string, args ...any) (int64, error)
	// ExecuteAndReturnGeneratedKey 执行插入，返回数据库生成的主键，ok 为 false 表示没有生成
	ExecuteAndReturnGeneratedKey(ctx context.Context, query string, args ...any) (key any, ok bool, err error)
	// Executor 异步操作使用的共享调度器
	Executor() async.Executor
	// Dialect 当前连接的方言
	Dialect() Dialect
}

// Record 查询结果的一行，保留列顺序
type Record struct {
	columns []string
	values  []any
}

func NewRecord(columns []string, values []any) *Record {
	return &Record{columns: columns, values: values}
}

// Columns 返回列名
func (r *Record) Columns() []string {
	return r.columns
}

// Get 按列名取值，精确匹配失败时忽略大小写再找一次
func (r *Record) Get(column string) (any, bool) {
	for i, c := range r.columns {
		if c == column {
			return r.values[i], true
		}
	}
	for i, c := range r.columns {
		if strings.EqualFold(c, column) {
			return r.values[i], true
		}
	}
	return nil, false
}

// Fields 以 map 形式返回整行
func (r *Record) Fields() map[string]any {
	data := make(map[string]any, len(r.columns))
	for i, c := range r.columns {
		data[c] = r.values[i]
	}
	return data
}
