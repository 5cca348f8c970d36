package orm

import (
	"context"
	"reflect"

	"github.com/hatlonely/sqlorm/async"
	"github.com/hatlonely/sqlorm/filter"
	"github.com/hatlonely/sqlorm/sqlconn"
)

// Table 类型安全的表操作入口
type Table[T any] struct {
	def *Definition
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Register 返回 T 对应的表，首次调用时建表
func Register[T any](ctx context.Context, registry *Registry, conn sqlconn.Connection) (*Table[T], error) {
	def, err := registry.GetOrCreate(ctx, typeOf[T](), conn)
	if err != nil {
		return nil, err
	}
	return &Table[T]{def: def}, nil
}

func RegisterAsync[T any](ctx context.Context, registry *Registry, conn sqlconn.Connection) *async.Future[*Table[T]] {
	return async.Submit(conn.Executor(), func() (*Table[T], error) {
		return Register[T](ctx, registry, conn)
	})
}

// Drop 删除 T 对应的表
func Drop[T any](ctx context.Context, registry *Registry, conn sqlconn.Connection) error {
	return registry.Drop(ctx, typeOf[T](), conn)
}

func DropAsync[T any](ctx context.Context, registry *Registry, conn sqlconn.Connection) *async.Future[struct{}] {
	return async.Submit(conn.Executor(), func() (struct{}, error) {
		return struct{}{}, Drop[T](ctx, registry, conn)
	})
}

func (t *Table[T]) Definition() *Definition {
	return t.def
}

func (t *Table[T]) Name() string {
	return t.def.name
}

func (t *Table[T]) Insert(ctx context.Context, entity *T) error {
	return t.def.Insert(ctx, entity)
}

func (t *Table[T]) SelectAll(ctx context.Context) ([]*T, error) {
	return t.SelectWhere(ctx, "")
}

func (t *Table[T]) SelectWhere(ctx context.Context, filter string, args ...any) ([]*T, error) {
	values, err := t.def.selectWhere(ctx, filter, args...)
	if err != nil {
		return nil, err
	}
	entities := make([]*T, len(values))
	for i, v := range values {
		entities[i] = v.Interface().(*T)
	}
	return entities, nil
}

// SelectBy 按结构化条件查询，条件为空时查询全部
func (t *Table[T]) SelectBy(ctx context.Context, f filter.Filter) ([]*T, error) {
	where, args, err := f.ToSQL()
	if err != nil {
		return nil, configError(t.def.name, "", err)
	}
	return t.SelectWhere(ctx, where, args...)
}

// Select 查询全部后在内存中按 predicates 过滤，所有条件都满足才保留
func (t *Table[T]) Select(ctx context.Context, predicates ...func(*T) bool) ([]*T, error) {
	entities, err := t.SelectAll(ctx)
	if err != nil {
		return nil, err
	}
	result := entities[:0]
	for _, entity := range entities {
		if matchAll(entity, predicates) {
			result = append(result, entity)
		}
	}
	return result, nil
}

func matchAll[T any](entity *T, predicates []func(*T) bool) bool {
	for _, p := range predicates {
		if !p(entity) {
			return false
		}
	}
	return true
}

func (t *Table[T]) Update(ctx context.Context, entity *T) (int64, error) {
	return t.def.Update(ctx, entity)
}

func (t *Table[T]) Delete(ctx context.Context, entity *T) (int64, error) {
	return t.def.Delete(ctx, entity)
}

func (t *Table[T]) DeleteWhere(ctx context.Context, filter string, args ...any) (int64, error) {
	return t.def.DeleteWhere(ctx, filter, args...)
}

// DeleteBy 按结构化条件删除，条件为空时拒绝执行
func (t *Table[T]) DeleteBy(ctx context.Context, f filter.Filter) (int64, error) {
	where, args, err := f.ToSQL()
	if err != nil {
		return 0, configError(t.def.name, "", err)
	}
	return t.DeleteWhere(ctx, where, args...)
}

func (t *Table[T]) executor() async.Executor {
	return t.def.conn.Executor()
}

// InsertAsync 完成后返回的实体上已有生成的主键
func (t *Table[T]) InsertAsync(ctx context.Context, entity *T) *async.Future[*T] {
	return async.Submit(t.executor(), func() (*T, error) {
		if err := t.Insert(ctx, entity); err != nil {
			return nil, err
		}
		return entity, nil
	})
}

func (t *Table[T]) SelectAllAsync(ctx context.Context) *async.Future[[]*T] {
	return async.Submit(t.executor(), func() ([]*T, error) {
		return t.SelectAll(ctx)
	})
}

func (t *Table[T]) SelectWhereAsync(ctx context.Context, filter string, args ...any) *async.Future[[]*T] {
	return async.Submit(t.executor(), func() ([]*T, error) {
		return t.SelectWhere(ctx, filter, args...)
	})
}

func (t *Table[T]) SelectByAsync(ctx context.Context, f filter.Filter) *async.Future[[]*T] {
	return async.Submit(t.executor(), func() ([]*T, error) {
		return t.SelectBy(ctx, f)
	})
}

func (t *Table[T]) SelectAsync(ctx context.Context, predicates ...func(*T) bool) *async.Future[[]*T] {
	return async.Submit(t.executor(), func() ([]*T, error) {
		return t.Select(ctx, predicates...)
	})
}

func (t *Table[T]) UpdateAsync(ctx context.Context, entity *T) *async.Future[int64] {
	return async.Submit(t.executor(), func() (int64, error) {
		return t.Update(ctx, entity)
	})
}

func (t *Table[T]) DeleteAsync(ctx context.Context, entity *T) *async.Future[int64] {
	return async.Submit(t.executor(), func() (int64, error) {
		return t.Delete(ctx, entity)
	})
}

func (t *Table[T]) DeleteWhereAsync(ctx context.Context, filter string, args ...any) *async.Future[int64] {
	return async.Submit(t.executor(), func() (int64, error) {
		return t.DeleteWhere(ctx, filter, args...)
	})
}

func (t *Table[T]) DeleteByAsync(ctx context.Context, f filter.Filter) *async.Future[int64] {
	return async.Submit(t.executor(), func() (int64, error) {
		return t.DeleteBy(ctx, f)
	})
}
