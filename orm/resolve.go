package orm

import (
	"context"
	"reflect"

	"github.com/hatlonely/sqlorm/sqlconn"
)

// resolution 一次查询中已经构建的实体
// 外键按 (表, 目标列, 值) 复用这些实体，循环引用的行因此只会构建一次
type resolution struct {
	rows    map[*Definition][]resolvedRow
	indexes map[resolveKey]map[string]reflect.Value
}

type resolvedRow struct {
	record *sqlconn.Record
	entity reflect.Value // 指向实体的指针
}

type resolveKey struct {
	def    *Definition
	column string
}

type resolutionCtxKey struct{}

// withResolution 返回 ctx 中的 resolution，没有时创建一个并放入 ctx
func withResolution(ctx context.Context) (context.Context, *resolution) {
	if res, ok := ctx.Value(resolutionCtxKey{}).(*resolution); ok {
		return ctx, res
	}
	res := &resolution{
		rows:    map[*Definition][]resolvedRow{},
		indexes: map[resolveKey]map[string]reflect.Value{},
	}
	return context.WithValue(ctx, resolutionCtxKey{}, res), res
}

// add 登记一行，实体的字段可以稍后填充
func (r *resolution) add(def *Definition, record *sqlconn.Record, entity reflect.Value) {
	row := resolvedRow{record: record, entity: entity}
	r.rows[def] = append(r.rows[def], row)
	for k, index := range r.indexes {
		if k.def == def {
			row.indexInto(index, k.column)
		}
	}
}

// find 按列值查找已经登记的实体，某列第一次被查找时才建立索引
func (r *resolution) find(def *Definition, column string, key any) (reflect.Value, bool) {
	k := resolveKey{def: def, column: column}
	index, ok := r.indexes[k]
	if !ok {
		index = map[string]reflect.Value{}
		for _, row := range r.rows[def] {
			row.indexInto(index, column)
		}
		r.indexes[k] = index
	}
	entity, ok := index[rawText(key)]
	return entity, ok
}

// indexInto 同一个值只保留最先登记的实体
func (row resolvedRow) indexInto(index map[string]reflect.Value, column string) {
	raw, ok := row.record.Get(column)
	if !ok || raw == nil {
		return
	}
	if _, dup := index[rawText(raw)]; !dup {
		index[rawText(raw)] = row.entity
	}
}
