package orm

import (
	"context"
	"reflect"

	"github.com/pkg/errors"
)

// structValue 取出实体的结构体值，writable 为 true 时要求传入非空指针
func (d *Definition) structValue(entity any, writable bool) (reflect.Value, error) {
	rv := reflect.ValueOf(entity)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return reflect.Value{}, configError(d.name, "", errors.New("entity is nil"))
		}
		rv = rv.Elem()
	} else if writable {
		return reflect.Value{}, configError(d.name, "", errors.Errorf("entity must be *%v, got %T", d.typ, entity))
	}
	if !rv.IsValid() || rv.Type() != d.typ {
		return reflect.Value{}, configError(d.name, "", errors.Errorf("entity must be %v, got %T", d.typ, entity))
	}
	return rv, nil
}

// isMissingKey 主键缺失：值为 nil，或者由数据库/生成器分配的主键仍是零值
// 由调用方提供的主键，0 和空串都是合法的值
func (f *Field) isMissingKey(arg any) bool {
	if arg == nil {
		return true
	}
	return (f.autoIncrement || f.generator != nil) && reflect.ValueOf(arg).IsZero()
}

// primaryKeyArg 实体的主键参数，没有主键或者主键缺失时返回 ConfigurationError
func (d *Definition) primaryKeyArg(rv reflect.Value) (any, error) {
	if d.primaryKey == nil {
		return nil, configError(d.name, "", ErrNoPrimaryKey)
	}
	arg, err := d.primaryKey.bind(rv.FieldByIndex(d.primaryKey.index))
	if err != nil {
		return nil, err
	}
	if d.primaryKey.isMissingKey(arg) {
		return nil, configError(d.name, d.primaryKey.name, ErrMissingPrimaryKey)
	}
	return arg, nil
}

// Insert 插入实体，自增主键回写到实体上
func (d *Definition) Insert(ctx context.Context, entity any) error {
	rv, err := d.structValue(entity, true)
	if err != nil {
		return err
	}

	pk := d.primaryKey
	if pk != nil && pk.generator != nil && rv.FieldByIndex(pk.index).IsZero() {
		v, err := convertRaw(pk.generator.NextKey(), pk.elem)
		if err != nil {
			return codecError(d.name, pk.name, err)
		}
		rv.FieldByIndex(pk.index).Set(pk.wrap(v))
	}

	fields := d.insertFields()
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		arg, err := f.bind(rv.FieldByIndex(f.index))
		if err != nil {
			return err
		}
		args = append(args, arg)
	}

	key, ok, err := d.conn.ExecuteAndReturnGeneratedKey(ctx, d.BuildInsert(), args...)
	if err != nil {
		return err
	}
	if pk != nil && pk.autoIncrement && ok {
		return pk.set(ctx, rv, key)
	}
	return nil
}

// SelectAll 返回表中所有实体，元素为指向实体的指针
func (d *Definition) SelectAll(ctx context.Context) ([]any, error) {
	return d.SelectWhere(ctx, "")
}

// SelectWhere 按条件查询，filter 为空时查询全部
func (d *Definition) SelectWhere(ctx context.Context, filter string, args ...any) ([]any, error) {
	values, err := d.selectWhere(ctx, filter, args...)
	if err != nil {
		return nil, err
	}
	entities := make([]any, len(values))
	for i, v := range values {
		entities[i] = v.Interface()
	}
	return entities, nil
}

// selectWhere 结果在连接释放后才反序列化，外键查询不会嵌套占用连接
// 同一次调用中引用相同行的外键共享同一个实体
func (d *Definition) selectWhere(ctx context.Context, filter string, args ...any) ([]reflect.Value, error) {
	records, err := d.conn.ExecuteQuery(ctx, d.BuildSelect(filter), args...)
	if err != nil {
		return nil, err
	}

	ctx, res := withResolution(ctx)
	// 先登记整批实体再填充字段，外键指向本批中的行时直接复用
	entities := make([]reflect.Value, 0, len(records))
	for _, record := range records {
		p := reflect.New(d.typ)
		res.add(d, record, p)
		entities = append(entities, p)
	}
	for i, record := range records {
		for _, f := range d.fields {
			raw, ok := record.Get(f.name)
			if !ok {
				continue
			}
			if err := f.set(ctx, entities[i].Elem(), raw); err != nil {
				return nil, err
			}
		}
	}
	return entities, nil
}

// Update 按主键更新所有非主键列，返回影响行数
func (d *Definition) Update(ctx context.Context, entity any) (int64, error) {
	rv, err := d.structValue(entity, false)
	if err != nil {
		return 0, err
	}
	pkArg, err := d.primaryKeyArg(rv)
	if err != nil {
		return 0, err
	}

	args := make([]any, 0, len(d.fields))
	for _, f := range d.fields {
		if f == d.primaryKey {
			continue
		}
		arg, err := f.bind(rv.FieldByIndex(f.index))
		if err != nil {
			return 0, err
		}
		args = append(args, arg)
	}
	// 只有主键列，没有可更新的内容
	if len(args) == 0 {
		return 0, nil
	}

	return d.conn.ExecuteUpdate(ctx, d.BuildUpdate(), append(args, pkArg)...)
}

// Delete 按主键删除实体
func (d *Definition) Delete(ctx context.Context, entity any) (int64, error) {
	rv, err := d.structValue(entity, false)
	if err != nil {
		return 0, err
	}
	pkArg, err := d.primaryKeyArg(rv)
	if err != nil {
		return 0, err
	}
	return d.conn.ExecuteUpdate(ctx, d.BuildDelete(), pkArg)
}

// DeleteWhere 按条件删除，参数由调用方提供
func (d *Definition) DeleteWhere(ctx context.Context, filter string, args ...any) (int64, error) {
	if filter == "" {
		return 0, configError(d.name, "", errors.New("filter cannot be empty"))
	}
	return d.conn.ExecuteUpdate(ctx, d.BuildDeleteWhere(filter), args...)
}
