package orm

import (
	"context"
	"encoding"
	"reflect"

	"github.com/pkg/errors"
)

// NullText 空值的文本形式
const NullText = "null"

func isAbsent(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return v.IsNil()
	}
	return false
}

func deref(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Ptr && !v.IsNil() {
		v = v.Elem()
	}
	return v
}

// Serialize 把字段值转换为文本，空值为 "null"
func (f *Field) Serialize(value any) (string, error) {
	return f.serialize(reflect.ValueOf(value))
}

func (f *Field) serialize(v reflect.Value) (string, error) {
	if isAbsent(v) {
		return NullText, nil
	}
	v = deref(v)

	switch f.kind {
	case codecAdapter:
		a, err := f.newAdapter()
		if err != nil {
			return "", codecError(f.table, f.name, errors.WithMessage(err, "instantiate adapter failed"))
		}
		text, err := a.Serialize(v.Interface())
		if err != nil {
			return "", codecError(f.table, f.name, err)
		}
		return text, nil
	case codecForeignKey:
		return f.target.serialize(v.FieldByIndex(f.target.index))
	case codecSupported:
		return formatSupported(v), nil
	case codecEnum:
		buf, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return "", codecError(f.table, f.name, err)
		}
		return string(buf), nil
	}

	text, err := f.serializer.Serialize(v.Interface())
	if err != nil {
		return "", codecError(f.table, f.name, err)
	}
	return text, nil
}

// bind 字段值交给驱动的参数，空值为 nil
func (f *Field) bind(v reflect.Value) (any, error) {
	if isAbsent(v) {
		return nil, nil
	}
	v = deref(v)

	switch f.kind {
	case codecForeignKey:
		return f.target.bind(v.FieldByIndex(f.target.index))
	case codecSupported:
		return bindSupported(v), nil
	}
	return f.serialize(v)
}

// Get 从实体中取出本字段的绑定参数
func (f *Field) Get(entity any) (any, error) {
	rv, err := f.entityValue(entity)
	if err != nil {
		return nil, err
	}
	return f.bind(rv.FieldByIndex(f.index))
}

// Deserialize 把数据库返回的值或文本转换为字段类型的值
// 外键字段会查询被引用的表，返回对应的实体
func (f *Field) Deserialize(ctx context.Context, raw any) (any, error) {
	v, err := f.deserialize(ctx, raw)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

func (f *Field) deserialize(ctx context.Context, raw any) (reflect.Value, error) {
	if raw == nil {
		return reflect.Zero(f.typ), nil
	}

	var v reflect.Value
	var err error
	switch f.kind {
	case codecAdapter:
		v, err = f.deserializeAdapter(raw)
	case codecForeignKey:
		v, err = f.deserializeForeignKey(ctx, raw)
	case codecSupported:
		v, err = convertRaw(raw, f.elem)
	case codecEnum:
		p := reflect.New(f.elem)
		if err = p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(rawText(raw))); err == nil {
			v = p.Elem()
		}
	default:
		var value any
		if value, err = f.serializer.Deserialize(rawText(raw), f.elem); err == nil {
			v = reflect.ValueOf(value)
		}
	}
	if err != nil {
		if IsCodecError(err) || IsStatementError(err) {
			return reflect.Value{}, err
		}
		return reflect.Value{}, codecError(f.table, f.name, err)
	}

	return f.wrap(v), nil
}

// wrap 把元素类型的值包装成声明的（可能是指针的）类型
func (f *Field) wrap(v reflect.Value) reflect.Value {
	if v.Type() == f.typ {
		return v
	}
	if f.typ.Kind() == reflect.Ptr && v.Type() == f.elem {
		p := reflect.New(f.elem)
		p.Elem().Set(v)
		return p
	}
	return v
}

func (f *Field) deserializeAdapter(raw any) (reflect.Value, error) {
	a, err := f.newAdapter()
	if err != nil {
		return reflect.Value{}, errors.WithMessage(err, "instantiate adapter failed")
	}
	value, err := a.Deserialize(rawText(raw))
	if err != nil {
		return reflect.Value{}, err
	}
	return assignTo(value, f.elem)
}

// deserializeForeignKey 按目标列查询被引用的实体
// 同一次查询中已经构建的实体直接复用，循环引用不会无限展开
func (f *Field) deserializeForeignKey(ctx context.Context, raw any) (reflect.Value, error) {
	target := f.target
	key, err := target.deserialize(ctx, raw)
	if err != nil {
		return reflect.Value{}, err
	}
	keyArg, err := target.bind(key)
	if err != nil {
		return reflect.Value{}, err
	}

	ctx, res := withResolution(ctx)
	entity, ok := res.find(f.ref, target.name, keyArg)
	if !ok {
		entities, err := f.ref.selectWhere(ctx, target.name+" = ?", keyArg)
		if err != nil {
			return reflect.Value{}, err
		}
		if len(entities) == 0 {
			return reflect.Value{}, errors.WithMessagef(ErrRowNotFound, "%s.%s = %v", f.ref.name, target.name, keyArg)
		}
		entity = entities[0]
	}

	// entity 是指向实体的指针，非指针字段取其值
	if f.typ.Kind() == reflect.Ptr {
		return entity, nil
	}
	return entity.Elem(), nil
}

// Set 把数据库返回的值反序列化后写入实体
func (f *Field) Set(ctx context.Context, entity any, raw any) error {
	rv, err := f.entityValue(entity)
	if err != nil {
		return err
	}
	if !rv.CanSet() {
		return configError(f.table, f.name, errors.New("entity must be a pointer"))
	}
	return f.set(ctx, rv, raw)
}

func (f *Field) set(ctx context.Context, rv reflect.Value, raw any) error {
	v, err := f.deserialize(ctx, raw)
	if err != nil {
		return err
	}
	rv.FieldByIndex(f.index).Set(v)
	return nil
}

// entityValue 取出实体的结构体值，支持 T 和 *T
func (f *Field) entityValue(entity any) (reflect.Value, error) {
	rv := reflect.ValueOf(entity)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return reflect.Value{}, configError(f.table, f.name, errors.New("entity is nil"))
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() || rv.Type() != f.owner {
		return reflect.Value{}, configError(f.table, f.name, errors.Errorf("unexpected entity type %T", entity))
	}
	return rv, nil
}
