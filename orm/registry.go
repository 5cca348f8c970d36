package orm

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/hatlonely/sqlorm/log"
	"github.com/hatlonely/sqlorm/serializer"
	"github.com/hatlonely/sqlorm/sqlconn"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

type RegistryOptions struct {
	// 结构化字段的序列化方式
	Codec serializer.Options `cfg:"codec"`
	// 元数据所在的 struct tag，默认 rdb
	TagKey string `cfg:"tagKey" def:"rdb"`
}

// Registry 类型到表结构的缓存，每个类型最多构建一次
type Registry struct {
	tables     sync.Map // reflect.Type -> *Definition
	group      singleflight.Group
	source     SchemaSource
	serializer serializer.Serializer
	logger     log.Logger
}

func NewRegistry() *Registry {
	r, _ := NewRegistryWithOptions(nil)
	return r
}

func NewRegistryWithOptions(options *RegistryOptions) (*Registry, error) {
	if options == nil {
		options = &RegistryOptions{}
	}
	s, err := serializer.NewWithOptions(&options.Codec)
	if err != nil {
		return nil, errors.WithMessage(err, "serializer.NewWithOptions failed")
	}
	return &Registry{
		source:     TagSchemaSource{TagKey: options.TagKey},
		serializer: s,
		logger:     log.Default(),
	}, nil
}

func (r *Registry) SetLogger(logger log.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// SetSchemaSource 替换元数据来源，需要在注册任何类型之前调用
func (r *Registry) SetSchemaSource(source SchemaSource) {
	if source != nil {
		r.source = source
	}
}

// Lookup 返回已注册的定义，不会创建
func (r *Registry) Lookup(t reflect.Type) (*Definition, bool) {
	v, ok := r.tables.Load(indirect(t))
	if !ok {
		return nil, false
	}
	return v.(*Definition), true
}

// Tables 当前已注册的所有定义
func (r *Registry) Tables() []*Definition {
	var defs []*Definition
	r.tables.Range(func(_, value any) bool {
		defs = append(defs, value.(*Definition))
		return true
	})
	return defs
}

// GetOrCreate 返回类型对应的定义，首次调用时构建定义并建表
// 同一类型的并发首次调用只会构建一次、建表一次，建表失败不会缓存
func (r *Registry) GetOrCreate(ctx context.Context, t reflect.Type, conn sqlconn.Connection) (*Definition, error) {
	t = indirect(t)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, configError(fmt.Sprint(t), "", errors.New("entity type must be a struct"))
	}
	if def, ok := r.Lookup(t); ok {
		return def, nil
	}

	// 类型描述符的地址唯一标识一个类型
	v, err, _ := r.group.Do(fmt.Sprintf("%p", t), func() (any, error) {
		if def, ok := r.Lookup(t); ok {
			return def, nil
		}

		def, err := r.build(t, conn)
		if err != nil {
			return nil, err
		}
		if err := conn.ExecuteStatement(ctx, def.BuildCreateTable()); err != nil {
			return nil, err
		}
		r.tables.Store(t, def)
		r.logger.InfoContext(ctx, "table registered", "table", def.name, "type", t.String())
		return def, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Definition), nil
}

func (r *Registry) build(t reflect.Type, conn sqlconn.Connection) (*Definition, error) {
	def := &Definition{
		name:     TableNameOf(t),
		typ:      t,
		conn:     conn,
		registry: r,
	}

	specs, err := r.source.Fields(t)
	if err != nil {
		return nil, configError(def.name, "", err)
	}

	explicitType := map[*Field]bool{}
	for _, spec := range specs {
		f, err := newField(t, def.name, spec, r.serializer)
		if err != nil {
			return nil, err
		}
		if f.primaryKey {
			if def.primaryKey != nil {
				return nil, configError(def.name, f.name, errors.Errorf("duplicate primary key, already defined on %s", def.primaryKey.name))
			}
			def.primaryKey = f
		}
		explicitType[f] = spec.SQLType != ""
		def.fields = append(def.fields, f)
	}
	if len(def.fields) == 0 {
		return nil, configError(def.name, "", errors.New("no mapped fields"))
	}

	// 主键确定之后再解析外键，自引用需要主键
	for _, f := range def.fields {
		if err := f.resolveForeignKey(def, explicitType[f], r.Lookup); err != nil {
			return nil, err
		}
	}
	return def, nil
}

// Drop 删除类型对应的表并移除缓存
// 表名依次取缓存中的定义、TableName()、类型名，类型未注册也会执行 DROP
func (r *Registry) Drop(ctx context.Context, t reflect.Type, conn sqlconn.Connection) error {
	t = indirect(t)
	if t == nil {
		return configError("<nil>", "", errors.New("entity type cannot be nil"))
	}

	name := TableNameOf(t)
	if def, ok := r.Lookup(t); ok {
		name = def.name
	}

	if err := conn.ExecuteStatement(ctx, BuildDropTable(name)); err != nil {
		return err
	}
	r.tables.Delete(t)
	r.logger.InfoContext(ctx, "table dropped", "table", name, "type", t.String())
	return nil
}
