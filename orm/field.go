package orm

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/hatlonely/sqlorm/adapter"
	"github.com/hatlonely/sqlorm/keygen"
	"github.com/hatlonely/sqlorm/serializer"
	"github.com/pkg/errors"
)

type codecKind int

const (
	codecSupported codecKind = iota
	codecEnum
	codecStructured
	codecForeignKey
	codecAdapter
)

// Field 一个映射字段，构建后不再修改
type Field struct {
	owner  reflect.Type
	table  string
	name   string
	goName string
	index  []int
	typ    reflect.Type
	elem   reflect.Type

	sqlType       string
	primaryKey    bool
	autoIncrement bool
	notNull       bool
	unique        bool
	hasDefault    bool
	defaultValue  string

	foreignKey bool
	refTable   string
	refColumn  string
	ref        *Definition
	// 被引用的列，外键的存储值和查询条件都取自这一列
	target *Field

	kind       codecKind
	newAdapter adapter.Constructor
	generator  keygen.Generator
	serializer serializer.Serializer
}

func (f *Field) Name() string            { return f.name }
func (f *Field) GoName() string          { return f.goName }
func (f *Field) Type() reflect.Type      { return f.typ }
func (f *Field) SQLType() string         { return f.sqlType }
func (f *Field) IsPrimaryKey() bool      { return f.primaryKey }
func (f *Field) IsAutoIncrement() bool   { return f.autoIncrement }
func (f *Field) IsForeignKey() bool      { return f.foreignKey }
func (f *Field) Default() (string, bool) { return f.defaultValue, f.hasDefault }

// Reference 外键目标表和列
func (f *Field) Reference() (table string, column string) {
	return f.refTable, f.refColumn
}

// IsSupported 字段类型是否可以不经结构化序列化直接存取
func (f *Field) IsSupported() bool {
	return f.kind == codecSupported
}

// newField 根据元数据构建字段，外键目标在 resolveForeignKey 中确定
func newField(owner reflect.Type, table string, spec FieldSpec, s serializer.Serializer) (*Field, error) {
	f := &Field{
		owner:         owner,
		table:         table,
		name:          spec.Column,
		goName:        spec.GoName,
		index:         spec.Index,
		typ:           spec.Type,
		elem:          indirect(spec.Type),
		primaryKey:    spec.PrimaryKey || spec.AutoIncrement,
		autoIncrement: spec.AutoIncrement,
		notNull:       spec.NotNull,
		unique:        spec.Unique,
		hasDefault:    spec.HasDefault,
		defaultValue:  spec.Default,
		foreignKey:    spec.ForeignKey,
		refTable:      spec.RefTable,
		refColumn:     spec.RefColumn,
		serializer:    s,
	}
	if f.name == "" {
		f.name = spec.GoName
	}

	if spec.Adapter != "" {
		newAdapter, err := adapter.Lookup(spec.Adapter)
		if err != nil {
			return nil, configError(table, f.name, err)
		}
		f.newAdapter = newAdapter
	}
	if spec.Generator != "" {
		if !f.primaryKey || f.autoIncrement {
			return nil, configError(table, f.name, errors.New("gen requires a non auto primary key"))
		}
		generator, err := keygen.Lookup(spec.Generator)
		if err != nil {
			return nil, configError(table, f.name, err)
		}
		f.generator = generator
	}
	if f.autoIncrement && f.foreignKey {
		return nil, configError(table, f.name, errors.New("auto increment primary key cannot be a foreign key"))
	}

	switch {
	case f.newAdapter != nil:
		f.kind = codecAdapter
	case isSupportedType(f.elem):
		f.kind = codecSupported
	case isEnumType(f.elem):
		f.kind = codecEnum
	default:
		f.kind = codecStructured
	}

	f.sqlType = spec.SQLType
	if f.sqlType == "" {
		f.sqlType = SQLTypeOf(f.elem)
	}
	return f, nil
}

// resolveForeignKey 确定外键目标
// lookup 返回已注册的定义，self 为正在构建的定义，用于自引用
func (f *Field) resolveForeignKey(self *Definition, explicitType bool, lookup func(reflect.Type) (*Definition, bool)) error {
	var ref *Definition
	if f.elem.Kind() == reflect.Struct && !isSupportedType(f.elem) {
		if f.elem == self.typ {
			ref = self
		} else if d, ok := lookup(f.elem); ok {
			ref = d
		}
	}

	if ref == nil && !f.foreignKey {
		return nil
	}

	// 结构体类型的外键需要被引用类型的定义才能取主键
	if ref == nil && f.elem.Kind() == reflect.Struct && !isSupportedType(f.elem) {
		return configError(f.table, f.name, errors.WithMessagef(ErrUnresolvedForeignKey, "referenced type %v is not registered", f.elem))
	}

	if ref != nil {
		if f.refTable == "" {
			f.refTable = ref.name
		} else if f.refTable != ref.name {
			return configError(f.table, f.name, errors.WithMessagef(ErrUnresolvedForeignKey, "referenced type %v maps to table %s, not %s", f.elem, ref.name, f.refTable))
		}

		target := ref.primaryKey
		if f.refColumn != "" {
			target, _ = ref.Field(f.refColumn)
		}
		if target == nil {
			if f.refColumn != "" {
				return configError(f.table, f.name, errors.WithMessagef(ErrUnresolvedForeignKey, "referenced column %s.%s not found", ref.name, f.refColumn))
			}
			return configError(f.table, f.name, errors.WithMessagef(ErrUnresolvedForeignKey, "referenced table %s has no primary key", ref.name))
		}
		if target == f {
			return configError(f.table, f.name, errors.New("foreign key cannot reference its own column"))
		}
		f.refColumn = target.name
		if !explicitType {
			f.sqlType = target.sqlType
		}
		f.ref = ref
		f.target = target
		f.kind = codecForeignKey
		if f.newAdapter != nil {
			f.kind = codecAdapter
		}
	}

	f.foreignKey = true
	if f.refTable == "" || f.refColumn == "" {
		return configError(f.table, f.name, ErrUnresolvedForeignKey)
	}
	return nil
}

var defaultLiteralRegexp = regexp.MustCompile(`^(-?[0-9]+(\.[0-9]+)?|NULL|TRUE|FALSE|CURRENT_TIMESTAMP|CURRENT_DATE|CURRENT_TIME|'.*'|\(.*\))$`)

func defaultLiteral(v string) string {
	if defaultLiteralRegexp.MatchString(strings.ToUpper(v)) {
		return v
	}
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

// ColumnDefinition 建表语句中的列定义
func (f *Field) ColumnDefinition(autoIncrement string) string {
	var b strings.Builder
	b.WriteString(f.name)
	b.WriteString(" ")
	b.WriteString(f.sqlType)
	if f.notNull {
		b.WriteString(" NOT NULL")
	}
	if f.unique {
		b.WriteString(" UNIQUE")
	}
	if f.hasDefault {
		b.WriteString(" DEFAULT ")
		b.WriteString(defaultLiteral(f.defaultValue))
	}
	if f.primaryKey {
		b.WriteString(" PRIMARY KEY")
		if f.autoIncrement {
			b.WriteString(" ")
			b.WriteString(autoIncrement)
		}
	}
	return b.String()
}

// ForeignKeyConstraint 外键约束，不是外键时为空
func (f *Field) ForeignKeyConstraint() string {
	if !f.foreignKey {
		return ""
	}
	return "FOREIGN KEY (" + f.name + ") REFERENCES " + f.refTable + "(" + f.refColumn + ")"
}
