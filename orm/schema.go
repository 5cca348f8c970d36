package orm

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// DefaultTagKey 映射元数据所在的 struct tag
const DefaultTagKey = "rdb"

// FieldSpec 一个字段的映射元数据
type FieldSpec struct {
	Index  []int
	GoName string
	Type   reflect.Type

	Column        string
	PrimaryKey    bool
	AutoIncrement bool
	NotNull       bool
	Unique        bool
	HasDefault    bool
	Default       string
	SQLType       string

	// ForeignKey 为 true 且 RefTable 为空时，从被引用类型推断目标
	ForeignKey bool
	RefTable   string
	RefColumn  string

	Adapter   string
	Generator string
}

// SchemaSource 读取类型中需要映射的字段
type SchemaSource interface {
	Fields(t reflect.Type) ([]FieldSpec, error)
}

// TableNamer 自定义表名
type TableNamer interface {
	TableName() string
}

// TableNameOf 表名：TableName() 优先，否则为类型名
func TableNameOf(t reflect.Type) string {
	t = indirect(t)
	if t.Implements(tableNamerType) {
		if name := reflect.Zero(t).Interface().(TableNamer).TableName(); name != "" {
			return name
		}
	}
	if reflect.PointerTo(t).Implements(tableNamerType) {
		if name := reflect.New(t).Interface().(TableNamer).TableName(); name != "" {
			return name
		}
	}
	return t.Name()
}

var tableNamerType = reflect.TypeOf((*TableNamer)(nil)).Elem()

// TagSchemaSource 从 struct tag 读取元数据，例如
//
//	ID   int    `rdb:"id,pk,auto"`
//	Name string `rdb:"name,notnull,unique,default=anonymous,type=VARCHAR(64)"`
//	User *User  `rdb:"user_id,fk"`
//
// 没有 tag、tag 为 "-" 以及未导出的字段不参与映射
type TagSchemaSource struct {
	TagKey string
}

func (s TagSchemaSource) Fields(t reflect.Type) ([]FieldSpec, error) {
	t = indirect(t)
	if t.Kind() != reflect.Struct {
		return nil, errors.Errorf("type %v is not a struct", t)
	}

	key := s.TagKey
	if key == "" {
		key = DefaultTagKey
	}

	var specs []FieldSpec
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tag, ok := field.Tag.Lookup(key)
		if !ok || tag == "-" {
			continue
		}

		spec, err := parseFieldTag(tag)
		if err != nil {
			return nil, errors.WithMessagef(err, "field %s", field.Name)
		}
		spec.Index = field.Index
		spec.GoName = field.Name
		spec.Type = field.Type
		specs = append(specs, spec)
	}
	return specs, nil
}

func parseFieldTag(tag string) (FieldSpec, error) {
	var spec FieldSpec
	for i, part := range splitTag(tag) {
		part = strings.TrimSpace(part)
		k, v, hasValue := strings.Cut(part, "=")
		if i == 0 && !hasValue && !isTagKeyword(part) {
			spec.Column = part
			continue
		}
		switch k {
		case "":
		case "pk":
			spec.PrimaryKey = true
		case "auto":
			spec.PrimaryKey = true
			spec.AutoIncrement = true
		case "notnull":
			spec.NotNull = true
		case "unique":
			spec.Unique = true
		case "default":
			spec.HasDefault = true
			spec.Default = v
		case "type":
			spec.SQLType = v
		case "fk":
			spec.ForeignKey = true
			if hasValue {
				table, column, _ := strings.Cut(v, ".")
				spec.RefTable, spec.RefColumn = table, column
			}
		case "adapter":
			spec.Adapter = v
		case "gen":
			spec.Generator = v
		default:
			return spec, errors.Errorf("unknown tag option %q", part)
		}
	}
	return spec, nil
}

func isTagKeyword(s string) bool {
	switch s {
	case "pk", "auto", "notnull", "unique", "fk":
		return true
	}
	return false
}

// splitTag 按逗号切分，括号内的逗号保留，如 type=DECIMAL(10,2)
func splitTag(tag string) []string {
	var parts []string
	depth, start := 0, 0
	for i, c := range tag {
		switch c {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, tag[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, tag[start:])
}
