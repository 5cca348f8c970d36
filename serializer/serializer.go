package serializer

import (
	"reflect"

	"github.com/pkg/errors"
)

const (
	FormatJSON    = "json"
	FormatYAML    = "yaml"
	FormatMsgPack = "msgpack"

	DefaultMaxDepth = 32
)

var ErrDepthExceeded = errors.New("value nesting exceeds max depth")

// Serializer 把任意值转换为可存入文本列的字符串
type Serializer interface {
	Serialize(value any) (string, error)
	// Deserialize 把文本解析为 typ 类型的值
	Deserialize(text string, typ reflect.Type) (any, error)
}

type Options struct {
	Format   string `cfg:"format" def:"json" validate:"omitempty,oneof=json yaml msgpack"`
	MaxDepth int    `cfg:"maxDepth" def:"32" validate:"gte=0"`
}

func NewWithOptions(options *Options) (Serializer, error) {
	if options == nil {
		options = &Options{}
	}
	maxDepth := options.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	var s codec
	switch options.Format {
	case "", FormatJSON:
		s = jsonCodec{}
	case FormatYAML:
		s = yamlCodec{}
	case FormatMsgPack:
		s = msgpackCodec{}
	default:
		return nil, errors.Errorf("unsupported format: %s", options.Format)
	}
	return &boundedSerializer{codec: s, maxDepth: maxDepth}, nil
}

// New 使用默认深度创建指定格式的 Serializer
func New(format string) (Serializer, error) {
	return NewWithOptions(&Options{Format: format})
}

type codec interface {
	marshal(value any) (string, error)
	unmarshal(text string, ptr any) error
}

// boundedSerializer 在编码前检查嵌套深度，循环引用同样会因为超出深度被拒绝
type boundedSerializer struct {
	codec    codec
	maxDepth int
}

func (s *boundedSerializer) Serialize(value any) (string, error) {
	if err := CheckDepth(value, s.maxDepth); err != nil {
		return "", err
	}
	text, err := s.codec.marshal(value)
	if err != nil {
		return "", errors.WithMessagef(err, "serialize %T failed", value)
	}
	return text, nil
}

func (s *boundedSerializer) Deserialize(text string, typ reflect.Type) (any, error) {
	if typ == nil {
		return nil, errors.New("target type cannot be nil")
	}
	ptr := reflect.New(typ)
	if err := s.codec.unmarshal(text, ptr.Interface()); err != nil {
		return nil, errors.WithMessagef(err, "deserialize %v failed", typ)
	}
	return ptr.Elem().Interface(), nil
}

// CheckDepth 检查 value 的嵌套层数不超过 maxDepth
func CheckDepth(value any, maxDepth int) error {
	return checkDepth(reflect.ValueOf(value), 0, maxDepth)
}

func checkDepth(v reflect.Value, depth int, maxDepth int) error {
	if depth > maxDepth {
		return errors.WithMessagef(ErrDepthExceeded, "max depth %d", maxDepth)
	}

	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return checkDepth(v.Elem(), depth, maxDepth)
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if !v.Type().Field(i).IsExported() {
				continue
			}
			if err := checkDepth(v.Field(i), depth+1, maxDepth); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		// []byte 之类的基础类型切片不需要逐个检查
		if v.Type().Elem().Kind() <= reflect.Complex128 || v.Type().Elem().Kind() == reflect.String {
			return nil
		}
		for i := 0; i < v.Len(); i++ {
			if err := checkDepth(v.Index(i), depth+1, maxDepth); err != nil {
				return err
			}
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if err := checkDepth(iter.Value(), depth+1, maxDepth); err != nil {
				return err
			}
		}
	}
	return nil
}
