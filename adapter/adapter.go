package adapter

import (
	"reflect"
	"sync"

	"github.com/pkg/errors"
)

// Adapter 自定义字段与文本之间的转换
// 每次使用都会通过构造函数创建新实例，实现不需要并发安全
type Adapter interface {
	Serialize(value any) (string, error)
	Deserialize(text string) (any, error)
}

// Constructor 创建 Adapter 实例
type Constructor func() (Adapter, error)

type constructor struct {
	originalFunc any
	newFunc      reflect.Value
	returnsError bool
}

var adapterType = reflect.TypeOf((*Adapter)(nil)).Elem()
var errorType = reflect.TypeOf((*error)(nil)).Elem()

func newConstructor(newFunc any) (*constructor, error) {
	funcValue := reflect.ValueOf(newFunc)
	if funcValue.Kind() != reflect.Func {
		return nil, errors.New("newFunc must be a function")
	}

	funcType := funcValue.Type()
	if funcType.NumIn() != 0 {
		return nil, errors.Errorf("newFunc must have no input parameters, got %d", funcType.NumIn())
	}
	if funcType.NumOut() != 1 && funcType.NumOut() != 2 {
		return nil, errors.Errorf("newFunc must have 1 or 2 return values, got %d", funcType.NumOut())
	}
	if !funcType.Out(0).Implements(adapterType) {
		return nil, errors.Errorf("first return value %v does not implement Adapter", funcType.Out(0))
	}
	if funcType.NumOut() == 2 && !funcType.Out(1).Implements(errorType) {
		return nil, errors.New("second return value must be error type")
	}

	return &constructor{
		originalFunc: newFunc,
		newFunc:      funcValue,
		returnsError: funcType.NumOut() == 2,
	}, nil
}

func (c *constructor) new() (a Adapter, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("adapter constructor panic: %v", r)
		}
	}()

	results := c.newFunc.Call(nil)
	if c.returnsError && !results[1].IsNil() {
		return nil, results[1].Interface().(error)
	}
	if results[0].Kind() == reflect.Ptr && results[0].IsNil() {
		return nil, errors.New("adapter constructor returned nil")
	}
	obj, ok := results[0].Interface().(Adapter)
	if !ok || obj == nil {
		return nil, errors.New("adapter constructor returned nil")
	}
	return obj, nil
}

var nameConstructorMap sync.Map

func isSameFunc(func1, func2 any) bool {
	if func1 == nil || func2 == nil {
		return func1 == func2
	}
	return reflect.ValueOf(func1).Pointer() == reflect.ValueOf(func2).Pointer()
}

// Register 以名字注册 adapter 构造函数
// newFunc 形如 func() T 或 func() (T, error)，T 实现 Adapter
// 同名重复注册相同函数是幂等的，不同函数返回错误
func Register(name string, newFunc any) error {
	if name == "" {
		return errors.New("adapter name cannot be empty")
	}

	if existing, ok := nameConstructorMap.Load(name); ok {
		if isSameFunc(existing.(*constructor).originalFunc, newFunc) {
			return nil
		}
		return errors.Errorf("adapter %s already registered with different function", name)
	}

	c, err := newConstructor(newFunc)
	if err != nil {
		return errors.WithMessagef(err, "invalid constructor for adapter %s", name)
	}

	if actual, loaded := nameConstructorMap.LoadOrStore(name, c); loaded {
		if !isSameFunc(actual.(*constructor).originalFunc, newFunc) {
			return errors.Errorf("adapter %s already registered with different function", name)
		}
	}
	return nil
}

func MustRegister(name string, newFunc any) {
	if err := Register(name, newFunc); err != nil {
		panic(err)
	}
}

// Lookup 返回名字对应的构造函数，用于在建表时提前解析
func Lookup(name string) (Constructor, error) {
	value, ok := nameConstructorMap.Load(name)
	if !ok {
		return nil, errors.Errorf("adapter not found: %s", name)
	}
	return value.(*constructor).new, nil
}

// New 创建名字对应的 adapter 实例
func New(name string) (Adapter, error) {
	newFunc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return newFunc()
}
