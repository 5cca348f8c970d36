package keygen

import (
	"sync"

	"github.com/pkg/errors"
)

// Generator 客户端主键生成器
type Generator interface {
	// NextKey 返回一个新的主键，int64 或 string
	NextKey() any
}

var generators sync.Map

func init() {
	MustRegister("snowflake", NewSnowflakeGenerator(nil))
	MustRegister("uuid", NewUUIDGeneratorWithOptions(&UUIDOptions{Version: "v4", WithHyphens: true}))
	MustRegister("uuidv7", NewUUIDGeneratorWithOptions(&UUIDOptions{Version: "v7", WithHyphens: true}))
}

// Register 以名字注册生成器实例，同名只能注册一次
func Register(name string, generator Generator) error {
	if name == "" || generator == nil {
		return errors.New("name and generator cannot be empty")
	}
	if _, loaded := generators.LoadOrStore(name, generator); loaded {
		return errors.Errorf("generator %s already registered", name)
	}
	return nil
}

func MustRegister(name string, generator Generator) {
	if err := Register(name, generator); err != nil {
		panic(err)
	}
}

// Lookup 返回名字对应的生成器
func Lookup(name string) (Generator, error) {
	value, ok := generators.Load(name)
	if !ok {
		return nil, errors.Errorf("generator not found: %s", name)
	}
	return value.(Generator), nil
}
