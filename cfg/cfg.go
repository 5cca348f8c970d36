package cfg

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Load 读取配置文件，按扩展名选择解码器，依次完成字段映射、默认值填充和校验
// 支持 .yaml/.yml/.json/.toml/.ini
func Load(filename string, object any) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return errors.Wrapf(err, "os.ReadFile failed. filename: [%s]", filename)
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if err := LoadBytes(data, format, object); err != nil {
		return errors.WithMessagef(err, "load config failed. filename: [%s]", filename)
	}
	return nil
}

// LoadBytes 按 format 解码 data 并写入 object
func LoadBytes(data []byte, format string, object any) error {
	decode, ok := decoders[format]
	if !ok {
		return errors.Errorf("unsupported config format: %s", format)
	}

	m, err := decode(data)
	if err != nil {
		return errors.WithMessagef(err, "decode %s failed", format)
	}

	if err := ConvertTo(m, object); err != nil {
		return errors.WithMessage(err, "ConvertTo failed")
	}
	if err := SetDefaults(object); err != nil {
		return errors.WithMessage(err, "SetDefaults failed")
	}
	if err := Validate(object); err != nil {
		return errors.WithMessage(err, "Validate failed")
	}
	return nil
}
