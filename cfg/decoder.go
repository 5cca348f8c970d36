package cfg

import (
	"encoding/json"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

type decodeFunc func(data []byte) (map[string]any, error)

var decoders = map[string]decodeFunc{
	"yaml": decodeYAML,
	"yml":  decodeYAML,
	"json": decodeJSON,
	"toml": decodeTOML,
	"ini":  decodeINI,
}

func decodeYAML(data []byte) (map[string]any, error) {
	m := map[string]any{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "yaml.Unmarshal failed")
	}
	return m, nil
}

func decodeJSON(data []byte) (map[string]any, error) {
	m := map[string]any{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "json.Unmarshal failed")
	}
	return m, nil
}

func decodeTOML(data []byte) (map[string]any, error) {
	m := map[string]any{}
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "toml.Unmarshal failed")
	}
	return m, nil
}

// decodeINI section 映射为嵌套的 map，值尽量还原为数字或布尔
func decodeINI(data []byte) (map[string]any, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		AllowBooleanKeys:         true,
		SpaceBeforeInlineComment: true,
	}, data)
	if err != nil {
		return nil, errors.Wrap(err, "ini.LoadSources failed")
	}

	m := map[string]any{}
	for _, section := range file.Sections() {
		target := m
		if section.Name() != ini.DefaultSection {
			sub := map[string]any{}
			m[section.Name()] = sub
			target = sub
		}
		for _, key := range section.Keys() {
			target[key.Name()] = parseINIValue(key.String())
		}
	}
	return m, nil
}

func parseINIValue(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
