package serializer

import (
	"strings"

	"gopkg.in/yaml.v3"
)

type yamlCodec struct{}

func (yamlCodec) marshal(value any) (string, error) {
	buf, err := yaml.Marshal(value)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(buf), "\n"), nil
}

func (yamlCodec) unmarshal(text string, ptr any) error {
	return yaml.Unmarshal([]byte(text), ptr)
}
