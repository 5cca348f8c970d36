package serializer

import (
	"encoding/json"
)

type jsonCodec struct{}

func (jsonCodec) marshal(value any) (string, error) {
	buf, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

func (jsonCodec) unmarshal(text string, ptr any) error {
	return json.Unmarshal([]byte(text), ptr)
}
