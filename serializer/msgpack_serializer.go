package serializer

import (
	"encoding/base64"

	"github.com/vmihailenco/msgpack/v5"
)

// msgpackCodec 二进制结果以 base64 存入文本列
type msgpackCodec struct{}

func (msgpackCodec) marshal(value any) (string, error) {
	buf, err := msgpack.Marshal(value)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

func (msgpackCodec) unmarshal(text string, ptr any) error {
	buf, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return err
	}
	return msgpack.Unmarshal(buf, ptr)
}
