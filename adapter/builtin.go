package adapter

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

func init() {
	MustRegister("upper", NewUpperAdapter)
	MustRegister("lower", NewLowerAdapter)
	MustRegister("csv", NewCSVAdapter)
	MustRegister("unixmilli", NewUnixMilliAdapter)
	MustRegister("base64", NewBase64Adapter)
}

// CaseAdapter 写入时统一大小写，读取时原样返回
type CaseAdapter struct {
	upper bool
}

func NewUpperAdapter() *CaseAdapter {
	return &CaseAdapter{upper: true}
}

func NewLowerAdapter() *CaseAdapter {
	return &CaseAdapter{upper: false}
}

func (a *CaseAdapter) Serialize(value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", errors.Errorf("case adapter expects string, got %T", value)
	}
	if a.upper {
		return strings.ToUpper(s), nil
	}
	return strings.ToLower(s), nil
}

func (a *CaseAdapter) Deserialize(text string) (any, error) {
	return text, nil
}

// CSVAdapter []string 以一行 csv 存储
type CSVAdapter struct{}

func NewCSVAdapter() *CSVAdapter {
	return &CSVAdapter{}
}

func (a *CSVAdapter) Serialize(value any) (string, error) {
	items, ok := value.([]string)
	if !ok {
		return "", errors.Errorf("csv adapter expects []string, got %T", value)
	}
	if len(items) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(items); err != nil {
		return "", errors.Wrap(err, "csv.Write failed")
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", errors.Wrap(err, "csv.Flush failed")
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func (a *CSVAdapter) Deserialize(text string) (any, error) {
	if text == "" {
		return []string{}, nil
	}
	record, err := csv.NewReader(strings.NewReader(text)).Read()
	if err != nil {
		return nil, errors.Wrapf(err, "csv.Read failed. text: [%s]", text)
	}
	return record, nil
}

// UnixMilliAdapter time.Time 以毫秒时间戳存储
type UnixMilliAdapter struct{}

func NewUnixMilliAdapter() *UnixMilliAdapter {
	return &UnixMilliAdapter{}
}

func (a *UnixMilliAdapter) Serialize(value any) (string, error) {
	t, ok := value.(time.Time)
	if !ok {
		return "", errors.Errorf("unixmilli adapter expects time.Time, got %T", value)
	}
	return strconv.FormatInt(t.UnixMilli(), 10), nil
}

func (a *UnixMilliAdapter) Deserialize(text string) (any, error) {
	ms, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "strconv.ParseInt failed. text: [%s]", text)
	}
	return time.UnixMilli(ms), nil
}

// Base64Adapter []byte 以 base64 文本存储
type Base64Adapter struct{}

func NewBase64Adapter() *Base64Adapter {
	return &Base64Adapter{}
}

func (a *Base64Adapter) Serialize(value any) (string, error) {
	b, ok := value.([]byte)
	if !ok {
		return "", errors.Errorf("base64 adapter expects []byte, got %T", value)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func (a *Base64Adapter) Deserialize(text string) (any, error) {
	b, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, errors.Wrap(err, "base64.DecodeString failed")
	}
	return b, nil
}
