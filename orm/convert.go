package orm

import (
	"encoding/base64"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// 驱动返回的时间文本格式，依次尝试
var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00", // sqlite
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
	dateLayout,
}

func parseTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, errors.Wrapf(lastErr, "cannot parse time %q", s)
}

func parseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse(timeOfDayLayout, s)
	if err != nil {
		return 0, errors.Wrapf(err, "cannot parse time of day %q", s)
	}
	return NewTimeOfDay(t.Hour(), t.Minute(), t.Second()) + TimeOfDay(t.Nanosecond()), nil
}

// bigFloatPrec 解析文本所用的精度，每个字符 4 位足以精确容纳十进制展开
func bigFloatPrec(text string) uint {
	return max(64, uint(len(text))*4)
}

func parseBigFloat(text string) (*big.Float, error) {
	f, _, err := big.ParseFloat(text, 10, bigFloatPrec(text), big.ToNearestEven)
	return f, err
}

// formatBigFloat 优先使用最短的十进制形式，解析回来不相等时输出精确的十进制展开
func formatBigFloat(f *big.Float) string {
	short := f.Text('g', -1)
	if f.IsInf() {
		return short
	}
	if back, err := parseBigFloat(short); err == nil && back.Cmp(f) == 0 {
		return short
	}
	// 二进制小数的十进制展开总是有限的
	digits := int(f.MinPrec()) - f.MantExp(nil)
	if digits < 0 {
		digits = 0
	}
	return f.Text('f', digits)
}

// formatSupported 直接支持类型的文本形式
func formatSupported(v reflect.Value) string {
	switch v.Type() {
	case timeType:
		return v.Interface().(time.Time).Format(time.RFC3339Nano)
	case dateType:
		return v.Interface().(Date).String()
	case timeOfDayType:
		return v.Interface().(TimeOfDay).String()
	case charType:
		return string(rune(v.Int()))
	case bytesType:
		return base64.StdEncoding.EncodeToString(v.Bytes())
	case bigFloatType:
		f := v.Interface().(big.Float)
		return formatBigFloat(&f)
	case bigIntType:
		i := v.Interface().(big.Int)
		return i.String()
	}

	switch v.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'g', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case reflect.String:
		return v.String()
	}
	return fmt.Sprint(v.Interface())
}

// bindSupported 直接支持类型交给驱动的参数值
func bindSupported(v reflect.Value) any {
	switch v.Type() {
	case timeType:
		return v.Interface()
	case dateType:
		return v.Interface().(Date).Time
	case timeOfDayType, charType, bigFloatType, bigIntType:
		return formatSupported(v)
	case bytesType:
		return v.Bytes()
	}

	switch v.Kind() {
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return int64(v.Uint())
	case reflect.Uint64:
		if v.Uint() > math.MaxInt64 {
			return strconv.FormatUint(v.Uint(), 10)
		}
		return int64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.String:
		return v.String()
	}
	return v.Interface()
}

func rawText(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	}
	return fmt.Sprint(raw)
}

// convertRaw 把驱动返回的值或其文本形式转换为类型 t
func convertRaw(raw any, t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t).Elem()

	switch t {
	case timeType:
		if tm, ok := raw.(time.Time); ok {
			out.Set(reflect.ValueOf(tm))
			return out, nil
		}
		tm, err := parseTime(rawText(raw))
		if err != nil {
			return out, err
		}
		out.Set(reflect.ValueOf(tm))
		return out, nil

	case dateType:
		tm, ok := raw.(time.Time)
		if !ok {
			var err error
			if tm, err = parseTime(rawText(raw)); err != nil {
				return out, err
			}
		}
		out.Set(reflect.ValueOf(NewDate(tm.Year(), tm.Month(), tm.Day())))
		return out, nil

	case timeOfDayType:
		if tm, ok := raw.(time.Time); ok {
			out.SetInt(int64(NewTimeOfDay(tm.Hour(), tm.Minute(), tm.Second()) + TimeOfDay(tm.Nanosecond())))
			return out, nil
		}
		tod, err := parseTimeOfDay(rawText(raw))
		if err != nil {
			return out, err
		}
		out.SetInt(int64(tod))
		return out, nil

	case charType:
		if i, ok := raw.(int64); ok {
			out.SetInt(i)
			return out, nil
		}
		s := []rune(rawText(raw))
		if len(s) != 1 {
			return out, errors.Errorf("cannot convert %q to a single character", string(s))
		}
		out.SetInt(int64(s[0]))
		return out, nil

	case bytesType:
		switch v := raw.(type) {
		case []byte:
			out.SetBytes(append([]byte{}, v...))
			return out, nil
		case string:
			b, err := base64.StdEncoding.DecodeString(v)
			if err != nil {
				return out, errors.Wrap(err, "base64.DecodeString failed")
			}
			out.SetBytes(b)
			return out, nil
		}

	case bigFloatType:
		f, err := parseBigFloat(rawText(raw))
		if err != nil {
			return out, errors.Wrapf(err, "cannot parse decimal %q", rawText(raw))
		}
		out.Set(reflect.ValueOf(f).Elem())
		return out, nil

	case bigIntType:
		i, ok := new(big.Int).SetString(rawText(raw), 10)
		if !ok {
			return out, errors.Errorf("cannot parse integer %q", rawText(raw))
		}
		out.Set(reflect.ValueOf(i).Elem())
		return out, nil
	}

	switch t.Kind() {
	case reflect.Bool:
		switch v := raw.(type) {
		case bool:
			out.SetBool(v)
		case int64:
			out.SetBool(v != 0)
		default:
			b, err := strconv.ParseBool(rawText(raw))
			if err != nil {
				return out, errors.Wrapf(err, "cannot convert %v to bool", raw)
			}
			out.SetBool(b)
		}
		return out, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch v := raw.(type) {
		case int64:
			out.SetInt(v)
		case float64:
			out.SetInt(int64(v))
		case bool:
			if v {
				out.SetInt(1)
			}
		default:
			i, err := strconv.ParseInt(strings.TrimSpace(rawText(raw)), 10, t.Bits())
			if err != nil {
				return out, errors.Wrapf(err, "cannot convert %v to %v", raw, t)
			}
			out.SetInt(i)
		}
		return out, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		switch v := raw.(type) {
		case int64:
			out.SetUint(uint64(v))
		case float64:
			out.SetUint(uint64(v))
		default:
			u, err := strconv.ParseUint(strings.TrimSpace(rawText(raw)), 10, t.Bits())
			if err != nil {
				return out, errors.Wrapf(err, "cannot convert %v to %v", raw, t)
			}
			out.SetUint(u)
		}
		return out, nil

	case reflect.Float32, reflect.Float64:
		switch v := raw.(type) {
		case float64:
			out.SetFloat(v)
		case float32:
			out.SetFloat(float64(v))
		case int64:
			out.SetFloat(float64(v))
		default:
			f, err := strconv.ParseFloat(strings.TrimSpace(rawText(raw)), t.Bits())
			if err != nil {
				return out, errors.Wrapf(err, "cannot convert %v to %v", raw, t)
			}
			out.SetFloat(f)
		}
		return out, nil

	case reflect.String:
		out.SetString(rawText(raw))
		return out, nil
	}

	rv := reflect.ValueOf(raw)
	if rv.Type().AssignableTo(t) {
		out.Set(rv)
		return out, nil
	}
	if rv.Type().ConvertibleTo(t) {
		out.Set(rv.Convert(t))
		return out, nil
	}
	return out, errors.Errorf("cannot convert %T to %v", raw, t)
}

// assignTo 把 adapter 返回的值赋给类型 t
func assignTo(value any, t reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	if rv.Kind() == reflect.Ptr && !rv.IsNil() && rv.Elem().Type().AssignableTo(t) {
		return rv.Elem(), nil
	}
	if rv.Type().ConvertibleTo(t) {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, errors.Errorf("cannot assign %T to %v", value, t)
}
