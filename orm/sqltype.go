package orm

import (
	"encoding"
	"math/big"
	"reflect"
	"time"
)

// Char 单个字符，对应 CHAR
type Char rune

// Clob 大文本，对应 CLOB
type Clob string

// Date 只有日期部分，对应 DATE
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// TimeOfDay 一天中的时刻，对应 TIME
type TimeOfDay time.Duration

func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute + time.Duration(second)*time.Second)
}

func (t TimeOfDay) String() string {
	d := time.Duration(t)
	return time.Time{}.Add(d).Format(timeOfDayLayout)
}

const (
	dateLayout      = "2006-01-02"
	timeOfDayLayout = "15:04:05.999999999"
)

var (
	timeType      = reflect.TypeOf(time.Time{})
	dateType      = reflect.TypeOf(Date{})
	timeOfDayType = reflect.TypeOf(TimeOfDay(0))
	charType      = reflect.TypeOf(Char(0))
	clobType      = reflect.TypeOf(Clob(""))
	bytesType     = reflect.TypeOf([]byte(nil))
	bigFloatType  = reflect.TypeOf(big.Float{})
	bigIntType    = reflect.TypeOf(big.Int{})

	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// 具名的特殊类型优先于按 kind 的映射
var namedSQLTypes = map[reflect.Type]string{
	timeType:      "TIMESTAMP",
	dateType:      "DATE",
	timeOfDayType: "TIME",
	charType:      "CHAR",
	clobType:      "CLOB",
	bytesType:     "BLOB",
	bigFloatType:  "DECIMAL",
	bigIntType:    "NUMERIC",
}

var kindSQLTypes = map[reflect.Kind]string{
	reflect.String:  "TEXT",
	reflect.Int:     "INTEGER",
	reflect.Int32:   "INTEGER",
	reflect.Uint:    "INTEGER",
	reflect.Uint32:  "INTEGER",
	reflect.Int64:   "BIGINT",
	reflect.Uint64:  "BIGINT",
	reflect.Int16:   "SMALLINT",
	reflect.Uint16:  "SMALLINT",
	reflect.Int8:    "TINYINT",
	reflect.Uint8:   "TINYINT",
	reflect.Float64: "DOUBLE",
	reflect.Float32: "FLOAT",
	reflect.Bool:    "BOOLEAN",
}

const fallbackSQLType = "TEXT"

// SQLTypeOf 返回 Go 类型对应的 SQL 类型，无法识别时为 TEXT
func SQLTypeOf(t reflect.Type) string {
	t = indirect(t)
	if s, ok := namedSQLTypes[t]; ok {
		return s
	}
	if isEnumType(t) {
		return fallbackSQLType
	}
	if s, ok := kindSQLTypes[t.Kind()]; ok {
		return s
	}
	return fallbackSQLType
}

// isSupportedType 可以直接以原生值或文本存取的类型
func isSupportedType(t reflect.Type) bool {
	t = indirect(t)
	if _, ok := namedSQLTypes[t]; ok {
		return true
	}
	if isEnumType(t) {
		return false
	}
	_, ok := kindSQLTypes[t.Kind()]
	return ok
}

// isEnumType 具名的非结构体类型，值实现 TextMarshaler，指针实现 TextUnmarshaler
func isEnumType(t reflect.Type) bool {
	t = indirect(t)
	if t.Name() == "" || t.Kind() == reflect.Struct || t.Kind() == reflect.Interface {
		return false
	}
	if _, ok := namedSQLTypes[t]; ok {
		return false
	}
	return t.Implements(textMarshalerType) && reflect.PointerTo(t).Implements(textUnmarshalerType)
}

func indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
