package database

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// Kind identifies which scalar a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindText
	KindTime
	KindBinary
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindTime:
		return "time"
	case KindBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// Value is a single cell of a result row. The zero Value is NULL.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	t    time.Time
	raw  []byte
}

// Null returns the NULL value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps an integer.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float wraps a floating point number.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Text wraps a string.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Time wraps a date/time.
func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }

// Binary wraps a byte slice. The slice is copied.
func Binary(b []byte) Value {
	return Value{kind: KindBinary, raw: append([]byte(nil), b...)}
}

// FromDriver converts a value produced by database/sql scanning into a Value.
// Byte slices are kept as binary; callers that know a column holds text
// should convert before calling.
func FromDriver(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(x)
	case int64:
		return Int(x)
	case int32:
		return Int(int64(x))
	case int16:
		return Int(int64(x))
	case int8:
		return Int(int64(x))
	case int:
		return Int(int64(x))
	case uint8:
		return Int(int64(x))
	case float64:
		return Float(x)
	case float32:
		return Float(float64(x))
	case string:
		return Text(x)
	case []byte:
		return Binary(x)
	case time.Time:
		return Time(x)
	default:
		return Text(fmt.Sprint(x))
	}
}

// Kind returns the kind of scalar held.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is NULL.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean and whether v holds one.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the integer and whether v holds one.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns v as float64. Integers convert.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

// AsText returns the string and whether v holds one.
func (v Value) AsText() (string, bool) { return v.s, v.kind == KindText }

// AsTime returns the time and whether v holds one.
func (v Value) AsTime() (time.Time, bool) { return v.t, v.kind == KindTime }

// AsBinary returns the bytes and whether v holds them.
func (v Value) AsBinary() ([]byte, bool) { return v.raw, v.kind == KindBinary }

// Any returns the underlying Go value, nil for NULL.
func (v Value) Any() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindText:
		return v.s
	case KindTime:
		return v.t
	case KindBinary:
		return v.raw
	default:
		return nil
	}
}

// String renders v for display.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindText:
		return v.s
	case KindTime:
		return v.t.Format("2006-01-02 15:04:05.999999999 -07:00")
	case KindBinary:
		return "0x" + hex.EncodeToString(v.raw)
	default:
		return ""
	}
}

// Equal reports whether two values hold the same kind and scalar.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindText:
		return v.s == o.s
	case KindTime:
		return v.t.Equal(o.t)
	case KindBinary:
		return string(v.raw) == string(o.raw)
	}
	return false
}
