package table

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

type Kind uint8

const (
	KindMissing Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	if k > KindBool {
		return nil, fmt.Errorf("unknown kind %d", k)
	}
	return []byte(k.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "missing":
		*k = KindMissing
	case "string":
		*k = KindString
	case "int":
		*k = KindInt
	case "float":
		*k = KindFloat
	case "bool":
		*k = KindBool
	default:
		return fmt.Errorf("unknown kind %q", text)
	}
	return nil
}

func (k Kind) numeric() bool {
	return k == KindInt || k == KindFloat
}

// Value is a single typed cell. The zero Value is Missing.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
}

// Missing is the marker for a cell with no value.
func Missing() Value { return Value{} }

func String(s string) Value     { return Value{kind: KindString, s: s} }
func Int(i int64) Value         { return Value{kind: KindInt, i: i} }
func Float(f float64) Value     { return Value{kind: KindFloat, f: f} }
func Bool(b bool) Value         { return Value{kind: KindBool, b: b} }
func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Text renders the value the way it is written to CSV. Missing renders empty.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Any returns the Go value behind v: nil, string, int64, float64, or bool.
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	default:
		return nil
	}
}

// MarshalJSON encodes Missing as null and every other kind as its JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// key returns the identity used to match join keys. Numbers compare by value
// across int and float, so 1 and 1.0 share a key. Missing never matches.
func (v Value) key(textual bool) (string, bool) {
	if v.kind == KindMissing {
		return "", false
	}
	if textual {
		return "t:" + v.Text(), true
	}

	switch v.kind {
	case KindInt:
		return "n:" + strconv.FormatInt(v.i, 10), true
	case KindFloat:
		if v.f == math.Trunc(v.f) && math.Abs(v.f) < 1<<63 {
			return "n:" + strconv.FormatInt(int64(v.f), 10), true
		}
		return "n:" + strconv.FormatFloat(v.f, 'g', -1, 64), true
	case KindBool:
		return "b:" + strconv.FormatBool(v.b), true
	default:
		return "s:" + v.s, true
	}
}

// coerce converts v to kind k. Only widening conversions are needed by the
// join: int to float, and anything to string.
func (v Value) coerce(k Kind) Value {
	if v.kind == KindMissing || v.kind == k {
		return v
	}
	switch {
	case k == KindFloat && v.kind == KindInt:
		return Float(float64(v.i))
	case k == KindString:
		return String(v.Text())
	default:
		return v
	}
}

func formatFloat(f float64) string {
	if math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// unify returns the column kind able to hold values of both a and b.
func unify(a, b Kind) Kind {
	switch {
	case a == b:
		return a
	case a == KindMissing:
		return b
	case b == KindMissing:
		return a
	case a.numeric() && b.numeric():
		return KindFloat
	default:
		return KindString
	}
}
