package models

import (
	"strconv"
	"strings"
)

// ValueKind identifies how a raw cell was supplied.
type ValueKind int

// Supported value kinds.
const (
	KindMissing ValueKind = iota
	KindString
	KindInt
	KindFloat
)

// String returns the kind name.
func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return "missing"
	}
}

// Value is one raw input cell before encoding.
type Value struct {
	Kind ValueKind
	Str  string
	Int  int64
	Num  float64
}

// MissingValue returns the absent marker.
func MissingValue() Value {
	return Value{Kind: KindMissing}
}

// StringValue wraps a string cell.
func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// IntValue wraps an integer cell.
func IntValue(i int64) Value {
	return Value{Kind: KindInt, Int: i}
}

// FloatValue wraps a floating point cell.
func FloatValue(f float64) Value {
	return Value{Kind: KindFloat, Num: f}
}

// IsEmpty reports whether the cell is absent or a blank string.
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case KindMissing:
		return true
	case KindString:
		return strings.TrimSpace(v.Str) == ""
	default:
		return false
	}
}

// Raw renders the cell the way the user supplied it.
// Missing cells render as the empty string.
func (v Value) Raw() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	default:
		return ""
	}
}

// Any returns the cell as a plain Go value for JSON rendering.
func (v Value) Any() any {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Num
	default:
		return nil
	}
}
