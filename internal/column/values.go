// Package column holds typed attribute vectors and the reference counted
// buffers point tables share between each other.
package column

import (
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
)

// Type is the storage type of a vector.
type Type uint8

const (
	Invalid Type = iota
	Int8
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Float32
	Float64
	String
	Bool
)

var typeNames = [...]string{
	Invalid: "invalid",
	Int8:    "int8",
	Uint8:   "uint8",
	Int16:   "int16",
	Uint16:  "uint16",
	Int32:   "int32",
	Uint32:  "uint32",
	Int64:   "int64",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
	String:  "string",
	Bool:    "bool",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// Numeric reports whether values of this type can be stored as LAS extra bytes.
func (t Type) Numeric() bool {
	return t >= Int8 && t <= Float64
}

// Size returns the width in bytes of a numeric type, 0 otherwise.
func (t Type) Size() int {
	switch t {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	}
	return 0
}

// Element lists the Go types a vector may hold.
type Element interface {
	int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64 | float32 | float64 | string | bool
}

// Number is the numeric subset of Element.
type Number interface {
	constraints.Integer | constraints.Float
}

// Values is a vector of one attribute. Concrete values are always Vector[T].
type Values interface {
	Type() Type
	Len() int
	// Clone returns an independent copy.
	Clone() Values
	// Gather returns a new vector holding the rows at idx, in order.
	Gather(idx []int) Values
	// Concat appends other to a copy of the receiver. ok is false when
	// the element types differ.
	Concat(other Values) (out Values, ok bool)
}

// Vector is a typed attribute vector.
type Vector[T Element] []T

type (
	Int8s    = Vector[int8]
	Uint8s   = Vector[uint8]
	Int16s   = Vector[int16]
	Uint16s  = Vector[uint16]
	Int32s   = Vector[int32]
	Uint32s  = Vector[uint32]
	Int64s   = Vector[int64]
	Uint64s  = Vector[uint64]
	Float32s = Vector[float32]
	Float64s = Vector[float64]
	Strings  = Vector[string]
	Bools    = Vector[bool]
)

func typeOf[T Element]() Type {
	var zero T
	switch any(zero).(type) {
	case int8:
		return Int8
	case uint8:
		return Uint8
	case int16:
		return Int16
	case uint16:
		return Uint16
	case int32:
		return Int32
	case uint32:
		return Uint32
	case int64:
		return Int64
	case uint64:
		return Uint64
	case float32:
		return Float32
	case float64:
		return Float64
	case string:
		return String
	case bool:
		return Bool
	}
	return Invalid
}

func (v Vector[T]) Type() Type { return typeOf[T]() }

func (v Vector[T]) Len() int { return len(v) }

func (v Vector[T]) Clone() Values {
	out := make(Vector[T], len(v))
	copy(out, v)
	return out
}

func (v Vector[T]) Gather(idx []int) Values {
	out := make(Vector[T], len(idx))
	for i, j := range idx {
		out[i] = v[j]
	}
	return out
}

func (v Vector[T]) Concat(other Values) (Values, bool) {
	o, ok := other.(Vector[T])
	if !ok {
		return nil, false
	}
	out := make(Vector[T], 0, len(v)+len(o))
	out = append(out, v...)
	out = append(out, o...)
	return out, true
}

// Make allocates a zeroed vector of type t with n rows.
func Make(t Type, n int) (Values, error) {
	switch t {
	case Int8:
		return make(Int8s, n), nil
	case Uint8:
		return make(Uint8s, n), nil
	case Int16:
		return make(Int16s, n), nil
	case Uint16:
		return make(Uint16s, n), nil
	case Int32:
		return make(Int32s, n), nil
	case Uint32:
		return make(Uint32s, n), nil
	case Int64:
		return make(Int64s, n), nil
	case Uint64:
		return make(Uint64s, n), nil
	case Float32:
		return make(Float32s, n), nil
	case Float64:
		return make(Float64s, n), nil
	case String:
		return make(Strings, n), nil
	case Bool:
		return make(Bools, n), nil
	}
	return nil, fmt.Errorf("cannot allocate vector of %s", t)
}

// Float64At returns row i of a numeric vector as float64.
// ok is false for strings and booleans.
func Float64At(v Values, i int) (f float64, ok bool) {
	switch x := v.(type) {
	case Int8s:
		return float64(x[i]), true
	case Uint8s:
		return float64(x[i]), true
	case Int16s:
		return float64(x[i]), true
	case Uint16s:
		return float64(x[i]), true
	case Int32s:
		return float64(x[i]), true
	case Uint32s:
		return float64(x[i]), true
	case Int64s:
		return float64(x[i]), true
	case Uint64s:
		return float64(x[i]), true
	case Float32s:
		return float64(x[i]), true
	case Float64s:
		return x[i], true
	}
	return math.NaN(), false
}

// SetFloat64At stores f at row i of a numeric vector, converting to the
// vector's element type. Callers own v exclusively.
func SetFloat64At(v Values, i int, f float64) bool {
	switch x := v.(type) {
	case Int8s:
		x[i] = int8(f)
	case Uint8s:
		x[i] = uint8(f)
	case Int16s:
		x[i] = int16(f)
	case Uint16s:
		x[i] = uint16(f)
	case Int32s:
		x[i] = int32(f)
	case Uint32s:
		x[i] = uint32(f)
	case Int64s:
		x[i] = int64(f)
	case Uint64s:
		x[i] = uint64(f)
	case Float32s:
		x[i] = float32(f)
	case Float64s:
		x[i] = f
	default:
		return false
	}
	return true
}

// MinMax returns the smallest and largest element of v.
func MinMax[T interface {
	Element
	constraints.Ordered
}](v Vector[T]) (lo, hi T, ok bool) {
	if len(v) == 0 {
		return
	}
	lo, hi = v[0], v[0]
	for _, x := range v[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return lo, hi, true
}

// Fill returns a vector of n copies of x.
func Fill[T Element](n int, x T) Vector[T] {
	out := make(Vector[T], n)
	for i := range out {
		out[i] = x
	}
	return out
}

// Convert builds a numeric vector of another element type.
func Convert[To interface {
	Element
	Number
}, From interface {
	Element
	Number
}](in Vector[From]) Vector[To] {
	out := make(Vector[To], len(in))
	for i, x := range in {
		out[i] = To(x)
	}
	return out
}
