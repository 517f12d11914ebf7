// Copyright 2024 The VitteLight Authors
// This file is part of VitteLight.
//
// VitteLight is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package value

import (
	"fmt"
	"strconv"
)

// Tag categorizes the fundamental shape of a Value.
type Tag uint8

const (
	Nil Tag = iota
	Bool
	Int
	Float
	String
	Array
	Map
	Func
	Native
)

var tagNames = [...]string{
	Nil:    "nil",
	Bool:   "bool",
	Int:    "int",
	Float:  "float",
	String: "str",
	Array:  "array",
	Map:    "map",
	Func:   "func",
	Native: "native",
}

// String returns the debug/print type name for the tag, e.g. "int", "str".
func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return fmt.Sprintf("tag(%d)", t)
}

// NativeFunc is the Go-side implementation of a registered native. args is a
// read-only view of the top argc stack slots at the call site; the callee
// must not retain it past return. Returning a non-nil error fails the call
// with vm.Runtime (the dispatcher formats the message with a prefix naming
// the native).
type NativeFunc func(args []Value) (Value, error)

// nativeRecord is the owned record behind a Value of tag Native: a function
// pointer plus opaque user data, exactly as spec.md's native-function
// contract describes. Re-registration under the same name replaces and
// releases the previous record (garbage collected by Go once unreferenced;
// there is no manual free step, unlike the C reference implementation this
// spec describes).
type nativeRecord struct {
	fn       NativeFunc
	userData interface{}
}

// Value is the uniform tagged datum manipulated by the stack, globals map,
// and native registry. The zero Value is Nil.
//
// Array, Map, and Func are reserved tags: spec.md requires them to
// round-trip through push/pop and stack copy without data loss, but the
// dispatcher implements no opcode that produces or consumes them. They are
// represented here as an opaque interface{} payload so a future extension
// can populate them without changing the Value layout.
type Value struct {
	tag      Tag
	i        int64
	f        float64
	str      *Str
	native   *nativeRecord
	reserved interface{} // backs Array/Map/Func payloads
}

// NilValue returns the Nil value.
func NilValue() Value { return Value{tag: Nil} }

// BoolValue constructs a Bool value.
func BoolValue(b bool) Value {
	var i int64
	if b {
		i = 1
	}
	return Value{tag: Bool, i: i}
}

// IntValue constructs an Int value from a 64-bit signed integer.
func IntValue(v int64) Value { return Value{tag: Int, i: v} }

// FloatValue constructs a Float value from an IEEE-754 double.
func FloatValue(v float64) Value { return Value{tag: Float, f: v} }

// StrValue constructs a Str value sharing the given interned string object.
// The caller retains ownership responsibility as described in spec.md's
// ownership invariants: ss must outlive every Value built from it.
func StrValue(ss *Str) Value { return Value{tag: String, str: ss} }

// NativeValue constructs a Native value wrapping fn and userData.
func NativeValue(fn NativeFunc, userData interface{}) Value {
	return Value{tag: Native, native: &nativeRecord{fn: fn, userData: userData}}
}

// reservedValue constructs an Array/Map/Func placeholder value. The core
// dispatcher never calls this; it exists so stack-copy and push/pop round
// trip payloads future opcode extensions might attach.
func reservedValue(tag Tag, payload interface{}) Value {
	return Value{tag: tag, reserved: payload}
}

// Tag returns the value's tag.
func (v Value) Tag() Tag { return v.tag }

// IsNil reports whether v is the Nil value.
func (v Value) IsNil() bool { return v.tag == Nil }

// AsBool returns the boolean payload; only meaningful when Tag() == Bool.
func (v Value) AsBool() bool { return v.i != 0 }

// AsInt returns the integer payload; only meaningful when Tag() == Int.
func (v Value) AsInt() int64 { return v.i }

// AsFloat returns the float payload; only meaningful when Tag() == Float.
func (v Value) AsFloat() float64 { return v.f }

// AsStr returns the interned string payload; only meaningful when
// Tag() == String. Returns nil otherwise.
func (v Value) AsStr() *Str { return v.str }

// AsNativeFunc returns the native callable; only meaningful when
// Tag() == Native. Returns nil otherwise.
func (v Value) AsNativeFunc() NativeFunc {
	if v.native == nil {
		return nil
	}
	return v.native.fn
}

// AsNativeUserData returns the opaque user data registered alongside the
// native; only meaningful when Tag() == Native.
func (v Value) AsNativeUserData() interface{} {
	if v.native == nil {
		return nil
	}
	return v.native.userData
}

// toFloat64 promotes an Int or Float value to float64, matching spec.md's
// "always promote to double" arithmetic/comparison semantics. ok is false
// for any other tag.
func (v Value) toFloat64() (f float64, ok bool) {
	switch v.tag {
	case Int:
		return float64(v.i), true
	case Float:
		return v.f, true
	default:
		return 0, false
	}
}

// Numeric reports whether v is Int or Float and, if so, its value promoted
// to float64 per spec.md's numeric-promotion rule.
func (v Value) Numeric() (f float64, ok bool) { return v.toFloat64() }

// Print renders the canonical textual form described in spec.md §4.5:
// Nil -> "nil", Bool -> "true"/"false", Int -> decimal, Float -> shortest
// round-trippable %g form, Str -> verbatim bytes, anything else -> "<tag>".
func (v Value) Print() string {
	switch v.tag {
	case Nil:
		return "nil"
	case Bool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case Int:
		return strconv.FormatInt(v.i, 10)
	case Float:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case String:
		if v.str == nil {
			return ""
		}
		return v.str.String()
	default:
		return "<" + v.tag.String() + ">"
	}
}
