// Copyright 2024 The VitteLight Authors
// This file is part of VitteLight.

// Package jsbridge lets an embedder prototype a native function in
// JavaScript instead of Go, using goja as an in-process ECMAScript engine.
// This is additive to spec.md's native-function contract (§6): a bridged
// function satisfies value.NativeFunc exactly like a hand-written one, so
// the dispatcher's CallN opcode cannot tell the difference.
package jsbridge

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/vitte-lang/vitte-light/value"
)

// FromScript compiles src as the body of a JavaScript function taking one
// argument, args (an array mirroring the native call's stack slots), and
// returns a value.NativeFunc that evaluates it on every invocation.
//
// Each call gets a fresh goja.Runtime: natives registered this way are
// expected to be simple, stateless transforms (validation, formatting,
// small computations) rather than long-lived scripted objects, so the
// cost of a fresh runtime per call is an acceptable trade for not having
// to reason about shared mutable JS state across concurrent contexts.
func FromScript(name, src string) (value.NativeFunc, error) {
	wrapped := fmt.Sprintf("(function(args) {\n%s\n})", src)

	// Compile once against a throwaway runtime to catch syntax errors at
	// registration time rather than at first call.
	probe := goja.New()
	if _, err := probe.RunString(wrapped); err != nil {
		return nil, fmt.Errorf("jsbridge: compiling native %q: %w", name, err)
	}

	return func(args []value.Value) (value.Value, error) {
		rt := goja.New()
		fnVal, err := rt.RunString(wrapped)
		if err != nil {
			return value.NilValue(), fmt.Errorf("jsbridge: %q: %w", name, err)
		}
		fn, ok := goja.AssertFunction(fnVal)
		if !ok {
			return value.NilValue(), fmt.Errorf("jsbridge: %q did not evaluate to a function", name)
		}

		jsArgs := rt.ToValue(toInterfaces(args))
		result, err := fn(goja.Undefined(), jsArgs)
		if err != nil {
			return value.NilValue(), fmt.Errorf("jsbridge: %q: %w", name, err)
		}
		return fromJS(name, result)
	}, nil
}

// toInterfaces converts stack values into plain Go values goja can marshal
// into a JS array: Int/Float/Bool/Str map directly, everything else
// becomes its debug print string.
func toInterfaces(args []value.Value) []interface{} {
	out := make([]interface{}, len(args))
	for i, a := range args {
		switch a.Tag() {
		case value.Int:
			out[i] = a.AsInt()
		case value.Float:
			out[i] = a.AsFloat()
		case value.Bool:
			out[i] = a.AsBool()
		case value.String:
			out[i] = a.AsStr().String()
		case value.Nil:
			out[i] = nil
		default:
			out[i] = a.Print()
		}
	}
	return out
}

// fromJS converts a goja return value back into a value.Value, following
// the same Int/Float/Bool/Str/Nil mapping toInterfaces uses. Array, object,
// function, and other non-primitive results have no representation in
// spec.md's value union, so they fail the call rather than silently
// stringifying (§6: such results fail with Runtime).
func fromJS(name string, v goja.Value) (value.Value, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return value.NilValue(), nil
	}
	export := v.Export()
	switch x := export.(type) {
	case int64:
		return value.IntValue(x), nil
	case int:
		return value.IntValue(int64(x)), nil
	case float64:
		return value.FloatValue(x), nil
	case bool:
		return value.BoolValue(x), nil
	case string:
		return value.StrValue(value.NewString([]byte(x))), nil
	default:
		return value.NilValue(), fmt.Errorf("jsbridge: %q: unsupported return type %T", name, x)
	}
}
