// Copyright 2024 The VitteLight Authors
// This file is part of VitteLight.

package jsbridge

import (
	"testing"

	"github.com/vitte-lang/vitte-light/value"
)

func TestFromScriptSum(t *testing.T) {
	fn, err := FromScript("sum", "return args[0] + args[1];")
	if err != nil {
		t.Fatalf("FromScript: %v", err)
	}
	result, err := fn([]value.Value{value.IntValue(2), value.IntValue(3)})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if result.Tag() != value.Int || result.AsInt() != 5 {
		t.Fatalf("result = %v, want Int(5)", result)
	}
}

func TestFromScriptStringConcat(t *testing.T) {
	fn, err := FromScript("greet", "return 'hello ' + args[0];")
	if err != nil {
		t.Fatalf("FromScript: %v", err)
	}
	result, err := fn([]value.Value{value.StrValue(value.NewString([]byte("world")))})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if result.Tag() != value.String || result.AsStr().String() != "hello world" {
		t.Fatalf("result = %v, want Str(\"hello world\")", result)
	}
}

func TestFromScriptRejectsSyntaxError(t *testing.T) {
	_, err := FromScript("broken", "this is not valid javascript {{{")
	if err == nil {
		t.Fatal("expected a compile error")
	}
}

func TestFromScriptRejectsArrayReturn(t *testing.T) {
	fn, err := FromScript("triple", "return [1, 2, 3];")
	if err != nil {
		t.Fatalf("FromScript: %v", err)
	}
	if _, err := fn(nil); err == nil {
		t.Fatal("expected an error for an array return value, got nil")
	}
}

func TestFromScriptRejectsObjectReturn(t *testing.T) {
	fn, err := FromScript("obj", "return {};")
	if err != nil {
		t.Fatalf("FromScript: %v", err)
	}
	if _, err := fn(nil); err == nil {
		t.Fatal("expected an error for an object return value, got nil")
	}
}
