// Copyright 2024 The VitteLight Authors
// This file is part of VitteLight.

package vm

import (
	"strings"
	"testing"

	"github.com/vitte-lang/vitte-light/value"
)

func TestDebugDumpIncludesStackAndGlobals(t *testing.T) {
	c := New(Config{})
	c.Push(value.IntValue(7))
	c.SetGlobal([]byte("answer"), value.IntValue(42))

	out := c.DebugDump()
	for _, want := range []string{"7", "answer", "42", c.ID()} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}

func TestContextIDIsStableAndUnique(t *testing.T) {
	a := New(Config{})
	b := New(Config{})
	if a.ID() == "" {
		t.Fatal("expected non-empty ID")
	}
	if a.ID() == b.ID() {
		t.Fatal("expected distinct IDs across contexts")
	}
	if a.ID() != a.ID() {
		t.Fatal("expected stable ID across calls")
	}
}
