// Copyright 2024 The VitteLight Authors
// This file is part of VitteLight.

package vm

import (
	"github.com/davecgh/go-spew/spew"

	"github.com/vitte-lang/vitte-light/value"
)

// dumpConfig mirrors the teacher's diagnostic convention of a package-level
// spew.ConfigState tuned for compact, pointer-address-free output, since a
// raw spew.Dump of a Context would print every string's backing array.
var dumpConfig = &spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// DebugDump renders the live portion of the value stack and the globals
// table for interactive inspection (see cmd/vlrun's repl "dump" command).
// It is a diagnostic aid only; nothing in the dispatcher depends on its
// output format.
func (c *Context) DebugDump() string {
	type snapshot struct {
		ID      string
		IP      uint32
		SP      int
		Halted  bool
		Stack   []interface{}
		Globals map[string]interface{}
	}

	snap := snapshot{
		ID:      c.id,
		IP:      c.ip,
		SP:      c.sp,
		Halted:  c.halted,
		Stack:   make([]interface{}, 0, c.sp),
		Globals: make(map[string]interface{}),
	}
	for i := 0; i < c.sp; i++ {
		snap.Stack = append(snap.Stack, c.stack[i].Print())
	}
	c.globals.Each(func(key *value.Str, v value.Value) {
		snap.Globals[key.String()] = v.Print()
	})

	return dumpConfig.Sdump(snap)
}
