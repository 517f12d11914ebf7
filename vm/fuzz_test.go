// Copyright 2024 The VitteLight Authors
// This file is part of VitteLight.

package vm

import (
	"testing"

	"github.com/vitte-lang/vitte-light/bytecode"
)

// rawImage encodes strs/code into a loadable image byte slice.
func rawImage(strs [][]byte, code []byte) []byte {
	return bytecode.Encode(strs, code)
}

// FuzzRun feeds arbitrary code buffers through a Context and requires that
// execution never panics: every malformed or semantically invalid program
// must terminate via a recorded Status, never an unchecked slice bound or
// nil dereference escaping Step.
func FuzzRun(f *testing.F) {
	f.Add((&asm{}).op(OpPushI).i64(1).op(OpHalt).code())
	f.Add((&asm{}).op(OpCallN).u32(0).u8(255).op(OpHalt).code())
	f.Add([]byte{})
	f.Add([]byte{byte(OpPushS)})

	f.Fuzz(func(t *testing.T, code []byte) {
		c := New(Config{})
		raw := rawImage([][]byte{[]byte("a")}, code)
		if err := c.LoadImage(raw); err != nil {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("Run panicked on code %x: %v", code, r)
			}
		}()
		_ = c.Run(1000)
	})
}
