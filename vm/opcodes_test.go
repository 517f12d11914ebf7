// Copyright 2024 The VitteLight Authors
// This file is part of VitteLight.

package vm

import (
	"strings"
	"testing"
)

func TestOpcodeString(t *testing.T) {
	cases := []struct {
		op   Opcode
		want string
	}{
		{OpNop, "Nop"},
		{OpPushI, "PushI"},
		{OpPushF, "PushF"},
		{OpPushS, "PushS"},
		{OpAdd, "Add"},
		{OpSub, "Sub"},
		{OpMul, "Mul"},
		{OpDiv, "Div"},
		{OpEq, "Eq"},
		{OpNeq, "Neq"},
		{OpLt, "Lt"},
		{OpGt, "Gt"},
		{OpLe, "Le"},
		{OpGe, "Ge"},
		{OpPrint, "Print"},
		{OpPop, "Pop"},
		{OpStoreG, "StoreG"},
		{OpLoadG, "LoadG"},
		{OpCallN, "CallN"},
		{OpHalt, "Halt"},
	}
	for _, tc := range cases {
		if got := tc.op.String(); got != tc.want {
			t.Errorf("Opcode(%d).String() = %q, want %q", tc.op, got, tc.want)
		}
	}
}

func TestOpcodeValid(t *testing.T) {
	if !OpHalt.Valid() {
		t.Fatal("OpHalt should be valid")
	}
	if Opcode(255).Valid() {
		t.Fatal("Opcode(255) should not be valid")
	}
}

func TestDisassembleHelloProgram(t *testing.T) {
	code := (&asm{}).
		op(OpPushS).u32(0).
		op(OpCallN).u32(1).u8(1).
		op(OpHalt).
		code()

	out := Disassemble(code)
	for _, want := range []string{"PushS", "#0", "CallN", "#1", "argc=1", "Halt"} {
		if !strings.Contains(out, want) {
			t.Errorf("disassembly missing %q:\n%s", want, out)
		}
	}
}

func TestDisassembleStopsOnBadOpcode(t *testing.T) {
	out := Disassemble([]byte{0xFF})
	if !strings.Contains(out, "bad opcode") {
		t.Errorf("expected bad-opcode marker, got %q", out)
	}
}

func TestDisassembleMarksTruncatedOperand(t *testing.T) {
	out := Disassemble([]byte{byte(OpPushI), 1, 2})
	if !strings.Contains(out, "truncated") {
		t.Errorf("expected truncated marker, got %q", out)
	}
}
