// Copyright 2024 The VitteLight Authors
// This file is part of VitteLight.
//
// VitteLight is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package vm implements the VitteLight execution context and instruction
// dispatcher: a single-byte-opcode, stack-based fetch-decode-execute loop
// operating on value.Value over a loaded bytecode.Image.
//
// Unlike a register machine's fixed-width instruction word, VitteLight's
// encoding is variable length: a one-byte opcode optionally followed by an
// inline little-endian operand (i64, f64 bit pattern, u32 constant index,
// or u32+u8 for CallN). See Disassemble for the per-opcode layout.
package vm

import "fmt"

// Opcode is the single-byte instruction code fetched by the dispatcher.
type Opcode uint8

const (
	// OpNop does nothing and consumes no operand.
	OpNop Opcode = iota
	// OpPushI reads an inline i64 and pushes Int.
	OpPushI
	// OpPushF reads an inline f64 bit pattern and pushes Float.
	OpPushF
	// OpPushS reads a u32 constant-pool index and pushes Str.
	OpPushS
	// OpAdd pops two numeric operands, promotes to Float, pushes their sum.
	OpAdd
	// OpSub pops two numeric operands, promotes to Float, pushes their difference.
	OpSub
	// OpMul pops two numeric operands, promotes to Float, pushes their product.
	OpMul
	// OpDiv pops two numeric operands, promotes to Float, pushes their quotient.
	OpDiv
	// OpEq pops two operands and pushes Bool for equality.
	OpEq
	// OpNeq pops two operands and pushes Bool for inequality.
	OpNeq
	// OpLt pops two operands and pushes Bool for less-than.
	OpLt
	// OpGt pops two operands and pushes Bool for greater-than.
	OpGt
	// OpLe pops two operands and pushes Bool for less-or-equal.
	OpLe
	// OpGe pops two operands and pushes Bool for greater-or-equal.
	OpGe
	// OpPrint pops one value and emits its canonical form followed by a newline.
	OpPrint
	// OpPop discards the top-of-stack value.
	OpPop
	// OpStoreG reads a u32 name index, pops a value, and assigns it to that global.
	OpStoreG
	// OpLoadG reads a u32 name index and pushes the named global, or Nil if unset.
	OpLoadG
	// OpCallN reads a u32 name index and a u8 argc, calls the named native, pushes its result.
	OpCallN
	// OpHalt terminates the run.
	OpHalt

	opcodeCount
)

var opcodeNames = [...]string{
	OpNop:    "Nop",
	OpPushI:  "PushI",
	OpPushF:  "PushF",
	OpPushS:  "PushS",
	OpAdd:    "Add",
	OpSub:    "Sub",
	OpMul:    "Mul",
	OpDiv:    "Div",
	OpEq:     "Eq",
	OpNeq:    "Neq",
	OpLt:     "Lt",
	OpGt:     "Gt",
	OpLe:     "Le",
	OpGe:     "Ge",
	OpPrint:  "Print",
	OpPop:    "Pop",
	OpStoreG: "StoreG",
	OpLoadG:  "LoadG",
	OpCallN:  "CallN",
	OpHalt:   "Halt",
}

// String returns the opcode's mnemonic, e.g. "PushI", "CallN".
func (op Opcode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return fmt.Sprintf("Opcode(0x%02x)", uint8(op))
}

// Valid reports whether op is one of the twenty defined opcodes.
func (op Opcode) Valid() bool { return op < opcodeCount }

// Disassemble returns a human-readable listing of code, one instruction per
// line, in the style of the register-machine disassembler this dispatcher
// is adapted from. It never panics on malformed input: once a truncated
// operand is detected it stops and appends a single "<truncated>" marker.
func Disassemble(code []byte) string {
	out := ""
	ip := 0
	for ip < len(code) {
		op := Opcode(code[ip])
		if !op.Valid() {
			out += fmt.Sprintf("[%04d] <bad opcode 0x%02x>\n", ip, code[ip])
			return out
		}
		start := ip
		ip++

		switch op {
		case OpPushI:
			if ip+8 > len(code) {
				out += fmt.Sprintf("[%04d] %-8s <truncated>\n", start, op)
				return out
			}
			v := int64(leU64(code[ip:]))
			out += fmt.Sprintf("[%04d] %-8s %d\n", start, op, v)
			ip += 8
		case OpPushF:
			if ip+8 > len(code) {
				out += fmt.Sprintf("[%04d] %-8s <truncated>\n", start, op)
				return out
			}
			out += fmt.Sprintf("[%04d] %-8s bits=0x%016x\n", start, op, leU64(code[ip:]))
			ip += 8
		case OpPushS, OpStoreG, OpLoadG:
			if ip+4 > len(code) {
				out += fmt.Sprintf("[%04d] %-8s <truncated>\n", start, op)
				return out
			}
			out += fmt.Sprintf("[%04d] %-8s #%d\n", start, op, leU32(code[ip:]))
			ip += 4
		case OpCallN:
			if ip+5 > len(code) {
				out += fmt.Sprintf("[%04d] %-8s <truncated>\n", start, op)
				return out
			}
			name := leU32(code[ip:])
			argc := code[ip+4]
			out += fmt.Sprintf("[%04d] %-8s #%d argc=%d\n", start, op, name, argc)
			ip += 5
		default:
			out += fmt.Sprintf("[%04d] %s\n", start, op)
		}
	}
	return out
}

func leU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func leU64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * uint(i))
	}
	return v
}
