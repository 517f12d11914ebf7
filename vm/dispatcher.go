// Copyright 2024 The VitteLight Authors
// This file is part of VitteLight.
//
// VitteLight is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package vm

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/vitte-lang/vitte-light/value"
)

// Halted reports whether the context's last step executed Halt.
func (c *Context) Halted() bool { return c.halted }

// Step fetches, decodes, and executes exactly one instruction. A nil
// return means the instruction completed normally — including Halt, which
// the caller detects via Halted(), never by inspecting the opcode byte
// itself (spec.md §9's open question on halt/error precedence is resolved
// this way: Step returns the error verbatim on any fault, and only a
// genuinely successful Halt sets the halted flag).
func (c *Context) Step() *Error {
	if c.image == nil {
		return c.setErr(BadArg, "step: no image loaded")
	}
	code := c.image.Code
	if c.ip >= uint32(len(code)) {
		return c.setErr(BadBytecode, "ip %d past end of code (%d bytes)", c.ip, len(code))
	}

	opByte := code[c.ip]
	op := Opcode(opByte)
	if !op.Valid() {
		return c.setErr(BadBytecode, "unknown opcode 0x%02x at ip %d", opByte, c.ip)
	}
	ip := c.ip + 1

	switch op {
	case OpNop:
		c.ip = ip

	case OpPushI:
		bits, nip, err := c.readU64(ip)
		if err != nil {
			return err
		}
		if perr := c.Push(value.IntValue(int64(bits))); perr != nil {
			return perr
		}
		c.ip = nip

	case OpPushF:
		bits, nip, err := c.readU64(ip)
		if err != nil {
			return err
		}
		if perr := c.Push(value.FloatValue(math.Float64frombits(bits))); perr != nil {
			return perr
		}
		c.ip = nip

	case OpPushS:
		idx, nip, err := c.readU32(ip)
		if err != nil {
			return err
		}
		s, serr := c.constStr(idx)
		if serr != nil {
			return serr
		}
		if perr := c.Push(value.StrValue(s)); perr != nil {
			return perr
		}
		c.ip = nip

	case OpAdd, OpSub, OpMul, OpDiv:
		rhs := c.Pop()
		lhs := c.Pop()
		lf, lok := lhs.Numeric()
		rf, rok := rhs.Numeric()
		if !lok || !rok {
			return c.setErr(Runtime, "arithmetic on %s and %s", lhs.Tag(), rhs.Tag())
		}
		var result float64
		switch op {
		case OpAdd:
			result = lf + rf
		case OpSub:
			result = lf - rf
		case OpMul:
			result = lf * rf
		case OpDiv:
			if rf == 0.0 {
				return c.setErr(Runtime, "division by zero")
			}
			result = lf / rf
		}
		if perr := c.Push(value.FloatValue(result)); perr != nil {
			return perr
		}
		c.ip = ip

	case OpEq, OpNeq, OpLt, OpGt, OpLe, OpGe:
		rhs := c.Pop()
		lhs := c.Pop()
		b, cerr := compare(op, lhs, rhs)
		if cerr != nil {
			return c.setErr(Runtime, "%v", cerr)
		}
		if perr := c.Push(value.BoolValue(b)); perr != nil {
			return perr
		}
		c.ip = ip

	case OpPrint:
		v := c.Pop()
		fmt.Fprintln(c.stdout, v.Print())
		c.ip = ip

	case OpPop:
		c.Pop()
		c.ip = ip

	case OpStoreG:
		idx, nip, err := c.readU32(ip)
		if err != nil {
			return err
		}
		name, serr := c.constStr(idx)
		if serr != nil {
			return serr
		}
		c.globals.Put(name, c.Pop())
		c.ip = nip

	case OpLoadG:
		idx, nip, err := c.readU32(ip)
		if err != nil {
			return err
		}
		name, serr := c.constStr(idx)
		if serr != nil {
			return serr
		}
		v, _ := c.globals.Get(name)
		if perr := c.Push(v); perr != nil {
			return perr
		}
		c.ip = nip

	case OpCallN:
		idx, nip, err := c.readU32(ip)
		if err != nil {
			return err
		}
		if nip >= uint32(len(code)) {
			return c.setErr(BadBytecode, "truncated argc operand at ip %d", nip)
		}
		argc := code[nip]
		nip++

		name, serr := c.constStr(idx)
		if serr != nil {
			return serr
		}
		if c.sp < int(argc) {
			return c.setErr(Runtime, "call to %q: argc %d exceeds stack depth %d", name, argc, c.sp)
		}
		nv, ok := c.natives.Get(name)
		if !ok {
			return c.setErr(NotFound, "native %q is not registered", name)
		}

		args := make([]value.Value, argc)
		copy(args, c.stack[c.sp-int(argc):c.sp])

		fn := nv.AsNativeFunc()
		result, callErr := fn(args)

		for i := 0; i < int(argc); i++ {
			c.Pop()
		}
		if callErr != nil {
			return c.setErr(Runtime, "native %q: %v", name, callErr)
		}
		if perr := c.Push(result); perr != nil {
			return perr
		}
		c.ip = nip

	case OpHalt:
		c.ip = ip
		c.halted = true
	}

	return nil
}

// Run repeats Step until Halt, an error, or maxSteps instructions have
// executed (0 means unbounded). Crossing the step limit returns nil
// (Ok) without error, leaving the context positioned to resume on the
// next Run call.
func (c *Context) Run(maxSteps int) *Error {
	steps := 0
	for !c.halted {
		if maxSteps > 0 && steps >= maxSteps {
			return nil
		}
		if err := c.Step(); err != nil {
			return err
		}
		steps++
	}
	return nil
}

// compare implements the Eq/Neq/Lt/Gt/Le/Ge semantics of spec.md §4.5:
// numeric operands promote to Float and compare with IEEE semantics; Str
// operands compare by string-object equality but only under Eq/Neq; any
// other combination is a runtime type error.
func compare(op Opcode, lhs, rhs value.Value) (bool, error) {
	lf, lok := lhs.Numeric()
	rf, rok := rhs.Numeric()
	if lok && rok {
		switch op {
		case OpEq:
			return lf == rf, nil
		case OpNeq:
			return lf != rf, nil
		case OpLt:
			return lf < rf, nil
		case OpGt:
			return lf > rf, nil
		case OpLe:
			return lf <= rf, nil
		case OpGe:
			return lf >= rf, nil
		}
	}
	if lhs.Tag() == value.String && rhs.Tag() == value.String {
		switch op {
		case OpEq:
			return lhs.AsStr().Equal(rhs.AsStr()), nil
		case OpNeq:
			return !lhs.AsStr().Equal(rhs.AsStr()), nil
		}
	}
	return false, fmt.Errorf("comparison on %s and %s", lhs.Tag(), rhs.Tag())
}

// readU32 decodes a little-endian u32 operand starting at ip.
func (c *Context) readU32(ip uint32) (uint32, uint32, *Error) {
	code := c.image.Code
	if uint64(ip)+4 > uint64(len(code)) {
		return 0, ip, c.setErr(BadBytecode, "truncated u32 operand at ip %d", ip)
	}
	return binary.LittleEndian.Uint32(code[ip:]), ip + 4, nil
}

// readU64 decodes a little-endian u64/f64-bit-pattern operand at ip.
func (c *Context) readU64(ip uint32) (uint64, uint32, *Error) {
	code := c.image.Code
	if uint64(ip)+8 > uint64(len(code)) {
		return 0, ip, c.setErr(BadBytecode, "truncated 8-byte operand at ip %d", ip)
	}
	return binary.LittleEndian.Uint64(code[ip:]), ip + 8, nil
}

// constStr resolves a constant-pool index into its interned string,
// failing BadBytecode on an out-of-range index.
func (c *Context) constStr(idx uint32) (*value.Str, *Error) {
	if idx >= uint32(len(c.image.Strings)) {
		return nil, c.setErr(BadBytecode, "constant pool index %d out of range (pool size %d)", idx, len(c.image.Strings))
	}
	return c.image.Strings[idx], nil
}
