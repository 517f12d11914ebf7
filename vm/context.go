// Copyright 2024 The VitteLight Authors
// This file is part of VitteLight.
//
// VitteLight is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package vm

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/vitte-lang/vitte-light/bytecode"
	"github.com/vitte-lang/vitte-light/hashmap"
	"github.com/vitte-lang/vitte-light/value"
)

// defaultStackCapacity is the initial value-stack size spec.md §4.4 mandates.
const defaultStackCapacity = 1024

// LogLevel is one of the two levels the context ever logs at.
type LogLevel string

const (
	LevelLog   LogLevel = "log"
	LevelError LogLevel = "error"
)

// LogHook matches spec.md §6's host log hook contract.
type LogHook func(userData interface{}, level LogLevel, message string)

// AllocHook lets an embedder simulate allocator refusal for the value
// stack, matching spec.md's "fails with Oom if growth refused" contract.
// It is consulted only on stack growth; the hashmap.Map storage behind
// globals/natives is allocated by the Go runtime and would panic (Go's ambient OOM model) rather than returning a
// refusal, so this hook is the one place a host can inject a synthetic Oom
// for testing a plug-in host's error handling.
type AllocHook func(userData interface{}, requestedCapacity int) bool

// Config configures a new Context. The zero Config is valid: it yields the
// default 1024-slot stack, a stderr log hook, no alloc hook (unbounded
// growth), and stdout for Print.
type Config struct {
	InitialStackCapacity int
	LogHook              LogHook
	LogUserData          interface{}
	AllocHook            AllocHook
	AllocUserData        interface{}
	Stdout               io.Writer
}

// Context is the per-embedding execution unit from spec.md §3: owns the
// loaded image, value stack, globals/natives maps, and last-error record.
// A Context is not safe for concurrent use; embedders wanting parallelism
// use one Context per goroutine (spec.md §5).
type Context struct {
	id    string
	image *bytecode.Image
	ip    uint32

	stack []value.Value
	sp    int
	halted bool

	globals hashmap.Map
	natives hashmap.Map

	lastStatus  Status
	lastMessage string

	logHook       LogHook
	logUserData   interface{}
	allocHook     AllocHook
	allocUserData interface{}
	stdout        io.Writer
}

// New creates a fresh, empty Context per cfg.
func New(cfg Config) *Context {
	stackCap := cfg.InitialStackCapacity
	if stackCap <= 0 {
		stackCap = defaultStackCapacity
	}
	stdout := cfg.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	return &Context{
		id:            uuid.New().String(),
		stack:         make([]value.Value, stackCap),
		logHook:       cfg.LogHook,
		logUserData:   cfg.LogUserData,
		allocHook:     cfg.AllocHook,
		allocUserData: cfg.AllocUserData,
		stdout:        stdout,
	}
}

// Destroy releases every resource the Context owns. Go's garbage collector
// reclaims the underlying memory once unreferenced, but Destroy still
// clears every field explicitly: it is the documented point after which no
// method but a fresh New may be called on this Context, matching the
// explicit lifecycle spec.md §4.4 describes, and it drops references
// promptly rather than waiting for the embedder to release the Context
// value itself.
func (c *Context) Destroy() {
	c.image = nil
	c.stack = nil
	c.sp = 0
	c.ip = 0
	c.halted = false
	c.globals = hashmap.Map{}
	c.natives = hashmap.Map{}
	c.lastStatus = Ok
	c.lastMessage = ""
}

// ID returns this context's UUID, generated at New and stable for its
// lifetime. It has no semantic meaning to the dispatcher; it exists so an
// embedder running several contexts can correlate log lines back to a
// particular execution.
func (c *Context) ID() string { return c.id }

// log emits one record through the configured hook, or the default
// "[VL][<level>] <message>\n" stderr writer when no hook is installed. The
// context's correlation ID prefixes the message so a shared log stream
// from multiple contexts stays attributable.
func (c *Context) log(level LogLevel, message string) {
	message = fmt.Sprintf("%s %s", c.id, message)
	if c.logHook != nil {
		c.logHook(c.logUserData, level, message)
		return
	}
	fmt.Fprintf(os.Stderr, "[VL][%s] %s\n", level, message)
}

// setErr records status and the formatted message as the context's
// last-error, logs it at "error", and returns status — the uniform
// propagation policy from spec.md §7.
func (c *Context) setErr(status Status, format string, args ...interface{}) *Error {
	err := newError(status, format, args...)
	c.lastStatus = err.Status
	c.lastMessage = err.Message
	c.log(LevelError, err.Error())
	return err
}

// LastError returns the most recently recorded error, or nil if the
// context is currently in the Ok state.
func (c *Context) LastError() *Error {
	if c.lastStatus == Ok {
		return nil
	}
	return &Error{Status: c.lastStatus, Message: c.lastMessage}
}

// ClearError resets the last-error record to Ok.
func (c *Context) ClearError() {
	c.lastStatus = Ok
	c.lastMessage = ""
}

// SP returns the current stack pointer (number of live values on the stack).
func (c *Context) SP() int { return c.sp }

// StackCap returns the value stack's current capacity.
func (c *Context) StackCap() int { return len(c.stack) }

// IP returns the current instruction pointer.
func (c *Context) IP() uint32 { return c.ip }

// Push appends v to the stack, growing capacity to max(2*cap, 1024) when
// full. Returns a non-nil *Error with status Oom if an installed AllocHook
// refuses the growth.
func (c *Context) Push(v value.Value) *Error {
	if c.sp == len(c.stack) {
		newCap := len(c.stack) * 2
		if newCap < defaultStackCapacity {
			newCap = defaultStackCapacity
		}
		if c.allocHook != nil && !c.allocHook(c.allocUserData, newCap) {
			return c.setErr(Oom, "stack growth to %d slots refused by host allocator", newCap)
		}
		grown := make([]value.Value, newCap)
		copy(grown, c.stack)
		c.stack = grown
	}
	c.stack[c.sp] = v
	c.sp++
	return nil
}

// Pop removes and returns the top-of-stack value. Underflow is absorbed
// defensively by returning Nil, per spec.md §4.4; callers whose opcode
// semantics must reject underflow check SP() first.
func (c *Context) Pop() value.Value {
	if c.sp == 0 {
		return value.NilValue()
	}
	c.sp--
	v := c.stack[c.sp]
	c.stack[c.sp] = value.NilValue()
	return v
}

// Peek returns the value at depth slots from the top (0 is top-of-stack)
// without popping it. ok is false if depth >= SP().
func (c *Context) Peek(depth int) (value.Value, bool) {
	idx := c.sp - 1 - depth
	if idx < 0 || idx >= c.sp {
		return value.NilValue(), false
	}
	return c.stack[idx], true
}

// LoadImage validates and installs raw as the context's program image,
// resetting ip and sp to 0 on success. Any previously loaded image is
// discarded. Failure leaves the context without a loaded image.
func (c *Context) LoadImage(raw []byte) *Error {
	img, err := bytecode.Load(raw)
	if err != nil {
		c.image = nil
		status := BadBytecode
		if errors.Is(err, bytecode.ErrBadArg) {
			status = BadArg
		}
		return c.setErr(status, "%v", err)
	}
	c.image = img
	c.ip = 0
	c.sp = 0
	c.halted = false
	return nil
}

// RegisterNative interns name in the natives map and binds it to fn with
// the given userData. Re-registration under an existing name replaces the
// previous binding.
func (c *Context) RegisterNative(name []byte, fn value.NativeFunc, userData interface{}) *Error {
	if fn == nil {
		return c.setErr(BadArg, "register_native: nil function for %q", name)
	}
	c.natives.Put(value.NewString(name), value.NativeValue(fn, userData))
	return nil
}

// SetGlobal interns name in the globals map and binds it to v, creating or
// overwriting the binding.
func (c *Context) SetGlobal(name []byte, v value.Value) *Error {
	if name == nil {
		return c.setErr(BadArg, "set_global: nil name")
	}
	c.globals.Put(value.NewString(name), v)
	return nil
}

// GetGlobal looks up name by raw bytes, without requiring the caller to
// have interned it first, per spec.md's stack-built probe key allowance.
func (c *Context) GetGlobal(name []byte) (value.Value, bool) {
	return c.globals.GetBytes(name)
}
