// Copyright 2024 The VitteLight Authors
// This file is part of VitteLight.

// Package vlog implements a host log hook in the format described in
// spec.md §6/§4.4: a leveled logger that writes
// "[VL][<level>] <message>\n" to the host's error stream. It is used only
// where installed as vm.Config.LogHook (as cmd/vlrun does); a Context
// without a hook writes the same format to stderr itself.
package vlog

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/go-stack/stack"

	"github.com/vitte-lang/vitte-light/vm"
)

// Level is one of the two levels the dispatcher is specified to use:
// "log" for diagnostics, "error" for recorded failures.
type Level string

const (
	LevelLog   Level = "log"
	LevelError Level = "error"
)

// Hook is an alias for vm.LogHook, not just a lookalike: a value of this
// type is a vm.Config.LogHook, so it can be installed directly without an
// adapter closure at the call site.
type Hook = vm.LogHook

// Logger is the default, configuration-struct-based log sink: spec.md's
// design notes call for a per-context configuration rather than a
// process-global callback, so embedders construct one Logger per Context
// (or share one across contexts they trust to log from a single thread).
type Logger struct {
	mu      sync.Mutex
	out     io.Writer
	caller  bool // capture and print the caller frame for error-level records
}

// New returns a Logger writing to w. If w is nil, os.Stderr is used,
// matching spec.md's "host's error stream" default.
func New(w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{out: w, caller: true}
}

// Hook returns a vm.LogHook bound to l, suitable for vm.Config.LogHook
// directly. userData is ignored by the default logger; it exists so the
// hook signature matches the embedder contract when a custom hook needs it.
func (l *Logger) Hook() Hook {
	return func(_ interface{}, level vm.LogLevel, message string) {
		l.Log(Level(level), message)
	}
}

// Log writes one formatted record. Error-level records additionally carry
// the immediate caller's frame (file:line), mirroring the caller-aware
// logger the teacher's own log package builds on go-stack/stack.
func (l *Logger) Log(level Level, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level == LevelError && l.caller {
		frame := callerFrame(3)
		fmt.Fprintf(l.out, "[VL][%s] %s (%s)\n", level, message, frame)
		return
	}
	fmt.Fprintf(l.out, "[VL][%s] %s\n", level, message)
}

// callerFrame renders the Go source location skip frames up the stack,
// used to annotate error records the way spec.md's default log hook
// format allows ("may emit others for diagnostic builds").
func callerFrame(skip int) string {
	trace := stack.Trace().TrimRuntime()
	if len(trace) <= skip {
		return "unknown"
	}
	return fmt.Sprintf("%+v", trace[skip])
}
