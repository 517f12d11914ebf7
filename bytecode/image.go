// Copyright 2024 The VitteLight Authors
// This file is part of VitteLight.
//
// VitteLight is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package bytecode parses and validates the VitteLight program image
// format (magic, version, constant-string pool, code) described in
// spec.md §4.3, and materialises it into an Image the vm package can load.
package bytecode

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/vitte-lang/vitte-light/value"
)

// magic is the 4-byte ASCII image header.
var magic = [4]byte{'V', 'L', 'B', 'C'}

// supportedVersion is the only version byte this loader accepts.
const supportedVersion = 1

// Sentinel errors mirror the closed vm.Status taxonomy at the package
// boundary; vm.Context.LoadImage maps these onto vm.BadBytecode/vm.BadArg so
// the embedder-visible error code is exactly as spec.md §4.3 specifies.
var (
	// ErrBadArg is returned for null/undersized input, independent of
	// image structure.
	ErrBadArg = errors.New("bytecode: bad argument")
	// ErrBadBytecode is returned for any structural violation of the
	// image grammar: bad magic, unsupported version, or truncation.
	ErrBadBytecode = errors.New("bytecode: malformed image")
)

// Image is the materialised, owned result of a successful Load: the
// constant-string pool and a private copy of the code buffer. An Image
// owns every Str in its pool for the lifetime of the Image.
type Image struct {
	Strings []*value.Str
	Code    []byte
}

// Load validates and parses raw image bytes per spec.md §4.3's grammar:
//
//	magic(4) version(1) stringCount(4) strings... codeSize(4) code...
//
// All multi-byte integers are little-endian. Strings are not
// NUL-terminated; lengths are explicit. Code length must equal the
// declared size exactly, with no trailing bytes.
//
// On any failure the returned Image is nil; Load never returns a partially
// populated Image.
func Load(raw []byte) (*Image, error) {
	if raw == nil || len(raw) < 5 {
		return nil, fmt.Errorf("%w: image shorter than header (%d bytes)", ErrBadArg, len(raw))
	}

	if [4]byte{raw[0], raw[1], raw[2], raw[3]} != magic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrBadBytecode, raw[0:4])
	}
	version := raw[4]
	if version != supportedVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadBytecode, version)
	}

	off := 5
	strCount, off, err := readU32(raw, off)
	if err != nil {
		return nil, err
	}

	strs := make([]*value.Str, 0, strCount)
	for i := uint32(0); i < strCount; i++ {
		var strLen uint32
		strLen, off, err = readU32(raw, off)
		if err != nil {
			return nil, fmt.Errorf("%w: truncated length prefix for string %d", ErrBadBytecode, i)
		}
		if uint64(off)+uint64(strLen) > uint64(len(raw)) {
			return nil, fmt.Errorf("%w: truncated data for string %d (want %d bytes)", ErrBadBytecode, i, strLen)
		}
		strs = append(strs, value.NewString(raw[off:off+int(strLen)]))
		off += int(strLen)
	}

	codeSize, off, err := readU32(raw, off)
	if err != nil {
		return nil, fmt.Errorf("%w: truncated code-size field", ErrBadBytecode)
	}
	if uint64(off)+uint64(codeSize) != uint64(len(raw)) {
		return nil, fmt.Errorf("%w: code size %d does not match remaining %d bytes", ErrBadBytecode, codeSize, len(raw)-off)
	}

	code := make([]byte, codeSize)
	copy(code, raw[off:])

	return &Image{Strings: strs, Code: code}, nil
}

// readU32 reads a little-endian u32 at off, returning the advanced offset.
func readU32(raw []byte, off int) (uint32, int, error) {
	if off+4 > len(raw) {
		return 0, off, fmt.Errorf("%w: truncated u32 field at offset %d", ErrBadBytecode, off)
	}
	return binary.LittleEndian.Uint32(raw[off:]), off + 4, nil
}

// Encode is the inverse of Load, used by tests to build images from
// constant strings and a code buffer.
func Encode(strs [][]byte, code []byte) []byte {
	out := make([]byte, 0, 5+4+len(code))
	out = append(out, magic[:]...)
	out = append(out, supportedVersion)
	out = appendU32(out, uint32(len(strs)))
	for _, s := range strs {
		out = appendU32(out, uint32(len(s)))
		out = append(out, s...)
	}
	out = appendU32(out, uint32(len(code)))
	out = append(out, code...)
	return out
}

func appendU32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}
