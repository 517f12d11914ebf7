// Copyright 2024 The VitteLight Authors
// This file is part of VitteLight.
//
// VitteLight is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// VitteLight is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with VitteLight. If not, see <http://www.gnu.org/licenses/>.

// Package value implements the VitteLight tagged-value model and the
// immutable, hashed string object used for interning.
package value

import "github.com/cespare/xxhash/v2"

// Str is an immutable byte sequence with a precomputed, never-zero hash.
// Equality is byte-wise, gated by a cheap length/hash comparison first.
//
// The zero value is not a valid Str; use NewString.
type Str struct {
	bytes []byte
	hash  uint32
}

// NewString copies b and precomputes its hash. The returned object is
// immutable and never aliases the caller's slice, so b may be reused or
// mutated afterwards without affecting the Str.
func NewString(b []byte) *Str {
	cp := make([]byte, len(b))
	copy(cp, b)
	return &Str{bytes: cp, hash: hashBytes(cp)}
}

// hashBytes computes an avalanche-quality 32-bit hash, remapping a zero
// result to 1 so that Hash() == 0 can be used as the sentinel for "not yet
// hashed" by callers that build their own probe keys.
func hashBytes(b []byte) uint32 {
	h := uint32(xxhash.Sum64(b))
	if h == 0 {
		h = 1
	}
	return h
}

// Bytes returns the string's raw bytes. The returned slice must not be
// mutated by the caller.
func (s *Str) Bytes() []byte { return s.bytes }

// Len returns the number of bytes in the string.
func (s *Str) Len() int { return len(s.bytes) }

// Hash returns the precomputed hash. Always non-zero.
func (s *Str) Hash() uint32 { return s.hash }

// String implements fmt.Stringer, returning the verbatim bytes as a string.
func (s *Str) String() string { return string(s.bytes) }

// Equal reports whether s and o hold the same bytes. Pointer identity is
// checked first as a fast path; otherwise length and hash must both match
// before the byte comparison runs.
func (s *Str) Equal(o *Str) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil {
		return false
	}
	if s.hash != o.hash || len(s.bytes) != len(o.bytes) {
		return false
	}
	for i := range s.bytes {
		if s.bytes[i] != o.bytes[i] {
			return false
		}
	}
	return true
}

// EqualBytes reports whether s holds exactly the bytes b, without
// allocating an intermediate Str.
func (s *Str) EqualBytes(b []byte) bool {
	if s == nil {
		return false
	}
	if len(s.bytes) != len(b) {
		return false
	}
	if hashBytes(b) != s.hash {
		return false
	}
	for i := range s.bytes {
		if s.bytes[i] != b[i] {
			return false
		}
	}
	return true
}

// HashBytes exposes the string-hash function for callers that need to
// build a probe key (see hashmap.Map.GetBytes) without allocating a Str.
func HashBytes(b []byte) uint32 { return hashBytes(b) }
