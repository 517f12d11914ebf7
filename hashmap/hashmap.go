// Copyright 2024 The VitteLight Authors
// This file is part of VitteLight.
//
// VitteLight is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package hashmap implements the open-addressed, linear-probing,
// tombstone-aware map from interned string keys to values that VitteLight
// uses uniformly for globals, the native registry, and the intern pool.
//
// The probing algorithm, tombstone bookkeeping, and 70% load-factor rehash
// rule are a precisely specified, directly testable contract (spec.md §4.2,
// §8); no third-party map type exposes this exact algorithm, so this
// package is a deliberate hand-rolled exception to "prefer a library" (see
// DESIGN.md).
package hashmap

import "github.com/vitte-lang/vitte-light/value"

// slotState is the three-variant tag for a map slot, per spec.md's design
// note preferring an explicit state over sentinel-pointer tricks.
type slotState uint8

const (
	slotEmpty slotState = iota
	slotOccupied
	slotTombstone
)

type slot struct {
	state slotState
	key   *value.Str
	val   value.Value
}

// Map is the open-addressed hash map described in spec.md §3/§4.2.
// The zero value is an empty, uninitialized map; Get/Del on it behave as
// specified for capacity 0, and Put lazily allocates via Init.
type Map struct {
	slots     []slot
	occupied  int
	tombs     int
}

// minCapacity is the smallest capacity Init/Rehash will allocate.
const minCapacity = 8

// Init allocates a fresh backing array sized to the next power of two
// greater than or equal to the requested capacity (at least 8).
// Calling Init on a non-empty map discards its contents.
func (m *Map) Init(capacity int) {
	c := nextPow2(capacity)
	if c < minCapacity {
		c = minCapacity
	}
	m.slots = make([]slot, c)
	m.occupied = 0
	m.tombs = 0
}

// Len returns the number of live (occupied) entries.
func (m *Map) Len() int { return m.occupied }

// Cap returns the current backing capacity (0 for an uninitialized map).
func (m *Map) Cap() int { return len(m.slots) }

// Get returns the value stored under key and whether it was found.
func (m *Map) Get(key *value.Str) (value.Value, bool) {
	if len(m.slots) == 0 || key == nil {
		return value.NilValue(), false
	}
	idx, found := m.find(key)
	if !found {
		return value.NilValue(), false
	}
	return m.slots[idx].val, true
}

// GetBytes looks up a key by raw bytes without requiring the caller to have
// already interned it, per spec.md's "stack-built probe key" allowance for
// get_global. No allocation is performed on a miss or a hit.
func (m *Map) GetBytes(keyBytes []byte) (value.Value, bool) {
	if len(m.slots) == 0 {
		return value.NilValue(), false
	}
	h := value.HashBytes(keyBytes)
	mask := uint32(len(m.slots) - 1)
	idx := h & mask
	for {
		s := &m.slots[idx]
		switch s.state {
		case slotEmpty:
			return value.NilValue(), false
		case slotOccupied:
			if s.key.Hash() == h && s.key.EqualBytes(keyBytes) {
				return s.val, true
			}
		}
		idx = (idx + 1) & mask
	}
}

// Put upserts value under key, triggering a rehash first if the resulting
// load factor (occupied+tombstones) would exceed 70%. Put never fails in
// this Go implementation (allocation failure surfaces as a Go panic via the
// runtime allocator, matching Go's ambient OOM model; it is not mapped onto
// an Oom status — vm.Context synthesizes Oom only for value-stack growth
// refused by its AllocHook).
func (m *Map) Put(key *value.Str, v value.Value) {
	if len(m.slots) == 0 {
		m.Init(minCapacity)
	}
	if (m.occupied+m.tombs+1)*100/len(m.slots) > 70 {
		m.Rehash(len(m.slots) * 2)
	}
	m.insert(key, v)
}

// insert performs the actual slot placement without checking load factor;
// callers must ensure capacity first. Used by Put and by Rehash.
func (m *Map) insert(key *value.Str, v value.Value) {
	mask := uint32(len(m.slots) - 1)
	idx := key.Hash() & mask
	tombIdx := -1
	for {
		s := &m.slots[idx]
		switch s.state {
		case slotEmpty:
			target := idx
			if tombIdx >= 0 {
				target = uint32(tombIdx)
				m.tombs--
			} else {
				m.occupied++
			}
			m.slots[target] = slot{state: slotOccupied, key: key, val: v}
			return
		case slotTombstone:
			if tombIdx < 0 {
				tombIdx = int(idx)
			}
		case slotOccupied:
			if s.key.Equal(key) {
				s.val = v
				return
			}
		}
		idx = (idx + 1) & mask
	}
}

// Del converts the slot holding key into a tombstone and reports whether a
// live key was removed.
func (m *Map) Del(key *value.Str) bool {
	if len(m.slots) == 0 || key == nil {
		return false
	}
	idx, found := m.find(key)
	if !found {
		return false
	}
	m.slots[idx] = slot{state: slotTombstone}
	m.occupied--
	m.tombs++
	return true
}

// find locates the slot holding key, returning its index and true on a hit.
func (m *Map) find(key *value.Str) (uint32, bool) {
	mask := uint32(len(m.slots) - 1)
	idx := key.Hash() & mask
	for {
		s := &m.slots[idx]
		switch s.state {
		case slotEmpty:
			return 0, false
		case slotOccupied:
			if s.key.Equal(key) {
				return idx, true
			}
		}
		idx = (idx + 1) & mask
	}
}

// Rehash allocates fresh storage sized to the next power of two greater
// than or equal to newCapacity (at least minCapacity), re-inserts every
// occupied entry, and drops all tombstones.
func (m *Map) Rehash(newCapacity int) {
	c := nextPow2(newCapacity)
	if c < minCapacity {
		c = minCapacity
	}
	old := m.slots
	m.slots = make([]slot, c)
	m.occupied = 0
	m.tombs = 0
	for _, s := range old {
		if s.state == slotOccupied {
			m.insert(s.key, s.val)
		}
	}
}

// Each calls fn for every live entry, in slot order. Iteration order is
// unspecified beyond "live slots only" and is not stable across rehashes;
// callers needing deterministic output (e.g. a CLI dump) should sort by key.
func (m *Map) Each(fn func(key *value.Str, v value.Value)) {
	for _, s := range m.slots {
		if s.state == slotOccupied {
			fn(s.key, s.val)
		}
	}
}

// nextPow2 returns the smallest power of two >= n (minimum 1).
func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
