// Copyright 2024 The VitteLight Authors
// This file is part of VitteLight.

package value

import (
	"math/rand"
	"testing"
)

func TestHashNeverZero(t *testing.T) {
	inputs := [][]byte{
		nil, {}, []byte("a"), []byte("hello"), []byte("print"),
	}
	for _, in := range inputs {
		if h := hashBytes(in); h == 0 {
			t.Fatalf("hashBytes(%q) = 0, want non-zero", in)
		}
	}

	// Fuzz a spread of random byte strings; none should hash to zero.
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		b := make([]byte, r.Intn(64))
		r.Read(b)
		if hashBytes(b) == 0 {
			t.Fatalf("hashBytes(%x) = 0, want non-zero", b)
		}
	}
}

func TestStrEqual(t *testing.T) {
	a := NewString([]byte("hello"))
	b := NewString([]byte("hello"))
	c := NewString([]byte("hellx"))

	if !a.Equal(a) {
		t.Error("pointer-equal string must equal itself")
	}
	if !a.Equal(b) {
		t.Error("byte-equal strings must compare equal")
	}
	if a.Equal(c) {
		t.Error("byte-different strings must not compare equal")
	}
	if !a.EqualBytes([]byte("hello")) {
		t.Error("EqualBytes must match identical content")
	}
	if a.EqualBytes([]byte("hellx")) {
		t.Error("EqualBytes must reject differing content")
	}
}

func TestNewStringCopiesInput(t *testing.T) {
	src := []byte("mutate me")
	s := NewString(src)
	src[0] = 'X'
	if s.String() != "mutate me" {
		t.Fatalf("NewString aliased caller's slice: got %q", s.String())
	}
}

func TestStrLenAndBytes(t *testing.T) {
	s := NewString([]byte("abc"))
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	if string(s.Bytes()) != "abc" {
		t.Fatalf("Bytes() = %q, want %q", s.Bytes(), "abc")
	}
}
