// Copyright 2024 The VitteLight Authors
// This file is part of VitteLight.

package bytecode

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/holiman/bloomfilter/v2"
	"golang.org/x/crypto/sha3"

	"github.com/vitte-lang/vitte-light/value"
)

// Cache is an opt-in, content-addressed accelerator in front of Load. It
// changes nothing about validation: a cache hit still returns a freshly
// materialised Image with its own owned string pool and code copy, never a
// shared one. Embedders that load the same plug-in image repeatedly
// (hot-reload, many short-lived contexts sharing one binary) can skip
// re-validating and re-copying byte-identical input.
//
// A Cache is safe for concurrent use by multiple goroutines even though a
// single vm.Context is not: the cache itself holds no VM state, only
// parsed Images keyed by content digest.
type Cache struct {
	mu     sync.Mutex
	filter *bloomfilter.Filter
	store  *fastcache.Cache

	// decoded holds the actual materialised Image for each digest.
	// fastcache fronts this with an eviction-aware presence marker sized
	// to maxBytes; decoded itself is the source of truth for cache hits.
	// Entries are never removed from decoded: when fastcache has evicted a
	// digest's marker, the next Load of that image re-validates it and
	// replaces its entry.
	decoded map[[32]byte]*Image
}

// digestHash adapts a SHA3-256 digest's first 8 bytes to hash.Hash64 so it
// can drive bloomfilter.Filter, which hashes its own keys internally via
// Sum64 and ignores Write/Sum/Reset for a precomputed digest like this one.
type digestHash uint64

func (digestHash) Write(p []byte) (int, error) { return len(p), nil }
func (digestHash) Sum(b []byte) []byte         { return b }
func (digestHash) Reset()                      {}
func (digestHash) Size() int                   { return 8 }
func (digestHash) BlockSize() int              { return 8 }
func (h digestHash) Sum64() uint64             { return uint64(h) }

func bloomKey(d [32]byte) digestHash {
	return digestHash(binary.BigEndian.Uint64(d[:8]))
}

// NewCache creates a Cache with the given fastcache byte budget. A bloom
// filter sized for expectedImages entries with a 1% false-positive rate
// sits in front of the cache so a never-before-seen image never pays for a
// fastcache probe.
func NewCache(maxBytes int, expectedImages uint64) (*Cache, error) {
	if expectedImages == 0 {
		expectedImages = 1024
	}
	filter, err := bloomfilter.NewOptimal(expectedImages, 0.01)
	if err != nil {
		return nil, fmt.Errorf("%w: bloom filter init: %v", ErrBadArg, err)
	}
	return &Cache{
		filter:  filter,
		store:   fastcache.New(maxBytes),
		decoded: make(map[[32]byte]*Image),
	}, nil
}

// digest returns the SHA3-256 content address of raw.
func digest(raw []byte) [32]byte {
	return sha3.Sum256(raw)
}

// Load returns a cached Image for raw's content digest if present,
// otherwise calls bytecode.Load, caches the result, and returns it.
func (c *Cache) Load(raw []byte) (*Image, error) {
	d := digest(raw)
	key := bloomKey(d)

	c.mu.Lock()
	if c.filter.Contains(key) {
		if _, ok := c.store.HasGet(nil, d[:]); ok {
			if img, ok := c.decoded[d]; ok {
				c.mu.Unlock()
				return cloneImage(img), nil
			}
		}
	}
	c.mu.Unlock()

	img, err := Load(raw)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.filter.Add(key)
	c.decoded[d] = img
	c.store.Set(d[:], []byte{1}) // presence marker; decoded map holds the data
	c.mu.Unlock()

	return cloneImage(img), nil
}

// cloneImage returns an independently owned copy of img so cache hits never
// let two contexts share mutable string/code state.
func cloneImage(img *Image) *Image {
	strs := make([]*value.Str, len(img.Strings))
	for i, s := range img.Strings {
		strs[i] = value.NewString(s.Bytes())
	}
	code := make([]byte, len(img.Code))
	copy(code, img.Code)
	return &Image{Strings: strs, Code: code}
}
