// Copyright 2024 The VitteLight Authors
// This file is part of VitteLight.

package hashmap

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vitte-lang/vitte-light/value"
)

func key(s string) *value.Str { return value.NewString([]byte(s)) }

func TestEmptyMap(t *testing.T) {
	var m Map
	_, ok := m.Get(key("x"))
	require.False(t, ok, "Get on empty map must signal absence")
	require.False(t, m.Del(key("x")), "Del on empty map must return false")
}

func TestPutGetDelRoundTrip(t *testing.T) {
	var m Map
	k := key("x")
	m.Put(k, value.IntValue(42))

	got, ok := m.Get(k)
	require.True(t, ok)
	require.Equal(t, int64(42), got.AsInt())

	require.True(t, m.Del(k))
	_, ok = m.Get(k)
	require.False(t, ok, "Get after Del must signal absence")
}

func TestPutOverwrite(t *testing.T) {
	var m Map
	k := key("x")
	m.Put(k, value.IntValue(1))
	m.Put(k, value.IntValue(2))
	require.Equal(t, 1, m.Len(), "overwrite must not grow the live count")
	got, ok := m.Get(k)
	require.True(t, ok)
	require.Equal(t, int64(2), got.AsInt())
}

func TestGetBytesMatchesGet(t *testing.T) {
	var m Map
	m.Put(key("hello"), value.IntValue(7))

	got, ok := m.GetBytes([]byte("hello"))
	require.True(t, ok)
	require.Equal(t, int64(7), got.AsInt())

	_, ok = m.GetBytes([]byte("missing"))
	require.False(t, ok)
}

func TestLoadFactorNeverExceeds70PercentAfterPut(t *testing.T) {
	var m Map
	for i := 0; i < 1000; i++ {
		m.Put(key(fmt.Sprintf("k%d", i)), value.IntValue(int64(i)))
		loadPct := (m.occupied + m.tombs) * 100 / m.Cap()
		require.LessOrEqual(t, loadPct, 70, "load factor exceeded 70%% at i=%d", i)
	}
}

func TestRehashDropsTombstones(t *testing.T) {
	var m Map
	for i := 0; i < 20; i++ {
		m.Put(key(fmt.Sprintf("k%d", i)), value.IntValue(int64(i)))
	}
	for i := 0; i < 20; i += 2 {
		m.Del(key(fmt.Sprintf("k%d", i)))
	}
	require.Greater(t, m.tombs, 0, "expected tombstones before rehash")
	m.Rehash(m.Cap() * 2)
	require.Equal(t, 0, m.tombs, "Rehash must drop all tombstones")

	for i := 1; i < 20; i += 2 {
		got, ok := m.Get(key(fmt.Sprintf("k%d", i)))
		require.True(t, ok, "surviving key k%d missing after rehash", i)
		require.Equal(t, int64(i), got.AsInt())
	}
}

// TestMapStress implements spec.md §8's "Map stress" concrete scenario:
// insert 10,000 distinct keys, delete every other, re-insert 5,000 new
// keys, and assert the live count matches the set-theoretic size, no
// deleted key is observable, every live key holds its value, and the
// final capacity is a power of two.
func TestMapStress(t *testing.T) {
	var m Map
	const n = 10000

	live := map[string]int64{}
	for i := 0; i < n; i++ {
		k := fmt.Sprintf("key-%d", i)
		m.Put(key(k), value.IntValue(int64(i)))
		live[k] = int64(i)
	}

	deleted := map[string]bool{}
	for i := 0; i < n; i += 2 {
		k := fmt.Sprintf("key-%d", i)
		require.True(t, m.Del(key(k)))
		delete(live, k)
		deleted[k] = true
	}

	for i := 0; i < 5000; i++ {
		k := fmt.Sprintf("new-%d", i)
		m.Put(key(k), value.IntValue(int64(1_000_000+i)))
		live[k] = int64(1_000_000 + i)
	}

	require.Equal(t, len(live), m.Len(), "live count must equal set-theoretic size")

	for k := range deleted {
		_, ok := m.Get(key(k))
		require.False(t, ok, "deleted key %q observable after stress sequence", k)
	}
	for k, want := range live {
		got, ok := m.Get(key(k))
		require.True(t, ok, "live key %q missing", k)
		require.Equal(t, want, got.AsInt())
	}

	// Rehashing only ever doubles, so capacity must still be a power of two.
	require.Equal(t, m.Cap(), nextPow2(m.Cap()), "capacity must be a power of two")
}

func TestPutDelRandomSequencePreservesInvariant(t *testing.T) {
	var m Map
	r := rand.New(rand.NewSource(42))
	shadow := map[string]value.Value{}

	for i := 0; i < 20000; i++ {
		k := fmt.Sprintf("k%d", r.Intn(500))
		if r.Intn(3) == 0 {
			m.Del(key(k))
			delete(shadow, k)
			continue
		}
		v := value.IntValue(int64(i))
		m.Put(key(k), v)
		shadow[k] = v

		if m.Cap() > 0 {
			loadPct := (m.occupied + m.tombs) * 100 / m.Cap()
			require.LessOrEqual(t, loadPct, 70)
		}
	}

	require.Equal(t, len(shadow), m.Len())
	for k, want := range shadow {
		got, ok := m.Get(key(k))
		require.True(t, ok)
		require.Equal(t, want.AsInt(), got.AsInt())
	}
}
