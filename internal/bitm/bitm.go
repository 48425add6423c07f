// Copyright 2026 The monado-sub011 Authors. All rights reserved.

// Package bitm defines a growable bitmap used for slot tracking
// (image rings, sync caches and the like).
package bitm

import (
	"unsafe"
)

// Uint represents the granularity of a bitmap.
type Uint interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Bitm is a growable bitmap with custom granularity.
// The zero value is an empty bitmap ready to use.
type Bitm[T Uint] struct {
	s   []T
	rem int
}

// nbit returns the number of bits in T.
func (*Bitm[T]) nbit() int { return int(unsafe.Sizeof(T(0))) * 8 }

// Len returns the number of bits in the map.
func (m *Bitm[_]) Len() int { return len(m.s) * m.nbit() }

// Rem returns the number of unset bits in the map.
func (m *Bitm[_]) Rem() int { return m.rem }

// Count returns the number of set bits in the map.
func (m *Bitm[_]) Count() int { return m.Len() - m.rem }

// Grow resizes the map to contain nplus additional Uints, appended
// as a contiguous range of unset bits. It returns the value of
// m.Len prior to growing. Any value of nplus is valid.
func (m *Bitm[T]) Grow(nplus int) (index int) {
	index = m.Len()
	if nplus > 0 {
		m.rem += nplus * m.nbit()
		m.s = append(m.s, make([]T, nplus)...)
	}
	return
}

// Set sets a given bit.
func (m *Bitm[T]) Set(index int) {
	n := m.nbit()
	i := index / n
	b := T(1) << (index & (n - 1))
	if m.s[i]&b == 0 {
		m.s[i] |= b
		m.rem--
	}
}

// Unset unsets a given bit.
func (m *Bitm[T]) Unset(index int) {
	n := m.nbit()
	i := index / n
	b := T(1) << (index & (n - 1))
	if m.s[i]&b != 0 {
		m.s[i] &^= b
		m.rem++
	}
}

// IsSet checks whether a given bit is set.
func (m *Bitm[T]) IsSet(index int) bool {
	n := m.nbit()
	i := index / n
	b := T(1) << (index & (n - 1))
	return m.s[i]&b != 0
}

// Search attempts to locate an unset bit in the map.
// If ok is true, index is suitable for use in a call to m.Set.
// It fails only when m.Rem() == 0.
func (m *Bitm[T]) Search() (index int, ok bool) {
	if m.rem == 0 {
		return
	}
	for i, x := range m.s {
		if x == ^T(0) {
			continue
		}
		var b int
		for ; x&(1<<b) != 0; b++ {
		}
		index = i*m.nbit() + b
		ok = true
		break
	}
	return
}

// Clear unsets every bit in the map without resizing it.
func (m *Bitm[T]) Clear() {
	for i := range m.s {
		m.s[i] = 0
	}
	m.rem = m.Len()
}
