// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package resource

import "sync"

// Handle is a non-owning reference to a value stored in a [Table].
//
// A Handle is an (index, generation) pair bound to the table that issued
// it. It stays valid until the table removes the value; after that the slot
// generation no longer matches and IsLive reports false. The zero Handle is
// never live.
//
// Handles are small values and are meant to be copied freely.
type Handle[T any] struct {
	table      *Table[T]
	index      uint32
	generation uint32
}

// IsLive reports whether the referenced value still exists.
func (h Handle[T]) IsLive() bool {
	if h.table == nil {
		return false
	}
	return h.table.contains(h)
}

// Get returns a copy of the referenced value.
// The boolean is false if the handle is expired or zero.
func (h Handle[T]) Get() (T, bool) {
	if h.table == nil {
		var zero T
		return zero, false
	}
	return h.table.Get(h)
}

// Index returns the slot index. Useful as a stable debug identifier.
func (h Handle[T]) Index() uint32 { return h.index }

// Generation returns the slot generation the handle was issued for.
func (h Handle[T]) Generation() uint32 { return h.generation }

// IsZero reports whether h is the zero Handle.
func (h Handle[T]) IsZero() bool { return h.table == nil }

// slot is one entry of a Table. generation is bumped on every removal.
type slot[T any] struct {
	value      T
	generation uint32
	occupied   bool
}

// Table is a generation-counted arena.
//
// Removed slots are recycled through a free list. Recycling bumps the slot
// generation so handles to the previous occupant stay expired.
//
// Table is safe for concurrent use: liveness checks may run on recording
// goroutines while the owning thread inserts or removes values.
type Table[T any] struct {
	mu    sync.RWMutex
	slots []slot[T]
	free  []uint32
	count int
}

// NewTable creates an empty table.
func NewTable[T any]() *Table[T] {
	return &Table[T]{}
}

// Insert stores v and returns a live handle to it.
func (t *Table[T]) Insert(v T) Handle[T] {
	t.mu.Lock()
	defer t.mu.Unlock()

	var idx uint32
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		//nolint:gosec // G115: slot count is bounded by the number of live GPU resources
		idx = uint32(len(t.slots))
		// Generation starts at 1 so a zero-valued handle never matches.
		t.slots = append(t.slots, slot[T]{generation: 1})
	}

	s := &t.slots[idx]
	s.value = v
	s.occupied = true
	t.count++

	return Handle[T]{table: t, index: idx, generation: s.generation}
}

// Remove deletes the value referenced by h and returns it.
// Returns false if h is expired or belongs to another table.
func (t *Table[T]) Remove(h Handle[T]) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var zero T
	if !t.matchLocked(h) {
		return zero, false
	}

	s := &t.slots[h.index]
	v := s.value
	s.value = zero
	s.occupied = false
	s.generation++
	t.free = append(t.free, h.index)
	t.count--

	return v, true
}

// Get returns a copy of the value referenced by h.
func (t *Table[T]) Get(h Handle[T]) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.matchLocked(h) {
		var zero T
		return zero, false
	}
	return t.slots[h.index].value, true
}

// Update applies fn to the value referenced by h in place.
// Returns false without calling fn if h is expired.
func (t *Table[T]) Update(h Handle[T], fn func(*T)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.matchLocked(h) {
		return false
	}
	fn(&t.slots[h.index].value)
	return true
}

// Len returns the number of live values.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.count
}

// Handles returns live handles for every stored value in slot order.
func (t *Table[T]) Handles() []Handle[T] {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Handle[T], 0, t.count)
	for i := range t.slots {
		s := &t.slots[i]
		if s.occupied {
			//nolint:gosec // G115: bounded by slot count
			out = append(out, Handle[T]{table: t, index: uint32(i), generation: s.generation})
		}
	}
	return out
}

func (t *Table[T]) contains(h Handle[T]) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.matchLocked(h)
}

// matchLocked reports whether h refers to a current occupant of t.
// The caller must hold t.mu.
func (t *Table[T]) matchLocked(h Handle[T]) bool {
	if h.table != t || int(h.index) >= len(t.slots) {
		return false
	}
	s := &t.slots[h.index]
	return s.occupied && s.generation == h.generation
}
