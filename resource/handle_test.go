// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package resource

import (
	"sync"
	"testing"
)

func TestZeroHandleIsNotLive(t *testing.T) {
	var h Handle[Buffer]
	if h.IsLive() {
		t.Error("zero handle should not be live")
	}
	if !h.IsZero() {
		t.Error("zero handle should report IsZero")
	}
	if _, ok := h.Get(); ok {
		t.Error("Get on zero handle should fail")
	}
}

func TestTableInsertGetRemove(t *testing.T) {
	tbl := NewTable[string]()

	a := tbl.Insert("a")
	b := tbl.Insert("b")

	if tbl.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tbl.Len())
	}
	if v, ok := a.Get(); !ok || v != "a" {
		t.Errorf("a.Get() = %q, %v; want \"a\", true", v, ok)
	}

	v, ok := tbl.Remove(a)
	if !ok || v != "a" {
		t.Fatalf("Remove(a) = %q, %v; want \"a\", true", v, ok)
	}
	if a.IsLive() {
		t.Error("removed handle should not be live")
	}
	if !b.IsLive() {
		t.Error("unrelated handle should stay live")
	}
	if _, ok := tbl.Remove(a); ok {
		t.Error("second Remove should fail")
	}
	if tbl.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tbl.Len())
	}
}

func TestSlotReuseBumpsGeneration(t *testing.T) {
	tbl := NewTable[int]()

	old := tbl.Insert(1)
	tbl.Remove(old)
	fresh := tbl.Insert(2)

	if fresh.Index() != old.Index() {
		t.Fatalf("expected slot reuse: old index %d, new index %d", old.Index(), fresh.Index())
	}
	if fresh.Generation() == old.Generation() {
		t.Fatal("reused slot must have a new generation")
	}
	if old.IsLive() {
		t.Error("stale handle must not resolve to the new occupant")
	}
	if v, ok := fresh.Get(); !ok || v != 2 {
		t.Errorf("fresh.Get() = %d, %v; want 2, true", v, ok)
	}
}

func TestHandleFromOtherTable(t *testing.T) {
	t1 := NewTable[int]()
	t2 := NewTable[int]()
	h := t1.Insert(7)
	t2.Insert(8)

	if _, ok := t2.Get(h); ok {
		t.Error("handle from another table must not resolve")
	}
	if _, ok := t2.Remove(h); ok {
		t.Error("handle from another table must not be removable")
	}
}

func TestTableUpdate(t *testing.T) {
	tbl := NewTable[Extent]()
	h := tbl.Insert(Extent{Width: 1, Height: 1})

	if !tbl.Update(h, func(e *Extent) { e.Width = 640 }) {
		t.Fatal("Update on live handle should succeed")
	}
	if got, _ := h.Get(); got.Width != 640 {
		t.Errorf("Width = %d, want 640", got.Width)
	}

	tbl.Remove(h)
	called := false
	if tbl.Update(h, func(*Extent) { called = true }) {
		t.Error("Update on expired handle should fail")
	}
	if called {
		t.Error("Update must not call fn for an expired handle")
	}
}

func TestTableHandles(t *testing.T) {
	tbl := NewTable[int]()
	a := tbl.Insert(1)
	b := tbl.Insert(2)
	c := tbl.Insert(3)
	tbl.Remove(b)

	got := tbl.Handles()
	if len(got) != 2 {
		t.Fatalf("Handles() returned %d handles, want 2", len(got))
	}
	if got[0] != a || got[1] != c {
		t.Errorf("Handles() = %v, want [%v %v]", got, a, c)
	}
}

func TestTableConcurrentLiveness(t *testing.T) {
	tbl := NewTable[int]()
	handles := make([]Handle[int], 64)
	for i := range handles {
		handles[i] = tbl.Insert(i)
	}

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, h := range handles {
				_ = h.IsLive()
			}
		}()
	}
	for i := 0; i < len(handles); i += 2 {
		tbl.Remove(handles[i])
	}
	wg.Wait()

	if tbl.Len() != 32 {
		t.Errorf("Len() = %d, want 32", tbl.Len())
	}
}
