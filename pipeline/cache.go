// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pipeline

import (
	"encoding/binary"
	"fmt"
	"hash"
	"hash/fnv"
	"math"
	"reflect"
	"sync"
	"sync/atomic"
)

// Cache shares driver pipelines and layouts between Pipelines built from
// identical state.
//
// Entries are reference counted: each Pipeline holds one reference, and
// the driver object is destroyed when the last Pipeline using it is
// destroyed. Driver handles inside the state (shader modules, set layouts,
// render passes) are hashed by identity and must be comparable. An
// identity lives as long as the entries whose key it is part of.
//
// A Cache must only be used with one Driver.
//
// Thread Safety:
// Cache is safe for concurrent use. It uses RWMutex with double-check
// locking for efficient reads and safe writes.
type Cache struct {
	// mu protects pipelines and layouts.
	mu sync.RWMutex

	// pipelines stores driver pipelines indexed by CreateInfo hash.
	pipelines map[uint64]*cacheEntry

	// layouts stores driver layouts indexed by LayoutCreateInfo hash.
	layouts map[uint64]*cacheEntry

	// idMu protects ids.
	idMu   sync.Mutex
	ids    map[any]*handleID
	nextID uint64

	hits   uint64
	misses uint64
}

// cacheEntry is one shared driver object. refs is incremented under the
// read lock and decremented under the write lock.
type cacheEntry struct {
	handle any
	refs   atomic.Int32

	// pins are the driver handles hashed into the entry key.
	pins []any
}

// handleID numbers a driver handle for hashing. refs counts the entries
// and in-flight lookups that hashed it.
type handleID struct {
	id   uint64
	refs int
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		pipelines: make(map[uint64]*cacheEntry),
		layouts:   make(map[uint64]*cacheEntry),
		ids:       make(map[any]*handleID),
	}
}

// acquireLayout returns a shared layout for info, its cache key and a
// function that drops the reference.
func (c *Cache) acquireLayout(driver Driver, info *LayoutCreateInfo) (any, uint64, func(), error) {
	key, pins, err := c.hashLayout(info)
	if err != nil {
		return nil, 0, nil, err
	}
	handle, err := c.acquire(c.layouts, key, pins, func() (any, error) {
		return driver.CreatePipelineLayout(info)
	})
	if err != nil {
		return nil, 0, nil, err
	}
	return handle, key, func() { c.release(c.layouts, key, driver.DestroyPipelineLayout) }, nil
}

// acquirePipeline returns a shared pipeline for info and a function that
// drops the reference. layoutKey identifies the layout info.Layout was
// built from.
func (c *Cache) acquirePipeline(driver Driver, info *CreateInfo, layoutKey uint64) (any, func(), error) {
	key, pins, err := c.hashCreateInfo(info, layoutKey)
	if err != nil {
		return nil, nil, err
	}
	handle, err := c.acquire(c.pipelines, key, pins, func() (any, error) {
		return driver.CreateGraphicsPipeline(info)
	})
	if err != nil {
		return nil, nil, err
	}
	return handle, func() { c.release(c.pipelines, key, driver.DestroyPipeline) }, nil
}

// acquire implements the "get or create" pattern with double-check locking:
//  1. Fast path: RLock, check map, take a reference if found
//  2. Slow path: Lock, double-check, create if needed
//
// pins move into a newly created entry; otherwise they are dropped.
func (c *Cache) acquire(m map[uint64]*cacheEntry, key uint64, pins []any, create func() (any, error)) (any, error) {
	// Fast path: read lock
	c.mu.RLock()
	if e, ok := m[key]; ok {
		e.refs.Add(1)
		c.mu.RUnlock()
		c.unpin(pins)
		atomic.AddUint64(&c.hits, 1)
		return e.handle, nil
	}
	c.mu.RUnlock()

	// Slow path: write lock with double-check
	c.mu.Lock()
	if e, ok := m[key]; ok {
		e.refs.Add(1)
		c.mu.Unlock()
		c.unpin(pins)
		atomic.AddUint64(&c.hits, 1)
		return e.handle, nil
	}

	handle, err := create()
	if err == nil && handle == nil {
		err = ErrNilHandle
	}
	if err != nil {
		c.mu.Unlock()
		c.unpin(pins)
		return nil, err
	}

	e := &cacheEntry{handle: handle, pins: pins}
	e.refs.Store(1)
	m[key] = e
	c.mu.Unlock()
	atomic.AddUint64(&c.misses, 1)

	return handle, nil
}

// release drops one reference and destroys the handle when none remain.
func (c *Cache) release(m map[uint64]*cacheEntry, key uint64, destroy func(any)) {
	c.mu.Lock()
	e, ok := m[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	if e.refs.Add(-1) > 0 {
		c.mu.Unlock()
		return
	}
	delete(m, key)
	c.mu.Unlock()

	destroy(e.handle)
	c.unpin(e.pins)
}

// Stats returns cache statistics.
//
// Returns the number of cache hits and misses across pipelines and
// layouts. These values are read atomically and may not be perfectly
// synchronized.
func (c *Cache) Stats() (hits, misses uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses)
}

// HitRate returns the cache hit rate as a fraction (0.0 to 1.0).
//
// Returns 0.0 if no requests have been made.
func (c *Cache) HitRate() float64 {
	hits, misses := c.Stats()
	total := hits + misses
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total)
}

// Size returns the number of live shared pipelines.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pipelines)
}

// LayoutCount returns the number of live shared layouts.
func (c *Cache) LayoutCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.layouts)
}

// ResetStats zeroes the hit and miss counters.
func (c *Cache) ResetStats() {
	atomic.StoreUint64(&c.hits, 0)
	atomic.StoreUint64(&c.misses, 0)
}

// =============================================================================
// Hashing
// =============================================================================

// pin returns a stable number for a driver handle and holds it until a
// matching unpin. nil maps to 0 and is not held.
func (c *Cache) pin(v any) (uint64, error) {
	if v == nil {
		return 0, nil
	}
	if !reflect.TypeOf(v).Comparable() {
		return 0, fmt.Errorf("%w: driver handle of type %T is not comparable", ErrInvalidArgument, v)
	}
	c.idMu.Lock()
	defer c.idMu.Unlock()
	e, ok := c.ids[v]
	if !ok {
		c.nextID++
		e = &handleID{id: c.nextID}
		c.ids[v] = e
	}
	e.refs++
	return e.id, nil
}

// unpin releases handles taken with pin and forgets the unused ones.
func (c *Cache) unpin(handles []any) {
	if len(handles) == 0 {
		return
	}
	c.idMu.Lock()
	defer c.idMu.Unlock()
	for _, v := range handles {
		e, ok := c.ids[v]
		if !ok {
			continue
		}
		if e.refs--; e.refs <= 0 {
			delete(c.ids, v)
		}
	}
}

// pinnedHandles returns the number of driver handles with a live identity.
func (c *Cache) pinnedHandles() int {
	c.idMu.Lock()
	defer c.idMu.Unlock()
	return len(c.ids)
}

// keyHasher accumulates a cache key. Driver handles are pinned as they
// are written; the first failure is kept in err.
type keyHasher struct {
	c    *Cache
	h    hash.Hash64
	pins []any
	err  error
}

func (c *Cache) newKeyHasher() *keyHasher {
	return &keyHasher{c: c, h: fnv.New64a()}
}

// handle writes the identity of a driver handle.
func (k *keyHasher) handle(v any) {
	if k.err != nil {
		return
	}
	id, err := k.c.pin(v)
	if err != nil {
		k.err = err
		return
	}
	if v != nil {
		k.pins = append(k.pins, v)
	}
	hashWriteUint64(k.h, id)
}

// sum returns the key and its pins, or releases the pins on failure.
func (k *keyHasher) sum() (uint64, []any, error) {
	if k.err != nil {
		k.c.unpin(k.pins)
		return 0, nil, k.err
	}
	return k.h.Sum64(), k.pins, nil
}

// hashLayout computes an FNV-1a hash of a layout description.
// The name is a debug label and is not hashed.
func (c *Cache) hashLayout(info *LayoutCreateInfo) (uint64, []any, error) {
	k := c.newKeyHasher()
	h := k.h

	//nolint:gosec // G115: set layout count is bounded by GPU limits
	hashWriteUint32(h, uint32(len(info.DescriptorSetLayouts)))
	for _, l := range info.DescriptorSetLayouts {
		k.handle(l)
	}
	//nolint:gosec // G115: push constant range count is bounded by GPU limits
	hashWriteUint32(h, uint32(len(info.PushConstantRanges)))
	for _, r := range info.PushConstantRanges {
		hashWriteUint32(h, uint32(r.Stages))
		hashWriteUint32(h, r.Offset)
		hashWriteUint32(h, r.Size)
	}

	return k.sum()
}

// hashCreateInfo computes an FNV-1a hash of everything in info that affects
// the compiled pipeline. The name and the layout handle are excluded;
// layoutKey stands in for the layout.
//
//nolint:gosec // G115: all slice lengths are bounded by GPU limits
func (c *Cache) hashCreateInfo(info *CreateInfo, layoutKey uint64) (uint64, []any, error) {
	k := c.newKeyHasher()
	h := k.h

	hashWriteUint64(h, layoutKey)

	hashWriteUint32(h, uint32(len(info.Stages)))
	for _, s := range info.Stages {
		hashWriteUint32(h, uint32(s.Stage))
		k.handle(s.Module)
		hashWriteString(h, s.EntryPoint)
	}

	if vi := info.VertexInput; vi != nil {
		hashWriteUint32(h, uint32(len(vi.Bindings)))
		for _, b := range vi.Bindings {
			hashWriteUint32(h, b.Binding)
			hashWriteUint64(h, b.Stride)
			hashWriteUint32(h, uint32(b.StepMode))
		}
		hashWriteUint32(h, uint32(len(vi.Attributes)))
		for _, a := range vi.Attributes {
			hashWriteUint32(h, a.Location)
			hashWriteUint32(h, a.Binding)
			hashWriteUint32(h, uint32(a.Format))
			hashWriteUint64(h, a.Offset)
		}
	}

	if ia := info.InputAssembly; ia != nil {
		hashWriteUint32(h, uint32(ia.Topology))
		hashWriteBool(h, ia.PrimitiveRestartEnable)
	}
	if ts := info.Tessellation; ts != nil {
		hashWriteUint32(h, ts.PatchControlPoints)
	}

	if vp := info.Viewport; vp != nil {
		hashWriteUint32(h, uint32(len(vp.Viewports)))
		for _, v := range vp.Viewports {
			hashWriteFloat32(h, v.X)
			hashWriteFloat32(h, v.Y)
			hashWriteFloat32(h, v.Width)
			hashWriteFloat32(h, v.Height)
			hashWriteFloat32(h, v.MinDepth)
			hashWriteFloat32(h, v.MaxDepth)
		}
		hashWriteUint32(h, uint32(len(vp.Scissors)))
		for _, s := range vp.Scissors {
			hashWriteUint32(h, uint32(s.X))
			hashWriteUint32(h, uint32(s.Y))
			hashWriteUint32(h, s.Width)
			hashWriteUint32(h, s.Height)
		}
	}

	if rs := info.Rasterization; rs != nil {
		hashWriteBool(h, rs.DepthClampEnable)
		hashWriteBool(h, rs.RasterizerDiscardEnable)
		hashWriteUint32(h, uint32(rs.PolygonMode))
		hashWriteUint32(h, uint32(rs.CullMode))
		hashWriteUint32(h, uint32(rs.FrontFace))
		hashWriteBool(h, rs.DepthBiasEnable)
		hashWriteFloat32(h, rs.DepthBiasConstant)
		hashWriteFloat32(h, rs.DepthBiasClamp)
		hashWriteFloat32(h, rs.DepthBiasSlope)
		hashWriteFloat32(h, rs.LineWidth)
	}

	if ms := info.Multisample; ms != nil {
		hashWriteUint32(h, ms.Samples)
		hashWriteBool(h, ms.SampleShadingEnable)
		hashWriteFloat32(h, ms.MinSampleShading)
		hashWriteUint32(h, ms.Mask)
		hashWriteBool(h, ms.AlphaToCoverageEnable)
		hashWriteBool(h, ms.AlphaToOneEnable)
	}

	if ds := info.DepthStencil; ds != nil {
		hashWriteBool(h, ds.DepthTestEnable)
		hashWriteBool(h, ds.DepthWriteEnable)
		hashWriteUint32(h, uint32(ds.DepthCompare))
		hashWriteBool(h, ds.StencilTestEnable)
		for _, f := range [2]StencilFaceState{ds.Front, ds.Back} {
			hashWriteUint32(h, uint32(f.Compare))
			hashWriteUint32(h, uint32(f.FailOp))
			hashWriteUint32(h, uint32(f.DepthFailOp))
			hashWriteUint32(h, uint32(f.PassOp))
		}
		hashWriteUint32(h, ds.StencilReadMask)
		hashWriteUint32(h, ds.StencilWriteMask)
		hashWriteFloat32(h, ds.MinDepthBounds)
		hashWriteFloat32(h, ds.MaxDepthBounds)
	}

	if cb := info.ColorBlend; cb != nil {
		hashWriteBool(h, cb.LogicOpEnable)
		hashWriteUint32(h, uint32(cb.LogicOp))
		for _, v := range cb.BlendConstants {
			hashWriteFloat32(h, v)
		}
		hashWriteUint32(h, uint32(len(cb.Attachments)))
		for _, a := range cb.Attachments {
			hashWriteBool(h, a.BlendEnable)
			hashWriteUint32(h, uint32(a.Color.SrcFactor))
			hashWriteUint32(h, uint32(a.Color.DstFactor))
			hashWriteUint32(h, uint32(a.Color.Operation))
			hashWriteUint32(h, uint32(a.Alpha.SrcFactor))
			hashWriteUint32(h, uint32(a.Alpha.DstFactor))
			hashWriteUint32(h, uint32(a.Alpha.Operation))
			hashWriteUint32(h, uint32(a.WriteMask))
		}
	}

	if dy := info.Dynamic; dy != nil {
		hashWriteUint32(h, uint32(len(dy.States)))
		for _, s := range dy.States {
			hashWriteUint32(h, uint32(s))
		}
	}

	if r := info.Rendering; r != nil {
		hashWriteBool(h, true)
		hashWriteUint32(h, uint32(len(r.ColorFormats)))
		for _, f := range r.ColorFormats {
			hashWriteUint32(h, uint32(f))
		}
		hashWriteUint32(h, uint32(r.DepthFormat))
		hashWriteUint32(h, uint32(r.StencilFormat))
	} else {
		hashWriteBool(h, false)
		k.handle(info.RenderPass)
	}

	return k.sum()
}

// hashWriteUint32 writes a uint32 to the hash.
func hashWriteUint32(h hash.Hash64, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, _ = h.Write(buf[:])
}

// hashWriteUint64 writes a uint64 to the hash.
func hashWriteUint64(h hash.Hash64, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, _ = h.Write(buf[:])
}

// hashWriteFloat32 writes the bit pattern of a float32 to the hash.
func hashWriteFloat32(h hash.Hash64, v float32) {
	hashWriteUint32(h, math.Float32bits(v))
}

// hashWriteString writes a length-prefixed string to the hash.
//
//nolint:gosec // G115: entry point names are short
func hashWriteString(h hash.Hash64, s string) {
	hashWriteUint32(h, uint32(len(s)))
	_, _ = h.Write([]byte(s))
}

// hashWriteBool writes a bool to the hash.
func hashWriteBool(h hash.Hash64, v bool) {
	if v {
		_, _ = h.Write([]byte{1})
	} else {
		_, _ = h.Write([]byte{0})
	}
}
