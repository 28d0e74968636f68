// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package resource

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// RegistryOption configures a Registry.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	device hal.Device
}

// WithDevice makes the registry allocate hal buffers, textures and views
// for the resources it creates. Without a device only metadata is tracked.
func WithDevice(device hal.Device) RegistryOption {
	return func(o *registryOptions) {
		o.device = device
	}
}

// Registry owns the resource tables that handles point into.
//
// All methods are safe for concurrent use.
type Registry struct {
	device hal.Device

	buffers  *Table[Buffer]
	textures *Table[Texture]
	surfaces *Table[SwapSurface]

	mu       sync.Mutex
	released bool
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	var o registryOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Registry{
		device:   o.device,
		buffers:  NewTable[Buffer](),
		textures: NewTable[Texture](),
		surfaces: NewTable[SwapSurface](),
	}
}

// Device returns the hal device, or nil for a metadata-only registry.
func (r *Registry) Device() hal.Device { return r.device }

// Buffers returns the buffer table.
func (r *Registry) Buffers() *Table[Buffer] { return r.buffers }

// Textures returns the texture table.
func (r *Registry) Textures() *Table[Texture] { return r.textures }

// SwapSurfaces returns the swap-surface table.
func (r *Registry) SwapSurfaces() *Table[SwapSurface] { return r.surfaces }

// =============================================================================
// Buffers
// =============================================================================

// BufferDescriptor describes a buffer to create.
type BufferDescriptor struct {
	Label string
	Size  uint64
	Usage gputypes.BufferUsage
}

// CreateBuffer registers a buffer, allocating it on the device if present.
func (r *Registry) CreateBuffer(desc BufferDescriptor) (BufferHandle, error) {
	if desc.Size == 0 {
		return BufferHandle{}, fmt.Errorf("create buffer %q: %w", desc.Label, ErrZeroSize)
	}

	buf := Buffer{Label: desc.Label, Size: desc.Size, Usage: desc.Usage}
	if r.device != nil {
		raw, err := r.device.CreateBuffer(&hal.BufferDescriptor{
			Label: desc.Label,
			Size:  desc.Size,
			Usage: desc.Usage,
		})
		if err != nil {
			return BufferHandle{}, fmt.Errorf("create buffer %q: %w", desc.Label, err)
		}
		buf.Raw = raw
	}

	h := r.buffers.Insert(buf)
	slogger().Debug("resource: buffer created", "label", desc.Label, "size", desc.Size)
	return h, nil
}

// DestroyBuffer releases the buffer and expires every handle to it.
// Returns false if h was already expired.
func (r *Registry) DestroyBuffer(h BufferHandle) bool {
	buf, ok := r.buffers.Remove(h)
	if !ok {
		return false
	}
	if r.device != nil && buf.Raw != nil {
		r.device.DestroyBuffer(buf.Raw)
	}
	return true
}

// =============================================================================
// Textures
// =============================================================================

// TextureDescriptor describes a 2D texture to create.
type TextureDescriptor struct {
	Label  string
	Extent Extent
	Format gputypes.TextureFormat

	// Usage defaults to TextureUsageRenderAttachment when zero.
	Usage gputypes.TextureUsage

	// SampleCount defaults to 1 when zero.
	SampleCount uint32
}

// CreateTexture registers a texture, allocating it and a default view on
// the device if present.
func (r *Registry) CreateTexture(desc TextureDescriptor) (TextureHandle, error) {
	if desc.Extent.IsZero() {
		return TextureHandle{}, fmt.Errorf("create texture %q (%s): %w", desc.Label, desc.Extent, ErrZeroExtent)
	}
	if desc.Usage == 0 {
		desc.Usage = gputypes.TextureUsageRenderAttachment
	}
	if desc.SampleCount == 0 {
		desc.SampleCount = 1
	}

	tex := Texture{
		Label:       desc.Label,
		Extent:      desc.Extent,
		Format:      desc.Format,
		Usage:       desc.Usage,
		SampleCount: desc.SampleCount,
	}

	if r.device != nil {
		raw, err := r.device.CreateTexture(&hal.TextureDescriptor{
			Label:         desc.Label,
			Size:          desc.Extent.Extent3D(),
			MipLevelCount: 1,
			SampleCount:   desc.SampleCount,
			Dimension:     gputypes.TextureDimension2D,
			Format:        desc.Format,
			Usage:         desc.Usage,
		})
		if err != nil {
			return TextureHandle{}, fmt.Errorf("create texture %q: %w", desc.Label, err)
		}

		view, err := r.device.CreateTextureView(raw, &hal.TextureViewDescriptor{
			Label: desc.Label + "_view",
		})
		if err != nil {
			r.device.DestroyTexture(raw)
			return TextureHandle{}, fmt.Errorf("create texture view %q: %w", desc.Label, err)
		}
		tex.Raw = raw
		tex.View = view
	}

	h := r.textures.Insert(tex)
	slogger().Debug("resource: texture created",
		"label", desc.Label, "extent", desc.Extent.String(), "format", desc.Format)
	return h, nil
}

// DestroyTexture releases the texture and its view and expires every
// handle to it. Returns false if h was already expired.
func (r *Registry) DestroyTexture(h TextureHandle) bool {
	tex, ok := r.textures.Remove(h)
	if !ok {
		return false
	}
	r.destroyTexture(&tex)
	return true
}

func (r *Registry) destroyTexture(tex *Texture) {
	if r.device == nil {
		return
	}
	if tex.View != nil {
		r.device.DestroyTextureView(tex.View)
	}
	if tex.Raw != nil {
		r.device.DestroyTexture(tex.Raw)
	}
}

// =============================================================================
// Swap surfaces
// =============================================================================

// NewSwapSurface registers a swap surface whose format is taken from the
// host's device provider.
func (r *Registry) NewSwapSurface(provider gpucontext.DeviceProvider, label string, extent Extent) (SwapSurfaceHandle, error) {
	if provider == nil {
		return SwapSurfaceHandle{}, ErrNilProvider
	}
	return r.AddSwapSurface(SwapSurface{
		Label:  label,
		Extent: extent,
		Format: provider.SurfaceFormat(),
	})
}

// AddSwapSurface registers a swap surface described by s.
func (r *Registry) AddSwapSurface(s SwapSurface) (SwapSurfaceHandle, error) {
	if s.Extent.IsZero() {
		return SwapSurfaceHandle{}, fmt.Errorf("add swap surface %q (%s): %w", s.Label, s.Extent, ErrZeroExtent)
	}
	h := r.surfaces.Insert(s)
	slogger().Debug("resource: swap surface added",
		"label", s.Label, "extent", s.Extent.String(), "format", s.Format)
	return h, nil
}

// AcquireSwapSurfaceView sets the view for the frame being recorded.
func (r *Registry) AcquireSwapSurfaceView(h SwapSurfaceHandle, view hal.TextureView) error {
	if !r.surfaces.Update(h, func(s *SwapSurface) { s.View = view }) {
		return ErrExpiredHandle
	}
	return nil
}

// ResizeSwapSurface updates the surface extent after a window resize.
// Passes already built against the old extent keep their own copy.
func (r *Registry) ResizeSwapSurface(h SwapSurfaceHandle, extent Extent) error {
	if extent.IsZero() {
		return fmt.Errorf("resize swap surface to %s: %w", extent, ErrZeroExtent)
	}
	if !r.surfaces.Update(h, func(s *SwapSurface) { s.Extent = extent }) {
		return ErrExpiredHandle
	}
	return nil
}

// DestroySwapSurface expires every handle to the surface.
// The view is owned by the windowing layer and is not destroyed.
func (r *Registry) DestroySwapSurface(h SwapSurfaceHandle) bool {
	_, ok := r.surfaces.Remove(h)
	return ok
}

// =============================================================================
// Lifetime
// =============================================================================

// Release destroys every resource still registered. It is safe to call
// more than once.
func (r *Registry) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return
	}
	r.released = true

	var nb, nt, ns int
	for _, h := range r.buffers.Handles() {
		if r.DestroyBuffer(h) {
			nb++
		}
	}
	for _, h := range r.textures.Handles() {
		if r.DestroyTexture(h) {
			nt++
		}
	}
	for _, h := range r.surfaces.Handles() {
		if r.DestroySwapSurface(h) {
			ns++
		}
	}

	slogger().Debug("resource: registry released",
		slog.Int("buffers", nb), slog.Int("textures", nt), slog.Int("surfaces", ns))
}
