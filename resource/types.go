// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package resource

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Extent is the pixel size of a texture or surface.
type Extent struct {
	Width  uint32
	Height uint32
}

// IsZero reports whether either dimension is zero.
func (e Extent) IsZero() bool {
	return e.Width == 0 || e.Height == 0
}

// String returns "WxH".
func (e Extent) String() string {
	return fmt.Sprintf("%dx%d", e.Width, e.Height)
}

// Extent3D converts e to a single-layer hal extent.
func (e Extent) Extent3D() hal.Extent3D {
	return hal.Extent3D{
		Width:              e.Width,
		Height:             e.Height,
		DepthOrArrayLayers: 1,
	}
}

// Buffer is a GPU buffer tracked by a Registry.
type Buffer struct {
	Label string
	Size  uint64
	Usage gputypes.BufferUsage

	// Raw is nil when the registry has no device.
	Raw hal.Buffer
}

// Texture is a 2D texture tracked by a Registry.
type Texture struct {
	Label       string
	Extent      Extent
	Format      gputypes.TextureFormat
	Usage       gputypes.TextureUsage
	SampleCount uint32

	// Raw and View are nil when the registry has no device.
	Raw  hal.Texture
	View hal.TextureView
}

// SwapSurface is the current presentable image of a window surface.
//
// The registry does not own the view: the windowing layer replaces it each
// frame through [Registry.AcquireSwapSurfaceView].
type SwapSurface struct {
	Label  string
	Extent Extent
	Format gputypes.TextureFormat
	View   hal.TextureView
}

// Handle aliases for the three resource kinds.
type (
	BufferHandle      = Handle[Buffer]
	TextureHandle     = Handle[Texture]
	SwapSurfaceHandle = Handle[SwapSurface]
)

// IsDepthFormat reports whether f has a depth aspect.
func IsDepthFormat(f gputypes.TextureFormat) bool {
	switch f {
	case gputypes.TextureFormatDepth16Unorm,
		gputypes.TextureFormatDepth24Plus,
		gputypes.TextureFormatDepth24PlusStencil8,
		gputypes.TextureFormatDepth32Float,
		gputypes.TextureFormatDepth32FloatStencil8:
		return true
	}
	return false
}

// IsStencilFormat reports whether f has a stencil aspect.
func IsStencilFormat(f gputypes.TextureFormat) bool {
	switch f {
	case gputypes.TextureFormatStencil8,
		gputypes.TextureFormatDepth24PlusStencil8,
		gputypes.TextureFormatDepth32FloatStencil8:
		return true
	}
	return false
}

// IsColorFormat reports whether f has neither a depth nor a stencil aspect.
func IsColorFormat(f gputypes.TextureFormat) bool {
	return f != gputypes.TextureFormatUndefined && !IsDepthFormat(f) && !IsStencilFormat(f)
}
