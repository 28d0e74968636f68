// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package resource provides generation-counted handles to GPU resources
// owned by a [Registry].
//
// A [Handle] never extends the lifetime of the resource it points at. When
// the owning table removes a resource the slot generation is bumped, and
// every outstanding handle to that slot reports IsLive() == false from then
// on, even after the slot is reused for a new resource.
//
// Three resource kinds are tracked:
//   - [Buffer]: vertex, index, uniform and storage buffers.
//   - [Texture]: offscreen color, depth and stencil attachments.
//   - [SwapSurface]: the presentable image of a window surface.
//
// Example:
//
//	reg := resource.NewRegistry(resource.WithDevice(device))
//	color, err := reg.CreateTexture(resource.TextureDescriptor{
//	    Label:  "gbuffer_albedo",
//	    Extent: resource.Extent{Width: 1920, Height: 1080},
//	    Format: gputypes.TextureFormatRGBA8Unorm,
//	})
//	...
//	reg.DestroyTexture(color) // color.IsLive() is now false
package resource
