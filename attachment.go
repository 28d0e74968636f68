package rendergraph

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rendergraph/resource"
)

// AttachmentKind identifies what an Attachment renders into.
type AttachmentKind uint8

const (
	// AttachmentTexture is an offscreen texture owned by the registry.
	AttachmentTexture AttachmentKind = iota + 1

	// AttachmentSwapSurface is the presentable image of a window surface.
	AttachmentSwapSurface
)

// String returns a human-readable kind name.
func (k AttachmentKind) String() string {
	switch k {
	case AttachmentTexture:
		return "Texture"
	case AttachmentSwapSurface:
		return "SwapSurface"
	default:
		return "Unknown"
	}
}

// Attachment is a texture or swap surface written by a pass.
//
// The zero Attachment is invalid. Use TextureAttachment or
// SurfaceAttachment to construct one.
type Attachment struct {
	kind    AttachmentKind
	texture resource.TextureHandle
	surface resource.SwapSurfaceHandle
}

// TextureAttachment returns an attachment writing into a texture.
func TextureAttachment(h resource.TextureHandle) Attachment {
	return Attachment{kind: AttachmentTexture, texture: h}
}

// SurfaceAttachment returns an attachment writing into a swap surface.
func SurfaceAttachment(h resource.SwapSurfaceHandle) Attachment {
	return Attachment{kind: AttachmentSwapSurface, surface: h}
}

// Kind returns the attachment kind.
func (a Attachment) Kind() AttachmentKind { return a.kind }

// Texture returns the texture handle if a is a texture attachment.
func (a Attachment) Texture() (resource.TextureHandle, bool) {
	return a.texture, a.kind == AttachmentTexture
}

// Surface returns the swap-surface handle if a is a swap-surface attachment.
func (a Attachment) Surface() (resource.SwapSurfaceHandle, bool) {
	return a.surface, a.kind == AttachmentSwapSurface
}

// IsLive reports whether the referenced resource still exists.
func (a Attachment) IsLive() bool {
	switch a.kind {
	case AttachmentTexture:
		return a.texture.IsLive()
	case AttachmentSwapSurface:
		return a.surface.IsLive()
	default:
		return false
	}
}

// target is the resolved state of an attachment at one point in time.
type target struct {
	label  string
	extent resource.Extent
	format gputypes.TextureFormat
	view   hal.TextureView
}

// resolve reads the current state of the referenced resource.
func (a Attachment) resolve() (target, bool) {
	switch a.kind {
	case AttachmentTexture:
		tex, ok := a.texture.Get()
		if !ok {
			return target{}, false
		}
		return target{label: tex.Label, extent: tex.Extent, format: tex.Format, view: tex.View}, true
	case AttachmentSwapSurface:
		s, ok := a.surface.Get()
		if !ok {
			return target{}, false
		}
		return target{label: s.Label, extent: s.Extent, format: s.Format, view: s.View}, true
	default:
		return target{}, false
	}
}

// ClearValue is the value an attachment is cleared to when a pass begins.
// Color applies to color attachments, Depth and Stencil to depth-stencil
// attachments.
type ClearValue struct {
	Color   gputypes.Color
	Depth   float32
	Stencil uint32
}

// ClearColor returns a clear value for a color attachment.
func ClearColor(c gputypes.Color) ClearValue {
	return ClearValue{Color: c}
}

// ClearDepthStencil returns a clear value for a depth or stencil attachment.
func ClearDepthStencil(depth float32, stencil uint32) ClearValue {
	return ClearValue{Depth: depth, Stencil: stencil}
}

// AttachmentWrite is one attachment written by a pass. Clear is nil when
// the previous contents are loaded.
type AttachmentWrite struct {
	Attachment Attachment
	Clear      *ClearValue
}
