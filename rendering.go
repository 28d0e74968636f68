package rendergraph

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rendergraph/resource"
)

// AttachmentInfo is one compiled attachment of a RenderingDescriptor.
type AttachmentInfo struct {
	Attachment Attachment
	Format     gputypes.TextureFormat

	// View is the texture view resolved at compile time. It is nil for
	// resources registered without a device.
	View hal.TextureView

	LoadOp  gputypes.LoadOp
	StoreOp gputypes.StoreOp
	Clear   ClearValue
}

// RenderingDescriptor describes the attachments of a pass for the driver.
type RenderingDescriptor struct {
	Label            string
	Extent           resource.Extent
	ColorAttachments []AttachmentInfo

	// Depth and Stencil are nil when the pass has no such attachment.
	// A combined depth-stencil texture fills both.
	Depth   *AttachmentInfo
	Stencil *AttachmentInfo
}

// compileLocked rebuilds p.rendering from p.writes. The caller holds p.mu.
func (p *Pass) compileLocked() error {
	// Resolve everything first so a failure leaves the previous
	// descriptor untouched.
	targets := make([]target, len(p.writes))
	for i, w := range p.writes {
		t, ok := w.Attachment.resolve()
		if !ok {
			return fmt.Errorf("pass %q: %w: %s attachment %d expired before compilation",
				p.name, ErrInvalidReference, w.Attachment.Kind(), i)
		}
		if t.extent != p.extent {
			return &ExtentMismatchError{Pass: p.name, Attachment: t.label, Want: p.extent, Got: t.extent}
		}
		targets[i] = t
	}

	colors := p.colors[:0]
	var depth, stencil *AttachmentInfo

	for i, w := range p.writes {
		t := targets[i]
		info := AttachmentInfo{
			Attachment: w.Attachment,
			Format:     t.format,
			View:       t.view,
			LoadOp:     gputypes.LoadOpLoad,
			StoreOp:    gputypes.StoreOpStore,
		}
		if w.Clear != nil {
			info.LoadOp = gputypes.LoadOpClear
			info.Clear = *w.Clear
		}

		// Swap surfaces are always color targets.
		isDepth := w.Attachment.Kind() == AttachmentTexture && resource.IsDepthFormat(t.format)
		isStencil := w.Attachment.Kind() == AttachmentTexture && resource.IsStencilFormat(t.format)
		if !isDepth && !isStencil {
			colors = append(colors, info)
			continue
		}

		routed := false
		if isDepth && depth == nil {
			p.depth = info
			depth = &p.depth
			routed = true
		}
		if isStencil && stencil == nil {
			p.stencil = info
			stencil = &p.stencil
			routed = true
		}
		if !routed {
			Logger().Warn("rendergraph: extra depth/stencil attachment ignored",
				"pass", p.name, "attachment", t.label, "format", t.format)
		}
	}

	p.rendering = RenderingDescriptor{
		Label:            p.name,
		Extent:           p.extent,
		ColorAttachments: colors,
		Depth:            depth,
		Stencil:          stencil,
	}
	p.colors = colors
	p.compiled = true
	return nil
}
