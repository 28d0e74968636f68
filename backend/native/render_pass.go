// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rendergraph"
	"github.com/gogpu/rendergraph/pipeline"
	"github.com/gogpu/rendergraph/resource"
)

// RenderPassDescriptor converts a compiled rendering descriptor into a HAL
// render pass descriptor. Every attachment must have a texture view.
func RenderPassDescriptor(rd *rendergraph.RenderingDescriptor) (*hal.RenderPassDescriptor, error) {
	desc := &hal.RenderPassDescriptor{
		Label:            rd.Label,
		ColorAttachments: make([]hal.RenderPassColorAttachment, len(rd.ColorAttachments)),
	}

	for i := range rd.ColorAttachments {
		a := &rd.ColorAttachments[i]
		if a.View == nil {
			return nil, fmt.Errorf("pass %q: %w: color attachment %d", rd.Label, ErrNoView, i)
		}
		desc.ColorAttachments[i] = hal.RenderPassColorAttachment{
			View:       a.View,
			LoadOp:     a.LoadOp,
			StoreOp:    a.StoreOp,
			ClearValue: a.Clear.Color,
		}
	}

	if rd.Depth == nil && rd.Stencil == nil {
		return desc, nil
	}

	// Views are not compared: backends may hand out equal values for
	// distinct views.
	if rd.Depth != nil && rd.Stencil != nil && rd.Depth.Attachment != rd.Stencil.Attachment {
		return nil, fmt.Errorf("pass %q: %w", rd.Label, ErrSplitDepthStencil)
	}

	ds := &hal.RenderPassDepthStencilAttachment{}
	if d := rd.Depth; d != nil {
		if d.View == nil {
			return nil, fmt.Errorf("pass %q: %w: depth attachment", rd.Label, ErrNoView)
		}
		ds.View = d.View
		ds.DepthLoadOp = d.LoadOp
		ds.DepthStoreOp = d.StoreOp
		ds.DepthClearValue = d.Clear.Depth
	}
	if s := rd.Stencil; s != nil {
		if s.View == nil {
			return nil, fmt.Errorf("pass %q: %w: stencil attachment", rd.Label, ErrNoView)
		}
		ds.View = s.View
		ds.StencilLoadOp = s.LoadOp
		ds.StencilStoreOp = s.StoreOp
		ds.StencilClearValue = s.Clear.Stencil
	}
	desc.DepthStencilAttachment = ds
	return desc, nil
}

// RecordPass begins a render pass on encoder from rd, runs the pass
// callback and ends the pass. It returns the first error reported by a
// recorder method.
func RecordPass(encoder hal.CommandEncoder, p *rendergraph.Pass, rd *rendergraph.RenderingDescriptor) error {
	desc, err := RenderPassDescriptor(rd)
	if err != nil {
		return err
	}

	rec := newPassRecorder(p, encoder.BeginRenderPass(desc))
	p.Record(rec)
	rec.End()

	rendergraph.Logger().Debug("native: pass recorded",
		"pass", p.Name(),
		"colors", len(desc.ColorAttachments),
		"depth_stencil", desc.DepthStencilAttachment != nil,
		"draws", rec.draws)
	return rec.Err()
}

// recorderState is the lifecycle of a passRecorder.
type recorderState int

const (
	recorderRecording recorderState = iota
	recorderEnded
)

// String returns the state name.
func (s recorderState) String() string {
	switch s {
	case recorderRecording:
		return "Recording"
	case recorderEnded:
		return "Ended"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// passRecorder implements rendergraph.Recorder on a HAL render pass.
//
// The first failure is kept and reported by Err; later draws are dropped
// so a pass with a missing pipeline or buffer never reaches the GPU half
// bound. Not safe for concurrent use.
//
// State machine:
//
//	Recording -> End() -> Ended
type passRecorder struct {
	pass    *rendergraph.Pass
	encoder hal.RenderPassEncoder
	state   recorderState
	err     error

	hasPipeline bool
	draws       int
}

var _ rendergraph.Recorder = (*passRecorder)(nil)

func newPassRecorder(p *rendergraph.Pass, encoder hal.RenderPassEncoder) *passRecorder {
	return &passRecorder{pass: p, encoder: encoder}
}

// Pass returns the pass being recorded.
func (r *passRecorder) Pass() *rendergraph.Pass { return r.pass }

// Err returns the first recording error.
func (r *passRecorder) Err() error { return r.err }

// End ends the HAL render pass. Calling End twice is a no-op.
func (r *passRecorder) End() {
	if r.state == recorderEnded {
		return
	}
	r.encoder.End()
	r.state = recorderEnded
}

// check reports whether commands may still be recorded.
func (r *passRecorder) check() error {
	if r.state == recorderEnded {
		return ErrPassEnded
	}
	return nil
}

func (r *passRecorder) fail(err error) error {
	if r.err == nil {
		r.err = fmt.Errorf("pass %q: %w", r.pass.Name(), err)
	}
	return err
}

// SetPipeline binds p. p must have been built by a native Driver.
func (r *passRecorder) SetPipeline(p *pipeline.Pipeline) error {
	if err := r.check(); err != nil {
		return r.fail(err)
	}
	if p == nil || p.IsDestroyed() {
		return r.fail(ErrNilPipeline)
	}
	rp, ok := p.Handle().(hal.RenderPipeline)
	if !ok || rp == nil {
		return r.fail(fmt.Errorf("%w: pipeline %q is %T", ErrForeignHandle, p.Name(), p.Handle()))
	}
	r.encoder.SetPipeline(rp)
	r.hasPipeline = true
	return nil
}

// SetBindGroup binds a hal.BindGroup at index.
func (r *passRecorder) SetBindGroup(index uint32, group any) error {
	if err := r.check(); err != nil {
		return r.fail(err)
	}
	if index >= maxBindGroups {
		return r.fail(ErrBindGroupIndexOutOfRange)
	}
	if group == nil {
		return r.fail(ErrNilBindGroup)
	}
	bg, ok := group.(hal.BindGroup)
	if !ok || bg == nil {
		return r.fail(fmt.Errorf("%w: bind group is %T", ErrForeignHandle, group))
	}
	r.encoder.SetBindGroup(index, bg, nil)
	return nil
}

// SetVertexBuffer binds buf to slot.
func (r *passRecorder) SetVertexBuffer(slot uint32, buf resource.BufferHandle) error {
	if err := r.check(); err != nil {
		return r.fail(err)
	}
	raw, err := rawBuffer(buf, ErrNilVertexBuffer)
	if err != nil {
		return r.fail(err)
	}
	r.encoder.SetVertexBuffer(slot, raw, 0)
	return nil
}

// SetIndexBuffer binds buf as the index buffer.
func (r *passRecorder) SetIndexBuffer(buf resource.BufferHandle, format gputypes.IndexFormat) error {
	if err := r.check(); err != nil {
		return r.fail(err)
	}
	raw, err := rawBuffer(buf, ErrNilIndexBuffer)
	if err != nil {
		return r.fail(err)
	}
	r.encoder.SetIndexBuffer(raw, format, 0)
	return nil
}

// Draw records a non-indexed draw. It is dropped after an earlier failure
// or when no pipeline is bound.
func (r *passRecorder) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	if !r.canDraw() {
		return
	}
	r.encoder.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
	r.draws++
}

// DrawIndexed records an indexed draw. It is dropped after an earlier
// failure or when no pipeline is bound.
func (r *passRecorder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	if !r.canDraw() {
		return
	}
	r.encoder.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
	r.draws++
}

func (r *passRecorder) canDraw() bool {
	if err := r.check(); err != nil {
		r.fail(err)
		return false
	}
	if r.err != nil {
		return false
	}
	if !r.hasPipeline {
		r.fail(ErrNilPipeline)
		return false
	}
	return true
}

// rawBuffer resolves a handle to its HAL buffer.
func rawBuffer(h resource.BufferHandle, errNil error) (hal.Buffer, error) {
	buf, ok := h.Get()
	if !ok {
		return nil, fmt.Errorf("%w: buffer", rendergraph.ErrInvalidReference)
	}
	if buf.Raw == nil {
		return nil, fmt.Errorf("%w: %q", errNil, buf.Label)
	}
	return buf.Raw, nil
}
