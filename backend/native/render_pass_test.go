// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"context"
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rendergraph"
	"github.com/gogpu/rendergraph/pipeline"
	"github.com/gogpu/rendergraph/resource"
)

// scene is a device-backed registry with a swap surface, a depth buffer
// and a triangle pipeline.
type scene struct {
	device   hal.Device
	queue    hal.Queue
	reg      *resource.Registry
	swap     resource.SwapSurfaceHandle
	depth    resource.TextureHandle
	vertices resource.BufferHandle
	pipe     *pipeline.Pipeline
}

func newScene(t *testing.T) *scene {
	t.Helper()
	device, queue := createNoopDevice(t)
	reg := resource.NewRegistry(resource.WithDevice(device))
	t.Cleanup(reg.Release)

	extent := resource.Extent{Width: 320, Height: 240}
	backbuffer, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "backbuffer",
		Size:          extent.Extent3D(),
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	view, err := device.CreateTextureView(backbuffer, &hal.TextureViewDescriptor{Label: "backbuffer_view"})
	if err != nil {
		t.Fatalf("CreateTextureView: %v", err)
	}

	swap, err := reg.AddSwapSurface(resource.SwapSurface{
		Label:  "swapchain",
		Extent: extent,
		Format: gputypes.TextureFormatBGRA8Unorm,
		View:   view,
	})
	if err != nil {
		t.Fatalf("AddSwapSurface: %v", err)
	}
	depth, err := reg.CreateTexture(resource.TextureDescriptor{
		Label:  "depth",
		Extent: extent,
		Format: gputypes.TextureFormatDepth24PlusStencil8,
	})
	if err != nil {
		t.Fatalf("CreateTexture depth: %v", err)
	}
	vertices, err := reg.CreateBuffer(resource.BufferDescriptor{
		Label: "vertices",
		Size:  3 * 16,
		Usage: gputypes.BufferUsageVertex,
	})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}

	drv, _ := NewDriver(device)
	vs, fs := testShaders(t, device)
	pipe, err := pipeline.NewBuilder(drv, pipeline.NewCache()).
		AddShader(vs).AddShader(fs).
		AddDefaultColorBlendAttachment().
		AddColorAttachmentFormat(gputypes.TextureFormatBGRA8Unorm).
		SetDepthAttachmentFormat(gputypes.TextureFormatDepth24PlusStencil8).
		Build("triangle", true)
	if err != nil {
		t.Fatalf("Build pipeline: %v", err)
	}
	t.Cleanup(pipe.Destroy)

	return &scene{device: device, queue: queue, reg: reg, swap: swap, depth: depth, vertices: vertices, pipe: pipe}
}

func (s *scene) pass(t *testing.T, record rendergraph.RecordFunc) *rendergraph.Pass {
	t.Helper()
	p, err := rendergraph.NewPassBuilder().
		ReadsFrom(s.vertices).
		WritesTo(rendergraph.SurfaceAttachment(s.swap), rendergraph.ClearColor(gputypes.Color{A: 1})).
		WritesTo(rendergraph.TextureAttachment(s.depth), rendergraph.ClearDepthStencil(1, 0)).
		SetOnRecord(record).
		Build("main", rendergraph.DebugColorBlue)
	if err != nil {
		t.Fatalf("Build pass: %v", err)
	}
	return p
}

func beginEncoder(t *testing.T, device hal.Device) hal.CommandEncoder {
	t.Helper()
	enc, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "test"})
	if err != nil {
		t.Fatalf("CreateCommandEncoder: %v", err)
	}
	if err := enc.BeginEncoding("test"); err != nil {
		t.Fatalf("BeginEncoding: %v", err)
	}
	return enc
}

func TestRenderPassDescriptor(t *testing.T) {
	s := newScene(t)
	p := s.pass(t, nil)

	rd, err := p.Rendering()
	if err != nil {
		t.Fatalf("Rendering: %v", err)
	}
	desc, err := RenderPassDescriptor(rd)
	if err != nil {
		t.Fatalf("RenderPassDescriptor: %v", err)
	}

	if desc.Label != "main" || len(desc.ColorAttachments) != 1 {
		t.Fatalf("desc = %+v", desc)
	}
	c := desc.ColorAttachments[0]
	if c.View == nil || c.LoadOp != gputypes.LoadOpClear || c.ClearValue.A != 1 {
		t.Errorf("color attachment = %+v", c)
	}
	ds := desc.DepthStencilAttachment
	if ds == nil {
		t.Fatal("missing depth-stencil attachment")
	}
	if ds.DepthLoadOp != gputypes.LoadOpClear || ds.DepthClearValue != 1 {
		t.Errorf("depth ops = %v clear %v", ds.DepthLoadOp, ds.DepthClearValue)
	}
	if ds.StencilLoadOp != gputypes.LoadOpClear || ds.StencilStoreOp != gputypes.StoreOpStore {
		t.Errorf("stencil ops = %v/%v", ds.StencilLoadOp, ds.StencilStoreOp)
	}
}

func TestRenderPassDescriptorNeedsViews(t *testing.T) {
	reg := resource.NewRegistry()
	defer reg.Release()
	swap, err := reg.AddSwapSurface(resource.SwapSurface{Label: "headless", Extent: resource.Extent{Width: 4, Height: 4}})
	if err != nil {
		t.Fatalf("AddSwapSurface: %v", err)
	}
	p, err := rendergraph.NewPassBuilder().WritesTo(rendergraph.SurfaceAttachment(swap)).Build("headless", rendergraph.DebugColorNone)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	rd, err := p.Rendering()
	if err != nil {
		t.Fatalf("Rendering: %v", err)
	}
	if _, err := RenderPassDescriptor(rd); !errors.Is(err, ErrNoView) {
		t.Errorf("RenderPassDescriptor error = %v, want ErrNoView", err)
	}
}

func TestRenderPassDescriptorSplitDepthStencil(t *testing.T) {
	s := newScene(t)
	stencil, err := s.reg.CreateTexture(resource.TextureDescriptor{
		Label:  "stencil",
		Extent: resource.Extent{Width: 320, Height: 240},
		Format: gputypes.TextureFormatStencil8,
	})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	depth, err := s.reg.CreateTexture(resource.TextureDescriptor{
		Label:  "depth_only",
		Extent: resource.Extent{Width: 320, Height: 240},
		Format: gputypes.TextureFormatDepth32Float,
	})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}

	p, err := rendergraph.NewPassBuilder().
		WritesTo(rendergraph.SurfaceAttachment(s.swap)).
		WritesTo(rendergraph.TextureAttachment(depth)).
		WritesTo(rendergraph.TextureAttachment(stencil)).
		Build("split", rendergraph.DebugColorNone)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	rd, err := p.Rendering()
	if err != nil {
		t.Fatalf("Rendering: %v", err)
	}
	if _, err := RenderPassDescriptor(rd); !errors.Is(err, ErrSplitDepthStencil) {
		t.Errorf("RenderPassDescriptor error = %v, want ErrSplitDepthStencil", err)
	}
}

func TestRecordPassDraws(t *testing.T) {
	s := newScene(t)
	var setErr error
	p := s.pass(t, func(rec rendergraph.Recorder) {
		setErr = errors.Join(
			rec.SetPipeline(s.pipe),
			rec.SetVertexBuffer(0, s.vertices),
		)
		rec.Draw(3, 1, 0, 0)
	})
	rd, err := p.Rendering()
	if err != nil {
		t.Fatalf("Rendering: %v", err)
	}

	enc := beginEncoder(t, s.device)
	if err := RecordPass(enc, p, rd); err != nil {
		t.Fatalf("RecordPass: %v", err)
	}
	if setErr != nil {
		t.Errorf("recorder calls failed: %v", setErr)
	}
	if _, err := enc.EndEncoding(); err != nil {
		t.Errorf("EndEncoding: %v", err)
	}
}

func TestRecorderErrors(t *testing.T) {
	tests := []struct {
		name    string
		record  func(s *scene, rec rendergraph.Recorder)
		wantErr error
	}{
		{"draw without pipeline", func(_ *scene, rec rendergraph.Recorder) {
			rec.Draw(3, 1, 0, 0)
		}, ErrNilPipeline},
		{"nil pipeline", func(_ *scene, rec rendergraph.Recorder) {
			_ = rec.SetPipeline(nil)
		}, ErrNilPipeline},
		{"bind group index", func(_ *scene, rec rendergraph.Recorder) {
			_ = rec.SetBindGroup(maxBindGroups, "group")
		}, ErrBindGroupIndexOutOfRange},
		{"nil bind group", func(_ *scene, rec rendergraph.Recorder) {
			_ = rec.SetBindGroup(0, nil)
		}, ErrNilBindGroup},
		{"foreign bind group", func(_ *scene, rec rendergraph.Recorder) {
			_ = rec.SetBindGroup(0, 7)
		}, ErrForeignHandle},
		{"expired vertex buffer", func(s *scene, rec rendergraph.Recorder) {
			s.reg.DestroyBuffer(s.vertices)
			_ = rec.SetVertexBuffer(0, s.vertices)
		}, rendergraph.ErrInvalidReference},
		{"index buffer", func(s *scene, rec rendergraph.Recorder) {
			_ = rec.SetPipeline(s.pipe)
			_ = rec.SetIndexBuffer(resource.BufferHandle{}, gputypes.IndexFormatUint16)
		}, rendergraph.ErrInvalidReference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newScene(t)
			p := s.pass(t, func(rec rendergraph.Recorder) { tt.record(s, rec) })
			rd, err := p.Rendering()
			if err != nil {
				t.Fatalf("Rendering: %v", err)
			}
			enc := beginEncoder(t, s.device)
			defer enc.DiscardEncoding()

			if err := RecordPass(enc, p, rd); !errors.Is(err, tt.wantErr) {
				t.Errorf("RecordPass error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecorderAfterEnd(t *testing.T) {
	s := newScene(t)
	p := s.pass(t, nil)
	enc := beginEncoder(t, s.device)
	defer enc.DiscardEncoding()

	rd, err := p.Rendering()
	if err != nil {
		t.Fatalf("Rendering: %v", err)
	}
	desc, err := RenderPassDescriptor(rd)
	if err != nil {
		t.Fatalf("RenderPassDescriptor: %v", err)
	}
	rec := newPassRecorder(p, enc.BeginRenderPass(desc))
	rec.End()
	rec.End()

	if err := rec.SetPipeline(s.pipe); !errors.Is(err, ErrPassEnded) {
		t.Errorf("SetPipeline after End = %v, want ErrPassEnded", err)
	}
	if rec.state.String() != "Ended" {
		t.Errorf("state = %v, want Ended", rec.state)
	}
}

func TestRendererSubmitsGraph(t *testing.T) {
	s := newScene(t)
	g := rendergraph.NewGraph()
	draws := 0
	if err := g.AddPass(s.pass(t, func(rec rendergraph.Recorder) {
		if err := rec.SetPipeline(s.pipe); err != nil {
			t.Errorf("SetPipeline: %v", err)
		}
		rec.Draw(3, 1, 0, 0)
		draws++
	})); err != nil {
		t.Fatalf("AddPass: %v", err)
	}

	r, err := NewRenderer(s.device, s.queue)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}

	first, err := r.Render(context.Background(), g)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	second, err := r.Render(context.Background(), g)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if second <= first {
		t.Errorf("submission indices %d then %d should increase", first, second)
	}
	if draws != 2 {
		t.Errorf("draws = %d, want 2", draws)
	}
	// The noop queue completes synchronously, so the first frame was
	// reclaimed when the second began.
	if r.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", r.Pending())
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if r.Pending() != 0 {
		t.Error("Close should free pending command buffers")
	}
	if _, err := r.Render(context.Background(), g); !errors.Is(err, ErrRendererClosed) {
		t.Errorf("Render after Close = %v, want ErrRendererClosed", err)
	}
}

func TestRendererDiscardsOnError(t *testing.T) {
	s := newScene(t)
	g := rendergraph.NewGraph()
	_ = g.AddPass(s.pass(t, func(rec rendergraph.Recorder) {
		rec.Draw(3, 1, 0, 0)
	}))

	r, _ := NewRenderer(s.device, s.queue)
	defer r.Close()

	if _, err := r.Render(context.Background(), g); !errors.Is(err, ErrNilPipeline) {
		t.Fatalf("Render error = %v, want ErrNilPipeline", err)
	}
	if r.Pending() != 0 {
		t.Error("failed frame must not be submitted")
	}
}

func TestNewRendererRejectsNil(t *testing.T) {
	device, queue := createNoopDevice(t)
	if _, err := NewRenderer(nil, queue); !errors.Is(err, ErrNilDevice) {
		t.Errorf("NewRenderer(nil, q) = %v", err)
	}
	if _, err := NewRenderer(device, nil); !errors.Is(err, ErrNilQueue) {
		t.Errorf("NewRenderer(d, nil) = %v", err)
	}
}
