// Command passdemo builds a two-pass render graph and records it on the
// noop HAL device.
//
// It exercises the whole stack without a GPU: resource registration,
// pass building, pipeline building with a shared cache, rendering
// descriptor compilation, and per-frame submission.
//
// Usage:
//
//	passdemo -width 1280 -height 720 -frames 3 -v
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/rendergraph"
	"github.com/gogpu/rendergraph/backend/native"
	"github.com/gogpu/rendergraph/pipeline"
	"github.com/gogpu/rendergraph/resource"
)

const shaderWGSL = `
@vertex
fn vs_main(@builtin(vertex_index) idx: u32) -> @builtin(position) vec4<f32> {
    var pos = array<vec2<f32>, 3>(
        vec2<f32>(0.0, 0.5),
        vec2<f32>(-0.5, -0.5),
        vec2<f32>(0.5, -0.5),
    );
    return vec4<f32>(pos[idx], 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(0.9, 0.4, 0.1, 1.0);
}
`

func main() {
	var (
		width   = flag.Uint("width", 1280, "surface width")
		height  = flag.Uint("height", 720, "surface height")
		frames  = flag.Int("frames", 3, "frames to record")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	rendergraph.SetLogger(logger)

	if err := run(logger, resource.Extent{Width: uint32(*width), Height: uint32(*height)}, *frames); err != nil {
		log.Fatalf("passdemo: %v", err)
	}
}

func run(logger *slog.Logger, extent resource.Extent, frames int) error {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		return err
	}
	defer instance.Destroy()

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return native.ErrNilDevice
	}
	logger.Info("adapter selected", "name", adapters[0].Info.Name)

	dev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		return err
	}
	defer dev.Device.Destroy()

	reg := resource.NewRegistry(resource.WithDevice(dev.Device))
	defer reg.Release()

	swap, backbuffer, releaseSwap, err := newSwapSurface(dev.Device, reg, extent)
	if err != nil {
		return err
	}
	defer releaseSwap()

	hdr, err := reg.CreateTexture(resource.TextureDescriptor{
		Label:  "hdr",
		Extent: extent,
		Format: gputypes.TextureFormatRGBA16Float,
		Usage:  gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return err
	}
	depth, err := reg.CreateTexture(resource.TextureDescriptor{
		Label:  "depth",
		Extent: extent,
		Format: gputypes.TextureFormatDepth24PlusStencil8,
	})
	if err != nil {
		return err
	}

	drv, err := native.NewDriver(dev.Device)
	if err != nil {
		return err
	}
	shaders, err := native.NewShaderProgram(dev.Device, "triangle", shaderWGSL, "vs_main", "fs_main")
	if err != nil {
		return err
	}
	defer shaders.Destroy()

	cache := pipeline.NewCache()
	pb := pipeline.NewBuilder(drv, cache, pipeline.WithLabelPrefix("passdemo/"))

	scenePipe, err := pb.SetShaders(shaders.Stages()).
		AddDefaultColorBlendAttachment().
		AddColorAttachmentFormat(gputypes.TextureFormatRGBA16Float).
		SetDepthAttachmentFormat(gputypes.TextureFormatDepth24PlusStencil8).
		SetDepthStencil(pipeline.DepthStencilState{
			DepthTestEnable:  true,
			DepthWriteEnable: true,
			DepthCompare:     gputypes.CompareFunctionLess,
		}).
		SetViewportExtent(extent.Width, extent.Height).
		SetScissorExtent(extent.Width, extent.Height).
		Build("scene", true)
	if err != nil {
		return err
	}
	defer scenePipe.Destroy()

	presentPipe, err := pb.SetShaders(shaders.Stages()).
		AddDefaultColorBlendAttachment().
		AddColorAttachmentFormat(gputypes.TextureFormatBGRA8Unorm).
		Build("present", true)
	if err != nil {
		return err
	}
	defer presentPipe.Destroy()

	scene, err := rendergraph.NewPassBuilder().
		WritesTo(rendergraph.TextureAttachment(hdr), rendergraph.ClearColor(gputypes.Color{R: 0.05, G: 0.05, B: 0.1, A: 1})).
		WritesTo(rendergraph.TextureAttachment(depth), rendergraph.ClearDepthStencil(1, 0)).
		SetOnRecord(drawTriangle(scenePipe)).
		Build("scene", rendergraph.DebugColorRed)
	if err != nil {
		return err
	}
	present, err := rendergraph.NewPassBuilder().
		WritesTo(rendergraph.SurfaceAttachment(swap)).
		SetOnRecord(drawTriangle(presentPipe)).
		Build("present", rendergraph.DebugColorGreen)
	if err != nil {
		return err
	}

	graph := rendergraph.NewGraph()
	for _, p := range []*rendergraph.Pass{scene, present} {
		if err := graph.AddPass(p); err != nil {
			return err
		}
	}

	renderer, err := native.NewRenderer(dev.Device, dev.Queue)
	if err != nil {
		return err
	}
	defer renderer.Close()

	ctx := context.Background()
	for frame := range frames {
		// A real swap chain hands out a new view every frame.
		if err := reg.AcquireSwapSurfaceView(swap, backbuffer); err != nil {
			return err
		}
		index, err := renderer.Render(ctx, graph)
		if err != nil {
			return err
		}
		logger.Info("frame submitted", "frame", frame, "submission", index)
	}

	hits, misses := cache.Stats()
	logger.Info("done",
		"frames", frames,
		"passes", graph.Len(),
		"pipelines", cache.Size(),
		"cache_hits", hits,
		"cache_misses", misses)
	return nil
}

// newSwapSurface stands in for a window surface: a device texture whose
// view is handed to the registry each frame.
func newSwapSurface(device hal.Device, reg *resource.Registry, extent resource.Extent) (resource.SwapSurfaceHandle, hal.TextureView, func(), error) {
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "backbuffer",
		Size:          extent.Extent3D(),
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return resource.SwapSurfaceHandle{}, nil, nil, err
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: "backbuffer_view"})
	if err != nil {
		device.DestroyTexture(tex)
		return resource.SwapSurfaceHandle{}, nil, nil, err
	}
	swap, err := reg.AddSwapSurface(resource.SwapSurface{
		Label:  "swapchain",
		Extent: extent,
		Format: gputypes.TextureFormatBGRA8Unorm,
	})
	if err != nil {
		device.DestroyTextureView(view)
		device.DestroyTexture(tex)
		return resource.SwapSurfaceHandle{}, nil, nil, err
	}
	release := func() {
		reg.DestroySwapSurface(swap)
		device.DestroyTextureView(view)
		device.DestroyTexture(tex)
	}
	return swap, view, release, nil
}

func drawTriangle(p *pipeline.Pipeline) rendergraph.RecordFunc {
	return func(rec rendergraph.Recorder) {
		if err := rec.SetPipeline(p); err != nil {
			return
		}
		rec.Draw(3, 1, 0, 0)
	}
}
