// Package rendergraph builds the per-frame render passes of a frame graph.
//
// # Overview
//
// A frame is described as an ordered list of passes. Each [Pass] names the
// buffers it reads, the textures and swap surfaces it renders into, and a
// callback that records its draw commands. Passes are produced by a
// [PassBuilder] from generation-counted handles (see package resource), so a
// pass never keeps a destroyed resource alive and a stale handle is caught
// when the pass is built.
//
// # Quick Start
//
//	reg := resource.NewRegistry(resource.WithDevice(device))
//	swap, _ := reg.NewSwapSurface(provider, "window", resource.Extent{Width: 1920, Height: 1080})
//	depth, _ := reg.CreateTexture(resource.TextureDescriptor{
//	    Label:  "depth",
//	    Extent: resource.Extent{Width: 1920, Height: 1080},
//	    Format: gputypes.TextureFormatDepth32Float,
//	})
//
//	pass, err := rendergraph.NewPassBuilder().
//	    WritesTo(rendergraph.SurfaceAttachment(swap), rendergraph.ClearColor(gputypes.Color{A: 1})).
//	    WritesTo(rendergraph.TextureAttachment(depth), rendergraph.ClearDepthStencil(1, 0)).
//	    SetOnRecord(func(rec rendergraph.Recorder) {
//	        _ = rec.SetPipeline(octree)
//	        rec.Draw(3, 1, 0, 0)
//	    }).
//	    Build("octree", rendergraph.DebugColorFromRGBA8(255, 128, 0, 255))
//
// # Rendering descriptors
//
// [Pass.Rendering] compiles the attachment writes into a [RenderingDescriptor]:
// color attachments in insertion order plus at most one depth and one stencil
// attachment. Attachments with a clear value are cleared on load, all others
// are loaded. The descriptor lives inside the Pass and keeps its address
// across recompilation.
//
// # Pipelines
//
// Graphics pipelines are built separately with package pipeline. Passes refer
// to them only from their record callbacks.
//
// # Logging
//
// rendergraph is silent by default. Call [SetLogger] to route diagnostics from
// this package and its sub-packages to a [log/slog] logger.
package rendergraph
