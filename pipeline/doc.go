// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package pipeline builds graphics pipelines from accumulated fixed-function
// state.
//
// A [Builder] collects shader stages, vertex layout, rasterization,
// multisample, depth-stencil, blend and dynamic state into a [SetupData].
// Build freezes that data into a single heap value whose slices are never
// resized again, assembles a [CreateInfo] whose blocks point into the
// frozen value, and hands it to a [Driver]. The resulting [Pipeline] keeps
// the frozen value alive for as long as it exists.
//
// The builder does not validate state. Invalid combinations are reported by
// the driver and surface as a *[PipelineCreationError].
//
// Example:
//
//	b := pipeline.NewBuilder(driver, cache)
//	p, err := b.
//	    AddShader(pipeline.ShaderStage{Stage: pipeline.StageVertex, Module: vs, EntryPoint: "vs_main"}).
//	    AddShader(pipeline.ShaderStage{Stage: pipeline.StageFragment, Module: fs, EntryPoint: "fs_main"}).
//	    AddDefaultColorBlendAttachment().
//	    AddColorAttachmentFormat(gputypes.TextureFormatBGRA8Unorm).
//	    SetViewportExtent(1920, 1080).
//	    SetScissorExtent(1920, 1080).
//	    Build("octree", true)
//	if err != nil {
//	    return err
//	}
//	defer p.Destroy()
package pipeline
