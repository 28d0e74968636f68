// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package native runs render graphs on a gogpu/wgpu HAL device.
//
// [Driver] implements [pipeline.Driver] by translating a pipeline
// [pipeline.CreateInfo] into a hal.RenderPipelineDescriptor. State that has
// no WebGPU equivalent (tessellation, geometry stages, logic ops, dynamic
// state lists, depth bounds, wide lines) is ignored with a debug log.
//
// [RecordPass] turns a compiled [rendergraph.RenderingDescriptor] into a
// hal render pass and invokes the pass callback with a hal-backed
// [rendergraph.Recorder]. [Renderer] records a whole [rendergraph.Graph]
// into one command buffer per frame and submits it.
//
// Logging goes through rendergraph.Logger, so rendergraph.SetLogger
// configures this package too.
package native
