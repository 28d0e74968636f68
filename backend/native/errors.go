// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"errors"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rendergraph/pipeline"
)

// Backend errors.
var (
	// ErrNilDevice is returned when a driver or renderer is created without a device.
	ErrNilDevice = errors.New("native: device is nil")

	// ErrNilQueue is returned when a renderer is created without a queue.
	ErrNilQueue = errors.New("native: queue is nil")

	// ErrRendererClosed is returned by Render after Close.
	ErrRendererClosed = errors.New("native: renderer is closed")

	// ErrForeignHandle is returned when a handle passed through an `any`
	// field is not a HAL object of the expected kind.
	ErrForeignHandle = errors.New("native: handle is not a HAL object")

	// ErrNoVertexStage is returned when a pipeline has no vertex shader.
	ErrNoVertexStage = errors.New("native: pipeline has no vertex stage")

	// ErrUnsupportedStage is returned for tessellation, geometry and compute
	// stages in a graphics pipeline.
	ErrUnsupportedStage = errors.New("native: shader stage not supported by WebGPU")

	// ErrNoRenderingFormats is returned when a pipeline carries neither
	// unified rendering formats nor a *pipeline.RenderingFormats render pass.
	ErrNoRenderingFormats = errors.New("native: pipeline has no attachment formats")

	// ErrNoView is returned when an attachment has no texture view, as
	// with resources registered without a device.
	ErrNoView = errors.New("native: attachment has no texture view")

	// ErrMalformedSPIRV is returned when the shader compiler output is not
	// a whole number of little-endian SPIR-V words.
	ErrMalformedSPIRV = errors.New("native: malformed SPIR-V")

	// ErrSplitDepthStencil is returned when depth and stencil come from
	// different textures. WebGPU has a single depth-stencil attachment.
	ErrSplitDepthStencil = errors.New("native: depth and stencil must share one texture")
)

// Recording errors.
var (
	// ErrPassEnded is returned when commands are recorded after End.
	ErrPassEnded = errors.New("native: render pass has already ended")

	// ErrNilPipeline is returned when SetPipeline is called with nil or a
	// destroyed pipeline.
	ErrNilPipeline = errors.New("native: pipeline is nil")

	// ErrNilBindGroup is returned when SetBindGroup is called with nil.
	ErrNilBindGroup = errors.New("native: bind group is nil")

	// ErrBindGroupIndexOutOfRange is returned when bind group index exceeds maximum.
	ErrBindGroupIndexOutOfRange = errors.New("native: bind group index exceeds maximum (3)")

	// ErrNilVertexBuffer is returned when a vertex buffer has no GPU object.
	ErrNilVertexBuffer = errors.New("native: vertex buffer is nil")

	// ErrNilIndexBuffer is returned when an index buffer has no GPU object.
	ErrNilIndexBuffer = errors.New("native: index buffer is nil")
)

// maxBindGroups is the WebGPU default limit on bind groups per pipeline.
const maxBindGroups = 4

// driverError attaches a pipeline status to a HAL error.
func driverError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, hal.ErrDeviceLost):
		return pipeline.NewDriverError(pipeline.StatusErrorDeviceLost, err)
	case errors.Is(err, hal.ErrDeviceOutOfMemory):
		return pipeline.NewDriverError(pipeline.StatusErrorOutOfDeviceMemory, err)
	case errors.Is(err, ErrNoVertexStage), errors.Is(err, ErrUnsupportedStage):
		return pipeline.NewDriverError(pipeline.StatusErrorInvalidShader, err)
	default:
		return pipeline.NewDriverError(pipeline.StatusErrorUnknown, err)
	}
}
