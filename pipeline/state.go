// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pipeline

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// =============================================================================
// Shader stages
// =============================================================================

// Stage identifies a programmable pipeline stage.
type Stage uint32

// Pipeline stages. Values are bit flags so they can be combined in
// PushConstantRange.Stages.
const (
	StageVertex Stage = 1 << iota
	StageTessellationControl
	StageTessellationEvaluation
	StageGeometry
	StageFragment
	StageCompute

	StageAllGraphics = StageVertex | StageTessellationControl | StageTessellationEvaluation |
		StageGeometry | StageFragment
)

// String returns the stage name, or a '|' separated list for combined flags.
func (s Stage) String() string {
	names := [...]string{"Vertex", "TessellationControl", "TessellationEvaluation", "Geometry", "Fragment", "Compute"}
	if s == 0 {
		return "None"
	}
	out := ""
	for i, name := range names {
		if s&(1<<i) != 0 {
			if out != "" {
				out += "|"
			}
			out += name
		}
	}
	if out == "" {
		return "Unknown"
	}
	return out
}

// ShaderStage is one programmable stage of a pipeline.
type ShaderStage struct {
	Stage Stage

	// Module is the driver shader module (hal.ShaderModule for the native
	// backend). It must be comparable.
	Module any

	// EntryPoint is the entry function name in Module.
	EntryPoint string
}

// =============================================================================
// Vertex input
// =============================================================================

// VertexInputBinding describes one vertex buffer binding.
type VertexInputBinding struct {
	Binding  uint32
	Stride   uint64
	StepMode gputypes.VertexStepMode
}

// VertexInputAttribute describes one attribute read from a binding.
type VertexInputAttribute struct {
	Location uint32
	Binding  uint32
	Format   gputypes.VertexFormat
	Offset   uint64
}

// InputAssemblyState selects the primitive topology.
type InputAssemblyState struct {
	Topology               gputypes.PrimitiveTopology
	PrimitiveRestartEnable bool
}

// TessellationState holds the patch size for tessellation pipelines.
type TessellationState struct {
	PatchControlPoints uint32
}

// =============================================================================
// Viewport
// =============================================================================

// Viewport maps normalized device coordinates to framebuffer pixels.
type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

// Rect2D is a scissor rectangle.
type Rect2D struct {
	X, Y          int32
	Width, Height uint32
}

// =============================================================================
// Rasterization
// =============================================================================

// PolygonMode selects how polygons are rasterized.
type PolygonMode uint8

// Polygon modes.
const (
	PolygonModeFill PolygonMode = iota
	PolygonModeLine
	PolygonModePoint
)

// String returns the polygon mode name.
func (m PolygonMode) String() string {
	switch m {
	case PolygonModeFill:
		return "Fill"
	case PolygonModeLine:
		return "Line"
	case PolygonModePoint:
		return "Point"
	default:
		return "Unknown"
	}
}

// RasterizationState configures the rasterizer.
type RasterizationState struct {
	DepthClampEnable        bool
	RasterizerDiscardEnable bool
	PolygonMode             PolygonMode
	CullMode                gputypes.CullMode
	FrontFace               gputypes.FrontFace
	DepthBiasEnable         bool
	DepthBiasConstant       float32
	DepthBiasClamp          float32
	DepthBiasSlope          float32
	LineWidth               float32
}

// MultisampleState configures multisample rasterization.
type MultisampleState struct {
	Samples               uint32
	SampleShadingEnable   bool
	MinSampleShading      float32
	Mask                  uint32
	AlphaToCoverageEnable bool
	AlphaToOneEnable      bool
}

// =============================================================================
// Depth and stencil
// =============================================================================

// StencilFaceState is the stencil test for one face orientation.
type StencilFaceState struct {
	Compare     gputypes.CompareFunction
	FailOp      hal.StencilOperation
	DepthFailOp hal.StencilOperation
	PassOp      hal.StencilOperation
}

// DepthStencilState configures depth and stencil testing.
type DepthStencilState struct {
	DepthTestEnable   bool
	DepthWriteEnable  bool
	DepthCompare      gputypes.CompareFunction
	StencilTestEnable bool
	Front             StencilFaceState
	Back              StencilFaceState
	StencilReadMask   uint32
	StencilWriteMask  uint32
	MinDepthBounds    float32
	MaxDepthBounds    float32
}

// =============================================================================
// Color blend
// =============================================================================

// BlendComponent is the blend equation for color or alpha.
type BlendComponent struct {
	SrcFactor gputypes.BlendFactor
	DstFactor gputypes.BlendFactor
	Operation gputypes.BlendOperation
}

// ColorBlendAttachment is the blend state of one color attachment.
type ColorBlendAttachment struct {
	BlendEnable bool
	Color       BlendComponent
	Alpha       BlendComponent
	WriteMask   gputypes.ColorWriteMask
}

// DefaultColorBlendAttachment returns straight alpha blending:
// color = src*srcAlpha + dst*(1-srcAlpha), alpha = src, all channels written.
func DefaultColorBlendAttachment() ColorBlendAttachment {
	return ColorBlendAttachment{
		BlendEnable: true,
		Color: BlendComponent{
			SrcFactor: gputypes.BlendFactorSrcAlpha,
			DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
			Operation: gputypes.BlendOperationAdd,
		},
		Alpha: BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorZero,
			Operation: gputypes.BlendOperationAdd,
		},
		WriteMask: gputypes.ColorWriteMaskAll,
	}
}

// LogicOp is a framebuffer logic operation.
type LogicOp uint8

// Logic operations.
const (
	LogicOpClear LogicOp = iota
	LogicOpAnd
	LogicOpCopy
	LogicOpXor
	LogicOpOr
	LogicOpNoOp
	LogicOpInvert
	LogicOpSet
)

// ColorBlendSettings holds the blend state that is not per attachment.
// Attachments are configured separately with AddColorBlendAttachment.
type ColorBlendSettings struct {
	LogicOpEnable  bool
	LogicOp        LogicOp
	BlendConstants [4]float32
}

// =============================================================================
// Dynamic state
// =============================================================================

// DynamicState names a piece of state set at record time instead of
// being baked into the pipeline.
type DynamicState uint32

// Dynamic states.
const (
	DynamicStateViewport DynamicState = iota
	DynamicStateScissor
	DynamicStateLineWidth
	DynamicStateDepthBias
	DynamicStateBlendConstants
	DynamicStateDepthBounds
	DynamicStateStencilCompareMask
	DynamicStateStencilWriteMask
	DynamicStateStencilReference
)

// String returns the dynamic state name.
func (d DynamicState) String() string {
	switch d {
	case DynamicStateViewport:
		return "Viewport"
	case DynamicStateScissor:
		return "Scissor"
	case DynamicStateLineWidth:
		return "LineWidth"
	case DynamicStateDepthBias:
		return "DepthBias"
	case DynamicStateBlendConstants:
		return "BlendConstants"
	case DynamicStateDepthBounds:
		return "DepthBounds"
	case DynamicStateStencilCompareMask:
		return "StencilCompareMask"
	case DynamicStateStencilWriteMask:
		return "StencilWriteMask"
	case DynamicStateStencilReference:
		return "StencilReference"
	default:
		return "Unknown"
	}
}

// =============================================================================
// Layout
// =============================================================================

// PushConstantRange is a range of push constant memory visible to Stages.
type PushConstantRange struct {
	Stages Stage
	Offset uint32
	Size   uint32
}
