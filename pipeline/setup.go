// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pipeline

import (
	"slices"

	"github.com/gogpu/gputypes"
)

// SetupData is the mutable fixed-function state accumulated by a Builder.
//
// SetupData itself is never referenced by a CreateInfo. Build freezes a
// deep copy of it first, so later mutation through the builder cannot move
// memory that a pending driver call still reads.
type SetupData struct {
	ShaderStages          []ShaderStage
	VertexBindings        []VertexInputBinding
	VertexAttributes      []VertexInputAttribute
	ColorBlendAttachments []ColorBlendAttachment
	Viewports             []Viewport
	Scissors              []Rect2D
	PushConstantRanges    []PushConstantRange

	// DescriptorSetLayouts are driver bind group layouts
	// (hal.BindGroupLayout for the native backend).
	DescriptorSetLayouts []any

	DynamicStates []DynamicState

	ColorAttachmentFormats  []gputypes.TextureFormat
	DepthAttachmentFormat   gputypes.TextureFormat
	StencilAttachmentFormat gputypes.TextureFormat

	InputAssembly InputAssemblyState
	Tessellation  TessellationState
	Rasterization RasterizationState
	Multisample   MultisampleState
	DepthStencil  DepthStencilState
	ColorBlend    ColorBlendSettings

	// RenderPass is used only when unified rendering is off.
	RenderPass any

	// PipelineLayout, when set, replaces the layout Build would create.
	// The pipeline does not own an external layout.
	PipelineLayout any
}

// DefaultSetupData returns the state a fresh builder starts from:
// triangle lists, filled polygons, line width 1, single sample with all
// sample bits enabled.
func DefaultSetupData() SetupData {
	return SetupData{
		InputAssembly: InputAssemblyState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
		},
		Rasterization: RasterizationState{
			PolygonMode: PolygonModeFill,
			CullMode:    gputypes.CullModeNone,
			FrontFace:   gputypes.FrontFaceCCW,
			LineWidth:   1,
		},
		Multisample: MultisampleState{
			Samples:          1,
			MinSampleShading: 1,
			Mask:             0xFFFFFFFF,
		},
	}
}

// Clone returns a deep copy of d. Slices in the copy have len == cap, so
// an append on the copy always reallocates instead of writing into d.
func (d *SetupData) Clone() SetupData {
	c := *d
	c.ShaderStages = clip(d.ShaderStages)
	c.VertexBindings = clip(d.VertexBindings)
	c.VertexAttributes = clip(d.VertexAttributes)
	c.ColorBlendAttachments = clip(d.ColorBlendAttachments)
	c.Viewports = clip(d.Viewports)
	c.Scissors = clip(d.Scissors)
	c.PushConstantRanges = clip(d.PushConstantRanges)
	c.DescriptorSetLayouts = clip(d.DescriptorSetLayouts)
	c.DynamicStates = clip(d.DynamicStates)
	c.ColorAttachmentFormats = clip(d.ColorAttachmentFormats)
	return c
}

// clip copies s into a new slice with len == cap. nil stays nil.
func clip[S ~[]E, E any](s S) S {
	if s == nil {
		return nil
	}
	return slices.Clip(slices.Clone(s))
}

// noCopy may be embedded into structs which must not be copied after
// first use. go vet's copylocks check reports copies.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// frozenSetup is the address-stable storage a CreateInfo points into.
//
// It is allocated once per Build on the heap and referenced only through
// a pointer. Nothing writes to it after freeze returns.
type frozenSetup struct {
	_ noCopy

	data SetupData

	vertexInput VertexInputState
	viewport    ViewportState
	colorBlend  ColorBlendState
	dynamic     DynamicStateInfo
	rendering   RenderingFormats

	info CreateInfo
}

// freeze deep-copies d into a new frozenSetup.
func freeze(d *SetupData) *frozenSetup {
	return &frozenSetup{data: d.Clone()}
}
