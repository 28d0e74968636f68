// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pipeline

import "github.com/gogpu/gputypes"

// VertexInputState lists the vertex bindings and attributes.
type VertexInputState struct {
	Bindings   []VertexInputBinding
	Attributes []VertexInputAttribute
}

// ViewportState lists the static viewports and scissors.
type ViewportState struct {
	Viewports []Viewport
	Scissors  []Rect2D
}

// ColorBlendState is the full blend block: global settings plus one entry
// per color attachment.
type ColorBlendState struct {
	ColorBlendSettings
	Attachments []ColorBlendAttachment
}

// DynamicStateInfo lists the states left dynamic.
type DynamicStateInfo struct {
	States []DynamicState
}

// RenderingFormats describes attachment formats for unified rendering,
// where a pipeline is built without a render pass object.
type RenderingFormats struct {
	ColorFormats  []gputypes.TextureFormat
	DepthFormat   gputypes.TextureFormat
	StencilFormat gputypes.TextureFormat
}

// LayoutCreateInfo describes the pipeline layout Build asks the driver for.
type LayoutCreateInfo struct {
	Name                 string
	DescriptorSetLayouts []any
	PushConstantRanges   []PushConstantRange
}

// CreateInfo is the single descriptor handed to Driver.CreateGraphicsPipeline.
//
// Every slice and pointer refers to storage owned by the frozen setup of
// one Build call. A driver must treat it as read-only.
type CreateInfo struct {
	Name string

	Stages        []ShaderStage
	VertexInput   *VertexInputState
	InputAssembly *InputAssemblyState
	Tessellation  *TessellationState
	Viewport      *ViewportState
	Rasterization *RasterizationState
	Multisample   *MultisampleState
	DepthStencil  *DepthStencilState
	ColorBlend    *ColorBlendState
	Dynamic       *DynamicStateInfo

	// Rendering is nil unless the pipeline was built for unified rendering.
	Rendering *RenderingFormats

	// Layout is the driver pipeline layout.
	Layout any

	// RenderPass is nil for unified rendering.
	RenderPass any
}

// VertexBindingCount returns the number of vertex bindings.
func (ci *CreateInfo) VertexBindingCount() int {
	if ci.VertexInput == nil {
		return 0
	}
	return len(ci.VertexInput.Bindings)
}

// assemble fills the derived blocks of f and points f.info at them.
// The layout is attached later, once the driver has created it.
func (f *frozenSetup) assemble(name string, unified bool) *CreateInfo {
	d := &f.data

	if unified {
		f.rendering = RenderingFormats{
			ColorFormats:  d.ColorAttachmentFormats,
			DepthFormat:   d.DepthAttachmentFormat,
			StencilFormat: d.StencilAttachmentFormat,
		}
	}
	f.vertexInput = VertexInputState{
		Bindings:   d.VertexBindings,
		Attributes: d.VertexAttributes,
	}
	f.viewport = ViewportState{
		Viewports: d.Viewports,
		Scissors:  d.Scissors,
	}
	f.colorBlend = ColorBlendState{
		ColorBlendSettings: d.ColorBlend,
		Attachments:        d.ColorBlendAttachments,
	}
	f.dynamic = DynamicStateInfo{States: d.DynamicStates}

	f.info = CreateInfo{
		Name:          name,
		Stages:        d.ShaderStages,
		VertexInput:   &f.vertexInput,
		InputAssembly: &d.InputAssembly,
		Tessellation:  &d.Tessellation,
		Viewport:      &f.viewport,
		Rasterization: &d.Rasterization,
		Multisample:   &d.Multisample,
		DepthStencil:  &d.DepthStencil,
		ColorBlend:    &f.colorBlend,
		Dynamic:       &f.dynamic,
	}
	if unified {
		f.info.Rendering = &f.rendering
	} else {
		f.info.RenderPass = d.RenderPass
	}
	return &f.info
}
