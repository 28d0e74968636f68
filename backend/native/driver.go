// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rendergraph"
	"github.com/gogpu/rendergraph/pipeline"
)

// Driver creates pipelines and pipeline layouts on a HAL device.
//
// Shader modules in pipeline.ShaderStage must be hal.ShaderModule values
// (see CompileShaderModule) and descriptor set layouts must be
// hal.BindGroupLayout values. The returned handles are hal.PipelineLayout
// and hal.RenderPipeline.
//
// Driver is safe for concurrent use if the device is.
type Driver struct {
	device hal.Device
}

var _ pipeline.Driver = (*Driver)(nil)

// NewDriver returns a driver for device.
func NewDriver(device hal.Device) (*Driver, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	return &Driver{device: device}, nil
}

// Device returns the underlying HAL device.
func (d *Driver) Device() hal.Device { return d.device }

// CreatePipelineLayout creates a hal.PipelineLayout.
func (d *Driver) CreatePipelineLayout(info *pipeline.LayoutCreateInfo) (any, error) {
	bgls := make([]hal.BindGroupLayout, len(info.DescriptorSetLayouts))
	for i, l := range info.DescriptorSetLayouts {
		bgl, ok := l.(hal.BindGroupLayout)
		if !ok || bgl == nil {
			return nil, fmt.Errorf("%w: descriptor set layout %d is %T", ErrForeignHandle, i, l)
		}
		bgls[i] = bgl
	}

	ranges := make([]hal.PushConstantRange, len(info.PushConstantRanges))
	for i, r := range info.PushConstantRanges {
		ranges[i] = hal.PushConstantRange{
			Stages: shaderStages(r.Stages),
			Range:  hal.Range{Start: r.Offset, End: r.Offset + r.Size},
		}
	}

	layout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:              info.Name,
		BindGroupLayouts:   bgls,
		PushConstantRanges: ranges,
	})
	if err != nil {
		return nil, driverError(err)
	}
	return layout, nil
}

// DestroyPipelineLayout destroys a layout created by CreatePipelineLayout.
func (d *Driver) DestroyPipelineLayout(layout any) {
	if l, ok := layout.(hal.PipelineLayout); ok && l != nil {
		d.device.DestroyPipelineLayout(l)
	}
}

// CreateGraphicsPipeline creates a hal.RenderPipeline.
func (d *Driver) CreateGraphicsPipeline(info *pipeline.CreateInfo) (any, error) {
	desc, err := renderPipelineDescriptor(info)
	if err != nil {
		return nil, driverError(err)
	}
	rp, err := d.device.CreateRenderPipeline(desc)
	if err != nil {
		return nil, driverError(err)
	}
	return rp, nil
}

// DestroyPipeline destroys a pipeline created by CreateGraphicsPipeline.
func (d *Driver) DestroyPipeline(p any) {
	if rp, ok := p.(hal.RenderPipeline); ok && rp != nil {
		d.device.DestroyRenderPipeline(rp)
	}
}

// renderPipelineDescriptor translates info into its WebGPU form.
func renderPipelineDescriptor(info *pipeline.CreateInfo) (*hal.RenderPipelineDescriptor, error) {
	formats, err := attachmentFormats(info)
	if err != nil {
		return nil, err
	}

	desc := &hal.RenderPipelineDescriptor{Label: info.Name}

	if info.Layout != nil {
		layout, ok := info.Layout.(hal.PipelineLayout)
		if !ok {
			return nil, fmt.Errorf("%w: layout is %T", ErrForeignHandle, info.Layout)
		}
		desc.Layout = layout
	}

	var fragment *pipeline.ShaderStage
	haveVertex := false
	for i := range info.Stages {
		s := &info.Stages[i]
		module, ok := s.Module.(hal.ShaderModule)
		if !ok || module == nil {
			return nil, fmt.Errorf("%w: %s shader module is %T", ErrForeignHandle, s.Stage, s.Module)
		}
		switch s.Stage {
		case pipeline.StageVertex:
			desc.Vertex.Module = module
			desc.Vertex.EntryPoint = s.EntryPoint
			haveVertex = true
		case pipeline.StageFragment:
			fragment = s
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedStage, s.Stage)
		}
	}
	if !haveVertex {
		return nil, ErrNoVertexStage
	}

	desc.Vertex.Buffers = vertexBuffers(info.VertexInput)
	desc.Primitive = primitiveState(info)
	desc.Multisample = multisampleState(info.Multisample)
	desc.DepthStencil = depthStencilState(info, formats)

	if fragment != nil {
		desc.Fragment = &hal.FragmentState{
			Module:     fragment.Module.(hal.ShaderModule),
			EntryPoint: fragment.EntryPoint,
			Targets:    colorTargets(formats.ColorFormats, info.ColorBlend),
		}
	}

	logIgnoredState(info)
	return desc, nil
}

// attachmentFormats returns the formats the pipeline renders into. WebGPU
// has no render pass objects, so a render-pass pipeline must carry its
// formats as a *pipeline.RenderingFormats.
func attachmentFormats(info *pipeline.CreateInfo) (*pipeline.RenderingFormats, error) {
	if info.Rendering != nil {
		return info.Rendering, nil
	}
	switch rp := info.RenderPass.(type) {
	case *pipeline.RenderingFormats:
		if rp != nil {
			return rp, nil
		}
	case pipeline.RenderingFormats:
		return &rp, nil
	}
	return nil, fmt.Errorf("%w: render pass is %T", ErrNoRenderingFormats, info.RenderPass)
}

func vertexBuffers(vi *pipeline.VertexInputState) []gputypes.VertexBufferLayout {
	if vi == nil || len(vi.Bindings) == 0 {
		return nil
	}
	out := make([]gputypes.VertexBufferLayout, len(vi.Bindings))
	for i, b := range vi.Bindings {
		out[i] = gputypes.VertexBufferLayout{
			ArrayStride: b.Stride,
			StepMode:    b.StepMode,
		}
		for _, a := range vi.Attributes {
			if a.Binding != b.Binding {
				continue
			}
			out[i].Attributes = append(out[i].Attributes, gputypes.VertexAttribute{
				Format:         a.Format,
				Offset:         a.Offset,
				ShaderLocation: a.Location,
			})
		}
	}
	return out
}

func primitiveState(info *pipeline.CreateInfo) gputypes.PrimitiveState {
	var ps gputypes.PrimitiveState
	if ia := info.InputAssembly; ia != nil {
		ps.Topology = ia.Topology
		if ia.PrimitiveRestartEnable && isStrip(ia.Topology) {
			f := gputypes.IndexFormatUint32
			ps.StripIndexFormat = &f
		}
	}
	if rs := info.Rasterization; rs != nil {
		ps.CullMode = rs.CullMode
		ps.FrontFace = rs.FrontFace
		ps.UnclippedDepth = rs.DepthClampEnable
	}
	return ps
}

func isStrip(t gputypes.PrimitiveTopology) bool {
	return t == gputypes.PrimitiveTopologyLineStrip || t == gputypes.PrimitiveTopologyTriangleStrip
}

func multisampleState(ms *pipeline.MultisampleState) gputypes.MultisampleState {
	if ms == nil || ms.Samples == 0 {
		return gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF}
	}
	return gputypes.MultisampleState{
		Count:                  ms.Samples,
		Mask:                   uint64(ms.Mask),
		AlphaToCoverageEnabled: ms.AlphaToCoverageEnable,
	}
}

// depthStencilState returns nil when the pipeline has no depth or stencil
// attachment format.
func depthStencilState(info *pipeline.CreateInfo, formats *pipeline.RenderingFormats) *hal.DepthStencilState {
	format := formats.DepthFormat
	if format == gputypes.TextureFormatUndefined {
		format = formats.StencilFormat
	}
	if format == gputypes.TextureFormatUndefined {
		return nil
	}

	ds := &hal.DepthStencilState{
		Format:       format,
		DepthCompare: gputypes.CompareFunctionAlways,
		StencilFront: defaultStencilFace(),
		StencilBack:  defaultStencilFace(),
	}

	if s := info.DepthStencil; s != nil {
		if s.DepthTestEnable {
			ds.DepthCompare = s.DepthCompare
			ds.DepthWriteEnabled = s.DepthWriteEnable
		}
		if s.StencilTestEnable {
			ds.StencilFront = stencilFace(s.Front)
			ds.StencilBack = stencilFace(s.Back)
			ds.StencilReadMask = s.StencilReadMask
			ds.StencilWriteMask = s.StencilWriteMask
		}
	}

	if rs := info.Rasterization; rs != nil && rs.DepthBiasEnable {
		ds.DepthBias = int32(rs.DepthBiasConstant)
		ds.DepthBiasSlopeScale = rs.DepthBiasSlope
		ds.DepthBiasClamp = rs.DepthBiasClamp
	}
	return ds
}

func defaultStencilFace() hal.StencilFaceState {
	return hal.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      hal.StencilOperationKeep,
	}
}

func stencilFace(s pipeline.StencilFaceState) hal.StencilFaceState {
	return hal.StencilFaceState{
		Compare:     s.Compare,
		FailOp:      s.FailOp,
		DepthFailOp: s.DepthFailOp,
		PassOp:      s.PassOp,
	}
}

// colorTargets pairs each color format with the blend attachment at the
// same index. Formats without one are written unblended.
func colorTargets(formats []gputypes.TextureFormat, cb *pipeline.ColorBlendState) []gputypes.ColorTargetState {
	out := make([]gputypes.ColorTargetState, len(formats))
	for i, f := range formats {
		out[i] = gputypes.ColorTargetState{Format: f, WriteMask: gputypes.ColorWriteMaskAll}
		if cb == nil || i >= len(cb.Attachments) {
			continue
		}
		a := cb.Attachments[i]
		out[i].WriteMask = a.WriteMask
		if a.BlendEnable {
			out[i].Blend = &gputypes.BlendState{
				Color: blendComponent(a.Color),
				Alpha: blendComponent(a.Alpha),
			}
		}
	}
	return out
}

func blendComponent(c pipeline.BlendComponent) gputypes.BlendComponent {
	return gputypes.BlendComponent{
		SrcFactor: c.SrcFactor,
		DstFactor: c.DstFactor,
		Operation: c.Operation,
	}
}

func shaderStages(s pipeline.Stage) gputypes.ShaderStages {
	var out gputypes.ShaderStages
	if s&pipeline.StageVertex != 0 {
		out |= gputypes.ShaderStageVertex
	}
	if s&pipeline.StageFragment != 0 {
		out |= gputypes.ShaderStageFragment
	}
	if s&pipeline.StageCompute != 0 {
		out |= gputypes.ShaderStageCompute
	}
	return out
}

// logIgnoredState reports state that WebGPU cannot express.
func logIgnoredState(info *pipeline.CreateInfo) {
	log := rendergraph.Logger()
	var ignored []string

	if t := info.Tessellation; t != nil && t.PatchControlPoints != 0 {
		ignored = append(ignored, "tessellation")
	}
	if rs := info.Rasterization; rs != nil {
		if rs.PolygonMode != pipeline.PolygonModeFill {
			ignored = append(ignored, "polygon_mode="+rs.PolygonMode.String())
		}
		if rs.LineWidth != 0 && rs.LineWidth != 1 {
			ignored = append(ignored, "line_width")
		}
		if rs.RasterizerDiscardEnable {
			ignored = append(ignored, "rasterizer_discard")
		}
	}
	if ms := info.Multisample; ms != nil && ms.SampleShadingEnable {
		ignored = append(ignored, "sample_shading")
	}
	if ds := info.DepthStencil; ds != nil && (ds.MinDepthBounds != 0 || (ds.MaxDepthBounds != 0 && ds.MaxDepthBounds != 1)) {
		ignored = append(ignored, "depth_bounds")
	}
	if cb := info.ColorBlend; cb != nil && cb.LogicOpEnable {
		ignored = append(ignored, "logic_op")
	}
	if dyn := info.Dynamic; dyn != nil && len(dyn.States) > 0 {
		ignored = append(ignored, "dynamic_states")
	}

	if len(ignored) > 0 {
		log.Debug("native: pipeline state ignored", "pipeline", info.Name, "state", ignored)
	}
}
