// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pipeline

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// BuilderOption configures a Builder.
type BuilderOption func(*builderOptions)

type builderOptions struct {
	labelPrefix string
	base        *SetupData
}

// WithLabelPrefix prepends prefix to every pipeline name passed to the
// driver. The Pipeline keeps the unprefixed name.
func WithLabelPrefix(prefix string) BuilderOption {
	return func(o *builderOptions) {
		o.labelPrefix = prefix
	}
}

// WithDefaultSetup replaces DefaultSetupData as the state the builder
// starts from and resets to after each successful Build.
func WithDefaultSetup(d SetupData) BuilderOption {
	return func(o *builderOptions) {
		c := d.Clone()
		o.base = &c
	}
}

// Builder accumulates pipeline state through chained setters.
//
// A Builder is owned by one goroutine. Setters never fail; Build reports
// the only errors.
type Builder struct {
	driver Driver
	cache  *Cache
	opts   builderOptions

	data SetupData
}

// NewBuilder creates a builder bound to driver. cache may be nil to
// disable sharing of driver objects between pipelines.
func NewBuilder(driver Driver, cache *Cache, opts ...BuilderOption) *Builder {
	var o builderOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.base == nil {
		d := DefaultSetupData()
		o.base = &d
	}
	return &Builder{
		driver: driver,
		cache:  cache,
		opts:   o,
		data:   o.base.Clone(),
	}
}

// Data returns the state accumulated so far. The returned pointer is only
// valid until the next Build.
func (b *Builder) Data() *SetupData { return &b.data }

// Reset discards all accumulated state.
func (b *Builder) Reset() *Builder {
	b.data = b.opts.base.Clone()
	return b
}

// =============================================================================
// Shaders and vertex input
// =============================================================================

// AddShader appends a shader stage.
func (b *Builder) AddShader(stage ShaderStage) *Builder {
	b.data.ShaderStages = append(b.data.ShaderStages, stage)
	return b
}

// SetShaders replaces all shader stages.
func (b *Builder) SetShaders(stages []ShaderStage) *Builder {
	b.data.ShaderStages = clip(stages)
	return b
}

// SetVertexInputBindings replaces the vertex bindings.
func (b *Builder) SetVertexInputBindings(bindings []VertexInputBinding) *Builder {
	b.data.VertexBindings = clip(bindings)
	return b
}

// SetVertexInputAttributes replaces the vertex attributes.
func (b *Builder) SetVertexInputAttributes(attributes []VertexInputAttribute) *Builder {
	b.data.VertexAttributes = clip(attributes)
	return b
}

// SetInputAssembly replaces the input assembly state.
func (b *Builder) SetInputAssembly(state InputAssemblyState) *Builder {
	b.data.InputAssembly = state
	return b
}

// SetPrimitiveTopology sets the primitive topology.
func (b *Builder) SetPrimitiveTopology(topology gputypes.PrimitiveTopology) *Builder {
	b.data.InputAssembly.Topology = topology
	return b
}

// SetTessellationControlPointCount sets the number of control points per patch.
func (b *Builder) SetTessellationControlPointCount(count uint32) *Builder {
	b.data.Tessellation.PatchControlPoints = count
	return b
}

// =============================================================================
// Viewport and scissor
// =============================================================================

// SetViewport replaces the viewports with vp.
func (b *Builder) SetViewport(vp Viewport) *Builder {
	b.data.Viewports = []Viewport{vp}
	return b
}

// SetViewportExtent sets a single viewport covering width x height with
// depth range [0, 1].
func (b *Builder) SetViewportExtent(width, height uint32) *Builder {
	return b.SetViewport(Viewport{
		Width:    float32(width),
		Height:   float32(height),
		MaxDepth: 1,
	})
}

// SetScissor replaces the scissors with r.
func (b *Builder) SetScissor(r Rect2D) *Builder {
	b.data.Scissors = []Rect2D{r}
	return b
}

// SetScissorExtent sets a single scissor covering width x height at the origin.
func (b *Builder) SetScissorExtent(width, height uint32) *Builder {
	return b.SetScissor(Rect2D{Width: width, Height: height})
}

// =============================================================================
// Rasterization and multisampling
// =============================================================================

// SetRasterization replaces the rasterization state.
func (b *Builder) SetRasterization(state RasterizationState) *Builder {
	b.data.Rasterization = state
	return b
}

// SetCullingMode enables back-face culling, or disables culling entirely.
func (b *Builder) SetCullingMode(enabled bool) *Builder {
	if !enabled {
		slogger().Warn("pipeline: culling is disabled, this may hurt performance")
		b.data.Rasterization.CullMode = gputypes.CullModeNone
		return b
	}
	b.data.Rasterization.CullMode = gputypes.CullModeBack
	return b
}

// SetFrontFace sets the winding order of front-facing triangles.
func (b *Builder) SetFrontFace(face gputypes.FrontFace) *Builder {
	b.data.Rasterization.FrontFace = face
	return b
}

// SetWireframe switches between line and fill polygon modes.
func (b *Builder) SetWireframe(wireframe bool) *Builder {
	if wireframe {
		b.data.Rasterization.PolygonMode = PolygonModeLine
	} else {
		b.data.Rasterization.PolygonMode = PolygonModeFill
	}
	return b
}

// SetLineWidth sets the rasterized line width.
func (b *Builder) SetLineWidth(width float32) *Builder {
	b.data.Rasterization.LineWidth = width
	return b
}

// SetMultisampling sets the sample count. A non-nil minSampleShading also
// enables sample shading with that fraction.
func (b *Builder) SetMultisampling(samples uint32, minSampleShading *float32) *Builder {
	b.data.Multisample.Samples = samples
	if minSampleShading != nil {
		b.data.Multisample.SampleShadingEnable = true
		b.data.Multisample.MinSampleShading = *minSampleShading
	}
	return b
}

// =============================================================================
// Depth, stencil and blend
// =============================================================================

// SetDepthStencil replaces the depth-stencil state.
func (b *Builder) SetDepthStencil(state DepthStencilState) *Builder {
	b.data.DepthStencil = state
	return b
}

// AddColorBlendAttachment appends the blend state of the next color attachment.
func (b *Builder) AddColorBlendAttachment(a ColorBlendAttachment) *Builder {
	b.data.ColorBlendAttachments = append(b.data.ColorBlendAttachments, a)
	return b
}

// AddDefaultColorBlendAttachment appends DefaultColorBlendAttachment.
func (b *Builder) AddDefaultColorBlendAttachment() *Builder {
	return b.AddColorBlendAttachment(DefaultColorBlendAttachment())
}

// SetColorBlendAttachments replaces all color blend attachments.
func (b *Builder) SetColorBlendAttachments(attachments []ColorBlendAttachment) *Builder {
	b.data.ColorBlendAttachments = clip(attachments)
	return b
}

// SetColorBlend replaces the logic op and blend constants.
func (b *Builder) SetColorBlend(settings ColorBlendSettings) *Builder {
	b.data.ColorBlend = settings
	return b
}

// =============================================================================
// Dynamic state and layout
// =============================================================================

// SetDynamicStates replaces the list of dynamic states.
func (b *Builder) SetDynamicStates(states []DynamicState) *Builder {
	b.data.DynamicStates = clip(states)
	return b
}

// SetDescriptorSetLayout replaces the set layouts with a single layout.
func (b *Builder) SetDescriptorSetLayout(layout any) *Builder {
	b.data.DescriptorSetLayouts = []any{layout}
	return b
}

// SetDescriptorSetLayouts replaces the set layouts.
func (b *Builder) SetDescriptorSetLayouts(layouts []any) *Builder {
	b.data.DescriptorSetLayouts = clip(layouts)
	return b
}

// AddPushConstantRange appends a push constant range.
func (b *Builder) AddPushConstantRange(stages Stage, size, offset uint32) *Builder {
	b.data.PushConstantRanges = append(b.data.PushConstantRanges, PushConstantRange{
		Stages: stages,
		Offset: offset,
		Size:   size,
	})
	return b
}

// SetPushConstantRanges replaces the push constant ranges.
func (b *Builder) SetPushConstantRanges(ranges []PushConstantRange) *Builder {
	b.data.PushConstantRanges = clip(ranges)
	return b
}

// SetPipelineLayout makes Build use an existing layout instead of creating
// one. The layout is not destroyed with the pipeline.
func (b *Builder) SetPipelineLayout(layout any) *Builder {
	b.data.PipelineLayout = layout
	return b
}

// =============================================================================
// Attachment formats
// =============================================================================

// AddColorAttachmentFormat appends the format of the next color attachment.
func (b *Builder) AddColorAttachmentFormat(format gputypes.TextureFormat) *Builder {
	b.data.ColorAttachmentFormats = append(b.data.ColorAttachmentFormats, format)
	return b
}

// SetColorAttachmentFormat is an alias for AddColorAttachmentFormat.
func (b *Builder) SetColorAttachmentFormat(format gputypes.TextureFormat) *Builder {
	return b.AddColorAttachmentFormat(format)
}

// SetDepthAttachmentFormat sets the depth attachment format.
func (b *Builder) SetDepthAttachmentFormat(format gputypes.TextureFormat) *Builder {
	b.data.DepthAttachmentFormat = format
	return b
}

// SetStencilAttachmentFormat sets the stencil attachment format.
func (b *Builder) SetStencilAttachmentFormat(format gputypes.TextureFormat) *Builder {
	b.data.StencilAttachmentFormat = format
	return b
}

// SetRenderPass sets the render pass used when unified rendering is off.
func (b *Builder) SetRenderPass(renderPass any) *Builder {
	b.data.RenderPass = renderPass
	return b
}

// =============================================================================
// Build
// =============================================================================

// Build creates a pipeline from the accumulated state.
//
// With unifiedRendering the pipeline is described by attachment formats
// and no render pass; otherwise the render pass set with SetRenderPass is
// used and the formats are ignored.
//
// Build does not validate the state. It returns:
//   - ErrInvalidArgument if name is empty
//   - ErrNilDriver if the builder has no driver
//   - *PipelineCreationError if the driver rejects the layout or pipeline
//
// On success the builder is reset to its default state. On failure the
// accumulated state is left untouched.
func (b *Builder) Build(name string, unifiedRendering bool) (*Pipeline, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: pipeline name is empty", ErrInvalidArgument)
	}
	if b.driver == nil {
		return nil, ErrNilDriver
	}

	label := b.opts.labelPrefix + name

	// Addresses are taken only after the state is frozen, and nothing
	// writes to the frozen value until the Pipeline is collected.
	f := freeze(&b.data)
	info := f.assemble(label, unifiedRendering)

	layout, layoutKey, releaseLayout, err := b.layoutFor(f, label)
	if err != nil {
		return nil, &PipelineCreationError{Name: name, Status: StatusOf(err), Err: err}
	}
	info.Layout = layout

	handle, releasePipeline, err := b.createPipeline(info, layoutKey)
	if err != nil {
		if releaseLayout != nil {
			releaseLayout()
		}
		return nil, &PipelineCreationError{Name: name, Status: StatusOf(err), Err: err}
	}

	p := &Pipeline{
		name:            name,
		handle:          handle,
		layout:          layout,
		setup:           f,
		releasePipeline: releasePipeline,
		releaseLayout:   releaseLayout,
	}

	slogger().Debug("pipeline: built",
		"name", name,
		"stages", len(info.Stages),
		"vertex_bindings", info.VertexBindingCount(),
		"color_attachments", len(info.ColorBlend.Attachments),
		"unified", unifiedRendering)

	b.data = b.opts.base.Clone()
	return p, nil
}

// layoutFor returns the layout for f, a key identifying it for the cache,
// and a release function. An external layout is never destroyed; its
// release only drops the cache identity.
func (b *Builder) layoutFor(f *frozenSetup, label string) (any, uint64, func(), error) {
	if external := f.data.PipelineLayout; external != nil {
		if b.cache == nil {
			return external, 0, nil, nil
		}
		key, err := b.cache.pin(external)
		if err != nil {
			return nil, 0, nil, fmt.Errorf("pipeline layout: %w", err)
		}
		cache := b.cache
		return external, key, func() { cache.unpin([]any{external}) }, nil
	}

	info := &LayoutCreateInfo{
		Name:                 label,
		DescriptorSetLayouts: f.data.DescriptorSetLayouts,
		PushConstantRanges:   f.data.PushConstantRanges,
	}

	if b.cache != nil {
		layout, key, release, err := b.cache.acquireLayout(b.driver, info)
		if err != nil {
			return nil, 0, nil, fmt.Errorf("create pipeline layout: %w", err)
		}
		return layout, key, release, nil
	}

	layout, err := b.driver.CreatePipelineLayout(info)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("create pipeline layout: %w", err)
	}
	if layout == nil {
		return nil, 0, nil, fmt.Errorf("create pipeline layout: %w", ErrNilHandle)
	}
	driver := b.driver
	return layout, 0, func() { driver.DestroyPipelineLayout(layout) }, nil
}

// createPipeline creates or shares the driver pipeline for info.
func (b *Builder) createPipeline(info *CreateInfo, layoutKey uint64) (any, func(), error) {
	if b.cache != nil {
		return b.cache.acquirePipeline(b.driver, info, layoutKey)
	}

	handle, err := b.driver.CreateGraphicsPipeline(info)
	if err != nil {
		return nil, nil, err
	}
	if handle == nil {
		return nil, nil, ErrNilHandle
	}
	driver := b.driver
	return handle, func() { driver.DestroyPipeline(handle) }, nil
}
