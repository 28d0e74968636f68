// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pipeline

// Driver creates and destroys the GPU objects behind a Pipeline.
//
// Handles are opaque to this package. They must be comparable because the
// Cache keys on their identity. A failing call may return an error that
// implements StatusError to report a specific status code.
type Driver interface {
	// CreatePipelineLayout creates a layout from descriptor-set layouts and
	// push-constant ranges.
	CreatePipelineLayout(info *LayoutCreateInfo) (any, error)

	// DestroyPipelineLayout releases a layout created by CreatePipelineLayout.
	DestroyPipelineLayout(layout any)

	// CreateGraphicsPipeline creates a pipeline. info and everything it
	// references stay valid and unchanged until the call returns.
	CreateGraphicsPipeline(info *CreateInfo) (any, error)

	// DestroyPipeline releases a pipeline created by CreateGraphicsPipeline.
	DestroyPipeline(pipeline any)
}
