// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pipeline

import "sync"

// Pipeline is a compiled graphics pipeline and the layout it was built with.
//
// A Pipeline is immutable and may be shared between goroutines. Destroy
// releases the driver objects exactly once.
type Pipeline struct {
	name   string
	handle any
	layout any

	// setup keeps the frozen state the CreateInfo points into alive.
	setup *frozenSetup

	releasePipeline func()
	releaseLayout   func()

	mu        sync.Mutex
	destroyed bool
}

// Name returns the pipeline name given to Build.
func (p *Pipeline) Name() string { return p.name }

// Handle returns the driver pipeline (hal.RenderPipeline for the native
// backend).
func (p *Pipeline) Handle() any { return p.handle }

// Layout returns the driver pipeline layout.
func (p *Pipeline) Layout() any { return p.layout }

// CreateInfo returns the descriptor the pipeline was created from.
// The returned value must not be modified.
func (p *Pipeline) CreateInfo() *CreateInfo { return &p.setup.info }

// IsDestroyed reports whether Destroy has been called.
func (p *Pipeline) IsDestroyed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.destroyed
}

// Destroy releases the pipeline and then its layout. Safe to call more
// than once; only the first call has an effect.
func (p *Pipeline) Destroy() {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return
	}
	p.destroyed = true
	p.mu.Unlock()

	if p.releasePipeline != nil {
		p.releasePipeline()
	}
	if p.releaseLayout != nil {
		p.releaseLayout()
	}
	slogger().Debug("pipeline: destroyed", "name", p.name)
}
