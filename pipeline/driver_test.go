// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pipeline

import (
	"fmt"
	"sync"
)

// fakeHandle is a comparable driver object.
type fakeHandle struct {
	kind string
	id   int
}

// recordingDriver records every call and can be told to fail.
type recordingDriver struct {
	mu sync.Mutex

	next int

	layoutErr   error
	pipelineErr error

	layouts            []*LayoutCreateInfo
	pipelines          []*CreateInfo
	destroyedLayouts   []any
	destroyedPipelines []any

	// onCreate runs inside CreateGraphicsPipeline before it returns.
	onCreate func(info *CreateInfo)
}

func (d *recordingDriver) CreatePipelineLayout(info *LayoutCreateInfo) (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.layoutErr != nil {
		return nil, d.layoutErr
	}
	d.next++
	d.layouts = append(d.layouts, info)
	return &fakeHandle{kind: "layout", id: d.next}, nil
}

func (d *recordingDriver) DestroyPipelineLayout(layout any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroyedLayouts = append(d.destroyedLayouts, layout)
}

func (d *recordingDriver) CreateGraphicsPipeline(info *CreateInfo) (any, error) {
	if d.onCreate != nil {
		d.onCreate(info)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pipelineErr != nil {
		return nil, d.pipelineErr
	}
	d.next++
	d.pipelines = append(d.pipelines, info)
	return &fakeHandle{kind: "pipeline", id: d.next}, nil
}

func (d *recordingDriver) DestroyPipeline(pipeline any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroyedPipelines = append(d.destroyedPipelines, pipeline)
}

func (d *recordingDriver) counts() (layouts, pipelines, destroyedLayouts, destroyedPipelines int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.layouts), len(d.pipelines), len(d.destroyedLayouts), len(d.destroyedPipelines)
}

var _ Driver = (*recordingDriver)(nil)

// shaderPair returns distinct vertex and fragment stages.
func shaderPair() (ShaderStage, ShaderStage) {
	return ShaderStage{Stage: StageVertex, Module: &fakeHandle{kind: "vs"}, EntryPoint: "vs_main"},
		ShaderStage{Stage: StageFragment, Module: &fakeHandle{kind: "fs"}, EntryPoint: "fs_main"}
}

func errDriver(msg string) error { return fmt.Errorf("fake driver: %s", msg) }
