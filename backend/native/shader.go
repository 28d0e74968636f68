// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rendergraph/pipeline"
)

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

// CompileShaderToSPIRV translates WGSL with naga and returns the module as
// SPIR-V words, ready for hal.ShaderSource.
func CompileShaderToSPIRV(wgslSource string) ([]uint32, error) {
	blob, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("native: compile shader: %w", err)
	}
	if len(blob) < 4 || len(blob)%4 != 0 {
		return nil, fmt.Errorf("native: compile shader: %w: %d bytes", ErrMalformedSPIRV, len(blob))
	}

	words := make([]uint32, 0, len(blob)/4)
	for b := blob; len(b) > 0; b = b[4:] {
		words = append(words, binary.LittleEndian.Uint32(b))
	}
	if words[0] != spirvMagic {
		return nil, fmt.Errorf("native: compile shader: %w: magic %#x", ErrMalformedSPIRV, words[0])
	}
	return words, nil
}

// CompileShaderModule compiles WGSL source and creates a shader module.
func CompileShaderModule(device hal.Device, label, wgslSource string) (hal.ShaderModule, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	code, err := CompileShaderToSPIRV(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: code},
	})
	if err != nil {
		return nil, fmt.Errorf("native: create shader module %q: %w", label, err)
	}
	return module, nil
}

// ShaderProgram is a compiled vertex and fragment shader pair sharing one
// module.
type ShaderProgram struct {
	device hal.Device
	module hal.ShaderModule

	VertexEntry   string
	FragmentEntry string
}

// NewShaderProgram compiles a WGSL source containing both entry points.
func NewShaderProgram(device hal.Device, label, wgslSource, vertexEntry, fragmentEntry string) (*ShaderProgram, error) {
	module, err := CompileShaderModule(device, label, wgslSource)
	if err != nil {
		return nil, err
	}
	return &ShaderProgram{
		device:        device,
		module:        module,
		VertexEntry:   vertexEntry,
		FragmentEntry: fragmentEntry,
	}, nil
}

// Module returns the shader module.
func (s *ShaderProgram) Module() hal.ShaderModule { return s.module }

// Stages returns the vertex and fragment stages for a pipeline builder.
func (s *ShaderProgram) Stages() []pipeline.ShaderStage {
	return []pipeline.ShaderStage{
		{Stage: pipeline.StageVertex, Module: s.module, EntryPoint: s.VertexEntry},
		{Stage: pipeline.StageFragment, Module: s.module, EntryPoint: s.FragmentEntry},
	}
}

// Destroy releases the shader module. Pipelines created from it stay valid.
func (s *ShaderProgram) Destroy() {
	if s.module != nil {
		s.device.DestroyShaderModule(s.module)
		s.module = nil
	}
}
