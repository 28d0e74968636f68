// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"context"
	"fmt"
	"sync"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rendergraph"
)

// inFlight is a submitted command buffer waiting for the GPU.
type inFlight struct {
	index uint64
	cmd   hal.CommandBuffer
}

// Renderer records a graph into one command buffer per frame and submits
// it to the queue. Command buffers are freed once the queue reports their
// submission complete.
//
// Renderer is safe for concurrent use; frames are serialized.
type Renderer struct {
	mu      sync.Mutex
	device  hal.Device
	queue   hal.Queue
	pending []inFlight
	frames  uint64
	closed  bool
}

// NewRenderer returns a renderer submitting to queue.
func NewRenderer(device hal.Device, queue hal.Queue) (*Renderer, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	if queue == nil {
		return nil, ErrNilQueue
	}
	return &Renderer{device: device, queue: queue}, nil
}

// Render records every pass of g in order and submits the result. It
// returns the submission index. On error nothing is submitted.
func (r *Renderer) Render(ctx context.Context, g *rendergraph.Graph) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, ErrRendererClosed
	}

	r.reclaimLocked()
	r.frames++

	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: fmt.Sprintf("frame_%d", r.frames),
	})
	if err != nil {
		return 0, fmt.Errorf("native: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("rendergraph"); err != nil {
		return 0, fmt.Errorf("native: begin encoding: %w", err)
	}

	err = g.Record(ctx, func(_ context.Context, p *rendergraph.Pass, rd *rendergraph.RenderingDescriptor) error {
		return RecordPass(encoder, p, rd)
	})
	if err != nil {
		encoder.DiscardEncoding()
		return 0, err
	}

	cmd, err := encoder.EndEncoding()
	if err != nil {
		return 0, fmt.Errorf("native: end encoding: %w", err)
	}

	index, err := r.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		r.device.FreeCommandBuffer(cmd)
		return 0, fmt.Errorf("native: submit: %w", err)
	}
	r.pending = append(r.pending, inFlight{index: index, cmd: cmd})

	rendergraph.Logger().Debug("native: frame submitted",
		"frame", r.frames, "passes", g.Len(), "submission", index)
	return index, nil
}

// Pending returns the number of submitted command buffers not yet freed.
func (r *Renderer) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// reclaimLocked frees command buffers whose submission has completed.
func (r *Renderer) reclaimLocked() {
	done := r.queue.PollCompleted()
	kept := r.pending[:0]
	for _, f := range r.pending {
		if f.index <= done {
			r.device.FreeCommandBuffer(f.cmd)
			continue
		}
		kept = append(kept, f)
	}
	clear(r.pending[len(kept):])
	r.pending = kept
}

// Close waits for the device to go idle and frees every pending command
// buffer. It is safe to call more than once.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	err := r.device.WaitIdle()
	for _, f := range r.pending {
		r.device.FreeCommandBuffer(f.cmd)
	}
	r.pending = nil
	if err != nil {
		return fmt.Errorf("native: wait idle: %w", err)
	}
	return nil
}
