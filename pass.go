package rendergraph

import (
	"sync"

	"github.com/gogpu/rendergraph/resource"
)

// Pass is one immutable render step: the resources it touches, the
// extent shared by its attachments, and the callback that records it.
//
// Accessors return copies or read-only views. A Pass may be recorded from
// any goroutine.
type Pass struct {
	name         string
	debugColor   DebugColor
	onRecord     RecordFunc
	bufferReads  []resource.BufferHandle
	bufferWrites []resource.BufferHandle
	writes       []AttachmentWrite
	extent       resource.Extent

	// mu guards compilation of rendering. The descriptor and its backing
	// storage are allocated once in newPass and rewritten in place.
	mu        sync.Mutex
	compiled  bool
	rendering RenderingDescriptor
	colors    []AttachmentInfo
	depth     AttachmentInfo
	stencil   AttachmentInfo
}

func newPass(
	name string,
	color DebugColor,
	onRecord RecordFunc,
	reads, bufWrites []resource.BufferHandle,
	writes []AttachmentWrite,
	extent resource.Extent,
) *Pass {
	return &Pass{
		name:         name,
		debugColor:   color,
		onRecord:     onRecord,
		bufferReads:  reads,
		bufferWrites: bufWrites,
		writes:       writes,
		extent:       extent,
		colors:       make([]AttachmentInfo, 0, len(writes)),
	}
}

// Name returns the pass name.
func (p *Pass) Name() string { return p.name }

// Extent returns the size shared by all attachments.
func (p *Pass) Extent() resource.Extent { return p.extent }

// DebugColor returns the debug label color.
func (p *Pass) DebugColor() DebugColor { return p.debugColor }

// BufferReads returns the buffers read by the pass in insertion order.
func (p *Pass) BufferReads() []resource.BufferHandle {
	return append([]resource.BufferHandle(nil), p.bufferReads...)
}

// BufferWrites returns the buffers written by the pass.
func (p *Pass) BufferWrites() []resource.BufferHandle {
	return append([]resource.BufferHandle(nil), p.bufferWrites...)
}

// AttachmentWrites returns the attachment writes in insertion order.
func (p *Pass) AttachmentWrites() []AttachmentWrite {
	out := make([]AttachmentWrite, len(p.writes))
	for i, w := range p.writes {
		out[i] = w
		if w.Clear != nil {
			c := *w.Clear
			out[i].Clear = &c
		}
	}
	return out
}

// Record invokes the record callback with rec.
func (p *Pass) Record(rec Recorder) {
	p.onRecord(rec)
}

// Rendering returns the compiled rendering descriptor, compiling it on
// first use. The returned pointer is the same for the life of the pass.
func (p *Pass) Rendering() (*RenderingDescriptor, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.compiled {
		if err := p.compileLocked(); err != nil {
			return nil, err
		}
	}
	return &p.rendering, nil
}

// CompileRendering recompiles the rendering descriptor in place, picking
// up the current views of the attachments (a swap surface gets a new view
// every frame). The result is identical for identical inputs and its
// storage never moves.
//
// The pass extent is fixed at Build. If an attachment has been resized
// since, CompileRendering returns *ExtentMismatchError and the pass must
// be rebuilt.
func (p *Pass) CompileRendering() (*RenderingDescriptor, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.compileLocked(); err != nil {
		return nil, err
	}
	return &p.rendering, nil
}
