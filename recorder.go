package rendergraph

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/rendergraph/pipeline"
	"github.com/gogpu/rendergraph/resource"
)

// Recorder records draw commands inside a begun render pass.
//
// Backends implement Recorder on top of their command encoders; see
// backend/native. Methods taking handles fail when the handle has expired
// or has no GPU object behind it.
type Recorder interface {
	// Pass returns the pass being recorded.
	Pass() *Pass

	SetPipeline(p *pipeline.Pipeline) error
	SetBindGroup(index uint32, group any) error
	SetVertexBuffer(slot uint32, buf resource.BufferHandle) error
	SetIndexBuffer(buf resource.BufferHandle, format gputypes.IndexFormat) error

	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
}

// RecordFunc records the commands of one pass. It may run on any
// goroutine and must not modify the pass.
type RecordFunc func(rec Recorder)

// noRecord is the callback of a pass built without SetOnRecord.
func noRecord(Recorder) {}
