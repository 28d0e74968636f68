package rendergraph

import (
	"fmt"
	"slices"

	"github.com/gogpu/rendergraph/resource"
)

// PassBuilder accumulates the resources and callback of one pass.
//
// Methods chain. The first failing call records an error that turns every
// later call into a no-op and is returned by Build. A PassBuilder is owned
// by one goroutine.
type PassBuilder struct {
	bufferReads  []resource.BufferHandle
	bufferWrites []resource.BufferHandle
	writes       []AttachmentWrite
	onRecord     RecordFunc

	err error
}

// NewPassBuilder returns an empty builder.
func NewPassBuilder() *PassBuilder {
	return &PassBuilder{}
}

// Err returns the error recorded by a failed chained call, if any.
func (b *PassBuilder) Err() error { return b.err }

// ReadsFrom records a buffer read. Duplicates are kept.
func (b *PassBuilder) ReadsFrom(buf resource.BufferHandle) *PassBuilder {
	if b.err != nil {
		return b
	}
	if !buf.IsLive() {
		b.err = fmt.Errorf("%w: buffer read", ErrInvalidReference)
		return b
	}
	b.bufferReads = append(b.bufferReads, buf)
	return b
}

// WritesToBuffer records a buffer write. Buffer writes are kept on the
// pass but do not take part in rendering descriptor compilation.
func (b *PassBuilder) WritesToBuffer(buf resource.BufferHandle) *PassBuilder {
	if b.err != nil {
		return b
	}
	if !buf.IsLive() {
		b.err = fmt.Errorf("%w: buffer write", ErrInvalidReference)
		return b
	}
	b.bufferWrites = append(b.bufferWrites, buf)
	return b
}

// WritesTo records an attachment write. With a clear value the attachment
// is cleared when the pass begins; without one its contents are loaded.
// At most one clear value may be given.
func (b *PassBuilder) WritesTo(a Attachment, clear ...ClearValue) *PassBuilder {
	if b.err != nil {
		return b
	}
	if len(clear) > 1 {
		b.err = fmt.Errorf("%w: %d clear values for one attachment", ErrInvalidArgument, len(clear))
		return b
	}
	if !a.IsLive() {
		b.err = fmt.Errorf("%w: %s attachment", ErrInvalidReference, a.Kind())
		return b
	}

	w := AttachmentWrite{Attachment: a}
	if len(clear) == 1 {
		c := clear[0]
		w.Clear = &c
	}
	b.writes = append(b.writes, w)
	return b
}

// SetOnRecord replaces the record callback. nil restores the no-op callback.
func (b *PassBuilder) SetOnRecord(fn RecordFunc) *PassBuilder {
	if b.err != nil {
		return b
	}
	b.onRecord = fn
	return b
}

// Reset discards all accumulated state and any recorded error.
func (b *PassBuilder) Reset() *PassBuilder {
	*b = PassBuilder{}
	return b
}

// Build validates the accumulated state and returns an immutable Pass.
//
// The pass extent is taken from the first texture write, or from the first
// swap-surface write if there is no texture write. Every other attachment
// must have the same extent.
//
// Build returns:
//   - the error of an earlier failed chained call
//   - ErrInvalidArgument if name is empty
//   - ErrInvalidReference if a handle expired since it was added
//   - ErrInvalidExtent if there is no attachment or the extent is zero
//   - *ExtentMismatchError (wrapping ErrInvalidExtent) on mismatched extents
//
// On success the builder is reset. On failure it is left as it was.
func (b *PassBuilder) Build(name string, color DebugColor) (*Pass, error) {
	if b.err != nil {
		return nil, b.err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: pass name is empty", ErrInvalidArgument)
	}

	for _, h := range b.bufferReads {
		if !h.IsLive() {
			return nil, fmt.Errorf("pass %q: %w: buffer read expired", name, ErrInvalidReference)
		}
	}
	for _, h := range b.bufferWrites {
		if !h.IsLive() {
			return nil, fmt.Errorf("pass %q: %w: buffer write expired", name, ErrInvalidReference)
		}
	}

	targets := make([]target, len(b.writes))
	for i, w := range b.writes {
		t, ok := w.Attachment.resolve()
		if !ok {
			return nil, fmt.Errorf("pass %q: %w: %s attachment %d expired",
				name, ErrInvalidReference, w.Attachment.Kind(), i)
		}
		targets[i] = t
	}

	extent, err := deriveExtent(name, b.writes, targets)
	if err != nil {
		return nil, err
	}

	onRecord := b.onRecord
	if onRecord == nil {
		onRecord = noRecord
	}

	p := newPass(name, color, onRecord,
		slices.Clip(slices.Clone(b.bufferReads)),
		slices.Clip(slices.Clone(b.bufferWrites)),
		slices.Clip(slices.Clone(b.writes)),
		extent)

	Logger().Debug("rendergraph: pass built",
		"name", name,
		"extent", extent.String(),
		"attachments", len(p.writes),
		"buffer_reads", len(p.bufferReads))

	b.Reset()
	return p, nil
}

// deriveExtent picks the pass extent and checks every attachment against it.
func deriveExtent(name string, writes []AttachmentWrite, targets []target) (resource.Extent, error) {
	src := -1
	for i, w := range writes {
		if w.Attachment.Kind() == AttachmentTexture {
			src = i
			break
		}
	}
	if src < 0 {
		for i, w := range writes {
			if w.Attachment.Kind() == AttachmentSwapSurface {
				src = i
				break
			}
		}
	}
	if src < 0 {
		return resource.Extent{}, fmt.Errorf("pass %q: %w: no attachment writes", name, ErrInvalidExtent)
	}

	extent := targets[src].extent
	if extent.IsZero() {
		return resource.Extent{}, fmt.Errorf("pass %q: %w: %s", name, ErrInvalidExtent, extent)
	}

	for _, t := range targets {
		if t.extent != extent {
			return resource.Extent{}, &ExtentMismatchError{
				Pass:       name,
				Attachment: t.label,
				Want:       extent,
				Got:        t.extent,
			}
		}
	}
	return extent, nil
}
