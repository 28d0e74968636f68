package rendergraph

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/gogpu/gputypes"
)

func buildPass(t *testing.T, f *fixture, name string) *Pass {
	t.Helper()
	p, err := NewPassBuilder().
		WritesTo(TextureAttachment(f.texture(name, 64, 64, gputypes.TextureFormatRGBA8Unorm)), ClearColor(gputypes.Color{A: 1})).
		Build(name, DebugColorNone)
	if err != nil {
		t.Fatalf("Build %s: %v", name, err)
	}
	return p
}

func TestGraphRecordsInOrder(t *testing.T) {
	f := newFixture(t)
	g := NewGraph()
	for _, name := range []string{"shadow", "gbuffer", "lighting"} {
		if err := g.AddPass(buildPass(t, f, name)); err != nil {
			t.Fatalf("AddPass %s: %v", name, err)
		}
	}

	var order []string
	err := g.Record(context.Background(), func(_ context.Context, p *Pass, rd *RenderingDescriptor) error {
		if rd.Label != p.Name() {
			t.Errorf("descriptor label %q for pass %q", rd.Label, p.Name())
		}
		order = append(order, p.Name())
		return nil
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	want := []string{"shadow", "gbuffer", "lighting"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
	if g.Len() != 3 {
		t.Errorf("Len() = %d, want 3", g.Len())
	}
	if p, ok := g.Pass("gbuffer"); !ok || p.Name() != "gbuffer" {
		t.Error("Pass(gbuffer) lookup failed")
	}
	if _, ok := g.Pass("missing"); ok {
		t.Error("Pass(missing) should not be found")
	}
}

func TestGraphAddPassRejects(t *testing.T) {
	f := newFixture(t)
	g := NewGraph()

	if err := g.AddPass(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("AddPass(nil) = %v, want ErrInvalidArgument", err)
	}
	if err := g.AddPass(buildPass(t, f, "main")); err != nil {
		t.Fatalf("AddPass: %v", err)
	}
	if err := g.AddPass(buildPass(t, f, "main")); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("duplicate AddPass = %v, want ErrInvalidArgument", err)
	}
	if g.Len() != 1 {
		t.Errorf("Len() = %d, want 1", g.Len())
	}
}

func TestGraphRecordStopsOnError(t *testing.T) {
	f := newFixture(t)
	g := NewGraph()
	_ = g.AddPass(buildPass(t, f, "first"))
	_ = g.AddPass(buildPass(t, f, "second"))

	errBoom := errors.New("boom")
	calls := 0
	err := g.Record(context.Background(), func(context.Context, *Pass, *RenderingDescriptor) error {
		calls++
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("Record error = %v, want wrapped errBoom", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestGraphRecordHonorsCancel(t *testing.T) {
	f := newFixture(t)
	g := NewGraph()
	_ = g.AddPass(buildPass(t, f, "first"))
	_ = g.AddPass(buildPass(t, f, "second"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	err := g.Record(ctx, func(context.Context, *Pass, *RenderingDescriptor) error {
		calls++
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Record error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestGraphCompileReportsExpired(t *testing.T) {
	f := newFixture(t)
	tex := f.texture("transient", 16, 16, gputypes.TextureFormatRGBA8Unorm)
	p, err := NewPassBuilder().WritesTo(TextureAttachment(tex)).Build("transient", DebugColorNone)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	g := NewGraph()
	_ = g.AddPass(p)

	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	f.reg.DestroyTexture(tex)
	if err := g.Compile(); !errors.Is(err, ErrInvalidReference) {
		t.Errorf("Compile after destroy = %v, want ErrInvalidReference", err)
	}
}

func TestGraphPassesIsCopy(t *testing.T) {
	f := newFixture(t)
	g := NewGraph()
	_ = g.AddPass(buildPass(t, f, "only"))

	ps := g.Passes()
	ps[0] = nil
	if g.Passes()[0] == nil {
		t.Error("Passes must return a copy")
	}
}
