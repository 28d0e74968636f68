// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pipeline

import (
	"errors"
	"sync"
	"testing"

	"github.com/gogpu/gputypes"
)

func buildTriangle(t *testing.T, b *Builder, vs, fs ShaderStage, name string) *Pipeline {
	t.Helper()
	p, err := b.AddShader(vs).AddShader(fs).
		AddDefaultColorBlendAttachment().
		AddColorAttachmentFormat(gputypes.TextureFormatBGRA8Unorm).
		Build(name, true)
	if err != nil {
		t.Fatalf("Build %s: %v", name, err)
	}
	return p
}

func TestCacheSharesIdenticalPipelines(t *testing.T) {
	drv := &recordingDriver{}
	cache := NewCache()
	b := NewBuilder(drv, cache)
	vs, fs := shaderPair()

	p1 := buildTriangle(t, b, vs, fs, "a")
	p2 := buildTriangle(t, b, vs, fs, "b")

	if p1.Handle() != p2.Handle() {
		t.Error("identical state should share the driver pipeline")
	}
	if p1.Layout() != p2.Layout() {
		t.Error("identical layouts should be shared")
	}
	if p1.CreateInfo() == p2.CreateInfo() {
		t.Error("each pipeline keeps its own frozen descriptor")
	}
	if cache.Size() != 1 || cache.LayoutCount() != 1 {
		t.Errorf("Size()=%d LayoutCount()=%d, want 1 and 1", cache.Size(), cache.LayoutCount())
	}

	hits, misses := cache.Stats()
	if hits != 2 || misses != 2 {
		t.Errorf("Stats() = %d hits, %d misses; want 2, 2", hits, misses)
	}
	if cache.HitRate() != 0.5 {
		t.Errorf("HitRate() = %v, want 0.5", cache.HitRate())
	}

	p1.Destroy()
	if _, _, dl, dp := drv.counts(); dl != 0 || dp != 0 {
		t.Error("shared objects must survive while another pipeline uses them")
	}

	p2.Destroy()
	if _, _, dl, dp := drv.counts(); dl != 1 || dp != 1 {
		t.Errorf("destroyed layouts=%d pipelines=%d after last release, want 1 and 1", dl, dp)
	}
	if cache.Size() != 0 || cache.LayoutCount() != 0 {
		t.Error("cache should be empty after the last release")
	}
}

func TestCacheDistinguishesState(t *testing.T) {
	drv := &recordingDriver{}
	cache := NewCache()
	b := NewBuilder(drv, cache)
	vs, fs := shaderPair()
	_, otherFS := shaderPair()

	p1 := buildTriangle(t, b, vs, fs, "a")
	defer p1.Destroy()
	p2 := buildTriangle(t, b, vs, otherFS, "b")
	defer p2.Destroy()
	p3, err := b.AddShader(vs).AddShader(fs).
		AddDefaultColorBlendAttachment().
		AddColorAttachmentFormat(gputypes.TextureFormatBGRA8Unorm).
		SetWireframe(true).
		Build("c", true)
	if err != nil {
		t.Fatalf("Build c: %v", err)
	}
	defer p3.Destroy()

	if p1.Handle() == p2.Handle() {
		t.Error("different shader modules must not share a pipeline")
	}
	if p1.Handle() == p3.Handle() {
		t.Error("different polygon modes must not share a pipeline")
	}
	if cache.Size() != 3 {
		t.Errorf("Size() = %d, want 3", cache.Size())
	}
	if cache.LayoutCount() != 1 {
		t.Errorf("LayoutCount() = %d, want 1", cache.LayoutCount())
	}
}

func TestCacheDoesNotStoreFailures(t *testing.T) {
	drv := &recordingDriver{pipelineErr: errDriver("rejected")}
	cache := NewCache()
	vs, fs := shaderPair()

	b := NewBuilder(drv, cache).AddShader(vs).AddShader(fs)
	if _, err := b.Build("bad", true); err == nil {
		t.Fatal("expected failure")
	}
	if cache.Size() != 0 {
		t.Error("failed pipelines must not be cached")
	}
	if cache.LayoutCount() != 0 {
		t.Error("layout acquired for a failed pipeline must be released")
	}

	drv.pipelineErr = nil
	p, err := b.Build("good", true)
	if err != nil {
		t.Fatalf("retry Build: %v", err)
	}
	p.Destroy()
}

func TestCacheConcurrentBuilds(t *testing.T) {
	drv := &recordingDriver{}
	cache := NewCache()
	vs, fs := shaderPair()

	const workers = 8
	results := make([]*Pipeline, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b := NewBuilder(drv, cache)
			p, err := b.AddShader(vs).AddShader(fs).Build("shared", true)
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
				return
			}
			results[i] = p
		}(i)
	}
	wg.Wait()

	for _, p := range results {
		if p == nil {
			t.Fatal("missing pipeline")
		}
		if p.Handle() != results[0].Handle() {
			t.Error("concurrent builders should share one driver pipeline")
		}
	}
	if _, created, _, _ := drv.counts(); created != 1 {
		t.Errorf("driver created %d pipelines, want 1", created)
	}

	for _, p := range results {
		p.Destroy()
	}
	if _, _, _, dp := drv.counts(); dp != 1 {
		t.Errorf("driver destroyed %d pipelines, want 1", dp)
	}
}

func TestCacheResetStats(t *testing.T) {
	cache := NewCache()
	if cache.HitRate() != 0 {
		t.Error("HitRate() should be 0 with no requests")
	}
	p, err := NewBuilder(&recordingDriver{}, cache).Build("x", true)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer p.Destroy()

	cache.ResetStats()
	if h, m := cache.Stats(); h != 0 || m != 0 {
		t.Errorf("Stats() after reset = %d, %d", h, m)
	}
}

func TestCacheForgetsDestroyedHandles(t *testing.T) {
	drv := &recordingDriver{}
	cache := NewCache()
	b := NewBuilder(drv, cache)

	for i := range 100 {
		vs := ShaderStage{Stage: StageVertex, Module: &fakeHandle{kind: "vs", id: i}, EntryPoint: "vs_main"}
		fs := ShaderStage{Stage: StageFragment, Module: &fakeHandle{kind: "fs", id: i}, EntryPoint: "fs_main"}
		p := buildTriangle(t, b, vs, fs, "cycle")

		q, err := b.AddShader(vs).
			SetDescriptorSetLayout(&fakeHandle{kind: "set", id: i}).
			SetRenderPass(&fakeHandle{kind: "pass", id: i}).
			Build("render-pass", false)
		if err != nil {
			t.Fatalf("Build render-pass: %v", err)
		}
		r, err := b.AddShader(vs).SetPipelineLayout(&fakeHandle{kind: "external", id: i}).Build("external", true)
		if err != nil {
			t.Fatalf("Build external: %v", err)
		}

		if cache.pinnedHandles() == 0 {
			t.Fatal("live pipelines should hold their handle identities")
		}
		p.Destroy()
		q.Destroy()
		r.Destroy()
	}

	if cache.Size() != 0 || cache.LayoutCount() != 0 {
		t.Errorf("Size()=%d LayoutCount()=%d, want 0 and 0", cache.Size(), cache.LayoutCount())
	}
	if n := cache.pinnedHandles(); n != 0 {
		t.Errorf("%d handle identities outlived their pipelines", n)
	}
}

func TestCacheSharedHandleSurvivesPartialDestroy(t *testing.T) {
	cache := NewCache()
	b := NewBuilder(&recordingDriver{}, cache)
	vs, fs := shaderPair()

	p1 := buildTriangle(t, b, vs, fs, "a")
	p2 := buildTriangle(t, b, vs, fs, "b")
	p1.Destroy()
	if cache.pinnedHandles() != 2 {
		t.Errorf("pinnedHandles() = %d, want 2 while one pipeline remains", cache.pinnedHandles())
	}

	// A rebuild after partial destruction must still hit the shared entry.
	cache.ResetStats()
	p3 := buildTriangle(t, b, vs, fs, "c")
	if hits, _ := cache.Stats(); hits != 2 {
		t.Errorf("rebuild hits = %d, want 2", hits)
	}
	p2.Destroy()
	p3.Destroy()
	if cache.pinnedHandles() != 0 {
		t.Errorf("pinnedHandles() = %d after destroying everything", cache.pinnedHandles())
	}
}

func TestCacheRejectsUncomparableHandle(t *testing.T) {
	drv := &recordingDriver{}
	cache := NewCache()
	vs, _ := shaderPair()
	fs := ShaderStage{Stage: StageFragment, Module: []uint32{0x07230203}, EntryPoint: "fs_main"}

	p, err := NewBuilder(drv, cache).AddShader(vs).AddShader(fs).Build("spirv", true)
	if err == nil {
		p.Destroy()
		t.Fatal("Build with a slice module should fail")
	}
	var pce *PipelineCreationError
	if !errors.As(err, &pce) || !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Build error = %v, want *PipelineCreationError wrapping ErrInvalidArgument", err)
	}

	if _, created, _, _ := drv.counts(); created != 0 {
		t.Errorf("driver created %d pipelines, want 0", created)
	}
	if cache.Size() != 0 || cache.LayoutCount() != 0 || cache.pinnedHandles() != 0 {
		t.Errorf("failed build left state: pipelines=%d layouts=%d handles=%d",
			cache.Size(), cache.LayoutCount(), cache.pinnedHandles())
	}
}

func TestCacheRejectsUncomparableExternalLayout(t *testing.T) {
	_, err := NewBuilder(&recordingDriver{}, NewCache()).
		SetPipelineLayout(map[string]int{}).
		Build("bad-layout", true)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Build error = %v, want ErrInvalidArgument", err)
	}
}
