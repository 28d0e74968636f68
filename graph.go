package rendergraph

import (
	"context"
	"fmt"
)

// RecordPassFunc records one compiled pass, typically by beginning a
// backend render pass from rd and calling p.Record inside it.
type RecordPassFunc func(ctx context.Context, p *Pass, rd *RenderingDescriptor) error

// Graph is an ordered list of passes recorded once per frame.
//
// Scheduling, barriers and resource aliasing are left to the caller;
// passes are recorded in the order they were added. A Graph is not safe
// for concurrent modification.
type Graph struct {
	passes []*Pass
	byName map[string]int
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{byName: make(map[string]int)}
}

// AddPass appends p. Pass names must be unique within a graph.
func (g *Graph) AddPass(p *Pass) error {
	if p == nil {
		return fmt.Errorf("%w: nil pass", ErrInvalidArgument)
	}
	if _, dup := g.byName[p.Name()]; dup {
		return fmt.Errorf("%w: duplicate pass %q", ErrInvalidArgument, p.Name())
	}
	g.byName[p.Name()] = len(g.passes)
	g.passes = append(g.passes, p)
	return nil
}

// Pass returns the pass with the given name.
func (g *Graph) Pass(name string) (*Pass, bool) {
	i, ok := g.byName[name]
	if !ok {
		return nil, false
	}
	return g.passes[i], true
}

// Passes returns the passes in recording order.
func (g *Graph) Passes() []*Pass {
	return append([]*Pass(nil), g.passes...)
}

// Len returns the number of passes.
func (g *Graph) Len() int { return len(g.passes) }

// Compile recompiles the rendering descriptor of every pass and returns
// the first error.
func (g *Graph) Compile() error {
	for _, p := range g.passes {
		if _, err := p.CompileRendering(); err != nil {
			return err
		}
	}
	return nil
}

// Record compiles each pass and hands it to fn in order. It stops at the
// first error or when ctx is canceled between passes.
func (g *Graph) Record(ctx context.Context, fn RecordPassFunc) error {
	for _, p := range g.passes {
		if err := ctx.Err(); err != nil {
			return err
		}
		rd, err := p.CompileRendering()
		if err != nil {
			return err
		}
		if err := fn(ctx, p, rd); err != nil {
			return fmt.Errorf("record pass %q: %w", p.Name(), err)
		}
	}
	Logger().Debug("rendergraph: graph recorded", "passes", len(g.passes))
	return nil
}
