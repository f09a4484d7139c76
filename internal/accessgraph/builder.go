// Package accessgraph builds the weighted class-to-class access graph used to
// score candidate component groupings.
package accessgraph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/efebarandurmaz/archrecover/internal/filter"
	"github.com/efebarandurmaz/archrecover/internal/ir"
	"github.com/efebarandurmaz/archrecover/internal/observability"
)

// ErrInvariant reports a structural invariant violation in a built graph. It
// indicates a filtering bug upstream and aborts the reconstruction run.
var ErrInvariant = errors.New("access graph invariant violated")

// Options configures Build.
type Options struct {
	Blacklist *filter.Blacklist
	Logger    *slog.Logger
}

// Build creates the access graph over units. Vertices are the non-primitive,
// non-blacklisted units; edges fold every remaining non-inheritance access
// between two distinct vertices, one count per access.
func Build(ctx context.Context, p *ir.Program, units []*ir.Unit, opts Options) (*Graph, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	g := newGraph()
	retained := filter.Units(units, opts.Blacklist)
	for _, u := range retained {
		g.addVertex(u)
	}
	if err := g.Validate(opts.Blacklist); err != nil {
		return nil, fmt.Errorf("after adding vertices: %w", err)
	}

	for _, u := range retained {
		source := u.QualifiedName()
		for _, a := range filter.Accesses(p.AccessesFrom(source), opts.Blacklist) {
			if a.Target == source {
				continue
			}
			e := g.edgeFor(source, a.Target)
			if e == nil {
				logger.Log(ctx, observability.LevelTrace, "skipping access outside vertex set",
					"source", source, "target", a.Target, "kind", a.Kind)
				continue
			}
			e.Count++
		}
	}

	if err := g.Validate(opts.Blacklist); err != nil {
		return nil, fmt.Errorf("after adding edges: %w", err)
	}

	logger.Debug("Built access graph", "vertices", g.VertexCount(), "edges", g.EdgeCount())
	return g, nil
}

// Validate checks the structural invariants: no primitive or blacklisted
// vertex, no self loop, every edge endpoint is a vertex and every edge has a
// positive count.
func (g *Graph) Validate(bl *filter.Blacklist) error {
	for name, u := range g.vertices {
		if u.Primitive {
			return fmt.Errorf("%w: primitive unit %q is a vertex", ErrInvariant, name)
		}
		if bl.Matches(name) {
			return fmt.Errorf("%w: blacklisted unit %q is a vertex", ErrInvariant, name)
		}
	}
	for k, e := range g.edges {
		if k.from == k.to {
			return fmt.Errorf("%w: self loop on %q", ErrInvariant, k.from)
		}
		if !g.HasVertex(k.from) || !g.HasVertex(k.to) {
			return fmt.Errorf("%w: dangling edge %s -> %s", ErrInvariant, k.from, k.to)
		}
		if e.Count <= 0 {
			return fmt.Errorf("%w: edge %s -> %s has count %d", ErrInvariant, k.from, k.to, e.Count)
		}
	}
	return nil
}
