package metric

import "fmt"

// Engine evaluates a fixed set of root metrics, and everything they depend
// on, for clustering relations.
type Engine struct {
	roots       []ID
	order       []Metric
	commutative bool
	env         *Env
}

// NewEngine resolves roots against the registry. Unknown children and cycles
// are reported here as *ConfigError.
func NewEngine(r *Registry, env *Env, roots ...ID) (*Engine, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("metric engine needs at least one root metric")
	}
	order, err := r.resolve(roots)
	if err != nil {
		return nil, err
	}
	commutative := true
	for _, id := range roots {
		c, err := r.IsCommutative(id)
		if err != nil {
			return nil, err
		}
		commutative = commutative && c
	}
	return &Engine{
		roots:       append([]ID(nil), roots...),
		order:       order,
		commutative: commutative,
		env:         env,
	}, nil
}

// Roots returns the configured root metrics.
func (e *Engine) Roots() []ID { return append([]ID(nil), e.roots...) }

// Order returns every evaluated metric id in evaluation order.
func (e *Engine) Order() []ID {
	ids := make([]ID, len(e.order))
	for i, m := range e.order {
		ids[i] = m.ID()
	}
	return ids
}

// Commutative reports whether all root metrics are commutative, in which case
// only one direction of each pair needs computing.
func (e *Engine) Commutative() bool { return e.commutative }

// Compute fills rel with every metric in evaluation order. A result already
// present is never recomputed.
func (e *Engine) Compute(rel *Relation) {
	if rel.Results == nil {
		rel.Results = make(map[ID]float64)
	}
	for _, m := range e.order {
		if rel.Has(m.ID()) {
			continue
		}
		rel.Results[m.ID()] = m.Compute(rel, e.env)
	}
}

// ComputeAll computes every relation in order.
func (e *Engine) ComputeAll(rels []*Relation) {
	for _, rel := range rels {
		e.Compute(rel)
	}
}
