// Package metric scores ordered pairs of implementation units. Leaf metrics
// read the access graph directly; composed metrics combine the results of
// other metrics for the same pair.
package metric

import (
	"sort"

	"github.com/efebarandurmaz/archrecover/internal/accessgraph"
)

// ID names a metric.
type ID string

// Relation is the working record of computed metric values for one ordered
// pair of units.
type Relation struct {
	Source  string         `json:"source"`
	Target  string         `json:"target"`
	Results map[ID]float64 `json:"results"`
}

// NewRelation creates an empty relation for source -> target.
func NewRelation(source, target string) *Relation {
	return &Relation{Source: source, Target: target, Results: make(map[ID]float64)}
}

// Has reports whether a result for id is present.
func (r *Relation) Has(id ID) bool {
	_, ok := r.Results[id]
	return ok
}

// Value returns the result for id, or 0 when absent.
func (r *Relation) Value(id ID) float64 {
	return r.Results[id]
}

// IDs returns the computed metric ids sorted.
func (r *Relation) IDs() []ID {
	ids := make([]ID, 0, len(r.Results))
	for id := range r.Results {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Env carries what leaf metrics read.
type Env struct {
	Graph *accessgraph.Graph
}

// Metric computes a directed result for an ordered pair of units. Children
// lists the metrics whose results must already be present in the relation
// when Compute is called.
type Metric interface {
	ID() ID
	Children() []ID
	// Commutative reports whether the metric's own computation is symmetric
	// in the pair. A composed metric is only commutative overall when all of
	// its children are; see Registry.IsCommutative.
	Commutative() bool
	Compute(rel *Relation, env *Env) float64
}
