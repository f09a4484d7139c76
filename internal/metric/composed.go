package metric

import (
	"fmt"
	"math"
)

// CompositionFunc combines child results, given in the order of Children().
type CompositionFunc func(children []float64) float64

// Composed is a metric computed from other metrics' results for the same
// relation.
type Composed struct {
	id       ID
	children []ID
	fn       CompositionFunc
}

// NewComposed creates a composed metric.
func NewComposed(id ID, children []ID, fn CompositionFunc) *Composed {
	return &Composed{id: id, children: append([]ID(nil), children...), fn: fn}
}

// NewRatio creates numerator / denominator. A zero denominator yields 0.
func NewRatio(id, numerator, denominator ID) *Composed {
	return NewComposed(id, []ID{numerator, denominator}, func(v []float64) float64 {
		return ratio(v[0], v[1])
	})
}

// NewWeightedSum creates sum(weight_i * child_i).
func NewWeightedSum(id ID, children []ID, weights []float64) (*Composed, error) {
	if len(children) == 0 {
		return nil, fmt.Errorf("weighted sum %q has no children", id)
	}
	if len(children) != len(weights) {
		return nil, fmt.Errorf("weighted sum %q has %d children but %d weights", id, len(children), len(weights))
	}
	w := append([]float64(nil), weights...)
	return NewComposed(id, children, func(v []float64) float64 {
		sum := 0.0
		for i := range v {
			sum += w[i] * v[i]
		}
		return sum
	}), nil
}

func (c *Composed) ID() ID         { return c.id }
func (c *Composed) Children() []ID { return append([]ID(nil), c.children...) }

// Commutative is true: the composition itself does not look at the pair
// order. Overall commutativity depends on the children.
func (c *Composed) Commutative() bool { return true }

// Compute applies the composition function. Every child result must already
// be present in rel; Engine guarantees this by evaluating in dependency order.
func (c *Composed) Compute(rel *Relation, _ *Env) float64 {
	values := make([]float64, len(c.children))
	for i, child := range c.children {
		values[i] = rel.Value(child)
	}
	return c.fn(values)
}

func ratio(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	r := numerator / denominator
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}
