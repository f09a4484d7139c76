package metric

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Registry stores the available metrics by id.
type Registry struct {
	mu      sync.RWMutex
	metrics map[ID]Metric
}

// NewRegistry creates an empty metric registry.
func NewRegistry() *Registry {
	return &Registry{metrics: make(map[ID]Metric)}
}

// NewDefaultRegistry creates a registry holding the built-in leaf metrics.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, m := range Leaves() {
		r.metrics[m.ID()] = m
	}
	return r
}

// Register adds a metric. Ids must be unique.
func (r *Registry) Register(m Metric) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.metrics[m.ID()]; ok {
		return &ConfigError{Metric: m.ID(), Err: ErrDuplicateMetric}
	}
	r.metrics[m.ID()] = m
	return nil
}

// Get looks up a metric.
func (r *Registry) Get(id ID) (Metric, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.metrics[id]
	return m, ok
}

// IDs returns all registered ids sorted.
func (r *Registry) IDs() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]ID, 0, len(r.metrics))
	for id := range r.metrics {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Validate checks that every child reference resolves and that the
// dependency structure is acyclic.
func (r *Registry) Validate() error {
	_, err := r.resolve(r.IDs())
	return err
}

// IsCommutative reports whether id is commutative: its own computation is
// symmetric and so are all of its children, recursively.
func (r *Registry) IsCommutative(id ID) (bool, error) {
	order, err := r.resolve([]ID{id})
	if err != nil {
		return false, err
	}
	commutative := make(map[ID]bool, len(order))
	for _, m := range order {
		c := m.Commutative()
		for _, child := range m.Children() {
			c = c && commutative[child]
		}
		commutative[m.ID()] = c
	}
	return commutative[id], nil
}

// resolve returns the transitive closure of roots in dependency order
// (children before parents). Metrics without a dependency between them are
// ordered by id.
func (r *Registry) resolve(roots []ID) ([]Metric, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	closure, err := r.closure(roots)
	if err != nil {
		return nil, err
	}

	ids := make([]ID, 0, len(closure))
	for id := range closure {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	node := make(map[ID]int64, len(ids))
	deps := simple.NewDirectedGraph()
	for i, id := range ids {
		node[id] = int64(i)
		deps.AddNode(simple.Node(i))
	}
	for _, id := range ids {
		for _, child := range closure[id].Children() {
			if child == id {
				return nil, &ConfigError{Metric: id, Detail: joinIDs([]ID{id, id}), Err: ErrMetricCycle}
			}
			deps.SetEdge(deps.NewEdge(simple.Node(node[child]), simple.Node(node[id])))
		}
	}

	sorted, err := topo.SortStabilized(deps, nil)
	if err != nil {
		var cycles topo.Unorderable
		if errors.As(err, &cycles) && len(cycles) > 0 {
			members := make([]ID, len(cycles[0]))
			for i, n := range cycles[0] {
				members[i] = ids[n.ID()]
			}
			sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
			return nil, &ConfigError{Metric: members[0], Detail: joinIDs(append(members, members[0])), Err: ErrMetricCycle}
		}
		return nil, &ConfigError{Metric: roots[0], Detail: err.Error(), Err: ErrMetricCycle}
	}

	order := make([]Metric, len(sorted))
	for i, n := range sorted {
		order[i] = closure[ids[n.ID()]]
	}
	return order, nil
}

// closure collects every metric reachable from roots. A child that is not
// registered is reported against the metric referring to it.
func (r *Registry) closure(roots []ID) (map[ID]Metric, error) {
	found := make(map[ID]Metric)
	var walk func(id, parent ID) error
	walk = func(id, parent ID) error {
		if _, ok := found[id]; ok {
			return nil
		}
		m, ok := r.metrics[id]
		if !ok {
			if parent == "" {
				return &ConfigError{Metric: id, Err: ErrUnknownMetric}
			}
			return &ConfigError{Metric: parent, Detail: fmt.Sprintf("child %q is not registered", id), Err: ErrUnknownMetric}
		}
		found[id] = m
		for _, child := range m.Children() {
			if err := walk(child, id); err != nil {
				return err
			}
		}
		return nil
	}
	for _, id := range roots {
		if err := walk(id, ""); err != nil {
			return nil, err
		}
	}
	return found, nil
}

func joinIDs(ids []ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, " -> ")
}
