package clustering

import (
	"errors"
	"fmt"
	"sort"

	"github.com/efebarandurmaz/archrecover/internal/metric"
)

var (
	// ErrUnknownStrategy is returned when no strategy is registered under a
	// configured name.
	ErrUnknownStrategy = errors.New("unknown clustering strategy")
	// ErrIncompleteRelation is returned when a relation lacks a metric the
	// decision needs.
	ErrIncompleteRelation = errors.New("incomplete clustering relation")
)

// Thresholds parameterises a decision.
type Thresholds struct {
	// Metric is the relation result the decision is based on.
	Metric metric.ID
	// Merge is the minimum value for two units to end up in one cluster.
	Merge float64
}

// Decision is the merge verdict for one candidate pair.
type Decision struct {
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Merge      bool    `json:"merge"`
	Confidence float64 `json:"confidence"`
}

// Strategy decides which candidate pairs merge. Implementations must be
// deterministic: the same relations and thresholds give the same decisions.
type Strategy interface {
	Name() string
	Decide(relations []*metric.Relation, th Thresholds) ([]Decision, error)
}

var strategies = map[string]func() Strategy{
	"threshold":     func() Strategy { return Threshold{} },
	"agglomerative": func() Strategy { return Agglomerative{} },
}

// Lookup returns the strategy registered under name.
func Lookup(name string) (Strategy, error) {
	factory, ok := strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %v)", ErrUnknownStrategy, name, Names())
	}
	return factory(), nil
}

// Names lists the registered strategies, sorted.
func Names() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckComplete verifies that every relation carries every id.
func CheckComplete(relations []*metric.Relation, ids ...metric.ID) error {
	for _, rel := range relations {
		for _, id := range ids {
			if !rel.Has(id) {
				return fmt.Errorf("%w: %s -> %s has no %q", ErrIncompleteRelation, rel.Source, rel.Target, id)
			}
		}
	}
	return nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
