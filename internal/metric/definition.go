package metric

import (
	"fmt"
	"sort"
	"strings"
)

// Definition describes a configured composed metric.
type Definition struct {
	ID          ID
	Kind        string
	Numerator   ID
	Denominator ID
	Children    []ID
	Weights     []float64
}

type builder func(def Definition) (Metric, error)

// kinds is the dispatch table of configurable metric variants.
var kinds = map[string]builder{
	"ratio": func(def Definition) (Metric, error) {
		if def.Numerator == "" || def.Denominator == "" {
			return nil, fmt.Errorf("ratio needs numerator and denominator")
		}
		return NewRatio(def.ID, def.Numerator, def.Denominator), nil
	},
	"weighted_sum": func(def Definition) (Metric, error) {
		return NewWeightedSum(def.ID, def.Children, def.Weights)
	},
}

// Kinds returns the supported configurable kinds, sorted.
func Kinds() []string {
	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// RegisterDefinitions builds and registers configured metrics, then validates
// the whole registry so unknown children and cycles surface here rather than
// at compute time.
func (r *Registry) RegisterDefinitions(defs []Definition) error {
	for _, def := range defs {
		if def.ID == "" {
			return &ConfigError{Detail: "metric definition without id", Err: ErrUnknownMetric}
		}
		build, ok := kinds[def.Kind]
		if !ok {
			return &ConfigError{Metric: def.ID, Detail: fmt.Sprintf("kind %q (available: %s)", def.Kind, strings.Join(Kinds(), ", ")), Err: ErrUnknownKind}
		}
		m, err := build(def)
		if err != nil {
			return &ConfigError{Metric: def.ID, Detail: err.Error(), Err: ErrUnknownKind}
		}
		if err := r.Register(m); err != nil {
			return err
		}
	}
	return r.Validate()
}
