// Package pipeline runs one architecture reconstruction: access graph,
// metrics, clustering and assembly.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/efebarandurmaz/archrecover/internal/clustering"
	"github.com/efebarandurmaz/archrecover/internal/config"
	"github.com/efebarandurmaz/archrecover/internal/filter"
	"github.com/efebarandurmaz/archrecover/internal/metric"
)

// ErrConfig marks configuration problems found before any work starts.
var ErrConfig = errors.New("invalid reconstruction configuration")

// Plan is a validated configuration, ready to run.
type Plan struct {
	Blacklist    *filter.Blacklist
	Registry     *metric.Registry
	Strategy     clustering.Strategy
	Thresholds   clustering.Thresholds
	ExpandFields bool

	env    *metric.Env
	engine *metric.Engine
}

// Prepare validates cfg: blacklist patterns, metric wiring, clustering
// strategy and decision metric.
func Prepare(cfg *config.Config) (*Plan, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	bl, err := filter.NewBlacklist(cfg.Reconstruction.Blacklist)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	reg := metric.NewDefaultRegistry()
	if err := reg.RegisterDefinitions(Definitions(cfg.Metrics.Composed)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	strategy, err := clustering.Lookup(cfg.Clustering.Strategy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	root := metric.ID(cfg.Clustering.Metric)
	env := &metric.Env{}
	engine, err := metric.NewEngine(reg, env, root)
	if err != nil {
		return nil, fmt.Errorf("%w: clustering metric: %w", ErrConfig, err)
	}

	return &Plan{
		Blacklist:    bl,
		Registry:     reg,
		Strategy:     strategy,
		Thresholds:   clustering.Thresholds{Metric: root, Merge: cfg.Clustering.MergeThreshold},
		ExpandFields: cfg.Reconstruction.ExpandFields,
		env:          env,
		engine:       engine,
	}, nil
}

// Engine returns the metric engine of the plan.
func (p *Plan) Engine() *metric.Engine { return p.engine }

// Definitions converts configured metrics into metric definitions.
func Definitions(defs []config.MetricDefinition) []metric.Definition {
	out := make([]metric.Definition, len(defs))
	for i, d := range defs {
		children := make([]metric.ID, len(d.Children))
		for j, c := range d.Children {
			children[j] = metric.ID(c)
		}
		out[i] = metric.Definition{
			ID:          metric.ID(d.ID),
			Kind:        d.Kind,
			Numerator:   metric.ID(d.Numerator),
			Denominator: metric.ID(d.Denominator),
			Children:    children,
			Weights:     d.Weights,
		}
	}
	return out
}
