package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/efebarandurmaz/archrecover/internal/accessgraph"
	"github.com/efebarandurmaz/archrecover/internal/arch"
	"github.com/efebarandurmaz/archrecover/internal/assembler"
	"github.com/efebarandurmaz/archrecover/internal/clustering"
	"github.com/efebarandurmaz/archrecover/internal/config"
	"github.com/efebarandurmaz/archrecover/internal/ir"
	"github.com/efebarandurmaz/archrecover/internal/metric"
	"github.com/efebarandurmaz/archrecover/internal/observability"
	"github.com/efebarandurmaz/archrecover/internal/report"
)

// Options configures Run.
type Options struct {
	Config *config.Config
	Logger *slog.Logger
}

// Result holds everything one run produced.
type Result struct {
	Graph       *accessgraph.Graph
	Relations   []*metric.Relation
	Decisions   []clustering.Decision
	Clusters    []clustering.Cluster
	Assignments []clustering.ClusterAssignment
	Model       *arch.Model
	Locations   map[string][]string
	Components  map[string]string
	Report      *report.RunReport
}

// Run reconstructs the architecture of p. Configuration is validated before
// any stage starts; a failed run returns no partial model.
func Run(ctx context.Context, p *ir.Program, opts Options) (*Result, error) {
	plan, err := Prepare(opts.Config)
	if err != nil {
		return nil, err
	}
	return plan.Run(ctx, p, opts.Logger)
}

// Run executes the plan on p. A plan holds per-run state and must not be
// run concurrently.
func (pl *Plan) Run(ctx context.Context, p *ir.Program, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, span := observability.StartRunSpan(ctx, p.Name)
	defer span.End()

	rep := report.New(p.Name)
	rep.CollectSource(p)
	res := &Result{Report: rep}

	stages := []struct {
		name string
		fn   func(ctx context.Context) (in, out int, err error)
	}{
		{"graph", func(ctx context.Context) (int, int, error) {
			classes := p.Classes()
			g, err := accessgraph.Build(ctx, p, classes, accessgraph.Options{Blacklist: pl.Blacklist, Logger: logger})
			if err != nil {
				return 0, 0, err
			}
			res.Graph = g
			pl.env.Graph = g
			rep.CollectGraph(g.ComputeStats())
			return len(classes), g.EdgeCount(), nil
		}},
		{"metrics", func(context.Context) (int, int, error) {
			pairs := clustering.CandidatePairs(res.Graph, pl.engine.Commutative())
			res.Relations = clustering.Relations(pairs)
			pl.engine.ComputeAll(res.Relations)
			return len(pairs), len(res.Relations) * len(pl.engine.Order()), nil
		}},
		{"clustering", func(context.Context) (int, int, error) {
			if err := clustering.CheckComplete(res.Relations, pl.engine.Order()...); err != nil {
				return 0, 0, err
			}
			decisions, err := pl.Strategy.Decide(res.Relations, pl.Thresholds)
			if err != nil {
				return 0, 0, err
			}
			res.Decisions = decisions
			res.Clusters = clustering.Clusters(res.Graph.Vertices(), decisions)
			res.Assignments = clustering.Assignments(res.Clusters)
			rep.CollectClustering(pl.Strategy.Name(), string(pl.Thresholds.Metric), decisions, res.Clusters)
			return len(decisions), len(res.Clusters), nil
		}},
		{"assembly", func(context.Context) (int, int, error) {
			provided, required := assembler.DeriveRelations(p, res.Clusters)
			assembled, err := assembler.Assemble(assembler.Input{
				Program:    p,
				Name:       p.Name,
				Interfaces: p.Interfaces(),
				Components: assembler.Specs(p, res.Clusters),
				Provided:   provided,
				Required:   required,
			}, assembler.Options{ExpandFields: pl.ExpandFields, Logger: logger})
			if err != nil {
				return 0, 0, err
			}
			res.Model = assembled.Model
			res.Locations = assembled.Locations
			res.Components = assembled.Components
			rep.CollectModel(assembled.Model)
			c := assembled.Model.Counts()
			return len(res.Clusters), c.Components + c.Interfaces, nil
		}},
	}

	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			observability.RecordError(span, err)
			return nil, err
		}
		if err := runStage(ctx, st.name, rep, st.fn); err != nil {
			observability.RecordError(span, err)
			logger.Error("reconstruction failed", "program", p.Name, "stage", st.name, "error", err)
			return nil, err
		}
	}

	rep.Finish(nil)
	logger.Info("reconstruction complete",
		"program", p.Name,
		"model", res.Model.ID,
		"clusters", len(res.Clusters),
		"duration", rep.Duration,
	)
	return res, nil
}

func runStage(ctx context.Context, name string, rep *report.RunReport, fn func(context.Context) (int, int, error)) error {
	ctx, span := observability.StartStageSpan(ctx, name)
	defer span.End()

	start := time.Now()
	in, out, err := fn(ctx)
	if err != nil {
		observability.RecordError(span, err)
		return fmt.Errorf("%s stage: %w", name, err)
	}
	observability.RecordStageResult(span, in, out)
	rep.AddStage(name, time.Since(start), out)
	return nil
}
