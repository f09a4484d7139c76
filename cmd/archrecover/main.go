package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/efebarandurmaz/archrecover/internal/accessgraph"
	"github.com/efebarandurmaz/archrecover/internal/arch"
	"github.com/efebarandurmaz/archrecover/internal/archstore"
	"github.com/efebarandurmaz/archrecover/internal/archstore/neo4j"
	"github.com/efebarandurmaz/archrecover/internal/config"
	"github.com/efebarandurmaz/archrecover/internal/deployment"
	"github.com/efebarandurmaz/archrecover/internal/ir"
	"github.com/efebarandurmaz/archrecover/internal/metric"
	"github.com/efebarandurmaz/archrecover/internal/observability"
	"github.com/efebarandurmaz/archrecover/internal/pipeline"
	"github.com/spf13/cobra"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "archrecover",
		Short:         "Recover component architectures from object-oriented programs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path")

	var (
		inputPath   string
		outputPath  string
		jsonReport  bool
		composeRoot string
		store       string
		storeDir    string
	)
	recoverCmd := &cobra.Command{
		Use:   "recover",
		Short: "Reconstruct the architecture model of a program",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecover(cmd.Context(), configPath, recoverOptions{
				input:       inputPath,
				output:      outputPath,
				jsonReport:  jsonReport,
				composeRoot: composeRoot,
				store:       store,
				storeDir:    storeDir,
			})
		},
	}
	recoverCmd.Flags().StringVar(&inputPath, "input", "", "Program JSON file")
	recoverCmd.Flags().StringVar(&outputPath, "output", "", "Model JSON output file")
	recoverCmd.Flags().BoolVar(&jsonReport, "json", false, "Output the run report as JSON")
	recoverCmd.Flags().StringVar(&composeRoot, "compose", "", "Directory searched for a docker-compose file to group components by service")
	recoverCmd.Flags().StringVar(&store, "store", "", "Also store the model: neo4j or file")
	recoverCmd.Flags().StringVar(&storeDir, "store-dir", "models", "Directory of the file store")
	_ = recoverCmd.MarkFlagRequired("input")
	_ = recoverCmd.MarkFlagRequired("output")

	var (
		graphInput  string
		graphFormat string
		graphGroup  bool
	)
	graphCmd := &cobra.Command{
		Use:   "graph",
		Short: "Export the access graph of a program",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd.Context(), configPath, graphInput, graphFormat, graphGroup)
		},
	}
	graphCmd.Flags().StringVar(&graphInput, "input", "", "Program JSON file")
	graphCmd.Flags().StringVar(&graphFormat, "format", "dot", "Output format: dot, mermaid, json, stats")
	graphCmd.Flags().BoolVar(&graphGroup, "clusters", false, "Group vertices by recovered component instead of namespace")
	_ = graphCmd.MarkFlagRequired("input")

	var diffJSON bool
	diffCmd := &cobra.Command{
		Use:   "diff <old.json> <new.json>",
		Short: "Compare two architecture models",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(args[0], args[1], diffJSON)
		},
	}
	diffCmd.Flags().BoolVar(&diffJSON, "json", false, "Output the diff as JSON")

	metricsCmd := &cobra.Command{
		Use:   "metrics",
		Short: "List the registered metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listMetrics(configPath)
		},
	}

	rootCmd.AddCommand(recoverCmd, graphCmd, diffCmd, metricsCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type recoverOptions struct {
	input       string
	output      string
	jsonReport  bool
	composeRoot string
	store       string
	storeDir    string
}

// setup loads configuration and builds the logger and tracer for a command.
func setup(ctx context.Context, configPath string) (*config.Config, *slog.Logger, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := observability.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	tcfg := observability.DefaultTracingConfig()
	tcfg.OTLPEndpoint = cfg.Tracing.Endpoint
	tcfg.Insecure = cfg.Tracing.Insecure
	tcfg.SampleRate = cfg.Tracing.SampleRate
	tcfg.Environment = cfg.Tracing.Environment
	tp, err := observability.InitTracing(ctx, tcfg)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
		return cfg, logger, func() {}, nil
	}
	return cfg, logger, func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn("tracing shutdown", "error", err)
		}
	}, nil
}

func runRecover(ctx context.Context, configPath string, opts recoverOptions) error {
	cfg, logger, shutdown, err := setup(ctx, configPath)
	if err != nil {
		return err
	}
	defer shutdown()

	program, err := ir.Load(opts.input)
	if err != nil {
		return err
	}

	res, err := pipeline.Run(ctx, program, pipeline.Options{Config: cfg, Logger: logger})
	if err != nil {
		return err
	}

	if err := arch.WriteFile(opts.output, res.Model); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	logger.Info("model written", "path", opts.output, "model", res.Model.ID)

	var groups map[string][]string
	if opts.composeRoot != "" {
		services, err := deployment.LoadCompose(opts.composeRoot)
		if err != nil {
			logger.Warn("deployment grouping skipped", "root", opts.composeRoot, "error", err)
		} else {
			groups = deployment.Group(services, res.Locations)
		}
	}

	if opts.store != "" {
		if err := storeModel(ctx, cfg, opts, res.Model); err != nil {
			return err
		}
	}

	if opts.jsonReport {
		data, err := res.Report.JSON()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	res.Report.PrintSummary(os.Stdout)
	printComponents(res.Model, groups)
	return nil
}

func storeModel(ctx context.Context, cfg *config.Config, opts recoverOptions, m *arch.Model) error {
	var (
		repo archstore.Repository
		err  error
	)
	switch opts.store {
	case "neo4j":
		repo, err = neo4j.New(ctx, cfg.Graph.URI, cfg.Graph.Username, cfg.Graph.Password)
	case "file":
		repo, err = archstore.NewFileStore(opts.storeDir)
	default:
		return fmt.Errorf("unknown store %q (available: file, neo4j)", opts.store)
	}
	if err != nil {
		return err
	}
	defer repo.Close(ctx)

	if err := repo.StoreModel(ctx, m); err != nil {
		return err
	}
	slog.Info("model stored", "store", opts.store, "model", m.Name)
	return nil
}

func printComponents(m *arch.Model, groups map[string][]string) {
	fmt.Println()
	for _, c := range m.Components() {
		fmt.Printf("%s\n", c.Name)
		for _, i := range c.Provided() {
			fmt.Printf("  provides %s\n", i.Name)
		}
		for _, i := range c.Required() {
			fmt.Printf("  requires %s\n", i.Name)
		}
	}
	if len(groups) == 0 {
		return
	}

	services := make([]string, 0, len(groups))
	for s := range groups {
		services = append(services, s)
	}
	sort.Strings(services)

	fmt.Println()
	fmt.Println("Deployment services:")
	for _, s := range services {
		fmt.Printf("  %-20s %s\n", s, strings.Join(groups[s], ", "))
	}
}

func runGraph(ctx context.Context, configPath, inputPath, format string, byCluster bool) error {
	cfg, logger, shutdown, err := setup(ctx, configPath)
	if err != nil {
		return err
	}
	defer shutdown()

	program, err := ir.Load(inputPath)
	if err != nil {
		return err
	}
	res, err := pipeline.Run(ctx, program, pipeline.Options{Config: cfg, Logger: logger})
	if err != nil {
		return err
	}

	var groups map[string][]string
	if byCluster {
		groups = make(map[string][]string, len(res.Clusters))
		for _, c := range res.Clusters {
			groups[res.Components[c.ID]] = c.Units
		}
	}

	switch format {
	case "dot":
		fmt.Print(accessgraph.ExportDOT(res.Graph, groups))
	case "mermaid":
		fmt.Print(accessgraph.ExportMermaid(res.Graph, groups))
	case "json":
		data, err := accessgraph.ExportJSON(res.Graph)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	case "stats":
		fmt.Print(accessgraph.FormatStats(res.Graph.ComputeStats()))
	default:
		return fmt.Errorf("unknown format %q (available: dot, mermaid, json, stats)", format)
	}
	return nil
}

func runDiff(oldPath, newPath string, jsonOutput bool) error {
	oldModel, err := arch.ReadFile(oldPath)
	if err != nil {
		return err
	}
	newModel, err := arch.ReadFile(newPath)
	if err != nil {
		return err
	}

	d := arch.Diff(oldModel, newModel)
	if jsonOutput {
		data, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	fmt.Print(arch.FormatDiff(d))
	return nil
}

func listMetrics(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	plan, err := pipeline.Prepare(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("%-20s %-12s %s\n", "METRIC", "COMMUTATIVE", "CHILDREN")
	for _, id := range plan.Registry.IDs() {
		m, _ := plan.Registry.Get(id)
		comm, err := plan.Registry.IsCommutative(id)
		if err != nil {
			return err
		}
		children := make([]string, 0, len(m.Children()))
		for _, c := range m.Children() {
			children = append(children, string(c))
		}
		fmt.Printf("%-20s %-12t %s\n", id, comm, strings.Join(children, ", "))
	}
	roots := make([]string, 0, 1)
	for _, id := range plan.Engine().Roots() {
		roots = append(roots, string(id))
	}
	order := make([]string, 0, len(plan.Engine().Order()))
	for _, id := range plan.Engine().Order() {
		order = append(order, string(id))
	}
	fmt.Printf("\nConfigurable kinds: %s\n", strings.Join(metric.Kinds(), ", "))
	fmt.Printf("Clustering: %s on %s (merge >= %.2f)\n",
		plan.Strategy.Name(), strings.Join(roots, ", "), plan.Thresholds.Merge)
	fmt.Printf("Evaluation order: %s\n", strings.Join(order, " -> "))
	return nil
}
