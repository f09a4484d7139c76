package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Reconstruction ReconstructionConfig `mapstructure:"reconstruction"`
	Metrics        MetricsConfig        `mapstructure:"metrics"`
	Clustering     ClusteringConfig     `mapstructure:"clustering"`
	Graph          GraphConfig          `mapstructure:"graph"`
	Temporal       TemporalConfig       `mapstructure:"temporal"`
	Log            LogConfig            `mapstructure:"log"`
	Tracing        TracingConfig        `mapstructure:"tracing"`
}

type ReconstructionConfig struct {
	// Blacklist holds regular expressions over qualified unit names.
	Blacklist    []string `mapstructure:"blacklist"`
	ExpandFields bool     `mapstructure:"expand_fields"`
}

// MetricsConfig lists the composed metrics on top of the built-in leaves.
type MetricsConfig struct {
	Composed []MetricDefinition `mapstructure:"composed"`
}

// MetricDefinition describes one composed metric. Ratio metrics use
// Numerator and Denominator; weighted sums use Children and Weights.
type MetricDefinition struct {
	ID          string    `mapstructure:"id"`
	Kind        string    `mapstructure:"kind"`
	Numerator   string    `mapstructure:"numerator"`
	Denominator string    `mapstructure:"denominator"`
	Children    []string  `mapstructure:"children"`
	Weights     []float64 `mapstructure:"weights"`
}

type ClusteringConfig struct {
	Strategy       string  `mapstructure:"strategy"`
	Metric         string  `mapstructure:"metric"`
	MergeThreshold float64 `mapstructure:"merge_threshold"`
}

type GraphConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type TemporalConfig struct {
	Host      string `mapstructure:"host"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Environment string  `mapstructure:"environment"`
}

// Default returns the configuration used when no file is given: a coupling
// ratio over the access graph merged by threshold.
func Default() *Config {
	return &Config{
		Metrics: MetricsConfig{Composed: []MetricDefinition{
			{ID: "coupling", Kind: "ratio", Numerator: "accesses_between", Denominator: "accesses_external"},
			{
				ID:       "affinity",
				Kind:     "weighted_sum",
				Children: []string{"coupling", "package_mapping", "name_resemblance"},
				Weights:  []float64{0.6, 0.25, 0.15},
			},
		}},
		Clustering: ClusteringConfig{Strategy: "threshold", Metric: "affinity", MergeThreshold: 0.5},
		Graph:      GraphConfig{URI: "bolt://localhost:7687", Username: "neo4j"},
		Temporal:   TemporalConfig{Host: "localhost:7233", Namespace: "default", TaskQueue: "archrecover"},
		Log:        LogConfig{Level: "info", Format: "text"},
		Tracing:    TracingConfig{Insecure: true, SampleRate: 1.0, Environment: "development"},
	}
}

// Validate checks configuration for issues and returns warnings. Hard errors
// such as unknown metrics surface when the pipeline is initialised.
func (c *Config) Validate() []string {
	var warnings []string

	if c.Clustering.MergeThreshold < 0 || c.Clustering.MergeThreshold > 1 {
		warnings = append(warnings, fmt.Sprintf("clustering merge_threshold %.2f is outside the usual range [0.0, 1.0]", c.Clustering.MergeThreshold))
	}
	if c.Clustering.Metric == "" {
		warnings = append(warnings, "clustering metric is empty")
	}

	seen := make(map[string]bool)
	for _, def := range c.Metrics.Composed {
		if seen[def.ID] {
			warnings = append(warnings, fmt.Sprintf("metric %q is defined more than once", def.ID))
		}
		seen[def.ID] = true
		if def.Kind == "weighted_sum" && len(def.Children) != len(def.Weights) {
			warnings = append(warnings, fmt.Sprintf("metric %q has %d children but %d weights", def.ID, len(def.Children), len(def.Weights)))
		}
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		warnings = append(warnings, fmt.Sprintf("tracing sample_rate %.2f is outside [0.0, 1.0]", c.Tracing.SampleRate))
	}
	return warnings
}

// Load reads configuration from file and environment. An empty path loads the
// defaults with environment overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("ARCHRECOVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if len(cfg.Metrics.Composed) == 0 {
		cfg.Metrics = Default().Metrics
	}

	if warnings := cfg.Validate(); len(warnings) > 0 {
		for _, warning := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
		}
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("reconstruction.blacklist", d.Reconstruction.Blacklist)
	v.SetDefault("reconstruction.expand_fields", d.Reconstruction.ExpandFields)
	v.SetDefault("clustering.strategy", d.Clustering.Strategy)
	v.SetDefault("clustering.metric", d.Clustering.Metric)
	v.SetDefault("clustering.merge_threshold", d.Clustering.MergeThreshold)
	v.SetDefault("graph.uri", d.Graph.URI)
	v.SetDefault("graph.username", d.Graph.Username)
	v.SetDefault("graph.password", d.Graph.Password)
	v.SetDefault("temporal.host", d.Temporal.Host)
	v.SetDefault("temporal.namespace", d.Temporal.Namespace)
	v.SetDefault("temporal.task_queue", d.Temporal.TaskQueue)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("tracing.endpoint", d.Tracing.Endpoint)
	v.SetDefault("tracing.insecure", d.Tracing.Insecure)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.environment", d.Tracing.Environment)
}
