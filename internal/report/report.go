// Package report collects run statistics of a reconstruction.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/efebarandurmaz/archrecover/internal/accessgraph"
	"github.com/efebarandurmaz/archrecover/internal/arch"
	"github.com/efebarandurmaz/archrecover/internal/clustering"
	"github.com/efebarandurmaz/archrecover/internal/ir"
)

// RunReport collects statistics for one reconstruction run.
type RunReport struct {
	ModelID    string          `json:"model_id,omitempty"`
	Program    string          `json:"program"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at,omitempty"`
	Duration   time.Duration   `json:"duration_ms,omitempty"`
	Source     SourceStats     `json:"source"`
	Graph      GraphStats      `json:"graph"`
	Clustering ClusteringStats `json:"clustering"`
	Model      arch.Counts     `json:"model"`
	Stages     []StageStats    `json:"stages"`
	Errors     []string        `json:"errors,omitempty"`
}

type SourceStats struct {
	Units      int `json:"units"`
	Classes    int `json:"classes"`
	Interfaces int `json:"interfaces"`
	Accesses   int `json:"accesses"`
}

type GraphStats struct {
	Vertices      int    `json:"vertices"`
	Edges         int    `json:"edges"`
	TotalAccesses int    `json:"total_accesses"`
	Components    int    `json:"connected_components"`
	Cycles        int    `json:"cycles"`
	Hotspot       string `json:"hotspot,omitempty"`
}

type ClusteringStats struct {
	Strategy  string `json:"strategy"`
	Metric    string `json:"metric"`
	Relations int    `json:"relations"`
	Merges    int    `json:"merges"`
	Clusters  int    `json:"clusters"`

	Assignments []clustering.ClusterAssignment `json:"assignments,omitempty"`
}

type StageStats struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration_ms"`
	Items    int           `json:"items"`
}

// New starts tracking a run.
func New(program string) *RunReport {
	return &RunReport{Program: program, StartedAt: time.Now()}
}

// CollectSource counts the program contents.
func (r *RunReport) CollectSource(p *ir.Program) {
	r.Source.Units = len(p.Units)
	r.Source.Classes = len(p.Classes())
	r.Source.Interfaces = len(p.Interfaces())
	r.Source.Accesses = len(p.Accesses)
}

// CollectGraph records the access graph statistics.
func (r *RunReport) CollectGraph(s accessgraph.Stats) {
	r.Graph = GraphStats{
		Vertices:      s.Vertices,
		Edges:         s.Edges,
		TotalAccesses: s.TotalAccesses,
		Components:    s.ConnectedComponents,
		Cycles:        len(s.Cycles),
		Hotspot:       s.HotspotUnit,
	}
}

// CollectClustering records the clustering outcome.
func (r *RunReport) CollectClustering(strategy, metric string, decisions []clustering.Decision, clusters []clustering.Cluster) {
	r.Clustering.Strategy = strategy
	r.Clustering.Metric = metric
	r.Clustering.Relations = len(decisions)
	r.Clustering.Clusters = len(clusters)
	r.Clustering.Assignments = clustering.Assignments(clusters)
	r.Clustering.Merges = 0
	for _, d := range decisions {
		if d.Merge {
			r.Clustering.Merges++
		}
	}
}

// CollectModel records the model element counts.
func (r *RunReport) CollectModel(m *arch.Model) {
	r.ModelID = m.ID
	r.Model = m.Counts()
}

// AddStage records a single stage's timing and output size.
func (r *RunReport) AddStage(name string, d time.Duration, items int) {
	r.Stages = append(r.Stages, StageStats{Name: name, Duration: d, Items: items})
}

// Finish marks the run as complete.
func (r *RunReport) Finish(errs []string) {
	r.FinishedAt = time.Now()
	r.Duration = r.FinishedAt.Sub(r.StartedAt)
	r.Errors = errs
}

// PrintSummary writes a human-readable summary.
func (r *RunReport) PrintSummary(w io.Writer) {
	fmt.Fprintf(w, "\n╔══════════════════════════════════════╗\n")
	fmt.Fprintf(w, "║      ARCHITECTURE RECOVERY REPORT    ║\n")
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ Program:     %-23s║\n", r.Program)
	fmt.Fprintf(w, "║ Duration:    %-23s║\n", r.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ SOURCE\n")
	fmt.Fprintf(w, "║   Units:       %d\n", r.Source.Units)
	fmt.Fprintf(w, "║   Classes:     %d\n", r.Source.Classes)
	fmt.Fprintf(w, "║   Interfaces:  %d\n", r.Source.Interfaces)
	fmt.Fprintf(w, "║   Accesses:    %d\n", r.Source.Accesses)
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ ACCESS GRAPH\n")
	fmt.Fprintf(w, "║   Vertices:    %d\n", r.Graph.Vertices)
	fmt.Fprintf(w, "║   Edges:       %d (%d accesses)\n", r.Graph.Edges, r.Graph.TotalAccesses)
	fmt.Fprintf(w, "║   Components:  %d\n", r.Graph.Components)
	fmt.Fprintf(w, "║   Cycles:      %d\n", r.Graph.Cycles)
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ CLUSTERING (%s on %s)\n", r.Clustering.Strategy, r.Clustering.Metric)
	fmt.Fprintf(w, "║   Relations:   %d\n", r.Clustering.Relations)
	fmt.Fprintf(w, "║   Merges:      %d\n", r.Clustering.Merges)
	fmt.Fprintf(w, "║   Clusters:    %d\n", r.Clustering.Clusters)
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ MODEL\n")
	fmt.Fprintf(w, "║   Components:  %d\n", r.Model.Components)
	fmt.Fprintf(w, "║   Interfaces:  %d\n", r.Model.Interfaces)
	fmt.Fprintf(w, "║   Signatures:  %d\n", r.Model.Signatures)
	fmt.Fprintf(w, "║   Data Types:  %d\n", r.Model.DataTypes)
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ STAGES\n")
	for _, s := range r.Stages {
		fmt.Fprintf(w, "║   %-14s %8s  %d items\n", s.Name, s.Duration.Round(time.Millisecond), s.Items)
	}
	if len(r.Errors) > 0 {
		fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
		fmt.Fprintf(w, "║ ERRORS\n")
		for _, e := range r.Errors {
			fmt.Fprintf(w, "║   • %s\n", e)
		}
	}
	fmt.Fprintf(w, "╚══════════════════════════════════════╝\n")
}

// JSON returns the report as formatted JSON.
func (r *RunReport) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
