package accessgraph

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ExportDOT generates a Graphviz DOT representation of the graph, grouping
// units by namespace. Optional clusters (name -> member units) colour
// vertices by their assigned cluster instead.
func ExportDOT(g *Graph, clusters map[string][]string) string {
	var b strings.Builder
	b.WriteString("digraph accesses {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [fontname=\"Helvetica\" shape=box style=filled fillcolor=\"#238636\"];\n")
	b.WriteString("  edge [fontname=\"Helvetica\" fontsize=10 color=\"#3fb950\"];\n\n")

	groups, order := groupVertices(g, clusters)
	for _, name := range order {
		b.WriteString(fmt.Sprintf("  subgraph cluster_%s {\n", sanitizeID(name)))
		b.WriteString(fmt.Sprintf("    label=\"%s\";\n", name))
		b.WriteString("    style=dashed;\n")
		b.WriteString("    color=\"#58a6ff\";\n")
		for _, v := range groups[name] {
			u, _ := g.Vertex(v)
			b.WriteString(fmt.Sprintf("    \"%s\" [label=\"%s\"];\n", v, u.Name))
		}
		b.WriteString("  }\n\n")
	}

	for _, e := range g.Edges() {
		b.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [label=\"%d\" penwidth=%d];\n",
			e.From, e.To, e.Count, penWidth(e.Count)))
	}

	b.WriteString("}\n")
	return b.String()
}

// ExportMermaid generates a Mermaid diagram of the graph.
func ExportMermaid(g *Graph, clusters map[string][]string) string {
	var b strings.Builder
	b.WriteString("graph LR\n")

	groups, order := groupVertices(g, clusters)
	for _, name := range order {
		b.WriteString(fmt.Sprintf("  subgraph %s\n", sanitizeID(name)))
		for _, v := range groups[name] {
			u, _ := g.Vertex(v)
			b.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", sanitizeID(v), u.Name))
		}
		b.WriteString("  end\n")
	}

	for _, e := range g.Edges() {
		b.WriteString(fmt.Sprintf("  %s -->|%d| %s\n", sanitizeID(e.From), e.Count, sanitizeID(e.To)))
	}
	return b.String()
}

type graphJSON struct {
	Vertices []string `json:"vertices"`
	Edges    []*Edge  `json:"edges"`
	Stats    Stats    `json:"stats"`
}

// ExportJSON serializes the graph with its stats to JSON.
func ExportJSON(g *Graph) ([]byte, error) {
	return json.MarshalIndent(graphJSON{
		Vertices: g.Vertices(),
		Edges:    g.Edges(),
		Stats:    g.ComputeStats(),
	}, "", "  ")
}

// FormatStats returns a human-readable summary of graph statistics.
func FormatStats(s Stats) string {
	var b strings.Builder
	b.WriteString("Access Graph Statistics\n")
	b.WriteString("=======================\n\n")
	b.WriteString(fmt.Sprintf("Units:       %d\n", s.Vertices))
	b.WriteString(fmt.Sprintf("Edges:       %d\n", s.Edges))
	b.WriteString(fmt.Sprintf("Accesses:    %d\n", s.TotalAccesses))
	b.WriteString(fmt.Sprintf("Max Fan-Out: %d (%s)\n", s.MaxFanOut, s.HotspotUnit))
	b.WriteString(fmt.Sprintf("Max Fan-In:  %d\n", s.MaxFanIn))
	b.WriteString(fmt.Sprintf("Components:  %d\n", s.ConnectedComponents))

	if len(s.Cycles) > 0 {
		b.WriteString(fmt.Sprintf("\nAccess Cycles: %d\n", len(s.Cycles)))
		for i, cycle := range s.Cycles {
			b.WriteString(fmt.Sprintf("  %d: %s\n", i+1, strings.Join(cycle, ", ")))
		}
	}
	return b.String()
}

// groupVertices returns vertex names grouped by cluster (when given) or by
// namespace, with a sorted group order.
func groupVertices(g *Graph, clusters map[string][]string) (map[string][]string, []string) {
	groups := make(map[string][]string)
	if len(clusters) > 0 {
		for name, members := range clusters {
			for _, m := range members {
				if g.HasVertex(m) {
					groups[name] = append(groups[name], m)
				}
			}
		}
	} else {
		for _, v := range g.Vertices() {
			u, _ := g.Vertex(v)
			ns := u.Namespace
			if ns == "" {
				ns = "default"
			}
			groups[ns] = append(groups[ns], v)
		}
	}
	order := make([]string, 0, len(groups))
	for name := range groups {
		order = append(order, name)
	}
	sort.Strings(order)
	for _, name := range order {
		sort.Strings(groups[name])
	}
	return groups, order
}

func penWidth(count int) int {
	switch {
	case count >= 10:
		return 3
	case count >= 3:
		return 2
	default:
		return 1
	}
}

func sanitizeID(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, s)
}
