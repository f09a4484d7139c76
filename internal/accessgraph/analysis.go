package accessgraph

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// ComputeStats computes graph metrics.
func (g *Graph) ComputeStats() Stats {
	s := Stats{
		Vertices: g.VertexCount(),
		Edges:    g.EdgeCount(),
	}

	for _, v := range g.Vertices() {
		out := g.OutWeight(v)
		s.TotalAccesses += out
		if out > s.MaxFanOut {
			s.MaxFanOut = out
			s.HotspotUnit = v
		}
		if in := g.InWeight(v); in > s.MaxFanIn {
			s.MaxFanIn = in
		}
	}

	wg, names := g.weighted()
	s.ConnectedComponents = len(topo.ConnectedComponents(graph.Undirect{G: wg}))
	s.Cycles = cyclicGroups(wg, names)
	return s
}

// weighted mirrors g as a gonum weighted digraph. Node ids index the sorted
// vertex names.
func (g *Graph) weighted() (*simple.WeightedDirectedGraph, []string) {
	names := g.Vertices()
	ids := make(map[string]int64, len(names))
	wg := simple.NewWeightedDirectedGraph(0, 0)
	for i, n := range names {
		ids[n] = int64(i)
		wg.AddNode(simple.Node(i))
	}
	for _, e := range g.Edges() {
		wg.SetWeightedEdge(wg.NewWeightedEdge(simple.Node(ids[e.From]), simple.Node(ids[e.To]), float64(e.Count)))
	}
	return wg, names
}

// cyclicGroups returns the strongly connected components with more than one
// unit: every unit in a group lies on an access cycle with the others. Members
// and groups are sorted.
func cyclicGroups(wg graph.Directed, names []string) [][]string {
	var groups [][]string
	for _, scc := range topo.TarjanSCC(wg) {
		if len(scc) < 2 {
			continue
		}
		members := make([]string, len(scc))
		for i, n := range scc {
			members[i] = names[n.ID()]
		}
		sort.Strings(members)
		groups = append(groups, members)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })
	return groups
}
