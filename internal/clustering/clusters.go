package clustering

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Cluster is a candidate component: a set of implementation units.
type Cluster struct {
	ID    string   `json:"id"`
	Units []string `json:"units"`
}

// ClusterAssignment maps one unit to its cluster.
type ClusterAssignment struct {
	Unit    string `json:"unit"`
	Cluster string `json:"cluster"`
}

// Clusters groups units by the merge decisions. Units without a merge end up
// in singleton clusters; decisions naming units outside units are ignored.
// Clusters are ordered by their smallest member and numbered from 1.
func Clusters(units []string, decisions []Decision) []Cluster {
	node := make(map[string]int64, len(units))
	merged := simple.NewUndirectedGraph()
	for _, u := range units {
		if _, dup := node[u]; dup {
			continue
		}
		id := int64(len(node))
		node[u] = id
		merged.AddNode(simple.Node(id))
	}
	names := make([]string, len(node))
	for u, id := range node {
		names[id] = u
	}
	for _, d := range decisions {
		if !d.Merge || d.Source == d.Target {
			continue
		}
		from, ok := node[d.Source]
		if !ok {
			continue
		}
		to, ok := node[d.Target]
		if !ok {
			continue
		}
		merged.SetEdge(merged.NewEdge(simple.Node(from), simple.Node(to)))
	}

	var groups [][]string
	for _, cc := range topo.ConnectedComponents(merged) {
		m := make([]string, len(cc))
		for i, n := range cc {
			m[i] = names[n.ID()]
		}
		sort.Strings(m)
		groups = append(groups, m)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })

	clusters := make([]Cluster, len(groups))
	for i, g := range groups {
		clusters[i] = Cluster{ID: fmt.Sprintf("cluster-%03d", i+1), Units: g}
	}
	return clusters
}

// Assignments flattens clusters into unit assignments sorted by unit.
func Assignments(clusters []Cluster) []ClusterAssignment {
	var out []ClusterAssignment
	for _, c := range clusters {
		for _, u := range c.Units {
			out = append(out, ClusterAssignment{Unit: u, Cluster: c.ID})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Unit < out[j].Unit })
	return out
}
