package accessgraph

import (
	"sort"

	"github.com/efebarandurmaz/archrecover/internal/ir"
)

// Edge is a weighted directed access relation between two units. Count is
// the number of distinct access sites folded into the edge.
type Edge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Count int    `json:"count"`
}

type edgeKey struct {
	from, to string
}

// Graph is a simple directed graph over implementation units: at most one
// edge per ordered pair, no self loops.
type Graph struct {
	vertices map[string]*ir.Unit
	edges    map[edgeKey]*Edge
	out      map[string][]*Edge
	in       map[string][]*Edge
}

// Stats holds computed metrics about the graph.
type Stats struct {
	Vertices            int        `json:"vertices"`
	Edges               int        `json:"edges"`
	TotalAccesses       int        `json:"total_accesses"`
	MaxFanOut           int        `json:"max_fan_out"`
	MaxFanIn            int        `json:"max_fan_in"`
	HotspotUnit         string     `json:"hotspot_unit"` // unit with the most outgoing accesses
	ConnectedComponents int        `json:"connected_components"`
	Cycles              [][]string `json:"cycles,omitempty"` // units sharing an access cycle
}

func newGraph() *Graph {
	return &Graph{
		vertices: make(map[string]*ir.Unit),
		edges:    make(map[edgeKey]*Edge),
		out:      make(map[string][]*Edge),
		in:       make(map[string][]*Edge),
	}
}

func (g *Graph) addVertex(u *ir.Unit) {
	g.vertices[u.QualifiedName()] = u
}

// edgeFor returns the edge between from and to, creating it when both
// endpoints are vertices. It returns nil otherwise.
func (g *Graph) edgeFor(from, to string) *Edge {
	k := edgeKey{from, to}
	if e, ok := g.edges[k]; ok {
		return e
	}
	if !g.HasVertex(from) || !g.HasVertex(to) {
		return nil
	}
	e := &Edge{From: from, To: to}
	g.edges[k] = e
	g.out[from] = append(g.out[from], e)
	g.in[to] = append(g.in[to], e)
	return e
}

// HasVertex reports whether name is a vertex.
func (g *Graph) HasVertex(name string) bool {
	_, ok := g.vertices[name]
	return ok
}

// Vertex returns the unit for a vertex name.
func (g *Graph) Vertex(name string) (*ir.Unit, bool) {
	u, ok := g.vertices[name]
	return u, ok
}

// Vertices returns all vertex names sorted.
func (g *Graph) Vertices() []string {
	names := make([]string, 0, len(g.vertices))
	for n := range g.vertices {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Edge returns the edge from -> to if present.
func (g *Graph) Edge(from, to string) (*Edge, bool) {
	e, ok := g.edges[edgeKey{from, to}]
	return e, ok
}

// Weight returns the access count from -> to, or 0.
func (g *Graph) Weight(from, to string) int {
	if e, ok := g.edges[edgeKey{from, to}]; ok {
		return e.Count
	}
	return 0
}

// OutWeight returns the total access count leaving v.
func (g *Graph) OutWeight(v string) int {
	total := 0
	for _, e := range g.out[v] {
		total += e.Count
	}
	return total
}

// InWeight returns the total access count entering v.
func (g *Graph) InWeight(v string) int {
	total := 0
	for _, e := range g.in[v] {
		total += e.Count
	}
	return total
}

// OutEdges returns the edges leaving v sorted by target.
func (g *Graph) OutEdges(v string) []*Edge {
	return sortedEdges(g.out[v])
}

// Neighbors returns the sorted, distinct units adjacent to v in either
// direction.
func (g *Graph) Neighbors(v string) []string {
	set := make(map[string]bool)
	for _, e := range g.out[v] {
		set[e.To] = true
	}
	for _, e := range g.in[v] {
		set[e.From] = true
	}
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Edges returns all edges sorted by (from, to).
func (g *Graph) Edges() []*Edge {
	all := make([]*Edge, 0, len(g.edges))
	for _, e := range g.edges {
		all = append(all, e)
	}
	return sortedEdges(all)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// VertexCount returns the number of vertices.
func (g *Graph) VertexCount() int { return len(g.vertices) }

func sortedEdges(edges []*Edge) []*Edge {
	out := append([]*Edge(nil), edges...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}
