// Package clustering turns computed metric relations into merge decisions and
// groups implementation units into candidate components.
package clustering

import (
	"sort"

	"github.com/efebarandurmaz/archrecover/internal/accessgraph"
	"github.com/efebarandurmaz/archrecover/internal/metric"
)

// Pair is an ordered candidate pair of graph vertices.
type Pair struct {
	Source string
	Target string
}

// CandidatePairs returns every ordered pair connected by at least one edge in
// either direction. When commutative is set only the pair with Source <
// Target is kept. The result is sorted.
func CandidatePairs(g *accessgraph.Graph, commutative bool) []Pair {
	seen := make(map[Pair]bool)
	var pairs []Pair
	add := func(p Pair) {
		if p.Source == p.Target || seen[p] {
			return
		}
		seen[p] = true
		pairs = append(pairs, p)
	}
	for _, e := range g.Edges() {
		if commutative {
			a, b := e.From, e.To
			if b < a {
				a, b = b, a
			}
			add(Pair{Source: a, Target: b})
			continue
		}
		add(Pair{Source: e.From, Target: e.To})
		add(Pair{Source: e.To, Target: e.From})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Source != pairs[j].Source {
			return pairs[i].Source < pairs[j].Source
		}
		return pairs[i].Target < pairs[j].Target
	})
	return pairs
}

// Relations creates an empty clustering relation per pair.
func Relations(pairs []Pair) []*metric.Relation {
	rels := make([]*metric.Relation, len(pairs))
	for i, p := range pairs {
		rels[i] = metric.NewRelation(p.Source, p.Target)
	}
	return rels
}
