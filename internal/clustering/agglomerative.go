package clustering

import (
	"sort"

	"github.com/efebarandurmaz/archrecover/internal/metric"
)

// Agglomerative performs average-linkage agglomerative clustering. It starts
// from singletons and repeatedly joins the two clusters with the highest
// average pairwise similarity until no linkage reaches the merge threshold.
// Ties are broken by the clusters' smallest member names.
type Agglomerative struct{}

func (Agglomerative) Name() string { return "agglomerative" }

func (Agglomerative) Decide(relations []*metric.Relation, th Thresholds) ([]Decision, error) {
	if err := CheckComplete(relations, th.Metric); err != nil {
		return nil, err
	}

	// Similarity between two units is the larger of both directions.
	sim := make(map[[2]string]float64)
	unitSet := make(map[string]bool)
	for _, rel := range relations {
		k := undirected(rel.Source, rel.Target)
		if v := rel.Value(th.Metric); v > sim[k] {
			sim[k] = v
		} else if _, ok := sim[k]; !ok {
			sim[k] = v
		}
		unitSet[rel.Source] = true
		unitSet[rel.Target] = true
	}

	units := make([]string, 0, len(unitSet))
	for u := range unitSet {
		units = append(units, u)
	}
	sort.Strings(units)
	groups := make([][]string, len(units))
	for i, u := range units {
		groups[i] = []string{u}
	}

	linkage := func(a, b []string) float64 {
		total := 0.0
		for _, x := range a {
			for _, y := range b {
				total += sim[undirected(x, y)]
			}
		}
		return total / float64(len(a)*len(b))
	}

	for len(groups) > 1 {
		bestI, bestJ := -1, -1
		best := 0.0
		for i := 0; i < len(groups); i++ {
			for j := i + 1; j < len(groups); j++ {
				l := linkage(groups[i], groups[j])
				if l < th.Merge {
					continue
				}
				if bestI < 0 || l > best {
					bestI, bestJ, best = i, j, l
				}
			}
		}
		if bestI < 0 {
			break
		}
		merged := append(append([]string(nil), groups[bestI]...), groups[bestJ]...)
		sort.Strings(merged)
		groups[bestI] = merged
		groups = append(groups[:bestJ], groups[bestJ+1:]...)
		// Groups stay ordered by their smallest member so ties resolve the same
		// way on every run.
		sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })
	}

	clusterOf := make(map[string]int, len(units))
	for i, g := range groups {
		for _, u := range g {
			clusterOf[u] = i
		}
	}

	decisions := make([]Decision, len(relations))
	for i, rel := range relations {
		merge := clusterOf[rel.Source] == clusterOf[rel.Target]
		confidence := clamp01(sim[undirected(rel.Source, rel.Target)])
		if !merge {
			confidence = 1 - confidence
		}
		decisions[i] = Decision{Source: rel.Source, Target: rel.Target, Merge: merge, Confidence: confidence}
	}
	return decisions, nil
}

func undirected(a, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}
