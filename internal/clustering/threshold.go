package clustering

import "github.com/efebarandurmaz/archrecover/internal/metric"

// Threshold merges every pair whose metric value reaches the merge threshold.
type Threshold struct{}

func (Threshold) Name() string { return "threshold" }

func (Threshold) Decide(relations []*metric.Relation, th Thresholds) ([]Decision, error) {
	if err := CheckComplete(relations, th.Metric); err != nil {
		return nil, err
	}
	decisions := make([]Decision, len(relations))
	for i, rel := range relations {
		v := rel.Value(th.Metric)
		merge := v >= th.Merge
		confidence := clamp01(v)
		if !merge {
			confidence = 1 - confidence
		}
		decisions[i] = Decision{Source: rel.Source, Target: rel.Target, Merge: merge, Confidence: confidence}
	}
	return decisions, nil
}
