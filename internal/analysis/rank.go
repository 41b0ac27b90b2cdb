package analysis

import (
	"sort"

	"github.com/arjunverma/scoresight/internal/model"
)

// Ranked pairs a grouping key with its summary for ordered consumption.
type Ranked struct {
	Name    string
	Summary model.GroupSummary
}

// RankByAccuracy orders a grouping map by accuracy ascending (weakest
// first), breaking ties by name so the ordering is stable regardless of map
// iteration order.
func RankByAccuracy(perf map[string]model.GroupSummary) []Ranked {
	ranked := make([]Ranked, 0, len(perf))
	for name, s := range perf {
		ranked = append(ranked, Ranked{Name: name, Summary: s})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Summary.AccuracyPercent != ranked[j].Summary.AccuracyPercent {
			return ranked[i].Summary.AccuracyPercent < ranked[j].Summary.AccuracyPercent
		}
		return ranked[i].Name < ranked[j].Name
	})
	return ranked
}
