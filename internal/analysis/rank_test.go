package analysis

import (
	"testing"

	"github.com/arjunverma/scoresight/internal/model"
)

func TestRankByAccuracy(t *testing.T) {
	perf := map[string]model.GroupSummary{
		"Optics":      {TotalQuestions: 5, CorrectAnswers: 4, AccuracyPercent: 80},
		"Kinematics":  {TotalQuestions: 5, CorrectAnswers: 1, AccuracyPercent: 20},
		"Gravitation": {TotalQuestions: 5, CorrectAnswers: 2, AccuracyPercent: 40},
	}

	ranked := RankByAccuracy(perf)
	wantOrder := []string{"Kinematics", "Gravitation", "Optics"}
	if len(ranked) != len(wantOrder) {
		t.Fatalf("got %d entries, want %d", len(ranked), len(wantOrder))
	}
	for i, name := range wantOrder {
		if ranked[i].Name != name {
			t.Errorf("position %d = %q, want %q", i, ranked[i].Name, name)
		}
	}
}

func TestRankByAccuracyTieBreak(t *testing.T) {
	perf := map[string]model.GroupSummary{
		"Waves":   {AccuracyPercent: 50},
		"Algebra": {AccuracyPercent: 50},
		"Optics":  {AccuracyPercent: 50},
	}

	// Run repeatedly: map iteration order must not leak into the result.
	for i := 0; i < 10; i++ {
		ranked := RankByAccuracy(perf)
		wantOrder := []string{"Algebra", "Optics", "Waves"}
		for j, name := range wantOrder {
			if ranked[j].Name != name {
				t.Fatalf("run %d position %d = %q, want %q", i, j, ranked[j].Name, name)
			}
		}
	}
}

func TestRankByAccuracyEmpty(t *testing.T) {
	ranked := RankByAccuracy(nil)
	if len(ranked) != 0 {
		t.Errorf("expected empty result, got %v", ranked)
	}
}
