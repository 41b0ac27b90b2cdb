package llm

import (
	"fmt"
	"strings"

	"github.com/arjunverma/scoresight/internal/analysis"
	"github.com/arjunverma/scoresight/internal/model"
)

// NoDataContext is returned by BuildContext when there is nothing to
// format. GenerateFeedback treats it as a hard "no data" signal.
const NoDataContext = "No data available to format for LLM."

// Highlight selection thresholds for chapter and concept blocks: the
// weakest entries are always shown, plus anything under the accuracy floor.
const (
	highlightCount    = 5
	highlightAccuracy = 60.0
)

// BuildContext renders an analysis result into the plain-text briefing
// document sent to the feedback model. The layout is human-readable on
// purpose; that also makes it easy for the model to follow.
func BuildContext(res *model.AnalysisResult) string {
	if res == nil {
		return NoDataContext
	}

	var sb strings.Builder
	sb.WriteString("Student Performance Analysis:\n")
	fmt.Fprintf(&sb, "Student Name: %s\n", res.StudentName)
	fmt.Fprintf(&sb, "Test Name: %s\n\n", res.TestName)

	sb.WriteString("Overall Summary:\n")
	fmt.Fprintf(&sb, "  Score: %s\n", formatOptional(res.Overall.Score))
	fmt.Fprintf(&sb, "  Accuracy: %v%%\n", res.Overall.AccuracyPercent)
	fmt.Fprintf(&sb, "  Correct Answers: %d / %d\n", res.Overall.CorrectAnswers, res.Overall.TotalQuestionsInTest)
	fmt.Fprintf(&sb, "  Total Time Taken: %s\n\n", formatOptionalTime(res.Overall.TimeTakenSeconds))

	sb.WriteString("Subject-wise Performance:\n")
	if len(res.SubjectPerformance) > 0 {
		for _, subject := range analysis.CanonicalSubjects {
			perf, ok := res.SubjectPerformance[subject]
			if !ok {
				continue
			}
			writeGroupLines(&sb, subject, perf)
		}
	} else {
		sb.WriteString("  No subject-wise data available.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("Chapter-wise Performance Highlights (e.g., weakest or notable chapters):\n")
	writeHighlights(&sb, res.ChapterPerformance, "  No chapter-wise data available.\n")
	sb.WriteString("\n")

	sb.WriteString("Difficulty-wise Performance:\n")
	if len(res.DifficultyPerformance) > 0 {
		for _, r := range analysis.RankByAccuracy(res.DifficultyPerformance) {
			writeGroupLines(&sb, r.Name, r.Summary)
		}
	} else {
		sb.WriteString("  No difficulty-wise data available.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("Concept Performance Highlights (e.g., weakest concepts):\n")
	writeHighlights(&sb, res.ConceptPerformance, "  No concept-wise data available.\n")
	sb.WriteString("\n")

	sb.WriteString("Time Management Insights:\n")
	fmt.Fprintf(&sb, "  Average time per correct question: %s\n", FormatSeconds(res.TimeAccuracy.AvgTimePerCorrectSeconds))
	fmt.Fprintf(&sb, "  Average time per incorrect question: %s\n", FormatSeconds(res.TimeAccuracy.AvgTimePerIncorrectSeconds))
	sb.WriteString("\n")

	return sb.String()
}

// writeHighlights emits the weakest groups: the first highlightCount by
// ascending accuracy, plus any further group below highlightAccuracy.
func writeHighlights(sb *strings.Builder, perf map[string]model.GroupSummary, emptyMsg string) {
	if len(perf) == 0 {
		sb.WriteString(emptyMsg)
		return
	}
	shown := 0
	for _, r := range analysis.RankByAccuracy(perf) {
		if shown >= highlightCount && r.Summary.AccuracyPercent >= highlightAccuracy {
			break
		}
		writeGroupLines(sb, r.Name, r.Summary)
		shown++
	}
}

func writeGroupLines(sb *strings.Builder, name string, perf model.GroupSummary) {
	fmt.Fprintf(sb, "  - %s:\n", name)
	fmt.Fprintf(sb, "    Accuracy: %v%% (%d/%d questions)\n", perf.AccuracyPercent, perf.CorrectAnswers, perf.TotalQuestions)
	fmt.Fprintf(sb, "    Average Time per Question: %s\n", FormatSeconds(perf.AverageTimeSeconds))
}

// FormatSeconds converts seconds to "X min Y sec" (or "Y sec" under a
// minute). Negative input yields "N/A".
func FormatSeconds(seconds float64) string {
	if seconds < 0 {
		return "N/A"
	}
	total := int(seconds)
	minutes := total / 60
	remaining := total % 60
	if minutes > 0 {
		return fmt.Sprintf("%d min %d sec", minutes, remaining)
	}
	return fmt.Sprintf("%d sec", remaining)
}

func formatOptional(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", *v), "0"), ".")
}

func formatOptionalTime(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return FormatSeconds(*v)
}
