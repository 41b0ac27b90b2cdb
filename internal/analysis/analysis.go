// Package analysis derives multi-dimensional performance aggregates from a
// single exam-attempt record. Analyze is a pure transformation: one
// RawRecord in, one AnalysisResult out, no I/O and no shared state, so
// independent records may be analyzed concurrently.
package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/arjunverma/scoresight/internal/model"
)

// ErrNoInputData reports that the engine was invoked with no record at all.
// Every other irregularity in the input is absorbed by defaulting rules.
var ErrNoInputData = errors.New("no data provided to process")

// Sentinel labels substituted for missing metadata. The chapter and
// difficulty sentinels are excluded from their grouping maps: they mark
// missing data, not real groups.
const (
	UnknownSubject    = "Unknown Subject"
	OtherSubjects     = "Other Subjects"
	UnknownChapter    = "Unknown Chapter"
	UnknownDifficulty = "Unknown Difficulty"
)

// CanonicalSubjects is the fixed subject reporting order. Subjects outside
// this list are classified but not separately reported.
var CanonicalSubjects = []string{"Physics", "Chemistry", "Maths"}

// expectedQuestionsPerSubject normalizes subject-level accuracy against the
// full syllabus, independent of how many questions actually appear.
var expectedQuestionsPerSubject = map[string]int{
	"Physics":   25,
	"Chemistry": 25,
	"Maths":     25,
}

// Subject classification rules, first match wins. Whole-word matching keeps
// titles like "Physics Section 2" classified correctly.
var subjectRules = []struct {
	re      *regexp.Regexp
	subject string
}{
	{regexp.MustCompile(`(?i)\bphysics\b`), "Physics"},
	{regexp.MustCompile(`(?i)\bchemistry\b`), "Chemistry"},
	{regexp.MustCompile(`(?i)\bmath(s|ematics)?\b`), "Maths"},
}

// SubjectFromTitle infers a subject label from a section title.
func SubjectFromTitle(title string) string {
	if title == "" {
		return UnknownSubject
	}
	for _, rule := range subjectRules {
		if rule.re.MatchString(title) {
			return rule.subject
		}
	}
	return OtherSubjects
}

// Analyze walks the record and produces the full statistical summary.
//
// A question listing multiple chapters contributes only its first chapter
// to chapter-level aggregates; the remainder are deliberately not counted
// (source-platform behavior that reports depend on).
func Analyze(rec *model.RawRecord) (*model.AnalysisResult, error) {
	if rec == nil {
		return nil, ErrNoInputData
	}

	res := &model.AnalysisResult{
		StudentName:           studentName(rec),
		TestName:              testName(rec),
		SubjectPerformance:    map[string]model.GroupSummary{},
		ChapterPerformance:    map[string]model.GroupSummary{},
		DifficultyPerformance: map[string]model.GroupSummary{},
		ConceptPerformance:    map[string]model.GroupSummary{},
	}

	sections, ok := decodeSections(rec.Sections)
	if !ok {
		// No usable question data; downstream still renders a minimal
		// "no question data" report.
		return res, nil
	}

	flat := Flatten(sections)
	res.FlatQuestions = flat
	res.Overall = overallSummary(rec, flat)

	if len(flat) == 0 {
		return res, nil
	}

	res.SubjectPerformance = SubjectPerformance(flat)
	res.ChapterPerformance = GroupByChapter(flat)
	res.DifficultyPerformance = GroupByDifficulty(flat)
	res.ConceptPerformance = GroupByConcept(flat)
	res.TimeAccuracy = TimeAccuracy(flat)

	return res, nil
}

// Flatten converts every question of every section into FlatQuestion
// records, carrying forward the section's inferred subject.
func Flatten(sections []model.Section) []model.FlatQuestion {
	var flat []model.FlatQuestion
	for _, sec := range sections {
		title := ""
		if sec.SectionID != nil {
			title = sec.SectionID.Title
		}
		subject := SubjectFromTitle(title)

		for _, q := range sec.Questions {
			flat = append(flat, flattenQuestion(subject, q))
		}
	}
	return flat
}

func flattenQuestion(subject string, q model.QuestionAttempt) model.FlatQuestion {
	chapter := UnknownChapter
	var concepts []string
	level := ""
	if q.QuestionID != nil {
		for _, ch := range q.QuestionID.Chapters {
			if ch.Title != "" {
				chapter = ch.Title
				break
			}
		}
		for _, c := range q.QuestionID.Concepts {
			if c.Title != "" {
				concepts = append(concepts, c.Title)
			}
		}
		level = q.QuestionID.Level
	}

	difficulty := UnknownDifficulty
	if level != "" {
		difficulty = capitalize(level)
	}

	return model.FlatQuestion{
		Subject:          subject,
		Chapter:          chapter,
		Difficulty:       difficulty,
		Concepts:         concepts,
		Status:           questionStatus(q),
		TimeTakenSeconds: q.TimeTaken,
	}
}

// questionStatus resolves the attempt outcome. A question is Unattempted
// unless its status is "answered"; an answered question is Correct iff any
// marked option or the numeric input is flagged correct.
func questionStatus(q model.QuestionAttempt) model.QuestionStatus {
	if !strings.EqualFold(q.Status, "answered") {
		return model.StatusUnattempted
	}
	for _, opt := range q.MarkedOptions {
		if opt.IsCorrect {
			return model.StatusCorrect
		}
	}
	if q.InputValue != nil && q.InputValue.IsCorrect {
		return model.StatusCorrect
	}
	return model.StatusIncorrect
}

// SubjectPerformance reports the three canonical subjects against their
// expected question counts. A canonical subject with no observed questions
// still appears, with zero correct and zero average time.
func SubjectPerformance(flat []model.FlatQuestion) map[string]model.GroupSummary {
	perf := make(map[string]model.GroupSummary, len(CanonicalSubjects))
	for _, subject := range CanonicalSubjects {
		var correct int
		var timeSum float64
		var observed int
		for _, q := range flat {
			if q.Subject != subject {
				continue
			}
			observed++
			timeSum += q.TimeTakenSeconds
			if q.Status == model.StatusCorrect {
				correct++
			}
		}

		expected := expectedQuestionsPerSubject[subject]
		avgTime := 0.0
		if observed > 0 {
			avgTime = timeSum / float64(observed)
		}
		accuracy := 0.0
		if expected > 0 {
			accuracy = float64(correct) / float64(expected) * 100
		}
		perf[subject] = model.GroupSummary{
			TotalQuestions:     expected,
			CorrectAnswers:     correct,
			AccuracyPercent:    round2(accuracy),
			AverageTimeSeconds: round2(avgTime),
		}
	}
	return perf
}

// GroupByChapter groups by a question's (first listed) chapter. The
// Unknown Chapter sentinel is excluded.
func GroupByChapter(flat []model.FlatQuestion) map[string]model.GroupSummary {
	return groupBy(flat, func(q model.FlatQuestion) string { return q.Chapter }, UnknownChapter)
}

// GroupByDifficulty groups by display difficulty. The Unknown Difficulty
// sentinel is excluded.
func GroupByDifficulty(flat []model.FlatQuestion) map[string]model.GroupSummary {
	return groupBy(flat, func(q model.FlatQuestion) string { return q.Difficulty }, UnknownDifficulty)
}

// GroupByConcept accumulates per-concept summaries. A question contributes
// independently to every concept it lists, so concept totals may sum to
// more than the question count.
func GroupByConcept(flat []model.FlatQuestion) map[string]model.GroupSummary {
	type acc struct {
		total   int
		correct int
		timeSum float64
	}
	accs := map[string]*acc{}
	for _, q := range flat {
		for _, concept := range q.Concepts {
			if concept == "" {
				continue
			}
			a := accs[concept]
			if a == nil {
				a = &acc{}
				accs[concept] = a
			}
			a.total++
			a.timeSum += q.TimeTakenSeconds
			if q.Status == model.StatusCorrect {
				a.correct++
			}
		}
	}

	perf := make(map[string]model.GroupSummary, len(accs))
	for concept, a := range accs {
		perf[concept] = summarize(a.total, a.correct, a.timeSum)
	}
	return perf
}

// TimeAccuracy computes mean time over correct and incorrect questions
// separately, each defaulting to 0 for an empty subgroup.
func TimeAccuracy(flat []model.FlatQuestion) model.TimeAccuracySummary {
	var correctSum, incorrectSum float64
	var correctN, incorrectN int
	for _, q := range flat {
		switch q.Status {
		case model.StatusCorrect:
			correctSum += q.TimeTakenSeconds
			correctN++
		case model.StatusIncorrect:
			incorrectSum += q.TimeTakenSeconds
			incorrectN++
		}
	}
	var ta model.TimeAccuracySummary
	if correctN > 0 {
		ta.AvgTimePerCorrectSeconds = round2(correctSum / float64(correctN))
	}
	if incorrectN > 0 {
		ta.AvgTimePerIncorrectSeconds = round2(incorrectSum / float64(incorrectN))
	}
	return ta
}

func overallSummary(rec *model.RawRecord, flat []model.FlatQuestion) model.OverallSummary {
	var correct, incorrect, unattempted int
	for _, q := range flat {
		switch q.Status {
		case model.StatusCorrect:
			correct++
		case model.StatusIncorrect:
			incorrect++
		default:
			unattempted++
		}
	}

	total := len(flat)
	accuracy := 0.0
	if total > 0 {
		accuracy = float64(correct) / float64(total) * 100
	}

	official := total
	var totalMarks *float64
	if rec.Test != nil {
		if rec.Test.TotalQuestions != nil {
			official = *rec.Test.TotalQuestions
		}
		totalMarks = rec.Test.TotalMarks
	}

	return model.OverallSummary{
		Score:                  rec.TotalMarkScored,
		AccuracyPercent:        round2(accuracy),
		CorrectAnswers:         correct,
		IncorrectAnswers:       incorrect,
		UnattemptedAnswers:     unattempted,
		AttemptedAnswers:       correct + incorrect,
		TotalQuestionsInTest:   total,
		OfficialTotalQuestions: official,
		TotalMarksInTest:       totalMarks,
		TimeTakenSeconds:       rec.TotalTimeTaken,
	}
}

func studentName(rec *model.RawRecord) string {
	if rec.StudentName != "" {
		return rec.StudentName
	}
	return "Valued Student"
}

func testName(rec *model.RawRecord) string {
	marks := "N/A"
	if rec.Test != nil && rec.Test.TotalMarks != nil {
		marks = formatNumber(*rec.Test.TotalMarks)
	}
	return fmt.Sprintf("QPT Analysis (Total Marks: %s)", marks)
}

// decodeSections reports ok=false when the sections field is absent or is
// not a JSON array, which maps to the degenerate "no question data" result.
// Type drift inside the array never trips this path: the section types
// decode leniently, defaulting drifted fields.
func decodeSections(raw json.RawMessage) ([]model.Section, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var sections []model.Section
	if err := json.Unmarshal(raw, &sections); err != nil {
		return nil, false
	}
	return sections, true
}

func groupBy(flat []model.FlatQuestion, key func(model.FlatQuestion) string, exclude string) map[string]model.GroupSummary {
	type acc struct {
		total   int
		correct int
		timeSum float64
	}
	accs := map[string]*acc{}
	for _, q := range flat {
		k := key(q)
		if k == exclude {
			continue
		}
		a := accs[k]
		if a == nil {
			a = &acc{}
			accs[k] = a
		}
		a.total++
		a.timeSum += q.TimeTakenSeconds
		if q.Status == model.StatusCorrect {
			a.correct++
		}
	}

	perf := make(map[string]model.GroupSummary, len(accs))
	for k, a := range accs {
		perf[k] = summarize(a.total, a.correct, a.timeSum)
	}
	return perf
}

func summarize(total, correct int, timeSum float64) model.GroupSummary {
	accuracy := 0.0
	avgTime := 0.0
	if total > 0 {
		accuracy = float64(correct) / float64(total) * 100
		avgTime = timeSum / float64(total)
	}
	return model.GroupSummary{
		TotalQuestions:     total,
		CorrectAnswers:     correct,
		AccuracyPercent:    round2(accuracy),
		AverageTimeSeconds: round2(avgTime),
	}
}

// capitalize uppercases the first rune for display and leaves the rest
// unchanged.
func capitalize(s string) string {
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatNumber(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
