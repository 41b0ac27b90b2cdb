package model

import (
	"encoding/json"
	"time"
)

// RawRecord is a single exam-attempt submission as produced by the test
// platform. Every field is optional; downstream code substitutes documented
// defaults instead of failing on absent data.
//
// Sections is kept as raw JSON because some producers emit it with the
// wrong type entirely; the analysis engine decides how to treat that.
type RawRecord struct {
	Test            *TestInfo       `json:"test,omitempty"`
	StudentName     string          `json:"student_name,omitempty"`
	TotalMarkScored *float64        `json:"totalMarkScored,omitempty"`
	TotalTimeTaken  *float64        `json:"totalTimeTaken,omitempty"`
	Sections        json.RawMessage `json:"sections,omitempty"`
}

// TestInfo is the test metadata block of a submission.
type TestInfo struct {
	TotalMarks     *float64 `json:"totalMarks,omitempty"`
	TotalQuestions *int     `json:"totalQuestions,omitempty"`
}

// Section is a titled group of question attempts. The subject is inferred
// from the title text; there is no explicit subject field in the source.
type Section struct {
	SectionID *SectionID        `json:"sectionId,omitempty"`
	Questions []QuestionAttempt `json:"questions,omitempty"`
}

// SectionID carries the section title.
type SectionID struct {
	Title string `json:"title,omitempty"`
}

// QuestionAttempt is one question as attempted by the student.
type QuestionAttempt struct {
	QuestionID    *QuestionDetail `json:"questionId,omitempty"`
	MarkedOptions []MarkedOption  `json:"markedOptions,omitempty"`
	InputValue    *InputValue     `json:"inputValue,omitempty"`
	Status        string          `json:"status,omitempty"`
	TimeTaken     float64         `json:"timeTaken,omitempty"`
}

// QuestionDetail holds the question's syllabus metadata.
type QuestionDetail struct {
	Chapters []Titled `json:"chapters,omitempty"`
	Concepts []Titled `json:"concepts,omitempty"`
	Level    string   `json:"level,omitempty"`
}

// Titled is a {title} object as used in chapter and concept lists.
type Titled struct {
	Title string `json:"title,omitempty"`
}

// MarkedOption is one selected option of a multiple-choice attempt.
type MarkedOption struct {
	IsCorrect bool `json:"isCorrect,omitempty"`
}

// InputValue is the numeric-entry answer of an attempt.
type InputValue struct {
	IsCorrect bool `json:"isCorrect,omitempty"`
}

// The sections subtree decodes leniently: a field carrying the wrong JSON
// type keeps its zero value instead of failing the record, so one drifted
// field never discards the remaining question data. A section that is not
// an object at all decodes to an empty Section for the same reason.

// lenientField decodes raw into v, leaving v's zero value in place when the
// field is absent or carries the wrong type.
func lenientField(raw json.RawMessage, v any) {
	if len(raw) == 0 {
		return
	}
	_ = json.Unmarshal(raw, v)
}

func (s *Section) UnmarshalJSON(data []byte) error {
	*s = Section{}
	var raw struct {
		SectionID json.RawMessage `json:"sectionId"`
		Questions json.RawMessage `json:"questions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	lenientField(raw.SectionID, &s.SectionID)
	lenientField(raw.Questions, &s.Questions)
	return nil
}

func (s *SectionID) UnmarshalJSON(data []byte) error {
	*s = SectionID{}
	var raw struct {
		Title json.RawMessage `json:"title"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	lenientField(raw.Title, &s.Title)
	return nil
}

func (q *QuestionAttempt) UnmarshalJSON(data []byte) error {
	*q = QuestionAttempt{}
	var raw struct {
		QuestionID    json.RawMessage `json:"questionId"`
		MarkedOptions json.RawMessage `json:"markedOptions"`
		InputValue    json.RawMessage `json:"inputValue"`
		Status        json.RawMessage `json:"status"`
		TimeTaken     json.RawMessage `json:"timeTaken"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	lenientField(raw.QuestionID, &q.QuestionID)
	lenientField(raw.MarkedOptions, &q.MarkedOptions)
	lenientField(raw.InputValue, &q.InputValue)
	lenientField(raw.Status, &q.Status)
	lenientField(raw.TimeTaken, &q.TimeTaken)
	return nil
}

func (d *QuestionDetail) UnmarshalJSON(data []byte) error {
	*d = QuestionDetail{}
	var raw struct {
		Chapters json.RawMessage `json:"chapters"`
		Concepts json.RawMessage `json:"concepts"`
		Level    json.RawMessage `json:"level"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	lenientField(raw.Chapters, &d.Chapters)
	lenientField(raw.Concepts, &d.Concepts)
	lenientField(raw.Level, &d.Level)
	return nil
}

func (t *Titled) UnmarshalJSON(data []byte) error {
	*t = Titled{}
	var raw struct {
		Title json.RawMessage `json:"title"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	lenientField(raw.Title, &t.Title)
	return nil
}

func (m *MarkedOption) UnmarshalJSON(data []byte) error {
	*m = MarkedOption{}
	var raw struct {
		IsCorrect json.RawMessage `json:"isCorrect"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	lenientField(raw.IsCorrect, &m.IsCorrect)
	return nil
}

func (i *InputValue) UnmarshalJSON(data []byte) error {
	*i = InputValue{}
	var raw struct {
		IsCorrect json.RawMessage `json:"isCorrect"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	lenientField(raw.IsCorrect, &i.IsCorrect)
	return nil
}

// QuestionStatus is the normalized outcome of a question attempt.
type QuestionStatus string

const (
	StatusCorrect     QuestionStatus = "Correct"
	StatusIncorrect   QuestionStatus = "Incorrect"
	StatusUnattempted QuestionStatus = "Unattempted"
)

// FlatQuestion is the per-question normalized record used as the atomic
// unit for every grouping pass. Exactly one status per question.
type FlatQuestion struct {
	Subject          string         `json:"subject"`
	Chapter          string         `json:"chapter"`
	Difficulty       string         `json:"difficulty"`
	Concepts         []string       `json:"concepts"`
	Status           QuestionStatus `json:"status"`
	TimeTakenSeconds float64        `json:"time_taken_seconds"`
}

// GroupSummary is the {count, correct, accuracy, average time} tuple
// produced for each key within a grouping dimension. Numeric fields are
// rounded to 2 decimals at construction; consumers must not re-round.
type GroupSummary struct {
	TotalQuestions     int     `json:"total_questions"`
	CorrectAnswers     int     `json:"correct_answers"`
	AccuracyPercent    float64 `json:"accuracy_percent"`
	AverageTimeSeconds float64 `json:"average_time_seconds"`
}

// OverallSummary aggregates the whole attempt. TotalQuestionsInTest is the
// processed (flattened) count; OfficialTotalQuestions is the count declared
// in test metadata, defaulting to the processed count when absent.
type OverallSummary struct {
	Score                  *float64 `json:"score"`
	AccuracyPercent        float64  `json:"accuracy_percent"`
	CorrectAnswers         int      `json:"correct_answers"`
	IncorrectAnswers       int      `json:"incorrect_answers"`
	UnattemptedAnswers     int      `json:"unattempted_answers"`
	AttemptedAnswers       int      `json:"attempted_answers"`
	TotalQuestionsInTest   int      `json:"total_questions_in_test"`
	OfficialTotalQuestions int      `json:"official_total_questions_header"`
	TotalMarksInTest       *float64 `json:"total_marks_in_test"`
	TimeTakenSeconds       *float64 `json:"time_taken_seconds"`
}

// TimeAccuracySummary relates time spent to correctness. Each mean is 0
// when its subgroup is empty.
type TimeAccuracySummary struct {
	AvgTimePerCorrectSeconds   float64 `json:"avg_time_per_correct_q_seconds"`
	AvgTimePerIncorrectSeconds float64 `json:"avg_time_per_incorrect_q_seconds"`
}

// AnalysisResult is the aggregation engine's output: the sole contract
// consumed by the narrative generator and the PDF renderer. It is read-only
// once produced.
type AnalysisResult struct {
	StudentName           string                  `json:"student_name"`
	TestName              string                  `json:"test_name"`
	Overall               OverallSummary          `json:"overall_summary"`
	SubjectPerformance    map[string]GroupSummary `json:"subject_performance"`
	ChapterPerformance    map[string]GroupSummary `json:"chapter_performance"`
	DifficultyPerformance map[string]GroupSummary `json:"difficulty_performance"`
	ConceptPerformance    map[string]GroupSummary `json:"concept_performance"`
	TimeAccuracy          TimeAccuracySummary     `json:"time_accuracy_summary"`
	FlatQuestions         []FlatQuestion          `json:"flat_questions"`
}

// ReportRecord is one row of the generated-report history.
type ReportRecord struct {
	ID                 int64     `json:"id"`
	SourceFile         string    `json:"source_file"`
	StudentName        string    `json:"student_name"`
	TestName           string    `json:"test_name"`
	Score              *float64  `json:"score,omitempty"`
	AccuracyPercent    float64   `json:"accuracy_percent"`
	TotalQuestions     int       `json:"total_questions"`
	CorrectAnswers     int       `json:"correct_answers"`
	IncorrectAnswers   int       `json:"incorrect_answers"`
	UnattemptedAnswers int       `json:"unattempted_answers"`
	PDFPath            string    `json:"pdf_path"`
	FeedbackOK         bool      `json:"feedback_ok"`
	CreatedAt          time.Time `json:"created_at"`
}

// Config holds runtime pipeline parameters set via CLI flags.
type Config struct {
	OutputDir  string // directory for generated PDFs
	Workers    int    // max concurrent per-file pipelines
	NoFeedback bool   // skip the LLM call, use a placeholder narrative
}
