package store

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/arjunverma/scoresight/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecord(source string) model.ReportRecord {
	score := 120.0
	return model.ReportRecord{
		SourceFile:         source,
		StudentName:        "Asha",
		TestName:           "QPT Analysis (Total Marks: 300)",
		Score:              &score,
		AccuracyPercent:    40,
		TotalQuestions:     75,
		CorrectAnswers:     30,
		IncorrectAnswers:   25,
		UnattemptedAnswers: 20,
		PDFPath:            "generated_reports/asha_report.pdf",
		FeedbackOK:         true,
	}
}

func TestInsertAndGetReport(t *testing.T) {
	s := newTestStore(t)

	id, err := s.InsertReport(sampleRecord("submissions/asha.json"))
	if err != nil {
		t.Fatalf("InsertReport: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero ID")
	}

	got, err := s.GetReport(id)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if got.StudentName != "Asha" {
		t.Errorf("student = %q, want Asha", got.StudentName)
	}
	if got.Score == nil || *got.Score != 120 {
		t.Errorf("score = %v, want 120", got.Score)
	}
	if got.AccuracyPercent != 40 {
		t.Errorf("accuracy = %v, want 40", got.AccuracyPercent)
	}
	if !got.FeedbackOK {
		t.Error("expected feedback_ok true")
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestInsertNilScore(t *testing.T) {
	s := newTestStore(t)

	rec := sampleRecord("submissions/noscore.json")
	rec.Score = nil
	id, err := s.InsertReport(rec)
	if err != nil {
		t.Fatalf("InsertReport: %v", err)
	}

	got, err := s.GetReport(id)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if got.Score != nil {
		t.Errorf("expected nil score, got %v", *got.Score)
	}
}

func TestListReportsNewestFirst(t *testing.T) {
	s := newTestStore(t)

	for _, source := range []string{"a.json", "b.json", "c.json"} {
		if _, err := s.InsertReport(sampleRecord(source)); err != nil {
			t.Fatalf("InsertReport %s: %v", source, err)
		}
	}

	reports, err := s.ListReports()
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(reports) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(reports))
	}
	if reports[0].SourceFile != "c.json" || reports[2].SourceFile != "a.json" {
		t.Errorf("expected newest first, got %q .. %q", reports[0].SourceFile, reports[2].SourceFile)
	}
}

func TestListReportsEmpty(t *testing.T) {
	s := newTestStore(t)

	reports, err := s.ListReports()
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(reports) != 0 {
		t.Errorf("expected no reports, got %d", len(reports))
	}
}

func TestGetReportMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetReport(999)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestCountReports(t *testing.T) {
	s := newTestStore(t)

	count, err := s.CountReports()
	if err != nil {
		t.Fatalf("CountReports: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0, got %d", count)
	}

	if _, err := s.InsertReport(sampleRecord("a.json")); err != nil {
		t.Fatalf("InsertReport: %v", err)
	}
	count, err = s.CountReports()
	if err != nil {
		t.Fatalf("CountReports: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1, got %d", count)
	}
}
