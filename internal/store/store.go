// Package store persists a history of generated reports in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/arjunverma/scoresight/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_file TEXT NOT NULL,
		student_name TEXT NOT NULL,
		test_name TEXT NOT NULL,
		score REAL,
		accuracy_percent REAL NOT NULL DEFAULT 0,
		total_questions INTEGER NOT NULL DEFAULT 0,
		correct_answers INTEGER NOT NULL DEFAULT 0,
		incorrect_answers INTEGER NOT NULL DEFAULT 0,
		unattempted_answers INTEGER NOT NULL DEFAULT 0,
		pdf_path TEXT NOT NULL DEFAULT '',
		feedback_ok INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// InsertReport records a generated report.
func (s *Store) InsertReport(r model.ReportRecord) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO reports (source_file, student_name, test_name, score, accuracy_percent,
		 total_questions, correct_answers, incorrect_answers, unattempted_answers,
		 pdf_path, feedback_ok, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SourceFile, r.StudentName, r.TestName, r.Score, r.AccuracyPercent,
		r.TotalQuestions, r.CorrectAnswers, r.IncorrectAnswers, r.UnattemptedAnswers,
		r.PDFPath, r.FeedbackOK, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListReports returns all report records, newest first.
func (s *Store) ListReports() ([]model.ReportRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, source_file, student_name, test_name, score, accuracy_percent,
		 total_questions, correct_answers, incorrect_answers, unattempted_answers,
		 pdf_path, feedback_ok, created_at
		 FROM reports ORDER BY id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var reports []model.ReportRecord
	for rows.Next() {
		var r model.ReportRecord
		if err := rows.Scan(&r.ID, &r.SourceFile, &r.StudentName, &r.TestName, &r.Score,
			&r.AccuracyPercent, &r.TotalQuestions, &r.CorrectAnswers, &r.IncorrectAnswers,
			&r.UnattemptedAnswers, &r.PDFPath, &r.FeedbackOK, &r.CreatedAt); err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// GetReport returns a report record by ID.
func (s *Store) GetReport(id int64) (model.ReportRecord, error) {
	var r model.ReportRecord
	err := s.db.QueryRow(
		`SELECT id, source_file, student_name, test_name, score, accuracy_percent,
		 total_questions, correct_answers, incorrect_answers, unattempted_answers,
		 pdf_path, feedback_ok, created_at
		 FROM reports WHERE id = ?`, id,
	).Scan(&r.ID, &r.SourceFile, &r.StudentName, &r.TestName, &r.Score,
		&r.AccuracyPercent, &r.TotalQuestions, &r.CorrectAnswers, &r.IncorrectAnswers,
		&r.UnattemptedAnswers, &r.PDFPath, &r.FeedbackOK, &r.CreatedAt)
	return r, err
}

// CountReports returns the number of stored report records.
func (s *Store) CountReports() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM reports`).Scan(&count)
	return count, err
}
