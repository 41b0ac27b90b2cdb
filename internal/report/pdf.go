// Package report renders an analysis result and its narrative feedback
// into a formatted PDF.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/arjunverma/scoresight/internal/analysis"
	"github.com/arjunverma/scoresight/internal/llm"
	"github.com/arjunverma/scoresight/internal/model"
)

// Color palette.
var (
	colorPrimary     = rgb{37, 99, 235}
	colorPrimaryDark = rgb{29, 78, 216}
	colorAccent      = rgb{16, 185, 129}
	colorWarning     = rgb{245, 158, 11}
	colorDanger      = rgb{239, 68, 68}
	colorText        = rgb{30, 41, 59}
	colorTextLight   = rgb{71, 85, 105}
	colorBorder      = rgb{226, 232, 240}
	colorHeaderBG    = rgb{51, 65, 85}
	colorAltRow      = rgb{241, 245, 249}
)

type rgb struct{ r, g, b int }

// Chapter highlight limits: the weakest chaptersShown are always listed,
// plus anything under chapterAccuracyFloor, capped at chapterMaxRows.
const (
	chaptersShown        = 7
	chapterAccuracyFloor = 65.0
	chapterMaxRows       = 10
)

var numberedItemRe = regexp.MustCompile(`^(\d+)\.\s+(.*)$`)

// Generate renders the report to w.
func Generate(res *model.AnalysisResult, feedback string, w io.Writer) error {
	if res == nil {
		return fmt.Errorf("no analysis result to render")
	}

	pdf := newDoc()
	writeTitle(pdf)
	writeOverview(pdf, res)
	writeFeedback(pdf, feedback)

	pdf.AddPage()
	sectionHeading(pdf, "Detailed Performance Visualizations")

	writeSubjectTable(pdf, res)
	writeDifficultyTable(pdf, res)
	writeChapterTable(pdf, res)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render PDF: %w", err)
	}
	return nil
}

// GenerateFile renders the report to a file, creating parent directories as
// needed.
func GenerateFile(res *model.AnalysisResult, feedback, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := Generate(res, feedback, f); err != nil {
		return err
	}
	return f.Close()
}

func newDoc() *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 22, 18)
	pdf.SetAutoPageBreak(true, 18)
	pdf.AliasNbPages("")

	pdf.SetHeaderFunc(func() {
		pageW, _ := pdf.GetPageSize()
		pdf.SetFillColor(colorPrimary.r, colorPrimary.g, colorPrimary.b)
		pdf.Rect(0, 0, pageW, 12, "F")
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetXY(0, 3)
		pdf.CellFormat(pageW, 6, "Student Performance Analysis", "", 0, "C", false, 0, "")
		pdf.SetY(22)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-14)
		pdf.SetDrawColor(colorBorder.r, colorBorder.g, colorBorder.b)
		pdf.SetLineWidth(0.2)
		pageW, _ := pdf.GetPageSize()
		pdf.Line(18, pdf.GetY(), pageW-18, pdf.GetY())
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(colorTextLight.r, colorTextLight.g, colorTextLight.b)
		pdf.CellFormat(90, 8, "Report Generated: "+time.Now().Format("January 2, 2006"), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()
	return pdf
}

func writeTitle(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetTextColor(colorPrimaryDark.r, colorPrimaryDark.g, colorPrimaryDark.b)
	pdf.CellFormat(0, 12, "Student Performance Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(colorTextLight.r, colorTextLight.g, colorTextLight.b)
	pdf.CellFormat(0, 8, "Detailed Analysis & Actionable Insights", "", 1, "C", false, 0, "")
	pdf.Ln(4)
}

func writeOverview(pdf *fpdf.Fpdf, res *model.AnalysisResult) {
	sectionHeading(pdf, "Candidate Overview")

	score := "N/A"
	if res.Overall.Score != nil {
		score = trimFloat(*res.Overall.Score)
		if res.Overall.TotalMarksInTest != nil {
			score += " / " + trimFloat(*res.Overall.TotalMarksInTest)
		}
	}

	overviewRow(pdf, "Student Name:", res.StudentName, colorText)
	overviewRow(pdf, "Assessment:", res.TestName, colorText)
	overviewRow(pdf, "Overall Score:", score, colorText)
	overviewRow(pdf, "Overall Accuracy:",
		fmt.Sprintf("%.1f%%", res.Overall.AccuracyPercent),
		accuracyColor(res.Overall.AccuracyPercent))
	pdf.Ln(6)
}

func overviewRow(pdf *fpdf.Fpdf, label, value string, valueColor rgb) {
	pdf.SetFont("Helvetica", "B", 10.5)
	pdf.SetTextColor(colorText.r, colorText.g, colorText.b)
	pdf.CellFormat(45, 7, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10.5)
	pdf.SetTextColor(valueColor.r, valueColor.g, valueColor.b)
	pdf.CellFormat(0, 7, value, "", 1, "L", false, 0, "")
}

// writeFeedback renders the narrative with markdown-lite parsing: ## and
// ### headings, bullet lists, numbered lists. An error-prefixed narrative
// is shown as a warning instead of report content.
func writeFeedback(pdf *fpdf.Fpdf, feedback string) {
	sectionHeading(pdf, "Analysis & Personalized Recommendations")

	if feedback == "" || llm.IsErrorFeedback(feedback) {
		pdf.SetFont("Helvetica", "I", 10.5)
		pdf.SetTextColor(colorDanger.r, colorDanger.g, colorDanger.b)
		pdf.MultiCell(0, 6, "Warning: AI feedback could not be generated. Details: "+feedback, "", "L", false)
		return
	}

	for _, line := range strings.Split(feedback, "\n") {
		line = strings.TrimSpace(line)
		plain := strings.ReplaceAll(line, "**", "")

		switch {
		case strings.HasPrefix(plain, "### "):
			pdf.Ln(2)
			pdf.SetFont("Helvetica", "B", 12)
			pdf.SetTextColor(colorText.r, colorText.g, colorText.b)
			pdf.MultiCell(0, 6, strings.TrimSpace(strings.TrimPrefix(plain, "###")), "", "L", false)
		case strings.HasPrefix(plain, "## "):
			pdf.Ln(3)
			pdf.SetFont("Helvetica", "B", 14)
			pdf.SetTextColor(colorPrimary.r, colorPrimary.g, colorPrimary.b)
			pdf.MultiCell(0, 7, strings.TrimSpace(strings.TrimPrefix(plain, "##")), "", "L", false)
		case strings.HasPrefix(line, "* "), strings.HasPrefix(line, "- "):
			pdf.SetFont("Helvetica", "", 10.5)
			pdf.SetTextColor(colorText.r, colorText.g, colorText.b)
			pdf.SetX(pdf.GetX() + 5)
			pdf.MultiCell(0, 5.5, "• "+strings.ReplaceAll(strings.TrimSpace(line[2:]), "**", ""), "", "L", false)
		case numberedItemRe.MatchString(plain):
			m := numberedItemRe.FindStringSubmatch(plain)
			pdf.SetFont("Helvetica", "", 10.5)
			pdf.SetTextColor(colorText.r, colorText.g, colorText.b)
			pdf.SetX(pdf.GetX() + 5)
			pdf.MultiCell(0, 5.5, m[1]+". "+m[2], "", "L", false)
		case plain != "":
			pdf.SetFont("Helvetica", "", 10.5)
			pdf.SetTextColor(colorText.r, colorText.g, colorText.b)
			pdf.MultiCell(0, 5.5, plain, "", "L", false)
		}
	}
}

func writeSubjectTable(pdf *fpdf.Fpdf, res *model.AnalysisResult) {
	if len(res.SubjectPerformance) == 0 {
		return
	}
	subHeading(pdf, "Subject-wise Performance")

	rows := make([][4]string, 0, len(analysis.CanonicalSubjects))
	accs := make([]float64, 0, len(analysis.CanonicalSubjects))
	for _, subject := range analysis.CanonicalSubjects {
		perf, ok := res.SubjectPerformance[subject]
		if !ok {
			continue
		}
		rows = append(rows, perfRow(subject, perf))
		accs = append(accs, perf.AccuracyPercent)
	}
	perfTable(pdf, [4]string{"Subject", "Accuracy", "Correct/Total", "Avg. Time"}, rows, accs)
	pdf.Ln(6)
}

func writeDifficultyTable(pdf *fpdf.Fpdf, res *model.AnalysisResult) {
	if len(res.DifficultyPerformance) == 0 {
		return
	}
	subHeading(pdf, "Performance by Difficulty Level")

	var rows [][4]string
	var accs []float64
	for _, level := range orderedDifficulties(res.DifficultyPerformance) {
		perf := res.DifficultyPerformance[level]
		rows = append(rows, perfRow(level, perf))
		accs = append(accs, perf.AccuracyPercent)
	}
	perfTable(pdf, [4]string{"Difficulty", "Accuracy", "Correct/Total", "Avg. Time"}, rows, accs)
	pdf.Ln(6)
}

func writeChapterTable(pdf *fpdf.Fpdf, res *model.AnalysisResult) {
	if len(res.ChapterPerformance) == 0 {
		return
	}
	subHeading(pdf, "Chapter Performance Highlights")

	var rows [][4]string
	var accs []float64
	for _, r := range analysis.RankByAccuracy(res.ChapterPerformance) {
		if len(rows) >= chapterMaxRows {
			break
		}
		if len(rows) >= chaptersShown && r.Summary.AccuracyPercent >= chapterAccuracyFloor {
			continue
		}
		rows = append(rows, perfRow(truncateLabel(r.Name, 35), r.Summary))
		accs = append(accs, r.Summary.AccuracyPercent)
	}
	perfTable(pdf, [4]string{"Chapter", "Accuracy", "Correct/Total", "Avg. Time"}, rows, accs)
	pdf.Ln(6)
}

// orderedDifficulties lists the conventional levels first, then any other
// observed labels ranked weakest-first.
func orderedDifficulties(perf map[string]model.GroupSummary) []string {
	var ordered []string
	seen := map[string]bool{}
	for _, level := range []string{"Easy", "Medium", "Hard", "Tough"} {
		if _, ok := perf[level]; ok {
			ordered = append(ordered, level)
			seen[level] = true
		}
	}
	for _, r := range analysis.RankByAccuracy(perf) {
		if !seen[r.Name] {
			ordered = append(ordered, r.Name)
		}
	}
	return ordered
}

func perfRow(name string, perf model.GroupSummary) [4]string {
	return [4]string{
		name,
		fmt.Sprintf("%.1f%%", perf.AccuracyPercent),
		fmt.Sprintf("%d/%d", perf.CorrectAnswers, perf.TotalQuestions),
		formatSecondsShort(perf.AverageTimeSeconds),
	}
}

func perfTable(pdf *fpdf.Fpdf, header [4]string, rows [][4]string, accs []float64) {
	widths := [4]float64{65, 30, 40, 30}

	pdf.SetFont("Helvetica", "B", 9.5)
	pdf.SetFillColor(colorHeaderBG.r, colorHeaderBG.g, colorHeaderBG.b)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetDrawColor(colorBorder.r, colorBorder.g, colorBorder.b)
	for i, h := range header {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for i, row := range rows {
		fill := i%2 == 1
		if fill {
			pdf.SetFillColor(colorAltRow.r, colorAltRow.g, colorAltRow.b)
		}
		pdf.SetTextColor(colorText.r, colorText.g, colorText.b)
		pdf.CellFormat(widths[0], 7, row[0], "1", 0, "L", fill, 0, "")

		c := accuracyColor(accs[i])
		pdf.SetTextColor(c.r, c.g, c.b)
		pdf.CellFormat(widths[1], 7, row[1], "1", 0, "C", fill, 0, "")

		pdf.SetTextColor(colorText.r, colorText.g, colorText.b)
		pdf.CellFormat(widths[2], 7, row[2], "1", 0, "C", fill, 0, "")
		pdf.CellFormat(widths[3], 7, row[3], "1", 0, "C", fill, 0, "")
		pdf.Ln(-1)
	}
}

func sectionHeading(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "B", 15)
	pdf.SetTextColor(colorPrimary.r, colorPrimary.g, colorPrimary.b)
	pdf.CellFormat(0, 9, text, "", 1, "L", false, 0, "")
	pdf.SetDrawColor(colorBorder.r, colorBorder.g, colorBorder.b)
	pdf.SetLineWidth(0.2)
	pageW, _ := pdf.GetPageSize()
	pdf.Line(18, pdf.GetY(), pageW-18, pdf.GetY())
	pdf.Ln(3)
}

func subHeading(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(colorText.r, colorText.g, colorText.b)
	pdf.CellFormat(0, 8, text, "", 1, "L", false, 0, "")
	pdf.Ln(1)
}

func accuracyColor(accuracy float64) rgb {
	switch {
	case accuracy >= 75:
		return colorAccent
	case accuracy >= 50:
		return colorWarning
	default:
		return colorDanger
	}
}

// formatSecondsShort renders "Xm Ys" (or "Ys" under a minute) for tables.
func formatSecondsShort(seconds float64) string {
	if seconds < 0 {
		return "N/A"
	}
	total := int(seconds)
	minutes := total / 60
	remaining := total % 60
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, remaining)
	}
	return fmt.Sprintf("%ds", remaining)
}

// truncateLabel shortens a table label to max runes, never splitting a
// multi-byte character.
func truncateLabel(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
