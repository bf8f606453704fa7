package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/sala-kh/grade-service/internal/models"
	appErrors "github.com/sala-kh/grade-service/pkg/errors"
	"github.com/sala-kh/grade-service/pkg/export"
)

type classSummarizer interface {
	ClassSummary(ctx context.Context, teacherID, classID, subjectID string, semester int, academicYear string) (*models.ClassSummary, bool, error)
}

// ExportService renders class summaries as downloadable CSV or PDF reports.
type ExportService struct {
	summaries classSummarizer
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	logger    *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(summaries classSummarizer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		summaries: summaries,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
	}
}

// ClassSummaryCSV renders the ranked class summary as CSV.
func (s *ExportService) ClassSummaryCSV(ctx context.Context, teacherID, classID, subjectID string, semester int, academicYear string) ([]byte, string, error) {
	summary, _, err := s.summaries.ClassSummary(ctx, teacherID, classID, subjectID, semester, academicYear)
	if err != nil {
		return nil, "", err
	}
	data, err := s.csv.Render(summaryTable(summary))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return data, exportFilename(summary, "csv"), nil
}

// ClassSummaryPDF renders the ranked class summary as a PDF report.
func (s *ExportService) ClassSummaryPDF(ctx context.Context, teacherID, classID, subjectID string, semester int, academicYear string) ([]byte, string, error) {
	summary, _, err := s.summaries.ClassSummary(ctx, teacherID, classID, subjectID, semester, academicYear)
	if err != nil {
		return nil, "", err
	}
	title := fmt.Sprintf("Class Summary - %s", summary.ClassName)
	subtitle := fmt.Sprintf("Semester %d, %s", summary.Semester, summary.AcademicYear)
	if summary.ClassAverage != nil {
		subtitle += fmt.Sprintf(" | class average %.2f | pass rate %.2f%%", *summary.ClassAverage, summary.PassRate)
	}
	data, err := s.pdf.Render(summaryTable(summary), title, subtitle)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return data, exportFilename(summary, "pdf"), nil
}

func summaryTable(summary *models.ClassSummary) export.Table {
	table := export.Table{
		Columns: []export.Column{
			{Key: "rank", Label: "Rank"},
			{Key: "student", Label: "Student"},
			{Key: "score", Label: "Score"},
			{Key: "letter", Label: "Grade"},
			{Key: "complete", Label: "Complete"},
			{Key: "change", Label: "Change"},
		},
		Rows: make([]map[string]string, 0, len(summary.Rankings)),
	}
	for _, row := range summary.Rankings {
		change := "-"
		if row.RankChange != nil {
			change = fmt.Sprintf("%+d", *row.RankChange)
		}
		table.Rows = append(table.Rows, map[string]string{
			"rank":     strconv.Itoa(row.Rank),
			"student":  row.StudentName,
			"score":    fmt.Sprintf("%.2f", row.AverageScore),
			"letter":   row.LetterGrade,
			"complete": strconv.FormatBool(row.Complete),
			"change":   change,
		})
	}
	return table
}

func exportFilename(summary *models.ClassSummary, ext string) string {
	return fmt.Sprintf("class-summary-%s-%s-s%d-%s.%s", summary.ClassID, summary.SubjectID, summary.Semester, summary.AcademicYear, ext)
}
