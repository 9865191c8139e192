package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/models"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
	"github.com/noah-isme/gradebook-api/pkg/export"
)

// ExportFormat selects the rendered file type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

var exportHeaders = []string{"Student ID", "Name", "Quiz", "Homework", "Attitude", "Regular", "Periodic Avg", "Adjust", "Total", "Rank", "Remark"}

type totalsSource interface {
	Totals(ctx context.Context, courseKey string) (*models.TotalsReport, bool, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	TitlePrefix string
	FontPath    string
}

// ExportResult is a rendered file ready to be streamed to the client.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders a course's total scores as CSV or PDF.
type ExportService struct {
	totals totalsSource
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
	cfg    ExportConfig
	now    func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(totals totalsSource, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter(cfg.FontPath)
	}
	if cfg.TitlePrefix == "" {
		cfg.TitlePrefix = "Gradebook"
	}
	return &ExportService{totals: totals, csv: csv, pdf: pdf, logger: logger, cfg: cfg, now: time.Now}
}

// Export renders the totals of courseKey in the requested format.
func (s *ExportService) Export(ctx context.Context, courseKey string, format ExportFormat) (*ExportResult, error) {
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	report, _, err := s.totals.Totals(ctx, courseKey)
	if err != nil {
		return nil, err
	}

	dataset := totalsDataset(report)
	var (
		payload     []byte
		contentType string
	)
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv; charset=utf-8"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, fmt.Sprintf("%s %s", s.cfg.TitlePrefix, courseKey))
		contentType = "application/pdf"
	}
	if err != nil {
		s.logger.Error("render gradebook export", zap.String("course_key", courseKey), zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	return &ExportResult{
		Filename:    s.buildFilename(courseKey, format),
		ContentType: contentType,
		Payload:     payload,
	}, nil
}

func (s *ExportService) buildFilename(courseKey string, format ExportFormat) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("totals_%s_%s.%s", sanitizeFilename(courseKey), timestamp, format)
}

const maxFilenameBytes = 100

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "\"", "", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) <= maxFilenameBytes {
		return result
	}
	cut := maxFilenameBytes
	for cut > 0 && !utf8.RuneStart(result[cut]) {
		cut--
	}
	return result[:cut]
}

func totalsDataset(report *models.TotalsReport) export.Dataset {
	rows := make([]map[string]string, 0, len(report.Students))
	for _, student := range report.Students {
		rows = append(rows, map[string]string{
			"Student ID":   student.StudentID,
			"Name":         student.Name,
			"Quiz":         formatScore(student.CategoryAverages[models.CategoryQuiz]),
			"Homework":     formatScore(student.CategoryAverages[models.CategoryHomework]),
			"Attitude":     formatScore(student.CategoryAverages[models.CategoryAttitude]),
			"Regular":      formatScore(student.Regular),
			"Periodic Avg": formatScore(student.PeriodicAverage),
			"Adjust":       strconv.Itoa(student.ManualAdjust),
			"Total":        strconv.Itoa(student.Total),
			"Rank":         formatRank(student.Rank),
			"Remark":       student.Remark,
		})
	}

	setting := report.Setting
	notes := []string{fmt.Sprintf("Quiz %g%% (%s), Homework %g%% (%s), Attitude %g%% (%s), Periodic %g%%",
		setting.Categories[models.CategoryQuiz].Percent, calcLabel(setting.Categories[models.CategoryQuiz]),
		setting.Categories[models.CategoryHomework].Percent, calcLabel(setting.Categories[models.CategoryHomework]),
		setting.Categories[models.CategoryAttitude].Percent, calcLabel(setting.Categories[models.CategoryAttitude]),
		setting.PeriodicPercent)}
	for _, warning := range report.Warnings {
		notes = append(notes, "Warning: "+warning)
	}

	return export.Dataset{Headers: exportHeaders, Rows: rows, Notes: notes}
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatRank(rank *models.RankResult) string {
	if rank == nil {
		return "-"
	}
	return fmt.Sprintf("%d/%d", rank.Rank, rank.Total)
}

func calcLabel(cs models.CategorySetting) string {
	if cs.CalcMethod == models.CalcBestN && cs.N.Valid && cs.N.Int > 0 {
		return fmt.Sprintf("best %d", cs.N.Int)
	}
	return "all"
}
