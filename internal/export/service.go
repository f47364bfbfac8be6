package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/repository"
)

const sheet = "History"

// Service renders extraction history as an XLSX workbook.
type Service struct {
	history repository.HistoryRepository
	logger  *slog.Logger
}

func NewService(history repository.HistoryRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{history: history, logger: logger}
}

var headers = []string{
	"Processed At (UTC)",
	"Source File",
	"File Type",
	"Status",
	"Is Referral",
	"Confidence",
	"Score",
	"Characters",
	"Words",
	"Pages",
	"Patient",
	"Referral To",
	"Validation Warning",
	"Error",
	"SHA-256",
	"Job ID",
}

// ExportHistoryXLSX returns the newest limit entries as XLSX bytes.
func (s *Service) ExportHistoryXLSX(ctx context.Context, limit int) ([]byte, error) {
	start := time.Now()

	entries, err := s.history.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_error", "error", err)
		}
	}()

	// replace the default sheet so the workbook opens on History
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(sheet, "A1", last, style)
	}

	for i, e := range entries {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, e.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
		write(2, e.SourceFile)
		write(3, e.FileType)
		write(4, e.Status)
		write(5, yesNo(e.IsReferral))
		write(6, e.Confidence)
		write(7, e.Score)
		write(8, e.CharacterCount)
		write(9, e.WordCount)
		write(10, e.Pages)
		write(11, e.PatientName)
		write(12, e.ReferralTo)
		write(13, truncate(e.ValidationWarning, 200))
		write(14, truncate(e.ErrorMessage, 200))
		write(15, e.SHA256)
		write(16, e.JobID)
	}

	_ = f.SetColWidth(sheet, "A", "A", 20)
	_ = f.SetColWidth(sheet, "B", "B", 32)
	_ = f.SetColWidth(sheet, "C", "J", 12)
	_ = f.SetColWidth(sheet, "K", "L", 28)
	_ = f.SetColWidth(sheet, "M", "N", 48)
	_ = f.SetColWidth(sheet, "O", "P", 38)
	_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(entries),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
