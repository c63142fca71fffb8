package excel

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/recall/internal/database"
)

// ExportConfig defines the export configuration
type ExportConfig struct {
	FilePath  string // Path of the .xlsx file to write
	SheetName string // Name of the progress sheet
}

// DefaultExportConfig returns the default export configuration
func DefaultExportConfig(path string) ExportConfig {
	return ExportConfig{
		FilePath:  path,
		SheetName: "Progress",
	}
}

// ExportResult holds the result of an export operation
type ExportResult struct {
	Records int
	DueNow  int
}

var progressHeader = []string{
	"Flashcard ID", "Status", "Correct", "Incorrect",
	"Ease Factor", "Interval (days)", "Last Reviewed", "Next Review",
}

// ExportProgress writes one user's progress records plus summary statistics
// to an .xlsx workbook.
func ExportProgress(ctx context.Context, userID int64, config ExportConfig) (*ExportResult, error) {
	progressRepo := database.NewProgressRepository()

	records, err := progressRepo.GetAllByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	stats, err := progressRepo.Statistics(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := config.SheetName
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %v", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %v", err)
	}

	for col, title := range progressHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, fmt.Errorf("failed to write header: %v", err)
		}
	}

	formatTime := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format(time.RFC3339)
	}

	for i, p := range records {
		row := i + 2
		values := []interface{}{
			p.FlashcardID,
			string(p.Status),
			p.CorrectCount,
			p.IncorrectCount,
			p.EaseFactor,
			p.Interval,
			formatTime(p.LastReviewedAt),
			formatTime(p.NextReviewAt),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %v", row, err)
			}
		}
	}

	// Summary sheet with the aggregate numbers
	summary := "Summary"
	if _, err := f.NewSheet(summary); err != nil {
		return nil, fmt.Errorf("failed to create summary sheet: %v", err)
	}
	summaryRows := [][]interface{}{
		{"Exported at", now.Format(time.RFC3339)},
		{"Total tracked", stats.TotalTracked},
		{"Due now", stats.DueNow},
		{"Average ease factor", stats.AvgEaseFactor},
	}
	for status, count := range stats.ByStatus {
		summaryRows = append(summaryRows, []interface{}{fmt.Sprintf("Status %s", status), count})
	}
	for i, pair := range summaryRows {
		for col, v := range pair {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+1)
			if err := f.SetCellValue(summary, cell, v); err != nil {
				return nil, fmt.Errorf("failed to write summary: %v", err)
			}
		}
	}

	if err := f.SaveAs(config.FilePath); err != nil {
		return nil, fmt.Errorf("failed to save workbook: %v", err)
	}

	return &ExportResult{Records: len(records), DueNow: stats.DueNow}, nil
}
