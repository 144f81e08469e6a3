package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// WriteExcel writes the daily summary workbook: a Signals sheet, a
// Decisions sheet and a Trades sheet. Returns the written path.
func WriteExcel(s Summary, dir string) (string, error) {
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	path := filepath.Join(dir, fmt.Sprintf("summary_%s.xlsx", s.Date.Format("2006-01-02")))

	fx := excelize.NewFile()
	defer fx.Close()

	const signalsSheet = "Signals"
	const decisionsSheet = "Decisions"
	const tradesSheet = "Trades"

	fx.SetSheetName(fx.GetSheetName(0), signalsSheet)
	fx.NewSheet(decisionsSheet)
	fx.NewSheet(tradesSheet)

	headerStyle, err := fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF", Family: "Calibri"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"1F4E79"}, Pattern: 1},
	})
	if err != nil {
		return "", err
	}

	writeHeader := func(sheet string, cols []string) error {
		for i, col := range cols {
			cell, err := excelize.CoordinatesToCellName(i+1, 1)
			if err != nil {
				return err
			}
			if err := fx.SetCellValue(sheet, cell, col); err != nil {
				return err
			}
		}
		end, _ := excelize.CoordinatesToCellName(len(cols), 1)
		return fx.SetCellStyle(sheet, "A1", end, headerStyle)
	}

	if err := writeHeader(signalsSheet, []string{"Time", "Symbol", "Direction", "Strength", "Reasons"}); err != nil {
		return "", err
	}
	for i, rec := range s.Signals {
		row := i + 2
		fx.SetCellValue(signalsSheet, fmt.Sprintf("A%d", row), rec.Time.Format("15:04"))
		fx.SetCellValue(signalsSheet, fmt.Sprintf("B%d", row), rec.Symbol)
		fx.SetCellValue(signalsSheet, fmt.Sprintf("C%d", row), rec.Direction)
		fx.SetCellValue(signalsSheet, fmt.Sprintf("D%d", row), rec.Strength)
		fx.SetCellValue(signalsSheet, fmt.Sprintf("E%d", row), strings.Join(rec.Reasons, "; "))
	}

	if err := writeHeader(decisionsSheet, []string{"Time", "Symbol", "Contract", "Approved", "Veto", "Qty"}); err != nil {
		return "", err
	}
	for i, rec := range s.Decisions {
		row := i + 2
		fx.SetCellValue(decisionsSheet, fmt.Sprintf("A%d", row), rec.Time.Format("15:04"))
		fx.SetCellValue(decisionsSheet, fmt.Sprintf("B%d", row), rec.Symbol)
		fx.SetCellValue(decisionsSheet, fmt.Sprintf("C%d", row), rec.Contract)
		fx.SetCellValue(decisionsSheet, fmt.Sprintf("D%d", row), rec.Approved)
		fx.SetCellValue(decisionsSheet, fmt.Sprintf("E%d", row), rec.Veto)
		fx.SetCellValue(decisionsSheet, fmt.Sprintf("F%d", row), rec.Qty)
	}

	if err := writeHeader(tradesSheet, []string{"Underlying", "Contract", "Qty", "Entry", "Exit", "Reason", "PnL"}); err != nil {
		return "", err
	}
	for i, p := range s.Closed {
		row := i + 2
		fx.SetCellValue(tradesSheet, fmt.Sprintf("A%d", row), p.Underlying)
		fx.SetCellValue(tradesSheet, fmt.Sprintf("B%d", row), p.Contract.Symbol)
		fx.SetCellValue(tradesSheet, fmt.Sprintf("C%d", row), p.Qty)
		fx.SetCellValue(tradesSheet, fmt.Sprintf("D%d", row), p.EntryPrice)
		fx.SetCellValue(tradesSheet, fmt.Sprintf("E%d", row), p.ExitPrice)
		fx.SetCellValue(tradesSheet, fmt.Sprintf("F%d", row), string(p.ExitReason))
		fx.SetCellValue(tradesSheet, fmt.Sprintf("G%d", row), p.RealizedPnL)
	}

	if err := fx.SaveAs(path); err != nil {
		return "", err
	}
	return path, nil
}
