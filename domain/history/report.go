package history

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/soocke/flame-bot-go/domain/flame"
)

const reportSheet = "Attempts"

// ExportXLSX writes the recorded attempts to an Excel workbook, one row per
// attempt with a column per stat.
func (j *Journal) ExportXLSX(path string) error {
	rows := j.Rows()
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return err
	}

	header := []any{"Session", "Flame", "Attempt", "Time", "Met"}
	for _, s := range flame.AllStats() {
		header = append(header, s.Label())
	}
	header = append(header, "Attack Increase", "CP Increase", "Raw text", "Screenshot")
	if err := setRow(f, 1, header); err != nil {
		return err
	}

	for i, e := range rows {
		row := []any{e.SessionID, e.FlameType, e.Attempt, e.At.Format("2006-01-02 15:04:05"), e.Met}
		for _, s := range flame.AllStats() {
			if v, ok := e.Parsed.Value(s); ok {
				row = append(row, v)
			} else {
				row = append(row, "")
			}
		}
		row = append(row, optional(e.Parsed.AttackIncrease), optional(e.Parsed.CPIncrease), e.Parsed.OriginalText, e.Screenshot)
		if err := setRow(f, i+2, row); err != nil {
			return err
		}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(reportSheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func optional(v *int) any {
	if v == nil {
		return ""
	}
	return *v
}
