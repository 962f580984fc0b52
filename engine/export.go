package engine

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

var summaryColumns = []string{
	"targets", "distractors", "trials", "accuracy", "hit_rate", "false_alarm", "k_targets", "k_all", "mean_rt",
}

// ExportWorkbook writes the rows of a data file to the "trials" sheet and the
// per-cell statistics of trials to the "summary" sheet.
func ExportWorkbook(path string, header []string, rows [][]string, trials []*Trial) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), "trials"); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeSheet(f, "trials", header, rows); err != nil {
		return err
	}

	if _, err := f.NewSheet("summary"); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	s := Summarize(trials)
	if err := setRow(f, "summary", 1, summaryColumns); err != nil {
		return err
	}
	for i, c := range s.Cells {
		vals := []any{
			c.Targets, c.Distractors, c.Trials,
			rateCell(c.Accuracy), rateCell(c.HitRate), rateCell(c.FalseAlarm),
			rateCell(c.KTargets), rateCell(c.KAll), rateCell(c.MeanRT),
		}
		if err := setRow(f, "summary", i+2, vals); err != nil {
			return err
		}
	}
	total := []any{"all", "", s.Trials, rateCell(s.Accuracy)}
	if err := setRow(f, "summary", len(s.Cells)+2, total); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]string) error {
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, rec := range rows {
		if err := setRow(f, sheet, i+2, rec); err != nil {
			return err
		}
	}
	return nil
}

func setRow[T any](f *excelize.File, sheet string, row int, vals []T) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]any, len(vals))
	for i, v := range vals {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

// rateCell leaves undefined rates as an empty cell.
func rateCell(r Rate) any {
	if !r.Valid {
		return ""
	}
	return r.Value
}
