// Package report renders pipeline summaries into downloadable workbooks.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/glenxmac/CC-PipeLineTool/internal/model"
	"github.com/glenxmac/CC-PipeLineTool/internal/pipeline"
)

// excelWriter is a small cursor-based wrapper over excelize.
type excelWriter struct {
	file         *excelize.File
	currentSheet string
	currentRow   int
}

func newExcelWriter() *excelWriter {
	return &excelWriter{file: excelize.NewFile()}
}

func (w *excelWriter) addSheet(name string) error {
	// Excel caps sheet names at 31 chars.
	if len(name) > 31 {
		name = name[:31]
	}

	if w.currentSheet == "" {
		w.file.SetSheetName("Sheet1", name)
	} else {
		if _, err := w.file.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	w.currentSheet = name
	w.currentRow = 1
	return nil
}

func (w *excelWriter) writeHeader(columns []string) error {
	if err := w.writeRow(toAny(columns)); err != nil {
		return err
	}

	style, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, w.currentRow-1)
		endCell, _ := excelize.CoordinatesToCellName(len(columns), w.currentRow-1)
		_ = w.file.SetCellStyle(w.currentSheet, startCell, endCell, style)
	}
	return nil
}

func (w *excelWriter) writeRow(row []interface{}) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no active sheet")
	}

	for i, val := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.currentSheet, cell, val); err != nil {
			return err
		}
	}

	w.currentRow++
	return nil
}

func toAny(strs []string) []interface{} {
	out := make([]interface{}, len(strs))
	for i, s := range strs {
		out[i] = s
	}
	return out
}

// WriteSummaryWorkbook renders the weekly deal matrix and the monthly
// snapshot as two sheets of one workbook.
func WriteSummaryWorkbook(wr io.Writer, matrix pipeline.WeeklyMatrix, snap pipeline.MonthlySnapshot) error {
	w := newExcelWriter()
	defer w.file.Close()

	if err := writeWeeklySheet(w, matrix); err != nil {
		return err
	}
	if err := writeMonthlySheet(w, snap); err != nil {
		return err
	}
	return w.file.Write(wr)
}

func writeWeeklySheet(w *excelWriter, matrix pipeline.WeeklyMatrix) error {
	if err := w.addSheet("Weekly deals"); err != nil {
		return err
	}

	header := []string{"Salesperson"}
	for _, week := range matrix.Weeks {
		header = append(header, fmt.Sprintf("Week %d", week))
	}
	header = append(header, "Grand total")
	if err := w.writeHeader(header); err != nil {
		return err
	}

	for _, name := range matrix.Salespeople() {
		row := []interface{}{name}
		for _, week := range matrix.Weeks {
			row = append(row, matrix.Rows[name][week])
		}
		row = append(row, matrix.RowTotal(name))
		if err := w.writeRow(row); err != nil {
			return err
		}
	}

	totals := []interface{}{"Grand total"}
	for _, week := range matrix.Weeks {
		totals = append(totals, matrix.WeekTotal(week))
	}
	totals = append(totals, matrix.GrandTotal())
	return w.writeRow(totals)
}

func writeMonthlySheet(w *excelWriter, snap pipeline.MonthlySnapshot) error {
	if err := w.addSheet("Monthly snapshot"); err != nil {
		return err
	}

	header := []string{"Salesperson"}
	for _, st := range model.PipelineStatuses {
		header = append(header, st+" #", st+" value")
	}
	header = append(header, "Invoiced #", "Invoiced value", "Lost #", "Lost value")
	if err := w.writeHeader(header); err != nil {
		return err
	}

	writePerson := func(name string, p pipeline.PersonSnapshot) error {
		row := []interface{}{name}
		for _, st := range model.PipelineStatuses {
			cell := p.ByStatus[st]
			row = append(row, cell.Count, cell.Value)
		}
		row = append(row, p.Invoiced.Count, p.Invoiced.Value, p.Lost.Count, p.Lost.Value)
		return w.writeRow(row)
	}

	for _, name := range snap.Salespeople() {
		if err := writePerson(name, snap.People[name]); err != nil {
			return err
		}
	}
	return writePerson("Grand total", snap.Totals)
}
