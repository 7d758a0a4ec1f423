package report

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/wonny/hqm/backend/internal/contracts"
	"github.com/wonny/hqm/backend/pkg/logger"
)

const (
	// SheetName is the worksheet every report is written to
	SheetName = "Momentum Strategy"

	columnWidth     = 25
	backgroundColor = "#0a0a23"
	fontColor       = "#ffffff"
)

// XLSXWriter renders a report as a styled spreadsheet
type XLSXWriter struct {
	path   string
	logger *logger.Logger
}

// NewXLSXWriter creates a writer that saves to path
func NewXLSXWriter(path string, logger *logger.Logger) *XLSXWriter {
	return &XLSXWriter{
		path:   path,
		logger: logger,
	}
}

// Write implements contracts.ReportWriter
func (w *XLSXWriter) Write(ctx context.Context, r *contracts.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := Workbook(r)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("failed to save %s: %w", w.path, err)
	}

	w.logger.WithFields(map[string]interface{}{
		"path":     w.path,
		"strategy": r.Strategy,
		"rows":     len(r.Rows),
	}).Info("Spreadsheet report written")

	return nil
}

// WriteXLSX streams the workbook to out
func WriteXLSX(out io.Writer, r *contracts.Report) error {
	f, err := Workbook(r)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Workbook builds the in-memory spreadsheet for a report. The caller closes it.
func Workbook(r *contracts.Report) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := fill(f, r); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func fill(f *excelize.File, r *contracts.Report) error {
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	cols := Columns(r)

	// one style per format, shared by header and body cells
	styles := make(map[Format]int, 4)
	for _, c := range cols {
		if _, ok := styles[c.Format]; ok {
			continue
		}
		id, err := f.NewStyle(cellStyle(c.Format))
		if err != nil {
			return fmt.Errorf("failed to create style: %w", err)
		}
		styles[c.Format] = id
	}

	for i, c := range cols {
		colName, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, colName, colName, columnWidth); err != nil {
			return fmt.Errorf("failed to set width of %s: %w", colName, err)
		}

		if err := setCell(f, i+1, 1, c.Header, styles[c.Format]); err != nil {
			return err
		}

		for j, row := range r.Rows {
			v, ok := c.Value(row)
			if !ok {
				v = nil
			}
			if err := setCell(f, i+1, j+2, v, styles[c.Format]); err != nil {
				return err
			}
		}
	}

	return nil
}

func setCell(f *excelize.File, col, row int, v interface{}, style int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if v != nil {
		if err := f.SetCellValue(SheetName, cell, v); err != nil {
			return fmt.Errorf("failed to set %s: %w", cell, err)
		}
	}
	if err := f.SetCellStyle(SheetName, cell, cell, style); err != nil {
		return fmt.Errorf("failed to style %s: %w", cell, err)
	}
	return nil
}

func cellStyle(format Format) *excelize.Style {
	numFmt := format.NumFmt()
	border := make([]excelize.Border, 0, 4)
	for _, side := range []string{"left", "top", "right", "bottom"} {
		border = append(border, excelize.Border{Type: side, Color: "#000000", Style: 1})
	}

	return &excelize.Style{
		Font:         &excelize.Font{Color: fontColor},
		Fill:         excelize.Fill{Type: "pattern", Color: []string{backgroundColor}, Pattern: 1},
		Border:       border,
		CustomNumFmt: &numFmt,
	}
}
