package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/wonny/hqm/backend/internal/contracts"
	"github.com/wonny/hqm/backend/pkg/logger"
)

// CSVWriter renders a report as plain CSV with raw numeric values
type CSVWriter struct {
	path   string
	logger *logger.Logger
}

// NewCSVWriter creates a writer that saves to path
func NewCSVWriter(path string, logger *logger.Logger) *CSVWriter {
	return &CSVWriter{
		path:   path,
		logger: logger,
	}
}

// Write implements contracts.ReportWriter
func (w *CSVWriter) Write(ctx context.Context, r *contracts.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", w.path, err)
	}

	if err := WriteCSV(file, r); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", w.path, err)
	}

	w.logger.WithFields(map[string]interface{}{
		"path":     w.path,
		"strategy": r.Strategy,
		"rows":     len(r.Rows),
	}).Info("CSV report written")

	return nil
}

// WriteCSV writes the header and one record per row to out
func WriteCSV(out io.Writer, r *contracts.Report) error {
	cols := Columns(r)
	cw := csv.NewWriter(out)

	if err := cw.Write(Headers(cols)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(cols))
	for _, row := range r.Rows {
		for i, c := range cols {
			record[i] = rawValue(c, row)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write %s: %w", row.Ticker, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

func rawValue(c Column, row contracts.ReportRow) string {
	v, ok := c.Value(row)
	if !ok {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return fmt.Sprint(x)
	}
}
