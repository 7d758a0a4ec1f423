package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/wonny/hqm/backend/internal/contracts"
	"github.com/wonny/hqm/backend/pkg/logger"
)

// DefaultOutputPath is the spreadsheet file name used when none is configured
const DefaultOutputPath = "momentum strategy.xlsx"

// NewFileWriter picks the writer by file extension (.xlsx or .csv)
func NewFileWriter(path string, log *logger.Logger) (contracts.ReportWriter, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return NewXLSXWriter(path, log), nil
	case ".csv":
		return NewCSVWriter(path, log), nil
	default:
		return nil, fmt.Errorf("%w: unsupported report format %q", contracts.ErrInvalidArgument, path)
	}
}

// PathFor derives a per-strategy file name when one run writes several reports
// ("momentum strategy.xlsx" → "momentum strategy (hqm).xlsx")
func PathFor(path string, strategy contracts.Strategy) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s (%s)%s", strings.TrimSuffix(path, ext), strategy, ext)
}

// PerStrategyWriter writes each strategy's report to its own file, named by PathFor
type PerStrategyWriter struct {
	path   string
	logger *logger.Logger
}

// NewPerStrategyWriter checks the extension once, up front
func NewPerStrategyWriter(path string, log *logger.Logger) (*PerStrategyWriter, error) {
	if _, err := NewFileWriter(path, log); err != nil {
		return nil, err
	}
	return &PerStrategyWriter{path: path, logger: log}, nil
}

// Write implements contracts.ReportWriter
func (w *PerStrategyWriter) Write(ctx context.Context, r *contracts.Report) error {
	fw, err := NewFileWriter(PathFor(w.path, r.Strategy), w.logger)
	if err != nil {
		return err
	}
	return fw.Write(ctx, r)
}

// Multi fans a report out to every writer; all writers run, errors are joined
type Multi []contracts.ReportWriter

// Write implements contracts.ReportWriter
func (m Multi) Write(ctx context.Context, r *contracts.Report) error {
	var errs []error
	for _, w := range m {
		if err := w.Write(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every report
var Discard contracts.ReportWriter = NewConsoleWriter(io.Discard)
