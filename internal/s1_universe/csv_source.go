package s1_universe

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wonny/hqm/backend/internal/contracts"
)

// DefaultTickerColumn is the header of the ticker column in universe files
const DefaultTickerColumn = "Ticker"

// CSVSource loads tickers from one column of a CSV file (e.g. sp_500_stocks.csv)
type CSVSource struct {
	path   string
	column string
}

// NewCSVSource creates a CSV universe source. An empty column means "Ticker".
func NewCSVSource(path, column string) *CSVSource {
	if column == "" {
		column = DefaultTickerColumn
	}
	return &CSVSource{path: path, column: column}
}

// Load implements contracts.UniverseSource
func (s *CSVSource) Load(ctx context.Context) ([]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open universe file: %w", err)
	}
	defer f.Close()

	return ReadTickers(ctx, f, s.column)
}

// ReadTickers reads the named column from CSV data in file order
func ReadTickers(ctx context.Context, r io.Reader, column string) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: universe file is empty", contracts.ErrInvalidArgument)
	}
	if err != nil {
		return nil, fmt.Errorf("read universe header: %w", err)
	}

	col := -1
	for i, h := range header {
		// tolerate a UTF-8 BOM on the first header
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), column) {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("%w: column %q not found in universe header %v", contracts.ErrInvalidArgument, column, header)
	}

	var tickers []string
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read universe line %d: %w", line, err)
		}
		if col < len(rec) {
			tickers = append(tickers, rec[col])
		}
	}

	return tickers, nil
}
