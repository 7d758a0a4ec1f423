package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/wonny/hqm/backend/internal/contracts"
)

// ConsoleWriter prints a report as a fixed-width table
type ConsoleWriter struct {
	out io.Writer
}

// NewConsoleWriter creates a writer that prints to out
func NewConsoleWriter(out io.Writer) *ConsoleWriter {
	return &ConsoleWriter{out: out}
}

// Write implements contracts.ReportWriter
func (w *ConsoleWriter) Write(ctx context.Context, r *contracts.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cols := Columns(r)
	headers := append([]string{"#"}, Headers(cols)...)

	table := make([][]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		line := make([]string, 0, len(headers))
		line = append(line, fmt.Sprintf("%d", row.Rank))
		for _, c := range cols {
			line = append(line, displayValue(c, row))
		}
		table = append(table, line)
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, line := range table {
		for i, v := range line {
			widths[i] = max(widths[i], utf8.RuneCountInString(v))
		}
	}

	var b strings.Builder
	b.WriteString("\n═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(&b, "  %s momentum ranking\n", strategyTitle(r.Strategy))
	b.WriteString("───────────────────────────────────────────────────────────\n")
	fmt.Fprintf(&b, "  Run ID    : %s\n", r.RunID)
	fmt.Fprintf(&b, "  As of     : %s\n", r.AsOf.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "  Selected  : %d\n", len(r.Rows))
	if len(r.Missing) > 0 {
		fmt.Fprintf(&b, "  Missing   : %d (%s)\n", len(r.Missing), abbreviate(r.Missing, 10))
	}
	b.WriteString("───────────────────────────────────────────────────────────\n")

	writeTableRow(&b, headers, widths)
	total := 0
	for i, width := range widths {
		total += width
		if i < len(widths)-1 {
			total += 2
		}
	}
	b.WriteString(strings.Repeat("─", total))
	b.WriteString("\n")
	for _, line := range table {
		writeTableRow(&b, line, widths)
	}

	if t := r.Trades; t != nil {
		b.WriteString("\n")
		fmt.Fprintf(&b, "   %-9s : $%s\n", "Capital", t.Capital.StringFixed(2))
		fmt.Fprintf(&b, "   %-9s : $%s\n", "Invested", t.Invested.StringFixed(2))
		fmt.Fprintf(&b, "   %-9s : $%s\n", "Cash", t.Cash.StringFixed(2))
	}

	_, err := io.WriteString(w.out, b.String())
	return err
}

func writeTableRow(b *strings.Builder, values []string, widths []int) {
	for i, val := range values {
		fmt.Fprintf(b, "%-*s", widths[i], val)
		if i < len(values)-1 {
			b.WriteString("  ")
		}
	}
	b.WriteString("\n")
}

func displayValue(c Column, row contracts.ReportRow) string {
	v, ok := c.Value(row)
	if !ok {
		return "-"
	}
	switch c.Format {
	case FormatCurrency:
		return fmt.Sprintf("$%.2f", v)
	case FormatPercent:
		return fmt.Sprintf("%.1f%%", v.(float64)*100)
	default:
		return fmt.Sprint(v)
	}
}

func strategyTitle(s contracts.Strategy) string {
	switch s {
	case contracts.StrategyHQM:
		return "High-quality (HQM)"
	case contracts.StrategyPriceReturn:
		return "One-year price return"
	default:
		return string(s)
	}
}

func abbreviate(items []string, n int) string {
	if len(items) <= n {
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%s, … +%d", strings.Join(items[:n], ", "), len(items)-n)
}
