package commands

import (
	"fmt"
	"io"
	"strings"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const lineWidth = 59

// PrintSeparator prints a visual separator
func PrintSeparator(out io.Writer) {
	fmt.Fprintln(out, strings.Repeat("─", lineWidth))
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator(out io.Writer) {
	fmt.Fprintln(out, strings.Repeat("═", lineWidth))
}

// PrintSuccess prints a success message
func PrintSuccess(out io.Writer, message string) {
	fmt.Fprintf(out, "✅ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(out io.Writer, message string) {
	fmt.Fprintf(out, "ℹ️  %s\n", message)
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(out io.Writer, key string, value string, keyWidth int) {
	fmt.Fprintf(out, "   %-*s : %s\n", keyWidth, key, value)
}

// PrintTableHeader prints a table header
func PrintTableHeader(out io.Writer, columns []string, widths []int) {
	PrintTableRow(out, columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Fprintln(out, strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(out io.Writer, values []string, widths []int) {
	cells := make([]string, len(values))
	for i, val := range values {
		cells[i] = fmt.Sprintf("%-*s", widths[i], val)
	}
	fmt.Fprintln(out, strings.TrimRight(strings.Join(cells, "  "), " "))
}

// PrintColumns prints items left to right, perRow per line
func PrintColumns(out io.Writer, items []string, perRow int) {
	for i := 0; i < len(items); i += perRow {
		end := min(i+perRow, len(items))
		row := make([]string, 0, perRow)
		for _, item := range items[i:end] {
			row = append(row, fmt.Sprintf("%-6s", item))
		}
		fmt.Fprintf(out, "   %s\n", strings.TrimRight(strings.Join(row, " "), " "))
	}
}
