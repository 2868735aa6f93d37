// Package formatter renders scored batches as aligned markdown tables for
// terminal output.
package formatter

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// minWidth keeps the separator at least "---" wide.
const minWidth = 3

// Table renders header and rows as a markdown table. Columns are padded to
// their display width so wide runes (CJK hotel names, emoji) stay aligned.
// Short rows are padded with empty cells.
func Table(header []string, rows [][]string) string {
	colCount := len(header)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}

	if colCount == 0 {
		return ""
	}

	// 1. Clean every cell
	table := make([][]string, 0, len(rows)+1)
	table = append(table, cleanRow(header, colCount))

	for _, row := range rows {
		table = append(table, cleanRow(row, colCount))
	}

	// 2. Calculate max widths (using display width)
	colWidths := make([]int, colCount)

	for _, row := range table {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > colWidths[i] {
				colWidths[i] = w
			}
		}
	}

	for i := range colWidths {
		if colWidths[i] < minWidth {
			colWidths[i] = minWidth
		}
	}

	// 3. Reconstruct lines: header, separator, body
	lines := make([]string, 0, len(table)+1)
	lines = append(lines, renderRow(table[0], colWidths))
	lines = append(lines, renderSeparator(colWidths))

	for _, row := range table[1:] {
		lines = append(lines, renderRow(row, colWidths))
	}

	return strings.Join(lines, "\n") + "\n"
}

func cleanRow(row []string, colCount int) []string {
	out := make([]string, colCount)

	for i := 0; i < len(row) && i < colCount; i++ {
		cell := strings.TrimSpace(row[i])
		cell = strings.ReplaceAll(cell, "\n", " ")
		out[i] = strings.ReplaceAll(cell, "|", `\|`)
	}

	return out
}

func renderRow(row []string, widths []int) string {
	var sb strings.Builder

	sb.WriteString("|")

	for j, content := range row {
		sb.WriteString(" ")
		sb.WriteString(content)

		// Pad with spaces based on display width
		if padding := widths[j] - runewidth.StringWidth(content); padding > 0 {
			sb.WriteString(strings.Repeat(" ", padding))
		}

		sb.WriteString(" |")
	}

	return sb.String()
}

func renderSeparator(widths []int) string {
	var sb strings.Builder

	sb.WriteString("|")

	for _, w := range widths {
		sb.WriteString(" ")
		sb.WriteString(strings.Repeat("-", w))
		sb.WriteString(" |")
	}

	return sb.String()
}
