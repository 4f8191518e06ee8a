package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#BD93F9")).
				Background(lipgloss.Color("#44475A"))

	tableSeparatorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#44475A"))
)

// TableConfig represents configuration for table rendering
type TableConfig struct {
	Headers  []string
	Rows     [][]string
	Title    string
	TotalRow []string // rendered after a separator when non-empty
}

// RenderTable renders a formatted table using lipgloss
func RenderTable(config TableConfig) string {
	if len(config.Headers) == 0 {
		return ""
	}

	var output strings.Builder

	if config.Title != "" {
		output.WriteString(applyStyle(successStyle, config.Title))
		output.WriteString("\n\n")
	}

	colWidths := columnWidths(config)
	separator := make([]string, len(config.Headers))
	for i, width := range colWidths {
		separator[i] = strings.Repeat("-", width)
	}

	writeRow := func(cells []string, style lipgloss.Style) {
		output.WriteString(renderTableRow(cells, colWidths, style))
		output.WriteString("\n")
	}

	writeRow(config.Headers, tableHeaderStyle)
	writeRow(separator, tableSeparatorStyle)
	for _, row := range config.Rows {
		writeRow(row, textStyle)
	}
	if len(config.TotalRow) > 0 {
		writeRow(separator, tableSeparatorStyle)
		writeRow(config.TotalRow, successStyle)
	}

	return output.String()
}

func columnWidths(config TableConfig) []int {
	widths := make([]int, len(config.Headers))
	for i, header := range config.Headers {
		widths[i] = len(header)
	}

	rows := config.Rows
	if len(config.TotalRow) > 0 {
		rows = append(rows[:len(rows):len(rows)], config.TotalRow)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	return widths
}

// renderTableRow pads each cell to its column width. Cells beyond the header count are dropped.
func renderTableRow(cells []string, colWidths []int, style lipgloss.Style) string {
	var row strings.Builder

	for i, cell := range cells {
		if i >= len(colWidths) {
			break
		}
		if i > 0 {
			row.WriteString(applyStyle(mutedStyle, " | "))
		}
		row.WriteString(applyStyle(style, fmt.Sprintf("%-*s", colWidths[i], cell)))
	}

	return row.String()
}
