package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"morphcore/internal/report"
)

var (
	colorAccent = lipgloss.Color("#20B9B4")
	colorBorder = lipgloss.Color("#16858E")
	colorMuted  = lipgloss.Color("#2C4A54")
	colorWarn   = lipgloss.Color("#F4D03F")
)

var styles = struct {
	Title  lipgloss.Style
	Muted  lipgloss.Style
	Header lipgloss.Style
	Cell   lipgloss.Style
	Warn   lipgloss.Style
}{
	Title:  lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
	Muted:  lipgloss.NewStyle().Foreground(colorMuted),
	Header: lipgloss.NewStyle().Bold(true).Padding(0, 1),
	Cell:   lipgloss.NewStyle().Padding(0, 1),
	Warn:   lipgloss.NewStyle().Foreground(colorWarn),
}

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.Header
			}
			return styles.Cell
		}).
		Headers(headers...).
		Rows(rows...).
		Render()
}

// renderReport prints one table per gene followed by the combined offspring table.
func renderReport(w io.Writer, f *report.Formatter, r report.Report) {
	for _, g := range f.GeneTables(r) {
		fmt.Fprintln(w, styles.Title.Render(g.Gene)+" "+styles.Muted.Render(g.Cross))
		fmt.Fprintln(w, renderTable(g.Headers, g.Rows))
	}
	combined := f.Combined(r)
	fmt.Fprintln(w, styles.Title.Render("Offspring"))
	fmt.Fprintln(w, renderTable(combined.Headers, combined.Rows))
}
