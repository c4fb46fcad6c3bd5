package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"webpify/internal/batch"
)

type SummaryRow struct {
	Label string
	Value string
}

// SummaryRows lists the final counters of a run. Converted is reported as
// "Would convert" for dry runs.
func SummaryRows(s batch.Summary, dryRun bool) []SummaryRow {
	convertedLabel := "Successfully converted"
	savedLabel := "Space saved"
	if dryRun {
		convertedLabel = "Would convert"
		savedLabel = "Space that would be saved"
	}

	rows := []SummaryRow{
		{Label: "Images found", Value: fmt.Sprintf("%d", s.Total)},
		{Label: convertedLabel, Value: fmt.Sprintf("%d", s.Converted)},
		{Label: "Skipped (quality)", Value: fmt.Sprintf("%d", s.SkippedQuality)},
		{Label: "Skipped (not beneficial)", Value: fmt.Sprintf("%d", s.SkippedSize)},
	}
	if s.SkippedConflict > 0 {
		rows = append(rows, SummaryRow{Label: "Skipped (name conflict)", Value: fmt.Sprintf("%d", s.SkippedConflict)})
	}
	rows = append(rows,
		SummaryRow{Label: "Errors", Value: fmt.Sprintf("%d", s.Errors)},
		SummaryRow{Label: savedLabel, Value: humanize.Bytes(uint64(max(s.BytesSaved(), 0)))},
	)
	if s.Retained > 0 {
		rows = append(rows, SummaryRow{Label: "Originals kept (delete failed)", Value: fmt.Sprintf("%d", s.Retained)})
	}
	if s.Unprocessed > 0 {
		rows = append(rows, SummaryRow{Label: "Not processed (interrupted)", Value: fmt.Sprintf("%d", s.Unprocessed)})
	}
	return rows
}

func RenderSummary(rows []SummaryRow) string {
	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		labelWidth = max(labelWidth, lipgloss.Width(row.Label))
		valueWidth = max(valueWidth, lipgloss.Width(row.Value))
	}

	hline := dimStyle.Render(strings.Repeat("-", labelWidth+valueWidth+3))
	lines := []string{hline}

	for _, row := range rows {
		label := padRight(row.Label, labelWidth)
		value := padRight(row.Value, valueWidth)
		lines = append(lines, fmt.Sprintf("%s | %s", labelStyle.Render(label), valueStyle.Render(value)))
	}

	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

var valueStyle = lipgloss.NewStyle().Foreground(ColorInk).Bold(true)
