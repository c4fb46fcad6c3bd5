package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"webpify/internal/batch"
	"webpify/internal/optimizer"
	"webpify/internal/tui"
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Report what convert would do without writing or deleting anything",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd, args, true)
	},
}

// printScanReport lists every candidate with its decision and, for the ones
// that would be converted, the size change and the attempts that led there.
func printScanReport(w io.Writer, events []batch.Event) {
	for i, ev := range events {
		if i > 0 {
			fmt.Fprintln(w)
		}
		out := ev.Outcome
		fmt.Fprintf(w, "%s\n", scanFileStyle.Render(ev.File))
		fmt.Fprintf(w, "  %s %s\n", scanBulletStyle.Render("-"), decisionStyle(out.Status).Render(out.Summary()))

		if out.Status == optimizer.StatusConverted {
			fmt.Fprintf(w, "  %s %s\n", scanBulletStyle.Render("-"),
				scanValueStyle.Render(fmt.Sprintf("%s -> %s",
					humanize.Bytes(uint64(out.OriginalSize)), humanize.Bytes(uint64(out.ConvertedSize)))))
		}
		if len(out.Attempts) == 0 {
			continue
		}
		fmt.Fprintf(w, "  %s\n", scanCategoryStyle.Render("attempts:"))
		for _, a := range out.Attempts {
			fmt.Fprintf(w, "    %s %s\n", scanBulletStyle.Render("-"), scanDimStyle.Render(formatAttempt(a)))
		}
	}
	if len(events) > 0 {
		fmt.Fprintln(w)
	}
}

func formatAttempt(a optimizer.Attempt) string {
	if a.Lossless {
		return fmt.Sprintf("lossless: %s", humanize.Bytes(uint64(a.Size)))
	}
	return fmt.Sprintf("q%d: %s, similarity %.4f", a.Quality, humanize.Bytes(uint64(a.Size)), a.Similarity)
}

func decisionStyle(status optimizer.Status) lipgloss.Style {
	switch status {
	case optimizer.StatusConverted:
		return scanConvertStyle
	case optimizer.StatusSkipped:
		return scanDimStyle
	default:
		return scanErrorStyle
	}
}

var (
	scanFileStyle     = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	scanCategoryStyle = lipgloss.NewStyle().Foreground(tui.ColorAccentAlt)
	scanValueStyle    = lipgloss.NewStyle().Foreground(tui.ColorInk)
	scanConvertStyle  = lipgloss.NewStyle().Foreground(tui.ColorSuccess)
	scanErrorStyle    = lipgloss.NewStyle().Foreground(tui.ColorError)
	scanDimStyle      = lipgloss.NewStyle().Foreground(tui.ColorDim)
	scanBulletStyle   = lipgloss.NewStyle().Foreground(tui.ColorDim)
)

func init() {
	rootCmd.AddCommand(scanCmd)
}
