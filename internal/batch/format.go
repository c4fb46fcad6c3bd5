package batch

import (
	"fmt"

	"webpify/internal/optimizer"
)

// FormatProgress renders the per-candidate line, e.g.
// "[3/10] cat.png: converted, 41.2% smaller (lossless)".
func FormatProgress(index, total int, file string, out optimizer.Outcome) string {
	return fmt.Sprintf("[%d/%d] %s: %s", index, total, file, out.Summary())
}

func FormatSummary(s Summary) string {
	msg := fmt.Sprintf("Optimization complete: %d converted, %d skipped (%d quality, %d not beneficial), %d errors",
		s.Converted, s.Skipped, s.SkippedQuality, s.SkippedSize, s.Errors)
	if s.SkippedConflict > 0 {
		msg += fmt.Sprintf(", %d name conflicts", s.SkippedConflict)
	}
	if s.Unprocessed > 0 {
		msg += fmt.Sprintf(", %d not processed", s.Unprocessed)
	}
	return msg
}
