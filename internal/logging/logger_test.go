package logging

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webpify/internal/batch"
	"webpify/internal/optimizer"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec), line)
		out = append(out, rec)
	}
	return out
}

func TestSinkProgressFields(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Writer: &buf, Format: FormatJSON})
	require.NoError(t, err)
	sink := NewSink(log, "run-7")

	out := optimizer.Outcome{Status: optimizer.StatusConverted, OriginalSize: 1000, ConvertedSize: 400, ReductionRatio: 0.6, Quality: 90, Similarity: 0.97}
	sink.Emit(batch.Event{Kind: batch.EventProgress, Level: batch.LevelInfo, Index: 2, Total: 5, File: "a.jpg", Outcome: out, Message: "[2/5] a.jpg: converted"})

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, "info", rec["level"])
	assert.Equal(t, "run-7", rec["run"])
	assert.Equal(t, "[2/5] a.jpg: converted", rec["message"])
	assert.EqualValues(t, 2, rec["index"])
	assert.EqualValues(t, 5, rec["total"])
	assert.Equal(t, "converted", rec["status"])
	assert.EqualValues(t, 90, rec["quality"])
	assert.EqualValues(t, 400, rec["webp_bytes"])
	assert.Contains(t, rec, "time")
}

func TestSinkErrorAndSkipFields(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Writer: &buf, Format: FormatJSON})
	require.NoError(t, err)
	sink := NewSink(log, "")

	sink.Emit(batch.Event{Kind: batch.EventProgress, Level: batch.LevelWarn, File: "bad.jpg",
		Outcome: optimizer.Failed("bad.jpg", optimizer.ErrDecode)})
	sink.Emit(batch.Event{Kind: batch.EventProgress, Level: batch.LevelInfo, File: "big.png",
		Outcome: optimizer.Outcome{Status: optimizer.StatusSkipped, SkipReason: optimizer.ReasonNotBeneficial}})

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 2)
	assert.Equal(t, "warn", recs[0]["level"])
	assert.Equal(t, "decode failed", recs[0]["error"])
	assert.NotContains(t, recs[0], "run")
	assert.Equal(t, "not beneficial", recs[1]["reason"])
}

func TestSinkSummary(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Writer: &buf, Format: FormatJSON})
	require.NoError(t, err)

	sum := batch.Summary{Total: 3, Converted: 1, Skipped: 1, Errors: 1, BytesBefore: 3000, BytesAfter: 1000, Elapsed: time.Second}
	NewSink(log, "r").Emit(batch.Event{Kind: batch.EventSummary, Level: batch.LevelInfo, Summary: sum, Message: "done"})

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 1)
	assert.EqualValues(t, 1, recs[0]["converted"])
	assert.EqualValues(t, 1, recs[0]["errors"])
	assert.Equal(t, "2.0 kB", recs[0]["saved"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Writer: &buf, Format: FormatJSON, Level: "warn"})
	require.NoError(t, err)
	sink := NewSink(log, "")

	sink.Emit(batch.Event{Kind: batch.EventProgress, Level: batch.LevelInfo, Message: "quiet"})
	sink.Emit(batch.Event{Kind: batch.EventWarning, Level: batch.LevelWarn, Message: "loud"})

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "loud", recs[0]["message"])
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Writer: &buf, NoColor: true})
	require.NoError(t, err)

	log.Info().Msg("Starting image optimization")
	line := buf.String()
	assert.Contains(t, line, "INF")
	assert.Contains(t, line, "Starting image optimization")
}

func TestNewRejectsUnknownSettings(t *testing.T) {
	_, err := New(Options{Format: "xml"})
	assert.Error(t, err)

	_, err = New(Options{Level: "chatty"})
	assert.Error(t, err)

	level, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, level)

	level, err = ParseLevel(" DEBUG ")
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, level)
}

func TestMulti(t *testing.T) {
	a, b := &batch.Recorder{}, &batch.Recorder{}
	sink := Multi(a, nil, b)
	sink.Emit(batch.Event{Message: "x"})
	assert.Len(t, a.Events, 1)
	assert.Len(t, b.Events, 1)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "webpify.log")
	f, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.FileExists(t, path)
}
