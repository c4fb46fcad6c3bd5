package logging

import (
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"webpify/internal/batch"
	"webpify/internal/optimizer"
)

// Sink writes batch events as structured log records.
type Sink struct {
	log zerolog.Logger
}

func NewSink(log zerolog.Logger, runID string) *Sink {
	if runID != "" {
		log = log.With().Str("run", runID).Logger()
	}
	return &Sink{log: log}
}

func (s *Sink) Emit(ev batch.Event) {
	e := s.log.WithLevel(zerologLevel(ev.Level))
	if e == nil {
		return
	}

	switch ev.Kind {
	case batch.EventStart:
		e = e.Int("total", ev.Total)
	case batch.EventProgress:
		e = e.Int("index", ev.Index).
			Int("total", ev.Total).
			Str("file", ev.File).
			Str("status", ev.Outcome.Status.String())
		e = outcomeFields(e, ev.Outcome)
	case batch.EventWarning:
		e = e.Str("file", ev.File)
	case batch.EventSummary:
		sum := ev.Summary
		e = e.Int("total", sum.Total).
			Int("converted", sum.Converted).
			Int("skipped", sum.Skipped).
			Int("skipped_quality", sum.SkippedQuality).
			Int("skipped_size", sum.SkippedSize).
			Int("errors", sum.Errors).
			Str("saved", humanize.Bytes(uint64(max(sum.BytesSaved(), 0)))).
			Dur("elapsed", sum.Elapsed)
		if sum.Retained > 0 {
			e = e.Int("retained", sum.Retained)
		}
		if sum.Unprocessed > 0 {
			e = e.Int("unprocessed", sum.Unprocessed)
		}
	}

	e.Msg(ev.Message)
}

func outcomeFields(e *zerolog.Event, out optimizer.Outcome) *zerolog.Event {
	switch out.Status {
	case optimizer.StatusConverted:
		e = e.Int64("original_bytes", out.OriginalSize).
			Int64("webp_bytes", out.ConvertedSize).
			Float64("reduction", out.ReductionRatio)
		if out.Lossless {
			return e.Bool("lossless", true)
		}
		return e.Int("quality", out.Quality).Float64("similarity", out.Similarity)
	case optimizer.StatusSkipped:
		return e.Str("reason", out.SkipReason.String())
	case optimizer.StatusError:
		return e.Str("error", out.Detail)
	}
	return e
}

func zerologLevel(l batch.Level) zerolog.Level {
	switch l {
	case batch.LevelDebug:
		return zerolog.DebugLevel
	case batch.LevelWarn:
		return zerolog.WarnLevel
	case batch.LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

type multiSink []batch.Sink

// Multi fans each event out to every non-nil sink, in order.
func Multi(sinks ...batch.Sink) batch.Sink {
	var m multiSink
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

func (m multiSink) Emit(ev batch.Event) {
	for _, s := range m {
		s.Emit(ev)
	}
}
