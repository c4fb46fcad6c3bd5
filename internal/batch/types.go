package batch

import (
	"context"
	"time"

	"webpify/internal/optimizer"
)

// Processor turns one candidate path into an outcome. Implementations must be
// safe for concurrent use and must not panic; the coordinator recovers anyway.
type Processor interface {
	Optimize(ctx context.Context, path string) optimizer.Outcome
}

type Options struct {
	// Workers caps parallelism; zero or less means one per logical CPU.
	Workers int
	// Timeout bounds each candidate; zero disables it.
	Timeout time.Duration
	// KeepOriginals leaves sources in place after a successful conversion.
	KeepOriginals bool
	// Root, when set, is used to display candidate paths relative to it.
	Root  string
	RunID string
}

type Job struct {
	Index   int
	Path    string
	Display string
}

type Result struct {
	Job
	Outcome         optimizer.Outcome
	OriginalRemoved bool
	RemoveErr       error
}

type Summary struct {
	RunID           string
	Total           int
	Processed       int
	Converted       int
	Skipped         int
	Errors          int
	SkippedQuality  int
	SkippedSize     int
	SkippedConflict int
	// Retained counts converted files whose original could not be removed.
	Retained    int
	Unprocessed int
	BytesBefore int64
	BytesAfter  int64
	Elapsed     time.Duration
}

// BytesSaved is the size reduction over converted files only.
func (s Summary) BytesSaved() int64 {
	return s.BytesBefore - s.BytesAfter
}

func (s *Summary) add(res Result) {
	s.Processed++
	out := res.Outcome
	switch out.Status {
	case optimizer.StatusConverted:
		s.Converted++
		s.BytesBefore += out.OriginalSize
		s.BytesAfter += out.ConvertedSize
		if res.RemoveErr != nil {
			s.Retained++
		}
	case optimizer.StatusSkipped:
		s.Skipped++
		switch out.SkipReason {
		case optimizer.ReasonQualityRejected:
			s.SkippedQuality++
		case optimizer.ReasonNotBeneficial:
			s.SkippedSize++
		case optimizer.ReasonOutputConflict:
			s.SkippedConflict++
		}
	default:
		s.Errors++
	}
}

type EventKind int

const (
	EventStart EventKind = iota
	EventProgress
	EventWarning
	EventSummary
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventProgress:
		return "progress"
	case EventWarning:
		return "warning"
	case EventSummary:
		return "summary"
	default:
		return "unknown"
	}
}

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Event is one append-only record emitted by a run. Summary holds the running
// totals at the time of the event.
type Event struct {
	Time    time.Time
	Kind    EventKind
	Level   Level
	RunID   string
	Index   int
	Total   int
	File    string
	Outcome optimizer.Outcome
	Summary Summary
	Message string
}

// Sink receives events. The coordinator emits from a single goroutine, so
// implementations need not be safe for concurrent use.
type Sink interface {
	Emit(Event)
}

type SinkFunc func(Event)

func (f SinkFunc) Emit(ev Event) { f(ev) }

// Recorder is a Sink that keeps every event, for tests and dry-run reports.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Emit(ev Event) { r.Events = append(r.Events, ev) }

func (r *Recorder) Kind(kind EventKind) []Event {
	var out []Event
	for _, ev := range r.Events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}
