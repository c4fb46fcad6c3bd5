package optimizer

import (
	"errors"
	"fmt"
)

type Status int

const (
	StatusConverted Status = iota + 1
	StatusSkipped
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusConverted:
		return "converted"
	case StatusSkipped:
		return "skipped"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

type SkipReason int

const (
	ReasonNone SkipReason = iota
	ReasonQualityRejected
	ReasonNotBeneficial
	ReasonOutputConflict
)

func (r SkipReason) String() string {
	switch r {
	case ReasonQualityRejected:
		return "quality rejected"
	case ReasonNotBeneficial:
		return "not beneficial"
	case ReasonOutputConflict:
		return "output conflict"
	default:
		return "none"
	}
}

var (
	ErrDecode          = errors.New("decode failed")
	ErrTooLarge        = errors.New("image too large")
	ErrEncode          = errors.New("encode failed")
	ErrWrite           = errors.New("write failed")
	ErrQualityRejected = errors.New("no quality level met the similarity threshold")
	ErrNotBeneficial   = errors.New("webp output is not smaller than the original")
	ErrOutputConflict  = errors.New("another candidate in this run maps to the same output file")
)

// Attempt records one in-memory encode made while deciding a candidate.
type Attempt struct {
	Quality    int
	Lossless   bool
	Size       int64
	Similarity float64
}

// Outcome is the result of processing one candidate. ConvertedSize and
// ReductionRatio are set only for StatusConverted, Detail only for StatusError.
type Outcome struct {
	SourcePath     string
	OutputPath     string
	Status         Status
	SkipReason     SkipReason
	OriginalSize   int64
	ConvertedSize  int64
	ReductionRatio float64
	Quality        int
	Lossless       bool
	Similarity     float64
	Attempts       []Attempt
	// Written is true once the WebP file is durably on disk. Callers must not
	// remove the original unless it is set.
	Written bool
	Detail  string
	Err     error
}

func (o Outcome) fail(err error) Outcome {
	o.Status = StatusError
	o.SkipReason = ReasonNone
	o.ConvertedSize = 0
	o.ReductionRatio = 0
	o.Written = false
	o.Err = err
	o.Detail = err.Error()
	return o
}

func (o Outcome) skip(reason SkipReason, err error) Outcome {
	o.Status = StatusSkipped
	o.SkipReason = reason
	o.ConvertedSize = 0
	o.ReductionRatio = 0
	o.Written = false
	o.Err = err
	o.Detail = ""
	return o
}

func (o Outcome) convert(size int64) Outcome {
	o.Status = StatusConverted
	o.SkipReason = ReasonNone
	o.ConvertedSize = size
	o.ReductionRatio = 1 - float64(size)/float64(o.OriginalSize)
	o.Err = nil
	o.Detail = ""
	return o
}

// Failed builds an error outcome for callers that fail a candidate before or
// around the optimizer, such as a recovered worker panic.
func Failed(path string, err error) Outcome {
	return Outcome{SourcePath: path}.fail(err)
}

// Conflict builds the skipped outcome for a candidate whose output name is
// already claimed by an earlier candidate.
func Conflict(path, output string) Outcome {
	o := Outcome{SourcePath: path, OutputPath: output}
	return o.skip(ReasonOutputConflict, fmt.Errorf("%w: %s", ErrOutputConflict, output))
}

// Summary renders the outcome as the short phrase used in progress lines.
func (o Outcome) Summary() string {
	switch o.Status {
	case StatusConverted:
		mode := fmt.Sprintf("q%d", o.Quality)
		if o.Lossless {
			mode = "lossless"
		}
		return fmt.Sprintf("converted, %.1f%% smaller (%s)", o.ReductionRatio*100, mode)
	case StatusSkipped:
		return "skipped (" + o.SkipReason.String() + ")"
	case StatusError:
		return "error: " + o.Detail
	default:
		return o.Status.String()
	}
}
