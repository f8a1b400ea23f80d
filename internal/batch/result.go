package batch

import (
	"context"
	"errors"
	"time"

	"github.com/Another0Noob/comictag/internal/archive"
	"github.com/Another0Noob/comictag/internal/comicinfo"
)

// Status is the outcome of one file.
type Status int

const (
	StatusUpdated Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusUpdated:
		return "updated"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Kind names the class of error behind a failed or skipped file.
type Kind string

const (
	KindNone              Kind = ""
	KindUnsupportedFormat Kind = "UnsupportedFormat"
	KindUnreadableArchive Kind = "UnreadableArchive"
	KindMalformedMetadata Kind = "MalformedMetadata"
	KindWriteFailed       Kind = "WriteFailed"
	KindCancelled         Kind = "Cancelled"
	KindOther             Kind = "Error"
)

// KindOf maps an error from the archive and codec packages to its Kind.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, comicinfo.ErrMalformedMetadata):
		return KindMalformedMetadata
	case errors.Is(err, archive.ErrWriteFailed):
		return KindWriteFailed
	case errors.Is(err, archive.ErrUnsupportedFormat):
		return KindUnsupportedFormat
	case errors.Is(err, archive.ErrUnreadableArchive):
		return KindUnreadableArchive
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	default:
		return KindOther
	}
}

// Outcome is the result for one input path. Output is the committed path,
// which differs from Path when a .cbr was converted.
type Outcome struct {
	Path   string
	Output string
	Status Status
	Kind   Kind
	Err    error
}

// Result is the ordered outcome of a batch.
type Result struct {
	ID       string
	Started  time.Time
	Finished time.Time
	Outcomes []Outcome
	Updated  int
}

func (r Result) count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

func (r Result) Skipped() int { return r.count(StatusSkipped) }
func (r Result) Failed() int  { return r.count(StatusFailed) }

// Failures returns the failed outcomes in input order.
func (r Result) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			out = append(out, o)
		}
	}
	return out
}

// Progress is reported after each file.
type Progress struct {
	Index   int // zero-based
	Total   int
	Outcome Outcome
}
