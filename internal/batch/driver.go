// Package batch applies one set of metadata overrides to a list of archives,
// one file at a time. A failure on one file never stops the batch.
package batch

import (
	"context"
	"os"
	"time"

	"github.com/Another0Noob/comictag/internal/archive"
	"github.com/Another0Noob/comictag/internal/comicinfo"
	"github.com/Another0Noob/comictag/internal/logger"
	"github.com/Another0Noob/comictag/internal/merge"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Committer writes a rebuilt archive. *archive.Writer implements it.
type Committer interface {
	Write(h *archive.Handle, rec comicinfo.Record) (string, error)
	Strip(h *archive.Handle) (string, error)
}

type Driver struct {
	open               func(path string) (*archive.Handle, error)
	writer             Committer
	limiter            *rate.Limiter
	deleteConvertedRar bool
	onProgress         func(Progress)
}

type Option func(*Driver)

func WithWriter(w Committer) Option {
	return func(d *Driver) { d.writer = w }
}

// WithThrottle limits the batch to perSecond files per second. Zero or less
// means no limit.
func WithThrottle(perSecond float64) Option {
	return func(d *Driver) {
		if perSecond > 0 {
			d.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		} else {
			d.limiter = nil
		}
	}
}

// WithDeleteConvertedRar removes a .cbr source once its .cbz has been committed.
func WithDeleteConvertedRar(del bool) Option {
	return func(d *Driver) { d.deleteConvertedRar = del }
}

func WithProgress(fn func(Progress)) Option {
	return func(d *Driver) { d.onProgress = fn }
}

func New(opts ...Option) *Driver {
	d := &Driver{
		open:   archive.Open,
		writer: archive.NewWriter(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type operation struct {
	name    string
	process func(h *archive.Handle) Outcome
}

// Run merges overrides into the metadata of every path, in order.
// Cancelling ctx stops the batch between files; files not started are
// reported as skipped.
func (d *Driver) Run(ctx context.Context, paths []string, overrides comicinfo.Record) Result {
	overrides = overrides.Clone()
	return d.run(ctx, paths, operation{
		name: "apply",
		process: func(h *archive.Handle) Outcome {
			return d.apply(h, overrides)
		},
	})
}

// Strip removes ComicInfo.xml from every path, in order.
func (d *Driver) Strip(ctx context.Context, paths []string) Result {
	return d.run(ctx, paths, operation{name: "strip", process: d.strip})
}

func (d *Driver) run(ctx context.Context, paths []string, op operation) Result {
	res := Result{
		ID:       uuid.NewString(),
		Started:  time.Now(),
		Outcomes: make([]Outcome, 0, len(paths)),
	}
	logger.Info("batch %s: %s on %d file(s)", res.ID, op.name, len(paths))

	for i, path := range paths {
		var out Outcome
		if err := d.wait(ctx); err != nil {
			out = Outcome{Path: path, Status: StatusSkipped, Kind: KindOf(err), Err: err}
		} else {
			out = d.process(path, op)
		}

		switch out.Status {
		case StatusUpdated:
			res.Updated++
			logger.Info("batch %s: updated %s", res.ID, out.Output)
		case StatusSkipped:
			logger.Debug("batch %s: skipped %s", res.ID, path)
		case StatusFailed:
			logger.Warn("batch %s: %s failed (%s): %v", res.ID, path, out.Kind, out.Err)
		}

		res.Outcomes = append(res.Outcomes, out)
		if d.onProgress != nil {
			d.onProgress(Progress{Index: i, Total: len(paths), Outcome: out})
		}
	}

	res.Finished = time.Now()
	logger.Info("batch %s: %d updated, %d skipped, %d failed in %s",
		res.ID, res.Updated, res.Skipped(), res.Failed(), res.Finished.Sub(res.Started).Round(time.Millisecond))
	return res
}

func (d *Driver) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.limiter != nil {
		return d.limiter.Wait(ctx)
	}
	return nil
}

func (d *Driver) process(path string, op operation) Outcome {
	h, err := d.open(path)
	if err != nil {
		return failed(path, err)
	}
	defer h.Close()

	logger.Debug("opened %s (%s, %d entries, metadata=%t)", path, h.Format, len(h.OtherEntries()), h.HasMetadata())
	return op.process(h)
}

func (d *Driver) apply(h *archive.Handle, overrides comicinfo.Record) Outcome {
	existing, err := h.ReadMetadata()
	if err != nil {
		return failed(h.Path, err)
	}

	merged := merge.Apply(existing, overrides)
	if h.Format == archive.FormatZip && h.MetadataCanonical() && !merge.Changed(existing, merged) {
		return Outcome{Path: h.Path, Output: h.Path, Status: StatusSkipped}
	}

	out, err := d.writer.Write(h, merged)
	if err != nil {
		return failed(h.Path, err)
	}
	d.afterCommit(h, out)
	return Outcome{Path: h.Path, Output: out, Status: StatusUpdated}
}

func (d *Driver) strip(h *archive.Handle) Outcome {
	if h.Format == archive.FormatZip && !h.HasMetadata() {
		return Outcome{Path: h.Path, Output: h.Path, Status: StatusSkipped}
	}

	out, err := d.writer.Strip(h)
	if err != nil {
		return failed(h.Path, err)
	}
	d.afterCommit(h, out)
	return Outcome{Path: h.Path, Output: out, Status: StatusUpdated}
}

// afterCommit deletes a converted .cbr when asked to. The update itself has
// already succeeded, so a failed delete is only logged.
func (d *Driver) afterCommit(h *archive.Handle, out string) {
	if h.Format != archive.FormatRar || out == h.Path || !d.deleteConvertedRar {
		return
	}
	if err := os.Remove(h.Path); err != nil {
		logger.Warn("delete %s: %v", h.Path, err)
		return
	}
	logger.Info("deleted converted source %s", h.Path)
}

func failed(path string, err error) Outcome {
	return Outcome{Path: path, Status: StatusFailed, Kind: KindOf(err), Err: err}
}
