// Package runner drives scans of configured sources from the command
// line: once, or repeatedly in watch mode.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/jacoelho/jscan/internal/config"
	"github.com/jacoelho/jscan/internal/exit"
	"github.com/jacoelho/jscan/internal/output"
	"github.com/jacoelho/jscan/internal/ratelimit"
	"github.com/jacoelho/jscan/internal/reference"
	"github.com/jacoelho/jscan/internal/results"
	"github.com/jacoelho/jscan/internal/sanitizer"
	"github.com/jacoelho/jscan/internal/scan"
	"github.com/jacoelho/jscan/internal/sinks"
	"github.com/jacoelho/jscan/internal/source"
)

// Runner scans sources and writes their records to one output.
type Runner struct {
	config     *config.Config
	scanner    *scan.Scanner
	sourceOpts source.Options
	limiter    *ratelimit.Limiter
	deduper    *sinks.Deduper
	redact     *sanitizer.Redactor
	log        *slog.Logger
	out        io.Writer
	errOut     io.Writer
}

// New creates a Runner writing records to stdout and summaries to stderr.
// If creation fails, returns nil runner and exit result.
func New(cfg *config.Config, log *slog.Logger) (*Runner, *exit.Result) {
	opts, err := cfg.SourceOptions()
	if err != nil {
		return nil, exit.Errorf("Error creating runner: %v\n", err)
	}

	r := &Runner{
		config:     cfg,
		scanner:    scan.New(cfg.ScanOptions()...),
		sourceOpts: opts,
		redact:     sanitizer.New(uuid.NewString(), cfg.S3.SecretKey),
		log:        log,
		out:        os.Stdout,
		errOut:     os.Stderr,
	}
	if cfg.RateLimit > 0 {
		r.limiter = ratelimit.New(cfg.RateLimit)
	}
	if cfg.Dedupe {
		// Shared by every pass, so watch mode prints only new records.
		r.deduper = sinks.NewDeduper()
	}
	return r, nil
}

// WithOutput redirects records to out and summaries to errOut.
func (r *Runner) WithOutput(out, errOut io.Writer) *Runner {
	r.out = out
	r.errOut = errOut
	return r
}

// Run scans every source once, or until ctx ends in watch mode, and
// returns the process exit code.
func (r *Runner) Run(ctx context.Context) int {
	if r.config.Watch > 0 {
		return r.runWatch(ctx)
	}
	return r.runOnce(ctx)
}

func (r *Runner) runOnce(ctx context.Context) int {
	s, err := r.ScanSources(ctx, r.config.Sources)
	if r.config.Summary && s != nil {
		if werr := s.WriteText(r.errOut); werr != nil {
			r.log.Warn("writing summary", "error", werr)
		}
	}

	var result *exit.Result
	switch {
	case err != nil:
		result = exit.FromError(err)
	case s.Found == 0:
		result = exit.NotFound(r.scanner.Target())
	default:
		return exit.CodeOK
	}
	result.Output = r.errOut
	result.Print()
	return result.ExitCode
}

// runWatch repeats passes at the configured interval until ctx ends.
// Failed passes are logged and do not stop the loop.
func (r *Runner) runWatch(ctx context.Context) int {
	tick := ratelimit.Every(r.config.Watch)
	var passes []*results.Summary

	for pass := 1; ; pass++ {
		if err := tick.Wait(ctx); err != nil {
			break
		}
		r.log.Debug("watch pass", "pass", pass)

		s, err := r.ScanSources(ctx, r.config.Sources)
		if s != nil {
			passes = append(passes, s)
		}
		if err != nil && ctx.Err() == nil {
			r.log.Warn("watch pass failed", "pass", pass, "error", err)
		}
		if ctx.Err() != nil {
			break
		}
	}

	if r.config.Summary {
		if err := results.WriteAggregated(r.errOut, passes); err != nil {
			r.log.Warn("writing summary", "error", err)
		}
	}
	return exit.CodeOK
}

// ScanSources runs one pass over sources. Records from every source go to
// a single formatter, flushed once at least one source held the target.
// The returned error is the first source failure.
func (r *Runner) ScanSources(ctx context.Context, sources []string) (*results.Summary, error) {
	f, err := output.New(r.config.Format, r.out, r.scanner.Mapping().Keys())
	if err != nil {
		return nil, err
	}

	s := results.NewSummary(len(sources))
	overallStart := time.Now()

	for _, location := range sources {
		if err := ctx.Err(); err != nil {
			s.SetTotalDuration(time.Since(overallStart))
			return s, err
		}

		start := time.Now()
		res, err := r.scanSource(ctx, location, f)
		s.Add(results.NewSourceResultBuilder(r.redact.String(location)).
			WithFound(res.Found).
			WithRecords(res.Records).
			WithStopped(res.Stopped).
			WithDuration(time.Since(start)).
			WithError(r.redact.Error(err)))
	}

	if s.Found > 0 {
		if err := f.Flush(); err != nil {
			s.SetTotalDuration(time.Since(overallStart))
			return s, fmt.Errorf("writing output: %w", err)
		}
	}

	s.SetTotalDuration(time.Since(overallStart))
	return s, s.FirstError()
}

func (r *Runner) scanSource(ctx context.Context, location string, f output.Formatter) (scan.Result, error) {
	display := r.redact.String(location)
	log := r.log.With("scan_id", uuid.NewString(), "source", display)

	rc, err := source.Open(ctx, location, r.sourceOpts)
	if err != nil {
		log.Debug("open failed", "error", r.redact.Error(err))
		return scan.Result{}, err
	}
	defer rc.Close()

	var (
		in        io.Reader = rc
		doc       []byte
		collected sinks.Collector
	)
	if r.config.Verify {
		if doc, err = io.ReadAll(rc); err != nil {
			return scan.Result{}, fmt.Errorf("%s: %w", display, err)
		}
		in = bytes.NewReader(doc)
	}

	handler := sinks.Chain(ctx, sinks.Options{
		Deduper: r.deduper,
		Limit:   r.config.Limit,
		Limiter: r.limiter,
	}, f)
	if r.config.Verify {
		handler = sinks.Tee(&collected, handler)
	}

	dec := r.scanner.Decoder(in)
	res, err := r.scanner.ScanCursor(ctx, dec, sinks.Sink(handler))
	log.Debug("scan finished", "found", res.Found, "records", res.Records, "stopped", res.Stopped, "tokens", dec.Consumed())
	if err != nil {
		log.Debug("scan failed", "offset", dec.InputOffset(), "depth", dec.Depth(), "error", r.redact.Error(err))
		return res, fmt.Errorf("%s: %w", display, err)
	}

	if r.config.Verify {
		if err := r.verify(doc, res, collected.Records); err != nil {
			return res, fmt.Errorf("%s: %w", display, err)
		}
		log.Debug("verified", "records", len(collected.Records))
	}
	return res, nil
}

// verify compares streamed records with an in-memory extraction of doc.
// A scan stopped by --limit saw only part of the array and is skipped.
func (r *Runner) verify(doc []byte, res scan.Result, got []scan.Record) error {
	if res.Stopped {
		r.log.Debug("verification skipped, scan stopped early")
		return nil
	}
	want, found, err := reference.Extract(bytes.NewReader(doc), r.scanner.Target(), r.scanner.Mapping())
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	if found != res.Found {
		return fmt.Errorf("verify: %w: streaming found=%t, in-memory found=%t", reference.ErrMismatch, res.Found, found)
	}
	return reference.Compare(got, want)
}
