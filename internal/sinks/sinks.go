// Package sinks builds record pipelines on top of scan.Sink.
//
// A Handler consumes whole records. Decorators wrap a Handler to filter,
// cap or pace the records flowing to it; Sink adapts the result to the
// field-level scan.Sink interface.
package sinks

import (
	"cmp"
	"context"
	"slices"

	"github.com/cespare/xxhash/v2"

	"github.com/jacoelho/jscan/internal/ratelimit"
	"github.com/jacoelho/jscan/internal/scan"
)

// Handler receives one record per closed element object.
type Handler interface {
	Handle(rec scan.Record) error
}

type HandlerFunc func(scan.Record) error

func (f HandlerFunc) Handle(rec scan.Record) error {
	return f(rec)
}

// Sink adapts h to scan.Sink.
func Sink(h Handler) scan.Sink {
	return scan.NewRecordSink(h.Handle)
}

// Collector keeps every record in memory.
type Collector struct {
	Records []scan.Record
}

func (c *Collector) Handle(rec scan.Record) error {
	c.Records = append(c.Records, rec)
	return nil
}

// Deduper remembers records it has seen. Only 64-bit hashes are kept, so
// memory stays small across long watch sessions.
type Deduper struct {
	seen map[uint64]struct{}
	d    xxhash.Digest
}

func NewDeduper() *Deduper {
	return &Deduper{seen: make(map[uint64]struct{})}
}

// Seen reports whether rec was seen before and records it. Field order
// does not matter.
func (dd *Deduper) Seen(rec scan.Record) bool {
	fields := slices.Clone(rec)
	slices.SortFunc(fields, func(a, b scan.Field) int {
		if c := cmp.Compare(a.Key, b.Key); c != 0 {
			return c
		}
		return cmp.Compare(a.Value, b.Value)
	})

	dd.d.Reset()
	for _, f := range fields {
		_, _ = dd.d.WriteString(string(f.Key))
		_, _ = dd.d.Write([]byte{0})
		_, _ = dd.d.WriteString(f.Value)
		_, _ = dd.d.Write([]byte{0})
	}
	sum := dd.d.Sum64()
	if _, dup := dd.seen[sum]; dup {
		return true
	}
	dd.seen[sum] = struct{}{}
	return false
}

func (dd *Deduper) Len() int {
	return len(dd.seen)
}

// Wrap drops records dd has already seen before they reach next.
func (dd *Deduper) Wrap(next Handler) Handler {
	return HandlerFunc(func(rec scan.Record) error {
		if dd.Seen(rec) {
			return nil
		}
		return next.Handle(rec)
	})
}

// Dedupe drops records identical, field by field, to one already passed
// on.
func Dedupe(next Handler) Handler {
	return NewDeduper().Wrap(next)
}

// Limit passes at most n records and then stops the scan with
// scan.ErrStop. n <= 0 disables the cap.
func Limit(n int, next Handler) Handler {
	if n <= 0 {
		return next
	}
	count := 0
	return HandlerFunc(func(rec scan.Record) error {
		if err := next.Handle(rec); err != nil {
			return err
		}
		count++
		if count >= n {
			return scan.ErrStop
		}
		return nil
	})
}

// Throttle waits on l before passing each record.
func Throttle(ctx context.Context, l *ratelimit.Limiter, next Handler) Handler {
	return HandlerFunc(func(rec scan.Record) error {
		if err := l.Wait(ctx); err != nil {
			return err
		}
		return next.Handle(rec)
	})
}

// Tee passes each record to every handler in order, stopping at the
// first error.
func Tee(handlers ...Handler) Handler {
	return HandlerFunc(func(rec scan.Record) error {
		for _, h := range handlers {
			if err := h.Handle(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// Options selects the decorators Chain applies.
type Options struct {
	// Deduper, when set, filters records seen by earlier chains too.
	Deduper *Deduper
	Limit   int
	Limiter *ratelimit.Limiter
}

// Chain wraps final so records are deduplicated, then capped, then paced.
func Chain(ctx context.Context, opts Options, final Handler) Handler {
	h := final
	if opts.Limiter != nil {
		h = Throttle(ctx, opts.Limiter, h)
	}
	h = Limit(opts.Limit, h)
	if opts.Deduper != nil {
		h = opts.Deduper.Wrap(h)
	}
	return h
}
