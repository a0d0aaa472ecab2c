package scan

import (
	"context"
	"errors"
	"io"

	"github.com/jacoelho/jscan/internal/token"
)

// DefaultTarget is the array searched for when no target is configured.
const DefaultTarget = "data"

// Result summarises a completed scan.
type Result struct {
	Found   bool // the target array was located
	Records int  // element objects closed and handed to the sink
	Stopped bool // the sink ended the scan with ErrStop
}

// Scanner runs locate, walk and extract over a document.
// It holds configuration only and is safe for concurrent use.
type Scanner struct {
	target   string
	mapping  FieldMapping
	deep     bool
	maxDepth int
}

type Option func(*Scanner)

func WithTarget(name string) Option {
	return func(s *Scanner) {
		s.target = name
	}
}

func WithMapping(m FieldMapping) Option {
	return func(s *Scanner) {
		s.mapping = m
	}
}

// WithDeepSearch looks for the target at any depth instead of only among
// the root object's members.
func WithDeepSearch(deep bool) Option {
	return func(s *Scanner) {
		s.deep = deep
	}
}

// WithMaxDepth bounds nesting in documents read by Scan; n <= 0 removes
// the bound.
func WithMaxDepth(n int) Option {
	return func(s *Scanner) {
		s.maxDepth = n
	}
}

func New(opts ...Option) *Scanner {
	s := &Scanner{
		target:   DefaultTarget,
		mapping:  DefaultMapping(),
		maxDepth: token.DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scanner) Target() string {
	return s.target
}

func (s *Scanner) Mapping() FieldMapping {
	return s.mapping
}

// Scan decodes r and sends the mapped fields of every object in the
// target array to sink. The caller owns r and closes it.
func (s *Scanner) Scan(ctx context.Context, r io.Reader, sink Sink) (Result, error) {
	return s.ScanCursor(ctx, s.Decoder(r), sink)
}

// Decoder returns the cursor Scan would read r through, for callers that
// want its position after a failure.
func (s *Scanner) Decoder(r io.Reader) *token.Decoder {
	return token.NewDecoder(r, token.WithMaxDepth(s.maxDepth))
}

// ScanCursor is Scan over an existing cursor. ctx is checked before
// each element.
func (s *Scanner) ScanCursor(ctx context.Context, cur token.Cursor, sink Sink) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	find := FindArray
	if s.deep {
		find = FindArrayDeep
	}

	found, err := find(cur, s.target)
	if err != nil || !found {
		return Result{}, err
	}

	res := Result{Found: true}
	err = WalkArray(cur, func(c token.Cursor) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		closed, err := ExtractObject(c, s.mapping, sink)
		if closed {
			res.Records++
		}
		return err
	})
	if errors.Is(err, ErrStop) {
		res.Stopped = true
		return res, nil
	}
	return res, err
}
