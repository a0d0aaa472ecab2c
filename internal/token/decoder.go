package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/jacoelho/jscan/internal/stack"
)

// DefaultMaxDepth bounds container nesting for decoders built without
// WithMaxDepth.
const DefaultMaxDepth = 10000

const (
	kindObj containerKind = iota
	kindArr
)

type containerKind uint8

// containerFrame tracks whether the next string inside an object is a
// member name or a member value.
type containerFrame struct {
	kind    containerKind
	needKey bool
}

// Decoder is a Cursor over a JSON byte stream.
//
// Syntax errors and a stream ending inside an open container are reported
// wrapped in ErrMalformed. Errors from the underlying reader are returned
// unchanged. Any error is sticky: later calls return it again.
type Decoder struct {
	dec    *json.Decoder
	frames *stack.Stack[containerFrame]

	cur     Token
	hasCur  bool
	err     error
	offset  int64
	emitted int
}

var _ Cursor = (*Decoder)(nil)

type DecoderOption func(*Decoder)

// WithMaxDepth limits container nesting; n <= 0 removes the limit.
func WithMaxDepth(n int) DecoderOption {
	return func(d *Decoder) {
		d.frames = stack.NewBounded[containerFrame](n)
	}
}

func NewDecoder(r io.Reader, opts ...DecoderOption) *Decoder {
	dec := json.NewDecoder(r)
	dec.UseNumber() // number literals pass through verbatim

	d := &Decoder{
		dec:    dec,
		frames: stack.NewBounded[containerFrame](DefaultMaxDepth),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Decoder) Peek() (Token, error) {
	if d.err != nil {
		return Token{}, d.err
	}
	if !d.hasCur {
		tok, err := d.read()
		if err != nil {
			d.err = err
			return Token{}, err
		}
		d.cur = tok
		d.hasCur = true
	}
	return d.cur, nil
}

func (d *Decoder) Advance() (Token, error) {
	tok, err := d.Peek()
	if err != nil {
		return Token{}, err
	}
	if tok.Kind != EndDocument {
		d.hasCur = false
		d.emitted++
	}
	return tok, nil
}

// Depth is the number of containers open at the read position, which is
// one token ahead of the cursor after a Peek.
func (d *Decoder) Depth() int {
	return d.frames.Size()
}

// Consumed is the number of tokens taken with Advance.
func (d *Decoder) Consumed() int {
	return d.emitted
}

// InputOffset is the byte offset just past the most recently read token.
func (d *Decoder) InputOffset() int64 {
	return d.offset
}

func (d *Decoder) read() (Token, error) {
	raw, err := d.dec.Token()
	if errors.Is(err, io.EOF) {
		if !d.frames.IsEmpty() {
			return Token{}, fmt.Errorf("%w: offset %d: %w", ErrMalformed, d.dec.InputOffset(), io.ErrUnexpectedEOF)
		}
		return Token{Kind: EndDocument}, nil
	}
	if err != nil {
		return Token{}, d.classify(err)
	}
	d.offset = d.dec.InputOffset()

	switch v := raw.(type) {
	case json.Delim:
		return d.delim(v)
	case string:
		if top := d.frames.PeekRef(); top != nil && top.kind == kindObj && top.needKey {
			top.needKey = false
			return Token{Kind: Name, Text: v}, nil
		}
		d.valueDone()
		return Token{Kind: String, Text: v}, nil
	case json.Number:
		d.valueDone()
		return Token{Kind: Number, Text: v.String()}, nil
	case bool:
		d.valueDone()
		return Token{Kind: Bool, Text: strconv.FormatBool(v)}, nil
	case nil:
		d.valueDone()
		return Token{Kind: Null, Text: "null"}, nil
	default:
		return Token{}, fmt.Errorf("%w: unexpected token %T", ErrMalformed, raw)
	}
}

func (d *Decoder) delim(v json.Delim) (Token, error) {
	switch v {
	case '{':
		if err := d.frames.Push(containerFrame{kind: kindObj, needKey: true}); err != nil {
			return Token{}, fmt.Errorf("%w: more than %d levels", ErrTooDeep, d.frames.Limit())
		}
		return Token{Kind: BeginObject}, nil
	case '[':
		if err := d.frames.Push(containerFrame{kind: kindArr}); err != nil {
			return Token{}, fmt.Errorf("%w: more than %d levels", ErrTooDeep, d.frames.Limit())
		}
		return Token{Kind: BeginArray}, nil
	case '}', ']':
		top, ok := d.frames.Pop()
		want := kindObj
		kind := EndObject
		if v == ']' {
			want = kindArr
			kind = EndArray
		}
		if !ok || top.kind != want {
			return Token{}, fmt.Errorf("%w: unexpected %q", ErrMalformed, rune(v))
		}
		d.valueDone()
		return Token{Kind: kind}, nil
	default:
		return Token{}, fmt.Errorf("%w: unexpected delimiter %q", ErrMalformed, rune(v))
	}
}

func (d *Decoder) valueDone() {
	if top := d.frames.PeekRef(); top != nil && top.kind == kindObj {
		top.needKey = true
	}
}

// classify separates syntax failures from reader failures.
func (d *Decoder) classify(err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Errorf("%w: offset %d: %w", ErrMalformed, syntaxErr.Offset, err)
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: offset %d: %w", ErrMalformed, d.dec.InputOffset(), err)
	}
	return err
}
