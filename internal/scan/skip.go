package scan

import (
	"fmt"

	"github.com/jacoelho/jscan/internal/stack"
	"github.com/jacoelho/jscan/internal/token"
)

// Skip consumes exactly one value starting at the cursor's current token
// and leaves the cursor on the token that follows it.
func Skip(cur token.Cursor) error {
	tok, err := cur.Peek()
	if err != nil {
		return err
	}

	switch {
	case tok.Kind.IsScalar():
		_, err := cur.Advance()
		return err
	case tok.Kind.IsOpen():
	default:
		return fmt.Errorf("%w: expected a value, found %s", ErrMalformed, tok.Kind)
	}

	// closers holds the token that ends each open container, innermost on top.
	closers := stack.New[token.Kind]()
	for {
		tok, err := cur.Peek()
		if err != nil {
			return err
		}

		switch {
		case tok.Kind.IsOpen():
			_ = closers.Push(tok.Kind.Closer())
		case tok.Kind.IsClose():
			if want, _ := closers.Pop(); tok.Kind != want {
				return fmt.Errorf("%w: %s closes %s", ErrMalformed, tok.Kind, want)
			}
		case tok.Kind == token.Name:
			if top, _ := closers.Peek(); top != token.EndObject {
				return fmt.Errorf("%w: member name %q outside an object", ErrMalformed, tok.Text)
			}
		case tok.Kind == token.EndDocument:
			return fmt.Errorf("%w: document ended with %d open containers", ErrMalformed, closers.Size())
		}

		if _, err := cur.Advance(); err != nil {
			return err
		}
		if closers.IsEmpty() {
			return nil
		}
	}
}
