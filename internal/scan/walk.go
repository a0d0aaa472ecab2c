package scan

import (
	"fmt"

	"github.com/jacoelho/jscan/internal/token"
)

// WalkArray opens the array at the cursor and calls onElement once per
// element until the array closes. onElement must consume at least one
// token per call. An error from onElement ends the walk and is returned
// unchanged.
func WalkArray(cur token.Cursor, onElement func(token.Cursor) error) error {
	tok, err := cur.Peek()
	if err != nil {
		return err
	}
	if tok.Kind != token.BeginArray {
		return fmt.Errorf("%w: expected BeginArray, found %s", ErrMalformed, tok.Kind)
	}
	if _, err := cur.Advance(); err != nil {
		return err
	}

	for {
		tok, err := cur.Peek()
		if err != nil {
			return err
		}

		switch tok.Kind {
		case token.EndArray:
			_, err := cur.Advance()
			return err
		case token.EndDocument:
			return fmt.Errorf("%w: unterminated array", ErrMalformed)
		}

		if err := onElement(cur); err != nil {
			return err
		}
	}
}
