package scan

import (
	"github.com/jacoelho/jscan/internal/token"
)

// FindArray scans the members of the current object for name.
//
// At the start of a document the root object is opened first. Members
// that do not match are skipped whole. It returns true with the cursor on
// the array's BeginArray token when name holds an array.
//
// The search stops at the first member called name: if its value is not
// an array FindArray reports false and does not look further. The end of
// the enclosing object or of the document also reports false. Not finding
// the array is not an error.
func FindArray(cur token.Cursor, name string) (bool, error) {
	tok, err := cur.Peek()
	if err != nil {
		return false, err
	}
	if tok.Kind == token.BeginObject {
		if _, err := cur.Advance(); err != nil {
			return false, err
		}
	}

	for {
		tok, err := cur.Peek()
		if err != nil {
			return false, err
		}

		switch tok.Kind {
		case token.EndDocument, token.EndObject:
			return false, nil
		case token.Name:
			if _, err := cur.Advance(); err != nil {
				return false, err
			}
			if tok.Text == name {
				return atArray(cur)
			}
		}

		// the member's value, or a root value that is not an object
		if err := Skip(cur); err != nil {
			return false, err
		}
	}
}

// FindArrayDeep is FindArray across the whole document: it enters nested
// objects and arrays and inspects member names at any depth, in document
// order. The same first-match policy applies.
func FindArrayDeep(cur token.Cursor, name string) (bool, error) {
	for {
		tok, err := cur.Advance()
		if err != nil {
			return false, err
		}

		switch tok.Kind {
		case token.EndDocument:
			return false, nil
		case token.Name:
			if tok.Text == name {
				return atArray(cur)
			}
		}
	}
}

func atArray(cur token.Cursor) (bool, error) {
	tok, err := cur.Peek()
	if err != nil {
		return false, err
	}
	return tok.Kind == token.BeginArray, nil
}
