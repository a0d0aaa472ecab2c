package scan

import (
	"fmt"

	"github.com/jacoelho/jscan/internal/token"
)

// ExtractObject reads one element object, emitting every member whose
// name is in mapping and skipping the rest.
//
// Non-object values before the object are skipped. When the array or the
// document ends first nothing is read and false is returned. The object is
// closed, and sink.EndRecord called, only when its EndObject token is
// actually present; the result reports whether that happened.
//
// Mapped strings, numbers and booleans are emitted as their literal text.
// Mapped nulls are skipped. Mapped objects or arrays fail with
// ErrUnexpectedValue.
func ExtractObject(cur token.Cursor, mapping FieldMapping, sink Sink) (bool, error) {
	ok, err := seekObject(cur)
	if err != nil || !ok {
		return false, err
	}
	if _, err := cur.Advance(); err != nil {
		return false, err
	}

	for {
		tok, err := cur.Peek()
		if err != nil {
			return false, err
		}
		if tok.Kind != token.Name {
			break
		}
		if _, err := cur.Advance(); err != nil {
			return false, err
		}

		key, mapped := mapping.Lookup(tok.Text)
		if !mapped {
			if err := Skip(cur); err != nil {
				return false, err
			}
			continue
		}

		value, present, err := scalarText(cur, tok.Text)
		if err != nil {
			return false, err
		}
		if !present {
			continue
		}
		if err := sink.Emit(key, value); err != nil {
			return false, err
		}
	}

	tok, err := cur.Peek()
	if err != nil {
		return false, err
	}
	if tok.Kind != token.EndObject {
		return false, nil
	}
	if _, err := cur.Advance(); err != nil {
		return false, err
	}
	return true, sink.EndRecord()
}

// seekObject skips values until the cursor rests on BeginObject, or on
// the end of the enclosing array or of the document.
func seekObject(cur token.Cursor) (bool, error) {
	for {
		tok, err := cur.Peek()
		if err != nil {
			return false, err
		}

		switch tok.Kind {
		case token.BeginObject:
			return true, nil
		case token.EndArray, token.EndDocument:
			return false, nil
		}

		if err := Skip(cur); err != nil {
			return false, err
		}
	}
}

// scalarText consumes the value of a mapped member.
func scalarText(cur token.Cursor, field string) (string, bool, error) {
	tok, err := cur.Peek()
	if err != nil {
		return "", false, err
	}

	switch {
	case tok.Kind == token.Null:
		_, err := cur.Advance()
		return "", false, err
	case tok.Kind.IsScalar():
		if _, err := cur.Advance(); err != nil {
			return "", false, err
		}
		return tok.Text, true, nil
	case tok.Kind.IsOpen():
		return "", false, fmt.Errorf("%w: %q holds %s", ErrUnexpectedValue, field, tok.Kind)
	default:
		return "", false, fmt.Errorf("%w: %q has no value, found %s", ErrMalformed, field, tok.Kind)
	}
}
