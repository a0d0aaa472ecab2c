// Package reference extracts the same fields as package scan by decoding
// the whole document and selecting the target with JSONPath.
//
// It holds the document in memory and exists to cross-check streaming
// results on small inputs.
package reference

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/theory/jsonpath"

	"github.com/jacoelho/jscan/internal/scan"
)

var (
	ErrInvalidInput = errors.New("reference: invalid input")
	ErrMismatch     = errors.New("reference: results differ")
)

// Extract decodes r and returns the records of the array held by the
// root member target. found is false when the member is missing or is
// not an array.
func Extract(r io.Reader, target string, mapping scan.FieldMapping) ([]scan.Record, bool, error) {
	if target == "" {
		return nil, false, fmt.Errorf("%w: target is empty", ErrInvalidInput)
	}

	path, err := jsonpath.Parse(memberPath(target))
	if err != nil {
		return nil, false, fmt.Errorf("%w: target %q: %v", ErrInvalidInput, target, err)
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, false, err
	}

	var doc any
	if err := decode(raw, &doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: %w", scan.ErrMalformed, err)
	}

	nodes := path.Select(doc)
	if len(nodes) == 0 {
		return nil, false, nil
	}
	if _, ok := nodes[0].([]any); !ok {
		return nil, false, nil
	}

	// Decoded maps keep only the last of repeated members, so the
	// elements are read again member by member.
	var root map[string]json.RawMessage
	if err := decode(raw, &root); err != nil {
		return nil, false, fmt.Errorf("%w: %w", scan.ErrMalformed, err)
	}
	var elems []json.RawMessage
	if err := decode(root[target], &elems); err != nil {
		return nil, false, fmt.Errorf("%w: %w", scan.ErrMalformed, err)
	}

	records := make([]scan.Record, 0, len(elems))
	for _, elem := range elems {
		if !bytes.HasPrefix(bytes.TrimLeft(elem, " \t\r\n"), []byte("{")) {
			continue
		}
		rec, err := record(elem, mapping)
		if err != nil {
			return nil, false, err
		}
		records = append(records, rec)
	}
	return records, true, nil
}

func decode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// memberPath quotes name as a bracketed JSONPath member selector.
func memberPath(name string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "$['" + r.Replace(name) + "']"
}

// record reads the members of one object in document order, so every
// occurrence of a repeated mapped member is kept.
func record(obj json.RawMessage, mapping scan.FieldMapping) (scan.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(obj))
	dec.UseNumber()
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %w", scan.ErrMalformed, err)
	}

	var rec scan.Record
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", scan.ErrMalformed, err)
		}
		name, _ := tok.(string)

		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("%w: %w", scan.ErrMalformed, err)
		}
		key, ok := mapping.Lookup(name)
		if !ok {
			continue
		}

		switch tv := v.(type) {
		case nil:
		case string:
			rec = append(rec, scan.Field{Key: key, Value: tv})
		case json.Number:
			rec = append(rec, scan.Field{Key: key, Value: tv.String()})
		case bool:
			rec = append(rec, scan.Field{Key: key, Value: fmt.Sprint(tv)})
		default:
			return nil, fmt.Errorf("%w: %q holds %T", scan.ErrUnexpectedValue, name, v)
		}
	}
	return rec, nil
}

// Compare reports the first difference between two record lists, ignoring
// field order within a record.
func Compare(got, want []scan.Record) error {
	if len(got) != len(want) {
		return fmt.Errorf("%w: %d records, want %d", ErrMismatch, len(got), len(want))
	}
	for i := range got {
		a, b := normalize(got[i]), normalize(want[i])
		if !slices.Equal(a, b) {
			return fmt.Errorf("%w: record %d is %v, want %v", ErrMismatch, i, a, b)
		}
	}
	return nil
}

func normalize(r scan.Record) scan.Record {
	out := slices.Clone(r)
	slices.SortFunc(out, func(a, b scan.Field) int {
		if c := strings.Compare(string(a.Key), string(b.Key)); c != 0 {
			return c
		}
		return strings.Compare(a.Value, b.Value)
	})
	return out
}
