// Package output renders extracted records.
//
// Every Formatter is a sinks.Handler. Records are written as they arrive
// where the format allows it; Flush completes the document and must be
// called once after the last record.
package output

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jacoelho/jscan/internal/scan"
)

type Format string

const (
	FormatTable    Format = "table"
	FormatCSV      Format = "csv"
	FormatNDJSON   Format = "ndjson"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

var ErrUnknownFormat = errors.New("output: unknown format")

// Formats lists the supported formats, default first.
func Formats() []Format {
	return []Format{FormatTable, FormatCSV, FormatNDJSON, FormatMarkdown, FormatHTML}
}

func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "md" {
		return FormatMarkdown, nil
	}
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType is the media type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatNDJSON:
		return "application/x-ndjson"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Formatter writes records to an underlying writer.
type Formatter interface {
	Handle(rec scan.Record) error
	Flush() error
}

// New returns a Formatter for format writing to w. Columns fix the
// column order; a record field whose key is not a column is dropped.
func New(format Format, w io.Writer, columns []scan.Key) (Formatter, error) {
	if len(columns) == 0 {
		return nil, errors.New("output: no columns")
	}
	switch format {
	case FormatTable:
		return newTable(w, columns), nil
	case FormatCSV:
		return newCSV(w, columns), nil
	case FormatNDJSON:
		return newNDJSON(w, columns), nil
	case FormatMarkdown:
		return newMarkdown(w, columns), nil
	case FormatHTML:
		return newHTML(w, columns), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// cells returns rec's values in column order. Missing columns get
// missing; a key seen twice keeps its first value.
func cells(rec scan.Record, columns []scan.Key, missing string) []string {
	row := make([]string, len(columns))
	for i, c := range columns {
		if v, ok := rec.Get(c); ok {
			row[i] = v
		} else {
			row[i] = missing
		}
	}
	return row
}

func headers(columns []scan.Key) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = string(c)
	}
	return out
}
