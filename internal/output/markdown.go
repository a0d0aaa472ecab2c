package output

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/jacoelho/jscan/internal/scan"
)

var cellEscaper = strings.NewReplacer(`\`, `\\`, `|`, `\|`, "\n", " ", "\r", " ")

// markdown writes a GitHub-flavoured pipe table.
type markdown struct {
	w        io.Writer
	columns  []scan.Key
	wroteHdr bool
}

func newMarkdown(w io.Writer, columns []scan.Key) *markdown {
	return &markdown{w: w, columns: columns}
}

func (m *markdown) row(values []string) error {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = cellEscaper.Replace(v)
	}
	_, err := fmt.Fprintf(m.w, "| %s |\n", strings.Join(escaped, " | "))
	return err
}

func (m *markdown) header() error {
	if m.wroteHdr {
		return nil
	}
	m.wroteHdr = true
	if err := m.row(headers(m.columns)); err != nil {
		return err
	}
	rule := make([]string, len(m.columns))
	for i := range rule {
		rule[i] = "---"
	}
	_, err := fmt.Fprintf(m.w, "| %s |\n", strings.Join(rule, " | "))
	return err
}

func (m *markdown) Handle(rec scan.Record) error {
	if err := m.header(); err != nil {
		return err
	}
	return m.row(cells(rec, m.columns, ""))
}

func (m *markdown) Flush() error {
	return m.header()
}

// html renders the markdown table through goldmark on Flush, producing
// an HTML fragment.
type html struct {
	w   io.Writer
	src bytes.Buffer
	md  *markdown
}

func newHTML(w io.Writer, columns []scan.Key) *html {
	h := &html{w: w}
	h.md = newMarkdown(&h.src, columns)
	return h
}

func (h *html) Handle(rec scan.Record) error {
	return h.md.Handle(rec)
}

func (h *html) Flush() error {
	if err := h.md.Flush(); err != nil {
		return err
	}
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	return md.Convert(h.src.Bytes(), h.w)
}
