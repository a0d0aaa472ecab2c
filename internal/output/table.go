package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/jacoelho/jscan/internal/scan"
)

const missingCell = "-"

// table aligns columns with a tabwriter. Nothing reaches w until Flush.
type table struct {
	tw       *tabwriter.Writer
	columns  []scan.Key
	wroteHdr bool
}

func newTable(w io.Writer, columns []scan.Key) *table {
	return &table{
		tw:      tabwriter.NewWriter(w, 0, 4, 2, ' ', 0),
		columns: columns,
	}
}

func (t *table) header() error {
	if t.wroteHdr {
		return nil
	}
	t.wroteHdr = true
	upper := headers(t.columns)
	for i := range upper {
		upper[i] = strings.ToUpper(upper[i])
	}
	_, err := fmt.Fprintln(t.tw, strings.Join(upper, "\t"))
	return err
}

func (t *table) Handle(rec scan.Record) error {
	if err := t.header(); err != nil {
		return err
	}
	row := cells(rec, t.columns, missingCell)
	for i, v := range row {
		if v == "" {
			row[i] = `""`
		}
	}
	_, err := fmt.Fprintln(t.tw, strings.Join(row, "\t"))
	return err
}

func (t *table) Flush() error {
	if err := t.header(); err != nil {
		return err
	}
	return t.tw.Flush()
}
