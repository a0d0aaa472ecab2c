package output

import (
	"encoding/csv"
	"io"

	"github.com/jacoelho/jscan/internal/scan"
)

type csvFormatter struct {
	w        *csv.Writer
	columns  []scan.Key
	wroteHdr bool
}

func newCSV(w io.Writer, columns []scan.Key) *csvFormatter {
	return &csvFormatter{w: csv.NewWriter(w), columns: columns}
}

func (c *csvFormatter) header() error {
	if c.wroteHdr {
		return nil
	}
	c.wroteHdr = true
	return c.w.Write(headers(c.columns))
}

func (c *csvFormatter) Handle(rec scan.Record) error {
	if err := c.header(); err != nil {
		return err
	}
	if err := c.w.Write(cells(rec, c.columns, "")); err != nil {
		return err
	}
	// Rows go out as they arrive so long scans stream.
	c.w.Flush()
	return c.w.Error()
}

func (c *csvFormatter) Flush() error {
	if err := c.header(); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}
