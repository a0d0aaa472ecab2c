package output

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/jacoelho/jscan/internal/scan"
)

// ndjson writes one JSON object per record. Keys follow column order and
// absent keys are left out, so an empty record prints as {}.
type ndjson struct {
	w       io.Writer
	columns []scan.Key
	buf     bytes.Buffer
}

func newNDJSON(w io.Writer, columns []scan.Key) *ndjson {
	return &ndjson{w: w, columns: columns}
}

func (n *ndjson) Handle(rec scan.Record) error {
	n.buf.Reset()
	n.buf.WriteByte('{')
	first := true
	for _, c := range n.columns {
		v, ok := rec.Get(c)
		if !ok {
			continue
		}
		if !first {
			n.buf.WriteByte(',')
		}
		first = false
		if err := writeJSONString(&n.buf, string(c)); err != nil {
			return err
		}
		n.buf.WriteByte(':')
		if err := writeJSONString(&n.buf, v); err != nil {
			return err
		}
	}
	n.buf.WriteString("}\n")
	_, err := n.w.Write(n.buf.Bytes())
	return err
}

func (n *ndjson) Flush() error {
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
