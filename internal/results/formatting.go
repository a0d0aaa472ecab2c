package results

import (
	"fmt"
	"io"
	"strings"
)

const rule = "--------------------------------------------------------------------------------"

// WriteText prints one line per source followed by the totals.
func (s *Summary) WriteText(w io.Writer) error {
	for _, r := range s.Sources {
		status := "found"
		switch {
		case r.Error != nil:
			status = fmt.Sprintf("failed: %v", r.Error)
		case !r.Found:
			status = "not found"
		case r.Stopped:
			status = "found (stopped early)"
		}
		_, err := fmt.Fprintf(w, "%s: %s (%d record(s) in %d ms)\n",
			r.Location, status, r.Records, r.Duration.Milliseconds())
		if err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w, rule); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Scanned sources: %d\n", s.Scanned); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Records:         %d (%.2f/s)\n", s.Records, s.RecordsPerSecond()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Found:           %d\n", s.Found); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Not found:       %d\n", s.NotFound); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Failed:          %d\n", s.Failed); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Duration:        %d ms\n", s.TotalDuration.Milliseconds()); err != nil {
		return err
	}
	return nil
}

// WriteAggregated prints per-pass lines and the totals of a watch loop.
// A single pass prints like WriteText.
func WriteAggregated(w io.Writer, passes []*Summary) error {
	switch len(passes) {
	case 0:
		return nil
	case 1:
		return passes[0].WriteText(w)
	}

	banner := strings.Repeat("=", len(rule))
	if _, err := fmt.Fprintf(w, "%s\nPASSES:\n%s\n", banner, banner); err != nil {
		return err
	}
	for i, p := range passes {
		status := "OK"
		if p.Failed > 0 {
			status = "FAILED"
		}
		_, err := fmt.Fprintf(w, "Pass %d: %s (%d source(s), %d record(s), %d ms)\n",
			i+1, status, p.Scanned, p.Records, p.TotalDuration.Milliseconds())
		if err != nil {
			return err
		}
	}

	stats := CalculateAggregatedStats(passes)
	if _, err := fmt.Fprintf(w, "%s\nTOTAL:\n%s\n", banner, banner); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Passes:          %d (%d clean)\n", stats.Passes, stats.CleanPasses); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Scanned sources: %d\n", stats.TotalScanned); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Records:         %d\n", stats.TotalRecords); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Failed:          %d\n", stats.TotalFailed); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Duration:        %d ms\n", stats.TotalDuration.Milliseconds()); err != nil {
		return err
	}
	return nil
}
