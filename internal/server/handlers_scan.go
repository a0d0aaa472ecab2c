package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jacoelho/jscan/internal/output"
	"github.com/jacoelho/jscan/internal/scan"
	"github.com/jacoelho/jscan/internal/sinks"
	"github.com/jacoelho/jscan/internal/source"
)

const ScanIDHeader = "X-Scan-ID"

type scanQuery struct {
	target string
	deep   bool
	format output.Format
	limit  int
	dedupe bool
}

func (s *Server) parseQuery(r *http.Request) (scanQuery, error) {
	q := scanQuery{target: s.opts.Target, format: s.opts.Format}
	values := r.URL.Query()

	if v := values.Get("target"); v != "" {
		q.target = v
	}
	if v := values.Get("deep"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return q, fmt.Errorf("invalid deep: %q", v)
		}
		q.deep = b
	}
	if v := values.Get("format"); v != "" {
		f, err := output.ParseFormat(v)
		if err != nil {
			return q, err
		}
		q.format = f
	}
	if v := values.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return q, fmt.Errorf("invalid limit: %q", v)
		}
		q.limit = n
	}
	if v := values.Get("dedupe"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return q, fmt.Errorf("invalid dedupe: %q", v)
		}
		q.dedupe = b
	}
	return q, nil
}

// lazyWriter commits the 200 response on the first write, so a scan that
// fails before producing output can still choose its status.
type lazyWriter struct {
	w           http.ResponseWriter
	rc          *http.ResponseController
	contentType string
	started     bool
}

func (l *lazyWriter) start() {
	if l.started {
		return
	}
	l.started = true
	l.w.Header().Set("Content-Type", l.contentType)
	l.w.WriteHeader(http.StatusOK)
}

func (l *lazyWriter) Write(p []byte) (int, error) {
	l.start()
	n, err := l.w.Write(p)
	if err != nil {
		return n, err
	}
	_ = l.rc.Flush()
	return n, nil
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	w.Header().Set(ScanIDHeader, id)
	log := s.log.With("scan_id", id)

	q, err := s.parseQuery(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, err := source.Decompress(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		jsonError(w, "unreadable body: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer body.Close()

	lw := &lazyWriter{w: w, rc: http.NewResponseController(w), contentType: q.format.ContentType()}
	formatter, err := output.New(q.format, lw, s.opts.Mapping.Keys())
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	scanner := scan.New(
		scan.WithTarget(q.target),
		scan.WithMapping(s.opts.Mapping),
		scan.WithDeepSearch(q.deep),
		scan.WithMaxDepth(s.opts.MaxDepth),
	)
	chain := sinks.Options{Limit: q.limit}
	if q.dedupe {
		chain.Deduper = sinks.NewDeduper()
	}
	handler := sinks.Chain(r.Context(), chain, formatter)

	start := time.Now()
	res, err := scanner.Scan(r.Context(), body, sinks.Sink(handler))
	log = log.With("target", q.target, "found", res.Found, "records", res.Records,
		"duration_ms", time.Since(start).Milliseconds())

	if err != nil {
		log.Warn("scan failed", "error", err)
		if lw.started {
			// Status is committed; the truncated body is all the client gets.
			return
		}
		jsonError(w, err.Error(), statusFor(err))
		return
	}
	if !res.Found {
		log.Info("array not found")
		jsonError(w, "array not found", http.StatusNotFound)
		return
	}

	if err := formatter.Flush(); err != nil {
		log.Warn("flush failed", "error", err)
		return
	}
	lw.start()
	log.Info("scan complete", "stopped", res.Stopped)
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, scan.ErrMalformed), errors.Is(err, scan.ErrTooDeep), errors.Is(err, scan.ErrUnexpectedValue):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
