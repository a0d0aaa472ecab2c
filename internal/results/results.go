// Package results tracks what each scanned source produced.
package results

import (
	"time"
)

type SourceResult struct {
	Location string
	Found    bool
	Records  int
	Stopped  bool
	Duration time.Duration
	Error    error
}

type SourceResultBuilder struct {
	location string
	found    bool
	records  int
	stopped  bool
	duration time.Duration
	err      error
}

func NewSourceResultBuilder(location string) *SourceResultBuilder {
	return &SourceResultBuilder{
		location: location,
	}
}

func (b *SourceResultBuilder) WithFound(found bool) *SourceResultBuilder {
	b.found = found
	return b
}

func (b *SourceResultBuilder) WithRecords(count int) *SourceResultBuilder {
	b.records = count
	return b
}

func (b *SourceResultBuilder) WithStopped(stopped bool) *SourceResultBuilder {
	b.stopped = stopped
	return b
}

func (b *SourceResultBuilder) WithDuration(duration time.Duration) *SourceResultBuilder {
	b.duration = duration
	return b
}

func (b *SourceResultBuilder) WithError(err error) *SourceResultBuilder {
	b.err = err
	return b
}

func (b *SourceResultBuilder) Build() SourceResult {
	return SourceResult{
		Location: b.location,
		Found:    b.found,
		Records:  b.records,
		Stopped:  b.stopped,
		Duration: b.duration,
		Error:    b.err,
	}
}

// Summary covers one pass over every source.
type Summary struct {
	Sources       []SourceResult
	Scanned       int
	Records       int
	Found         int
	NotFound      int
	Failed        int
	TotalDuration time.Duration
}

func NewSummary(expectedSources int) *Summary {
	return &Summary{
		Sources: make([]SourceResult, 0, expectedSources),
	}
}

func (s *Summary) Add(builder *SourceResultBuilder) {
	result := builder.Build()

	s.Sources = append(s.Sources, result)
	s.Scanned++
	s.Records += result.Records

	switch {
	case result.Error != nil:
		s.Failed++
	case result.Found:
		s.Found++
	default:
		s.NotFound++
	}
}

func (s *Summary) SetTotalDuration(duration time.Duration) {
	s.TotalDuration = duration
}

func (s *Summary) RecordsPerSecond() float64 {
	if s.TotalDuration == 0 {
		return 0
	}
	return float64(s.Records) / s.TotalDuration.Seconds()
}

// FirstError returns the first source failure, if any.
func (s *Summary) FirstError() error {
	for _, r := range s.Sources {
		if r.Error != nil {
			return r.Error
		}
	}
	return nil
}

// AggregatedStats folds the passes of a watch loop together.
type AggregatedStats struct {
	Passes        int
	CleanPasses   int
	TotalScanned  int
	TotalRecords  int
	TotalFailed   int
	TotalDuration time.Duration
}

func CalculateAggregatedStats(passes []*Summary) AggregatedStats {
	var stats AggregatedStats
	stats.Passes = len(passes)

	for _, p := range passes {
		stats.TotalScanned += p.Scanned
		stats.TotalRecords += p.Records
		stats.TotalFailed += p.Failed
		stats.TotalDuration += p.TotalDuration

		if p.Failed == 0 {
			stats.CleanPasses++
		}
	}

	return stats
}
